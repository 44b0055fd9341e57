package analytics

// ToolFailureResult contains tools that were retried after failing.
type ToolFailureResult struct {
	Failures []ToolFailure
}

// ToolFailureAnalyzer groups tool uses by fuzzy input signature and reports
// groups where several attempts ended in an error.
type ToolFailureAnalyzer struct {
	Options Options
}

type toolAttemptKey struct {
	tool      string
	signature string
}

type toolAttemptGroup struct {
	key        toolAttemptKey
	toolUseIDs []string
}

// Analyze processes the entry store and returns retried tool failures.
func (a *ToolFailureAnalyzer) Analyze(store *EntryStore) (*ToolFailureResult, error) {
	opts := a.Options.withDefaults()

	var groups []*toolAttemptGroup
	byKey := make(map[toolAttemptKey]*toolAttemptGroup)
	for _, ref := range store.ToolUses() {
		key := toolAttemptKey{tool: ref.Block.Name, signature: InputSignature(ref.Block.Input)}
		group, ok := byKey[key]
		if !ok {
			group = &toolAttemptGroup{key: key}
			byKey[key] = group
			groups = append(groups, group)
		}
		group.toolUseIDs = append(group.toolUseIDs, ref.Block.ID)
	}

	errorsByID := make(map[string]string)
	for _, ref := range store.ToolResults() {
		if !ref.Block.IsError || ref.Block.ToolUseID == "" {
			continue
		}
		errorsByID[ref.Block.ToolUseID] = truncateRunes(ref.Block.Text, opts.ToolErrorLength)
	}

	result := &ToolFailureResult{Failures: []ToolFailure{}}
	for _, group := range groups {
		if len(group.toolUseIDs) < opts.ToolFailureMinRetries {
			continue
		}

		errorCount := 0
		var sample *string
		for _, id := range group.toolUseIDs {
			text, failed := errorsByID[id]
			if !failed {
				continue
			}
			errorCount++
			if sample == nil {
				s := text
				sample = &s
			}
		}
		if errorCount < opts.ToolFailureMinErrors {
			continue
		}

		result.Failures = append(result.Failures, ToolFailure{
			Tool:         group.key.tool,
			InputSummary: group.key.signature,
			RetryCount:   len(group.toolUseIDs),
			ErrorCount:   errorCount,
			ErrorSample:  sample,
		})
	}

	return result, nil
}
