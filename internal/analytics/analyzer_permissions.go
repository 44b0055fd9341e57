package analytics

// PermissionResult contains permission prompts grouped by tool input pattern.
type PermissionResult struct {
	Events []PermissionEvent
}

// PermissionAnalyzer counts tool calls that went through a permission prompt.
// A user line carrying permissionMode answers the tool calls its tool_result
// blocks reference.
type PermissionAnalyzer struct{}

type permissionKey struct {
	tool    string
	pattern string
}

// Analyze processes the entry store and returns permission events.
func (a *PermissionAnalyzer) Analyze(store *EntryStore) (*PermissionResult, error) {
	// Distinct prompted tool_use IDs, in first-seen order.
	var promptedIDs []string
	prompted := make(map[string]bool)
	for _, ref := range store.ToolResults() {
		if !ref.Line.HasPermissionMode() {
			continue
		}
		id := ref.Block.ToolUseID
		if !prompted[id] {
			prompted[id] = true
			promptedIDs = append(promptedIDs, id)
		}
	}

	toolUses := store.BuildToolUseIndex()

	var order []permissionKey
	counts := make(map[permissionKey]int)
	for _, id := range promptedIDs {
		block, ok := toolUses[id]
		if !ok {
			continue
		}
		key := permissionKey{tool: block.Name, pattern: InputSignature(block.Input)}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	result := &PermissionResult{Events: []PermissionEvent{}}
	for _, key := range order {
		result.Events = append(result.Events, PermissionEvent{
			Tool:         key.tool,
			InputPattern: key.pattern,
			Count:        counts[key],
		})
	}
	return result, nil
}
