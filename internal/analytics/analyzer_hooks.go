package analytics

// unknownHook labels failures whose progress event names no hook.
const unknownHook = "unknown"

// HookFailureResult contains hooks that repeatedly failed tool calls.
type HookFailureResult struct {
	Failures []HookFailure
}

// HookFailureAnalyzer attributes failing tool results to the hook whose
// progress event shares their tool_use ID.
type HookFailureAnalyzer struct {
	Options Options
}

type hookAccumulator struct {
	name    string
	count   int
	samples []string
}

// Analyze processes the entry store and returns hook failures.
func (a *HookFailureAnalyzer) Analyze(store *EntryStore) (*HookFailureResult, error) {
	opts := a.Options.withDefaults()
	progressByToolUse := buildHookProgressIndex(store)

	var order []*hookAccumulator
	byName := make(map[string]*hookAccumulator)
	for _, ref := range store.ToolResults() {
		if !ref.Block.IsError {
			continue
		}
		progress, ok := progressByToolUse[ref.Block.ToolUseID]
		if !ok {
			continue
		}

		name := progress.Data.HookName
		if name == "" {
			name = unknownHook
		}
		acc, ok := byName[name]
		if !ok {
			acc = &hookAccumulator{name: name}
			byName[name] = acc
			order = append(order, acc)
		}
		acc.count++
		if len(acc.samples) < opts.MaxSamples {
			acc.samples = append(acc.samples, truncateRunes(ref.Block.Text, opts.SampleLength))
		}
	}

	result := &HookFailureResult{Failures: []HookFailure{}}
	for _, acc := range order {
		if acc.count < opts.HookMinFailures {
			continue
		}
		result.Failures = append(result.Failures, HookFailure{
			HookName:     acc.name,
			Count:        acc.count,
			ErrorSamples: acc.samples,
		})
	}
	return result, nil
}

// buildHookProgressIndex maps each tool_use ID to the first hook progress
// line that references it.
func buildHookProgressIndex(store *EntryStore) map[string]*TranscriptLine {
	index := make(map[string]*TranscriptLine)
	for _, line := range store.Lines {
		if !line.IsHookProgress() || line.ToolUseID == "" {
			continue
		}
		if _, exists := index[line.ToolUseID]; !exists {
			index[line.ToolUseID] = line
		}
	}
	return index
}
