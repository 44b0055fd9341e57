package analytics

// OperationsResult contains tool call counters.
type OperationsResult struct {
	ToolCalls   int
	Edits       int
	AgentSpawns int
}

// OperationsAnalyzer counts tool calls, file edits and subagent launches.
type OperationsAnalyzer struct{}

// Analyze processes the entry store and returns operation counts.
func (a *OperationsAnalyzer) Analyze(store *EntryStore) (*OperationsResult, error) {
	result := &OperationsResult{}
	for _, ref := range store.ToolUses() {
		result.ToolCalls++
		switch ref.Block.Name {
		case "Edit", "Write":
			result.Edits++
		case "Agent", "Task":
			result.AgentSpawns++
		}
	}
	return result, nil
}
