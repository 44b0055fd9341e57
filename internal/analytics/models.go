package analytics

import "github.com/shopspring/decimal"

// Summary is the diagnostic report for one session. Field names and order
// are consumed by downstream reporting and must stay stable.
type Summary struct {
	SessionID           *string         `json:"session_id" jsonschema:"type=string"`
	Project             *string         `json:"project" jsonschema:"type=string"`
	DurationMinutes     float64         `json:"duration_minutes"`
	TotalTurns          int             `json:"total_turns"`
	TotalAssistantTurns int             `json:"total_assistant_turns"`
	TokenUsage          TokenTotals     `json:"token_usage"`
	EstimatedCostUSD    decimal.Decimal `json:"estimated_cost_usd" jsonschema:"type=string"`

	LinterLoops       []LinterLoop       `json:"linter_loops"`
	ToolFailures      []ToolFailure      `json:"tool_failures"`
	RepeatedSequences []RepeatedSequence `json:"repeated_sequences"`
	LargeReads        []LargeRead        `json:"large_reads"`
	PermissionEvents  []PermissionEvent  `json:"permission_events"`
	HookFailures      []HookFailure      `json:"hook_failures"`

	EditCount       int `json:"edit_count"`
	ToolCallCount   int `json:"tool_call_count"`
	AgentSpawnCount int `json:"agent_spawn_count"`
}

// TokenTotals sums the usage counters of every assistant message.
type TokenTotals struct {
	Input         int64 `json:"input"`
	Output        int64 `json:"output"`
	CacheRead     int64 `json:"cache_read"`
	CacheCreation int64 `json:"cache_creation"`
}

// LinterLoop is a lint issue type that kept coming back.
type LinterLoop struct {
	Linter       string   `json:"linter"`
	Smell        string   `json:"smell"`
	Iterations   int      `json:"iterations"`
	Files        []string `json:"files"`
	ErrorSamples []string `json:"error_samples"`
}

// ToolFailure is a tool retried with near-identical input after errors.
type ToolFailure struct {
	Tool         string  `json:"tool"`
	InputSummary string  `json:"input_summary"`
	RetryCount   int     `json:"retry_count"`
	ErrorCount   int     `json:"error_count"`
	ErrorSample  *string `json:"error_sample" jsonschema:"type=string"`
}

// RepeatedSequence is a tool-use workflow seen several times.
type RepeatedSequence struct {
	Sequence []string `json:"sequence"`
	Count    int      `json:"count"`
	Length   int      `json:"length"`
}

// LargeRead is a file read over and over.
type LargeRead struct {
	File      string `json:"file"`
	TimesRead int    `json:"times_read"`
}

// PermissionEvent counts permission prompts for one tool input pattern.
type PermissionEvent struct {
	Tool         string `json:"tool"`
	InputPattern string `json:"input_pattern"`
	Count        int    `json:"count"`
}

// HookFailure counts tool errors attributed to one hook.
type HookFailure struct {
	HookName     string   `json:"hook_name"`
	Count        int      `json:"count"`
	ErrorSamples []string `json:"error_samples"`
}

// HasFindings reports whether any detector produced output.
func (s *Summary) HasFindings() bool {
	return len(s.LinterLoops) > 0 ||
		len(s.ToolFailures) > 0 ||
		len(s.RepeatedSequences) > 0 ||
		len(s.LargeReads) > 0 ||
		len(s.PermissionEvents) > 0 ||
		len(s.HookFailures) > 0
}
