package analytics

import (
	"strings"
	"testing"
)

func TestToolFailureAnalyzer(t *testing.T) {
	store := mustStore(
		makeToolCall("a1", "t1", "Bash", bashInput("npm run test -- --watch=false")),
		makeUserMessageWithToolResults("u1", "2025-01-01T00:00:01Z", makeToolResult("t1", "3 failing", true)),
		makeToolCall("a2", "t2", "Bash", bashInput("npm run test")),
		makeUserMessageWithToolResults("u2", "2025-01-01T00:00:02Z", makeToolResult("t2", "1 failing", true)),
		makeToolCall("a3", "t3", "Bash", bashInput("npm run test")),
		makeUserMessageWithToolResults("u3", "2025-01-01T00:00:03Z", makeToolResult("t3", "all passing", false)),
	)

	result, err := (&ToolFailureAnalyzer{}).Analyze(store)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want 1 entry", result.Failures)
	}

	f := result.Failures[0]
	if f.Tool != "Bash" || f.InputSummary != "cmd:npm run test" {
		t.Errorf("failure = %s %q, want Bash \"cmd:npm run test\"", f.Tool, f.InputSummary)
	}
	if f.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", f.RetryCount)
	}
	if f.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", f.ErrorCount)
	}
	if f.ErrorSample == nil || *f.ErrorSample != "3 failing" {
		t.Errorf("ErrorSample = %v, want first error", f.ErrorSample)
	}
}

func TestToolFailureAnalyzer_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		errors   int
		want     int
	}{
		{"three attempts one error", 3, 1, 0},
		{"two attempts two errors", 2, 2, 0},
		{"four attempts two errors", 4, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			for i := 0; i < tt.attempts; i++ {
				id := "t" + string(rune('a'+i))
				lines = append(lines, makeToolCall("a"+id, id, "Read", fileInput("/repo/missing.go")))
				lines = append(lines, makeUserMessageWithToolResults("u"+id, "2025-01-01T00:00:00Z",
					makeToolResult(id, "File does not exist.", i < tt.errors)))
			}
			result, _ := (&ToolFailureAnalyzer{}).Analyze(mustStore(lines...))
			if len(result.Failures) != tt.want {
				t.Errorf("Failures = %+v, want %d", result.Failures, tt.want)
			}
		})
	}
}

func TestToolFailureAnalyzer_TruncatesSample(t *testing.T) {
	long := strings.Repeat("e", 500)
	var lines []string
	for _, id := range []string{"t1", "t2", "t3"} {
		lines = append(lines, makeToolCall("a"+id, id, "Grep", map[string]interface{}{"pattern": "TODO"}))
		lines = append(lines, makeUserMessageWithToolResults("u"+id, "2025-01-01T00:00:00Z", makeToolResult(id, long, true)))
	}

	result, _ := (&ToolFailureAnalyzer{}).Analyze(mustStore(lines...))
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want 1 entry", result.Failures)
	}
	if got := len(*result.Failures[0].ErrorSample); got != 300 {
		t.Errorf("ErrorSample length = %d, want 300", got)
	}
	if result.Failures[0].InputSummary != "pattern:TODO" {
		t.Errorf("InputSummary = %q, want pattern:TODO", result.Failures[0].InputSummary)
	}
}
