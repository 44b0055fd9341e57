package analytics

import "testing"

func TestHookFailureAnalyzer(t *testing.T) {
	store := mustStore(
		makeToolCall("a1", "t1", "Bash", bashInput("rm -rf /tmp/x")),
		makeHookProgress("p1", "2025-01-01T00:00:01Z", "t1", "PreToolUse:Bash"),
		// Later progress for the same tool use does not replace the first.
		makeHookProgress("p1b", "2025-01-01T00:00:01Z", "t1", "PostToolUse:Bash"),
		makeUserMessageWithToolResults("u1", "2025-01-01T00:00:02Z", makeToolResult("t1", "blocked by policy", true)),

		makeToolCall("a2", "t2", "Bash", bashInput("rm -rf /tmp/y")),
		makeHookProgress("p2", "2025-01-01T00:00:03Z", "t2", "PreToolUse:Bash"),
		makeUserMessageWithToolResults("u2", "2025-01-01T00:00:04Z", makeToolResult("t2", "blocked again", true)),

		makeToolCall("a3", "t3", "Bash", bashInput("rm -rf /tmp/z")),
		makeHookProgress("p3", "2025-01-01T00:00:05Z", "t3", "PreToolUse:Bash"),
		makeUserMessageWithToolResults("u3", "2025-01-01T00:00:06Z", makeToolResult("t3", "fine", false)),

		makeToolCall("a4", "t4", "Edit", fileInput("a.go")),
		makeHookProgress("p4", "2025-01-01T00:00:07Z", "t4", ""),
		makeUserMessageWithToolResults("u4", "2025-01-01T00:00:08Z", makeToolResult("t4", "hook exited 2", true)),

		// Failure with no hook involved.
		makeToolCall("a5", "t5", "Bash", bashInput("false")),
		makeUserMessageWithToolResults("u5", "2025-01-01T00:00:09Z", makeToolResult("t5", "exit 1", true)),
	)

	result, err := (&HookFailureAnalyzer{}).Analyze(store)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want 1 entry", result.Failures)
	}

	f := result.Failures[0]
	if f.HookName != "PreToolUse:Bash" || f.Count != 2 {
		t.Errorf("failure = %+v, want PreToolUse:Bash x2", f)
	}
	if len(f.ErrorSamples) != 2 || f.ErrorSamples[0] != "blocked by policy" || f.ErrorSamples[1] != "blocked again" {
		t.Errorf("ErrorSamples = %v", f.ErrorSamples)
	}
}

func TestHookFailureAnalyzer_UnnamedHook(t *testing.T) {
	store := mustStore(
		makeHookProgress("p1", "2025-01-01T00:00:00Z", "t1", ""),
		makeUserMessageWithToolResults("u1", "2025-01-01T00:00:01Z", makeToolResult("t1", "denied", true)),
		makeHookProgress("p2", "2025-01-01T00:00:02Z", "t2", ""),
		makeUserMessageWithToolResults("u2", "2025-01-01T00:00:03Z", makeToolResult("t2", "denied", true)),
		makeHookProgress("p3", "2025-01-01T00:00:04Z", "t3", ""),
		makeUserMessageWithToolResults("u3", "2025-01-01T00:00:05Z", makeToolResult("t3", "denied", true)),
	)

	result, _ := (&HookFailureAnalyzer{}).Analyze(store)
	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want 1 entry", result.Failures)
	}
	if result.Failures[0].HookName != "unknown" || result.Failures[0].Count != 3 {
		t.Errorf("failure = %+v, want unknown x3", result.Failures[0])
	}
	if len(result.Failures[0].ErrorSamples) != 2 {
		t.Errorf("ErrorSamples kept %d, want 2", len(result.Failures[0].ErrorSamples))
	}
}
