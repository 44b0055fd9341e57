package analytics

import "testing"

func TestPermissionAnalyzer(t *testing.T) {
	store := mustStore(
		makeToolCall("a1", "t1", "Bash", bashInput("git push origin main")),
		makePermissionResults("u1", "2025-01-01T00:00:01Z", "default", makeToolResult("t1", "ok", false)),
		makeToolCall("a2", "t2", "Bash", bashInput("git push origin feature --force")),
		makePermissionResults("u2", "2025-01-01T00:00:02Z", "default", makeToolResult("t2", "rejected", true)),
		// A repeated answer for the same tool call counts once.
		makePermissionResults("u3", "2025-01-01T00:00:03Z", "acceptEdits", makeToolResult("t2", "rejected", true)),
		makeToolCall("a3", "t3", "Write", fileInput("/repo/main.go")),
		makePermissionResults("u4", "2025-01-01T00:00:04Z", "acceptEdits", makeToolResult("t3", "ok", false)),
		// No permission prompt.
		makeToolCall("a4", "t4", "Bash", bashInput("git push origin main")),
		makeUserMessageWithToolResults("u5", "2025-01-01T00:00:05Z", makeToolResult("t4", "ok", false)),
		// Answer for a tool call that is not in the transcript.
		makePermissionResults("u6", "2025-01-01T00:00:06Z", "default", makeToolResult("t-missing", "ok", false)),
	)

	result, err := (&PermissionAnalyzer{}).Analyze(store)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Events) != 2 {
		t.Fatalf("Events = %+v, want 2 entries", result.Events)
	}

	bash := result.Events[0]
	if bash.Tool != "Bash" || bash.InputPattern != "cmd:git push origin" || bash.Count != 2 {
		t.Errorf("Events[0] = %+v, want Bash cmd:git push origin x2", bash)
	}
	write := result.Events[1]
	if write.Tool != "Write" || write.InputPattern != "file:/repo/main.go" || write.Count != 1 {
		t.Errorf("Events[1] = %+v, want Write file:/repo/main.go x1", write)
	}
}

func TestPermissionAnalyzer_NoPrompts(t *testing.T) {
	store := mustStore(
		makeToolCall("a1", "t1", "Bash", bashInput("ls")),
		makeUserMessageWithToolResults("u1", "2025-01-01T00:00:01Z", makeToolResult("t1", "ok", false)),
	)

	result, _ := (&PermissionAnalyzer{}).Analyze(store)
	if result.Events == nil || len(result.Events) != 0 {
		t.Errorf("Events = %#v, want empty slice", result.Events)
	}
}
