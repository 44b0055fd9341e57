package analytics

import (
	"encoding/json"
	"strings"
)

// makeBaseFields returns the common fields needed for all message types.
func makeBaseFields(uuid, timestamp string) map[string]interface{} {
	return map[string]interface{}{
		"uuid":        uuid,
		"timestamp":   timestamp,
		"parentUuid":  nil,
		"isSidechain": false,
		"userType":    "external",
		"cwd":         "/test",
		"sessionId":   "test-session",
		"version":     "1.0.0",
	}
}

func mustJSON(m map[string]interface{}) string {
	b, _ := json.Marshal(m)
	return string(b)
}

// makeUserMessage creates a human turn.
func makeUserMessage(uuid, timestamp, content string) string {
	m := makeBaseFields(uuid, timestamp)
	m["type"] = "user"
	m["message"] = map[string]interface{}{
		"role":    "user",
		"content": content,
	}
	return mustJSON(m)
}

// makeUserMessageWithToolResults creates a user line carrying tool results.
func makeUserMessageWithToolResults(uuid, timestamp string, toolResults ...map[string]interface{}) string {
	m := makeBaseFields(uuid, timestamp)
	m["type"] = "user"
	m["message"] = map[string]interface{}{
		"role":    "user",
		"content": toolResults,
	}
	return mustJSON(m)
}

// makePermissionResults creates a user line answered through a permission prompt.
func makePermissionResults(uuid, timestamp, mode string, toolResults ...map[string]interface{}) string {
	m := makeBaseFields(uuid, timestamp)
	m["type"] = "user"
	m["permissionMode"] = mode
	m["message"] = map[string]interface{}{
		"role":    "user",
		"content": toolResults,
	}
	return mustJSON(m)
}

// makeToolResult creates a tool_result content block.
func makeToolResult(toolUseID, content string, isError bool) map[string]interface{} {
	return map[string]interface{}{
		"type":        "tool_result",
		"tool_use_id": toolUseID,
		"content":     content,
		"is_error":    isError,
	}
}

// makeToolUse creates a tool_use content block.
func makeToolUse(id, name string, input map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":  "tool_use",
		"id":    id,
		"name":  name,
		"input": input,
	}
}

// makeAssistantMessage creates an assistant line with usage and content blocks.
func makeAssistantMessage(uuid, timestamp, model string, inputTokens, outputTokens int64, content ...map[string]interface{}) string {
	m := makeBaseFields(uuid, timestamp)
	m["type"] = "assistant"
	if content == nil {
		content = []map[string]interface{}{}
	}
	m["message"] = map[string]interface{}{
		"model":       model,
		"id":          "msg-" + uuid,
		"type":        "message",
		"role":        "assistant",
		"content":     content,
		"stop_reason": "tool_use",
		"usage": map[string]interface{}{
			"input_tokens":  float64(inputTokens),
			"output_tokens": float64(outputTokens),
		},
	}
	return mustJSON(m)
}

// makeToolCall creates an assistant line with a single tool_use block.
func makeToolCall(uuid, id, name string, input map[string]interface{}) string {
	return makeAssistantMessage(uuid, "2025-01-01T00:00:00Z", "claude-sonnet-4-20250514", 10, 5,
		makeToolUse(id, name, input))
}

// makeHookProgress creates a hook_progress line for a tool use.
func makeHookProgress(uuid, timestamp, toolUseID, hookName string) string {
	m := makeBaseFields(uuid, timestamp)
	m["type"] = "progress"
	m["toolUseID"] = toolUseID
	data := map[string]interface{}{"type": "hook_progress"}
	if hookName != "" {
		data["hookName"] = hookName
	}
	m["data"] = data
	return mustJSON(m)
}

// jsonl joins lines into transcript content.
func jsonl(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// mustStore builds an EntryStore or panics.
func mustStore(lines ...string) *EntryStore {
	store, err := NewEntryStore([]byte(jsonl(lines...)))
	if err != nil {
		panic(err)
	}
	return store
}

func bashInput(command string) map[string]interface{} {
	return map[string]interface{}{"command": command}
}

func fileInput(path string) map[string]interface{} {
	return map[string]interface{}{"file_path": path}
}
