package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Line types recognized by the analyzers. Anything else is kept in the store
// but ignored.
const (
	LineTypeUser      = "user"
	LineTypeAssistant = "assistant"
	LineTypeProgress  = "progress"
)

// Content block types.
const (
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// HookProgressType is the data.type of progress lines emitted by hooks.
const HookProgressType = "hook_progress"

// TranscriptLine represents a single line from an agent transcript.
// Fields that do not apply to the line's type are left at their zero value.
type TranscriptLine struct {
	Type      string    `json:"type"`                // "user", "assistant", "progress", etc.
	UUID      string    `json:"uuid,omitempty"`      // Unique message identifier
	Timestamp Timestamp `json:"timestamp,omitempty"` // ISO 8601 string or epoch milliseconds

	// For user messages
	SessionID      string          `json:"sessionId,omitempty"`
	Cwd            string          `json:"cwd,omitempty"`
	PermissionMode json.RawMessage `json:"permissionMode,omitempty"`

	// For user and assistant messages
	Message *MessageContent `json:"message,omitempty"`

	// For progress messages
	ToolUseID string        `json:"toolUseID,omitempty"`
	Data      *ProgressData `json:"data,omitempty"`

	blocks []ContentBlock
}

// MessageContent contains message details for user/assistant messages.
type MessageContent struct {
	Role    string      `json:"role,omitempty"`    // "user" or "assistant"
	Model   string      `json:"model,omitempty"`   // Model ID (assistant only)
	Usage   *TokenUsage `json:"usage,omitempty"`   // Token usage (assistant only)
	Content interface{} `json:"content,omitempty"` // String or []ContentBlock
}

// UnmarshalJSON keeps whatever fields decode cleanly. A message that is not
// an object decodes to the zero value.
func (m *MessageContent) UnmarshalJSON(data []byte) error {
	type plain MessageContent
	if !isJSONObject(data) {
		return nil
	}
	var raw plain
	_ = json.Unmarshal(data, &raw)
	*m = MessageContent(raw)
	return nil
}

// ProgressData is the payload of a progress line.
type ProgressData struct {
	Type     string `json:"type,omitempty"`     // e.g. "hook_progress"
	HookName string `json:"hookName,omitempty"` // Hook that produced the progress event
}

// UnmarshalJSON tolerates non-object payloads.
func (d *ProgressData) UnmarshalJSON(data []byte) error {
	type plain ProgressData
	if !isJSONObject(data) {
		return nil
	}
	var raw plain
	_ = json.Unmarshal(data, &raw)
	*d = ProgressData(raw)
	return nil
}

// TokenUsage contains token counts from the API response.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// UnmarshalJSON reads the four counters. Missing or non-numeric counters are
// zero; numeric strings are accepted and fractions truncated.
func (u *TokenUsage) UnmarshalJSON(data []byte) error {
	*u = TokenUsage{}
	if !isJSONObject(data) {
		return nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	u.InputTokens = toInt64(fields["input_tokens"])
	u.OutputTokens = toInt64(fields["output_tokens"])
	u.CacheCreationInputTokens = toInt64(fields["cache_creation_input_tokens"])
	u.CacheReadInputTokens = toInt64(fields["cache_read_input_tokens"])
	return nil
}

// Timestamp is a line timestamp normalized from either an ISO 8601 string or
// an epoch-milliseconds number. Valid is false when the field was absent or
// could not be interpreted.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON never fails; an unusable value leaves the timestamp invalid.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		if parsed, err := ParseTimestamp(val); err == nil {
			*t = Timestamp{Time: parsed, Valid: true}
		}
	case float64:
		*t = Timestamp{Time: epochMillis(val), Valid: true}
	}
	return nil
}

// MarshalJSON writes the timestamp back as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// ParseTimestamp parses an ISO 8601 timestamp string.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func epochMillis(ms float64) time.Time {
	sec, frac := math.Modf(ms / 1000)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

// ContentBlock represents a content block in a message.
type ContentBlock struct {
	Type      string                 // "text", "tool_use", "tool_result", etc.
	Name      string                 // Tool name (for tool_use)
	ID        string                 // Tool use ID (for tool_use)
	Input     map[string]interface{} // Tool input parameters (for tool_use)
	ToolUseID string                 // Reference to tool_use ID (for tool_result)
	IsError   bool                   // For tool_result blocks
	Text      string                 // Flattened result content (for tool_result)
}

// ErrNotObject is returned when a line is valid JSON but not an object.
var ErrNotObject = errors.New("line is not a JSON object")

// ParseLine parses a single JSONL line. It fails only when the line is not a
// JSON object; fields of the wrong type are left at their zero value.
func ParseLine(data []byte) (*TranscriptLine, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	if !isJSONObject(data) {
		return nil, ErrNotObject
	}

	var line TranscriptLine
	if err := json.Unmarshal(data, &line); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, err
		}
	}
	line.blocks = parseContentBlocks(line.Message)
	return &line, nil
}

// IsUserMessage returns true if this is a user line.
func (l *TranscriptLine) IsUserMessage() bool {
	return l.Type == LineTypeUser
}

// IsAssistantMessage returns true if this is an assistant line.
func (l *TranscriptLine) IsAssistantMessage() bool {
	return l.Type == LineTypeAssistant
}

// IsHookProgress returns true for progress lines emitted by a hook.
func (l *TranscriptLine) IsHookProgress() bool {
	return l.Type == LineTypeProgress && l.Data != nil && l.Data.Type == HookProgressType
}

// HasUserRole returns true if the message role is "user".
func (l *TranscriptLine) HasUserRole() bool {
	return l.Message != nil && l.Message.Role == "user"
}

// HasPermissionMode returns true if the line carries a non-null permissionMode.
func (l *TranscriptLine) HasPermissionMode() bool {
	return isTruthyRaw(l.PermissionMode)
}

// IsHumanMessage returns true if this is a user message with human-typed content (not tool_result).
// This distinguishes actual user input from tool result messages which are also type "user".
func (l *TranscriptLine) IsHumanMessage() bool {
	if !l.IsUserMessage() || !l.HasUserRole() {
		return false
	}
	_, isString := l.Message.Content.(string)
	return isString
}

// GetModel returns the model ID for assistant messages.
func (l *TranscriptLine) GetModel() string {
	if l.Message == nil {
		return ""
	}
	return l.Message.Model
}

// GetUsage returns the usage record, or nil when absent.
func (l *TranscriptLine) GetUsage() *TokenUsage {
	if l.Message == nil {
		return nil
	}
	return l.Message.Usage
}

// GetContentBlocks returns the content blocks parsed when the line was read.
// Returns nil if content is not an array of blocks.
func (l *TranscriptLine) GetContentBlocks() []ContentBlock {
	return l.blocks
}

// GetToolUses returns tool_use blocks from the message content.
func (l *TranscriptLine) GetToolUses() []ContentBlock {
	var tools []ContentBlock
	for _, b := range l.blocks {
		if b.Type == BlockTypeToolUse {
			tools = append(tools, b)
		}
	}
	return tools
}

// GetToolResults returns tool_result blocks from the message content.
func (l *TranscriptLine) GetToolResults() []ContentBlock {
	var results []ContentBlock
	for _, b := range l.blocks {
		if b.Type == BlockTypeToolResult {
			results = append(results, b)
		}
	}
	return results
}

func parseContentBlocks(msg *MessageContent) []ContentBlock {
	if msg == nil || msg.Content == nil {
		return nil
	}

	// Content can be a string or array of blocks
	contentArray, ok := msg.Content.([]interface{})
	if !ok {
		return nil
	}

	var blocks []ContentBlock
	for _, item := range contentArray {
		blockMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		block := ContentBlock{}
		if t, ok := blockMap["type"].(string); ok {
			block.Type = t
		}
		if n, ok := blockMap["name"].(string); ok {
			block.Name = n
		}
		if id, ok := blockMap["id"].(string); ok {
			block.ID = id
		}
		if input, ok := blockMap["input"].(map[string]interface{}); ok {
			block.Input = input
		}
		if toolUseID, ok := blockMap["tool_use_id"].(string); ok {
			block.ToolUseID = toolUseID
		}
		block.IsError = isTruthy(blockMap["is_error"])
		if block.Type == BlockTypeToolResult {
			block.Text = flattenResultContent(blockMap["content"])
		}
		blocks = append(blocks, block)
	}

	return blocks
}

// flattenResultContent turns tool_result content into plain text. Arrays of
// text blocks are joined by newlines; other values are re-encoded as JSON.
func flattenResultContent(content interface{}) string {
	switch c := content.(type) {
	case nil:
		return ""
	case string:
		return c
	case []interface{}:
		var parts []string
		for _, item := range c {
			switch v := item.(type) {
			case string:
				parts = append(parts, v)
			case map[string]interface{}:
				if text, ok := v["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func isJSONObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func isTruthyRaw(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s != "" && s != "null" && s != "false"
}

func isTruthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return true
	}
}

// toInt64 converts a decoded JSON value into a counter. Non-numeric values
// are zero.
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// stringValue renders a tool input value the way it is shown in signatures.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
