package analytics

import (
	"path/filepath"
	"sort"
	"strings"
)

// queryPrefixLen is how much of a search query goes into a signature.
const queryPrefixLen = 50

// InputSignature returns a fuzzy signature for a tool input so that
// near-identical invocations group together.
func InputSignature(input map[string]interface{}) string {
	if input == nil {
		return ""
	}
	if v, ok := present(input, "command"); ok {
		return "cmd:" + firstFields(stringValue(v), 3)
	}
	if v, ok := present(input, "file_path"); ok {
		return "file:" + stringValue(v)
	}
	if v, ok := present(input, "pattern"); ok {
		return "pattern:" + stringValue(v)
	}
	if v, ok := present(input, "query"); ok {
		return "query:" + truncateRunes(stringValue(v), queryPrefixLen)
	}

	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// SequenceLabel names a tool use for workflow detection. Shell commands keep
// their first two words; file tools keep the file extension.
func SequenceLabel(block ContentBlock) string {
	switch block.Name {
	case "Bash":
		cmd := ""
		if v, ok := present(block.Input, "command"); ok {
			cmd = stringValue(v)
		}
		return "Bash(" + firstFields(cmd, 2) + ")"
	case "Edit", "Write", "Read":
		path := ""
		if v, ok := present(block.Input, "file_path"); ok {
			path = stringValue(v)
		}
		return block.Name + "(" + fileExtension(path) + ")"
	default:
		return block.Name
	}
}

// labelFamily is the label text before any parenthesis.
func labelFamily(label string) string {
	family, _, _ := strings.Cut(label, "(")
	return family
}

// present reports whether key holds a non-null, non-false value.
func present(input map[string]interface{}, key string) (interface{}, bool) {
	v, ok := input[key]
	if !ok || !isTruthy(v) {
		return nil, false
	}
	return v, true
}

func firstFields(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// fileExtension returns the extension of the base name, treating dotfiles
// such as ".bashrc" as having none.
func fileExtension(path string) string {
	base := strings.TrimLeft(filepath.Base(path), ".")
	if base == "" {
		return ""
	}
	return filepath.Ext(base)
}

// truncateRunes shortens s to at most n characters.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
