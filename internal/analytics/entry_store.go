package analytics

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/santaclaude2025/session-improver/pkg/config"
	"github.com/santaclaude2025/session-improver/pkg/logger"
)

// ToolUseRef is a tool_use block together with the line that carried it.
type ToolUseRef struct {
	Line  *TranscriptLine
	Block ContentBlock
}

// ToolResultRef is a tool_result block together with the line that carried it.
type ToolResultRef struct {
	Line  *TranscriptLine
	Block ContentBlock
}

// EntryStore is the parsed transcript of one session, in file order.
// It is built once and is read-only afterwards, so analyzers may share it
// across goroutines.
type EntryStore struct {
	Lines        []*TranscriptLine
	TotalLines   int // Non-blank lines read, including ones that failed to parse
	SkippedLines int // Lines dropped because they were not JSON objects

	toolUses    []ToolUseRef
	toolResults []ToolResultRef
}

// NewEntryStore builds an EntryStore from raw JSONL content.
func NewEntryStore(content []byte) (*EntryStore, error) {
	return NewEntryStoreFromReader(bytes.NewReader(content))
}

// NewEntryStoreFromReader reads JSONL from r until EOF. Lines that fail to
// decode are dropped, and so are lines longer than config.MaxJSONLLineSize
// even when they are valid JSON; both count toward SkippedLines. Only a read
// error from r aborts.
func NewEntryStoreFromReader(r io.Reader) (*EntryStore, error) {
	store := &EntryStore{}
	reader := bufio.NewReaderSize(r, 64*1024)
	lineNumber := 0

	for {
		lineData, readErr := reader.ReadBytes('\n')
		if len(lineData) > 0 {
			lineNumber++
			store.addLine(lineNumber, lineData)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read transcript: %w", readErr)
		}
	}

	store.index()
	return store, nil
}

func (s *EntryStore) addLine(lineNumber int, lineData []byte) {
	if len(bytes.TrimSpace(lineData)) == 0 {
		return
	}
	s.TotalLines++

	if len(lineData) > config.MaxJSONLLineSize {
		s.SkippedLines++
		logger.Debug("Skipping oversized line %d (%d bytes)", lineNumber, len(lineData))
		return
	}

	line, err := ParseLine(lineData)
	if err != nil {
		s.SkippedLines++
		logger.Debug("Skipping line %d: %v", lineNumber, err)
		return
	}
	s.Lines = append(s.Lines, line)
}

// index collects tool uses from assistant lines and tool results from user
// lines, preserving file order.
func (s *EntryStore) index() {
	for _, line := range s.Lines {
		switch {
		case line.IsAssistantMessage():
			for _, block := range line.GetToolUses() {
				s.toolUses = append(s.toolUses, ToolUseRef{Line: line, Block: block})
			}
		case line.IsUserMessage():
			for _, block := range line.GetToolResults() {
				s.toolResults = append(s.toolResults, ToolResultRef{Line: line, Block: block})
			}
		}
	}
}

// ToolUses returns every tool_use block from assistant lines in file order.
func (s *EntryStore) ToolUses() []ToolUseRef {
	return s.toolUses
}

// ToolResults returns every tool_result block from user lines in file order.
func (s *EntryStore) ToolResults() []ToolResultRef {
	return s.toolResults
}

// LineCount returns the number of parsed lines.
// Used for cache invalidation.
func (s *EntryStore) LineCount() int64 {
	return int64(len(s.Lines))
}

// BuildToolUseIndex maps each tool_use ID to its block. Later uses of the
// same ID replace earlier ones.
func (s *EntryStore) BuildToolUseIndex() map[string]ContentBlock {
	index := make(map[string]ContentBlock, len(s.toolUses))
	for _, ref := range s.toolUses {
		if ref.Block.ID == "" {
			continue
		}
		index[ref.Block.ID] = ref.Block
	}
	return index
}
