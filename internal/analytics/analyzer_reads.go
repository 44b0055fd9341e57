package analytics

import "sort"

// LargeReadResult contains files that were read repeatedly.
type LargeReadResult struct {
	Reads []LargeRead
}

// LargeReadAnalyzer counts Read tool calls per file path.
type LargeReadAnalyzer struct {
	Options Options
}

// Analyze processes the entry store and returns repeatedly read files.
func (a *LargeReadAnalyzer) Analyze(store *EntryStore) (*LargeReadResult, error) {
	opts := a.Options.withDefaults()

	counts := make(map[string]int)
	for _, ref := range store.ToolUses() {
		if ref.Block.Name != "Read" {
			continue
		}
		path, ok := present(ref.Block.Input, "file_path")
		if !ok {
			continue
		}
		counts[stringValue(path)]++
	}

	result := &LargeReadResult{Reads: []LargeRead{}}
	for file, count := range counts {
		if count < opts.LargeReadMinCount {
			continue
		}
		result.Reads = append(result.Reads, LargeRead{File: file, TimesRead: count})
	}

	sort.Slice(result.Reads, func(i, j int) bool {
		if result.Reads[i].TimesRead != result.Reads[j].TimesRead {
			return result.Reads[i].TimesRead > result.Reads[j].TimesRead
		}
		return result.Reads[i].File < result.Reads[j].File
	})

	return result, nil
}
