package analytics

import (
	"sort"
	"strings"
)

// sequenceKeySep joins window labels into a map key.
const sequenceKeySep = "\x1f"

// RepeatedSequenceResult contains tool-use workflows that kept repeating.
type RepeatedSequenceResult struct {
	Sequences []RepeatedSequence
}

// RepeatedSequenceAnalyzer slides fixed-size windows over the ordered tool-use
// labels and reports windows that recur.
type RepeatedSequenceAnalyzer struct {
	Options Options
}

// Analyze processes the entry store and returns repeated sequences.
func (a *RepeatedSequenceAnalyzer) Analyze(store *EntryStore) (*RepeatedSequenceResult, error) {
	opts := a.Options.withDefaults()

	toolUses := store.ToolUses()
	labels := make([]string, 0, len(toolUses))
	for _, ref := range toolUses {
		labels = append(labels, SequenceLabel(ref.Block))
	}

	var found []*RepeatedSequence
	foundByKey := make(map[string]*RepeatedSequence)

	for size := opts.SequenceMinLength; size <= opts.SequenceMaxLength; size++ {
		// Sizes longer than half the run are skipped, even when overlapping
		// windows would repeat: A B A B A B A B A never reports ABABA.
		if len(labels) < size*2 {
			continue
		}

		counts := make(map[string]int)
		windows := make(map[string][]string)
		var order []string
		for i := 0; i+size <= len(labels); i++ {
			window := labels[i : i+size]
			if distinctFamilies(window) < 2 {
				continue
			}
			key := strings.Join(window, sequenceKeySep)
			if _, seen := counts[key]; !seen {
				order = append(order, key)
				windows[key] = window
			}
			counts[key]++
		}

		for _, key := range order {
			count := counts[key]
			if count < opts.SequenceMinCount {
				continue
			}
			if existing, ok := foundByKey[key]; ok {
				if existing.Count < count {
					existing.Count = count
					existing.Length = size
				}
				continue
			}
			seq := &RepeatedSequence{
				Sequence: append([]string(nil), windows[key]...),
				Count:    count,
				Length:   size,
			}
			foundByKey[key] = seq
			found = append(found, seq)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Count != found[j].Count {
			return found[i].Count > found[j].Count
		}
		return found[i].Length > found[j].Length
	})

	result := &RepeatedSequenceResult{Sequences: []RepeatedSequence{}}
	for _, seq := range found {
		if len(result.Sequences) >= opts.SequenceMaxResults {
			break
		}
		result.Sequences = append(result.Sequences, *seq)
	}
	return result, nil
}

func distinctFamilies(window []string) int {
	families := make(map[string]struct{}, len(window))
	for _, label := range window {
		families[labelFamily(label)] = struct{}{}
	}
	return len(families)
}
