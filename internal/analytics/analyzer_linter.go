package analytics

import "sort"

// LinterLoopResult contains lint issue types that recurred across the session.
type LinterLoopResult struct {
	Loops []LinterLoop
}

// LinterLoopAnalyzer finds edit-fail-edit cycles: the same linter reporting
// the same issue type in several failing tool results.
type LinterLoopAnalyzer struct {
	Options Options
}

// linterKey identifies one issue type of one linter.
type linterKey struct {
	linter    string
	issueType string
}

// linterAccumulator collects occurrences of one linterKey.
type linterAccumulator struct {
	key        linterKey
	iterations int
	files      []string
	seenFiles  map[string]bool
	samples    []string
}

// linterAccumulators keeps accumulators in first-seen order.
type linterAccumulators struct {
	order []*linterAccumulator
	byKey map[linterKey]*linterAccumulator
}

func (a *linterAccumulators) upsert(key linterKey) *linterAccumulator {
	if acc, ok := a.byKey[key]; ok {
		return acc
	}
	acc := &linterAccumulator{key: key, seenFiles: make(map[string]bool)}
	a.byKey[key] = acc
	a.order = append(a.order, acc)
	return acc
}

func (acc *linterAccumulator) add(issue LinterIssue, opts Options) {
	acc.iterations++
	if issue.File != "" && !acc.seenFiles[issue.File] {
		acc.seenFiles[issue.File] = true
		acc.files = append(acc.files, issue.File)
	}
	if len(acc.samples) < opts.MaxSamples {
		acc.samples = append(acc.samples, truncateRunes(issue.Message, opts.SampleLength))
	}
}

// Analyze processes the entry store and returns linter loops.
func (a *LinterLoopAnalyzer) Analyze(store *EntryStore) (*LinterLoopResult, error) {
	opts := a.Options.withDefaults()
	accs := &linterAccumulators{byKey: make(map[linterKey]*linterAccumulator)}

	for _, ref := range store.ToolResults() {
		if !ref.Block.IsError {
			continue
		}
		text := ref.Block.Text
		for _, linter := range Linters {
			if !linter.Pattern.MatchString(text) {
				continue
			}
			for _, issue := range linter.Extract(text) {
				accs.upsert(linterKey{linter: linter.Name, issueType: issue.Type}).add(issue, opts)
			}
		}
	}

	result := &LinterLoopResult{Loops: []LinterLoop{}}
	for _, acc := range accs.order {
		if acc.iterations < opts.LinterMinIterations {
			continue
		}
		files := acc.files
		if files == nil {
			files = []string{}
		}
		result.Loops = append(result.Loops, LinterLoop{
			Linter:       acc.key.linter,
			Smell:        acc.key.issueType,
			Iterations:   acc.iterations,
			Files:        files,
			ErrorSamples: acc.samples,
		})
	}

	sort.SliceStable(result.Loops, func(i, j int) bool {
		return result.Loops[i].Iterations > result.Loops[j].Iterations
	})

	return result, nil
}
