package analytics

import "github.com/santaclaude2025/session-improver/pkg/config"

// Options holds detector thresholds. Analyzers treat zero fields as their
// DefaultOptions value.
type Options struct {
	LinterMinIterations   int
	ToolFailureMinRetries int
	ToolFailureMinErrors  int
	SequenceMinCount      int
	SequenceMinLength     int
	SequenceMaxLength     int
	SequenceMaxResults    int
	LargeReadMinCount     int
	HookMinFailures       int

	MaxSamples      int
	SampleLength    int
	ToolErrorLength int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		LinterMinIterations:   2,
		ToolFailureMinRetries: 3,
		ToolFailureMinErrors:  2,
		SequenceMinCount:      3,
		SequenceMinLength:     3,
		SequenceMaxLength:     5,
		SequenceMaxResults:    5,
		LargeReadMinCount:     3,
		HookMinFailures:       2,

		MaxSamples:      2,
		SampleLength:    200,
		ToolErrorLength: 300,
	}
}

// OptionsFromThresholds applies configured thresholds over the defaults.
func OptionsFromThresholds(t config.Thresholds) Options {
	return Options{
		LinterMinIterations:   t.LinterMinIterations,
		ToolFailureMinRetries: t.ToolFailureMinRetries,
		ToolFailureMinErrors:  t.ToolFailureMinErrors,
		SequenceMinCount:      t.SequenceMinCount,
		SequenceMinLength:     t.SequenceMinLength,
		SequenceMaxLength:     t.SequenceMaxLength,
		SequenceMaxResults:    t.SequenceMaxResults,
		LargeReadMinCount:     t.LargeReadMinCount,
		HookMinFailures:       t.HookMinFailures,
		MaxSamples:            t.MaxSamples,
		SampleLength:          t.SampleLength,
		ToolErrorLength:       t.ToolErrorLength,
	}.withDefaults()
}

// Thresholds converts o back to its config file form.
func (o Options) Thresholds() config.Thresholds {
	return config.Thresholds{
		LinterMinIterations:   o.LinterMinIterations,
		ToolFailureMinRetries: o.ToolFailureMinRetries,
		ToolFailureMinErrors:  o.ToolFailureMinErrors,
		SequenceMinCount:      o.SequenceMinCount,
		SequenceMinLength:     o.SequenceMinLength,
		SequenceMaxLength:     o.SequenceMaxLength,
		SequenceMaxResults:    o.SequenceMaxResults,
		LargeReadMinCount:     o.LargeReadMinCount,
		HookMinFailures:       o.HookMinFailures,
		MaxSamples:            o.MaxSamples,
		SampleLength:          o.SampleLength,
		ToolErrorLength:       o.ToolErrorLength,
	}
}

// withDefaults fills non-positive fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&o.LinterMinIterations, d.LinterMinIterations)
	fill(&o.ToolFailureMinRetries, d.ToolFailureMinRetries)
	fill(&o.ToolFailureMinErrors, d.ToolFailureMinErrors)
	fill(&o.SequenceMinCount, d.SequenceMinCount)
	fill(&o.SequenceMinLength, d.SequenceMinLength)
	fill(&o.SequenceMaxLength, d.SequenceMaxLength)
	fill(&o.SequenceMaxResults, d.SequenceMaxResults)
	fill(&o.LargeReadMinCount, d.LargeReadMinCount)
	fill(&o.HookMinFailures, d.HookMinFailures)
	fill(&o.MaxSamples, d.MaxSamples)
	fill(&o.SampleLength, d.SampleLength)
	fill(&o.ToolErrorLength, d.ToolErrorLength)
	if o.SequenceMaxLength < o.SequenceMinLength {
		o.SequenceMaxLength = o.SequenceMinLength
	}
	return o
}
