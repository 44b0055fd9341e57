package analytics

import (
	"testing"

	"github.com/santaclaude2025/session-improver/pkg/config"
)

func TestOptionsFromThresholds(t *testing.T) {
	opts := OptionsFromThresholds(config.Thresholds{SequenceMinCount: 4, MaxSamples: -1})

	if opts.SequenceMinCount != 4 {
		t.Errorf("SequenceMinCount = %d, want 4", opts.SequenceMinCount)
	}
	if opts.MaxSamples != 2 {
		t.Errorf("MaxSamples = %d, want default 2", opts.MaxSamples)
	}
	if opts.ToolErrorLength != 300 {
		t.Errorf("ToolErrorLength = %d, want default 300", opts.ToolErrorLength)
	}
}

func TestOptions_MaxLengthNotBelowMin(t *testing.T) {
	opts := Options{SequenceMinLength: 6, SequenceMaxLength: 4}.withDefaults()
	if opts.SequenceMaxLength != 6 {
		t.Errorf("SequenceMaxLength = %d, want 6", opts.SequenceMaxLength)
	}
}

func TestAnalyzers_HonorThresholds(t *testing.T) {
	var lines []string
	for i := 0; i < 3; i++ {
		lines = append(lines, makeToolCall("a", "t", "Read", fileInput("a.go")))
	}
	store := mustStore(lines...)

	strict, _ := (&LargeReadAnalyzer{Options: Options{LargeReadMinCount: 4}}).Analyze(store)
	if len(strict.Reads) != 0 {
		t.Errorf("Reads = %+v, want none with min count 4", strict.Reads)
	}
	loose, _ := (&LargeReadAnalyzer{Options: Options{LargeReadMinCount: 2}}).Analyze(store)
	if len(loose.Reads) != 1 {
		t.Errorf("Reads = %+v, want 1 with min count 2", loose.Reads)
	}
}

func TestOptions_ThresholdsRoundTrip(t *testing.T) {
	want := DefaultOptions()
	if got := OptionsFromThresholds(want.Thresholds()); got != want {
		t.Errorf("OptionsFromThresholds(Thresholds()) = %+v, want %+v", got, want)
	}
}
