package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session-improver/analytics")

// ComputeFromJSONL builds an EntryStore from JSONL content and computes the
// summary.
func ComputeFromJSONL(ctx context.Context, content []byte, opts Options) (*Summary, error) {
	store, err := NewEntryStore(content)
	if err != nil {
		return nil, err
	}
	return Compute(ctx, store, opts)
}

// ComputeFromReader is ComputeFromJSONL for a stream.
func ComputeFromReader(ctx context.Context, r io.Reader, opts Options) (*Summary, error) {
	store, err := NewEntryStoreFromReader(r)
	if err != nil {
		return nil, err
	}
	return Compute(ctx, store, opts)
}

// Compute runs every analyzer over the store concurrently and assembles the
// summary. The result is identical to running them one after another.
func Compute(ctx context.Context, store *EntryStore, opts Options) (*Summary, error) {
	_, span := tracer.Start(ctx, "analytics.compute",
		trace.WithAttributes(
			attribute.Int("transcript.lines", len(store.Lines)),
			attribute.Int("transcript.skipped_lines", store.SkippedLines),
		))
	defer span.End()

	summary, err := runAnalyzers(store, opts, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("summary.tool_calls", summary.ToolCallCount),
		attribute.Int("summary.linter_loops", len(summary.LinterLoops)),
		attribute.Int("summary.tool_failures", len(summary.ToolFailures)),
	)
	return summary, nil
}

// analyzerResults holds one slot per analyzer so that goroutines never share
// a write target.
type analyzerResults struct {
	session     *SessionResult
	tokens      *TokensResult
	operations  *OperationsResult
	linter      *LinterLoopResult
	failures    *ToolFailureResult
	sequences   *RepeatedSequenceResult
	reads       *LargeReadResult
	permissions *PermissionResult
	hooks       *HookFailureResult
}

func runAnalyzers(store *EntryStore, opts Options, parallel bool) (*Summary, error) {
	var results analyzerResults

	tasks := []struct {
		name string
		run  func() error
	}{
		{"session", func() (err error) { results.session, err = (&SessionAnalyzer{}).Analyze(store); return }},
		{"tokens", func() (err error) { results.tokens, err = (&TokensAnalyzer{}).Analyze(store); return }},
		{"operations", func() (err error) { results.operations, err = (&OperationsAnalyzer{}).Analyze(store); return }},
		{"linter_loops", func() (err error) {
			results.linter, err = (&LinterLoopAnalyzer{Options: opts}).Analyze(store)
			return
		}},
		{"tool_failures", func() (err error) {
			results.failures, err = (&ToolFailureAnalyzer{Options: opts}).Analyze(store)
			return
		}},
		{"repeated_sequences", func() (err error) {
			results.sequences, err = (&RepeatedSequenceAnalyzer{Options: opts}).Analyze(store)
			return
		}},
		{"large_reads", func() (err error) {
			results.reads, err = (&LargeReadAnalyzer{Options: opts}).Analyze(store)
			return
		}},
		{"permission_events", func() (err error) { results.permissions, err = (&PermissionAnalyzer{}).Analyze(store); return }},
		{"hook_failures", func() (err error) {
			results.hooks, err = (&HookFailureAnalyzer{Options: opts}).Analyze(store)
			return
		}},
	}

	errs := make([]error, len(tasks))
	if parallel {
		var wg sync.WaitGroup
		for i, task := range tasks {
			wg.Add(1)
			go func(i int, name string, run func() error) {
				defer wg.Done()
				if err := run(); err != nil {
					errs[i] = fmt.Errorf("%s: %w", name, err)
				}
			}(i, task.name, task.run)
		}
		wg.Wait()
	} else {
		for i, task := range tasks {
			if err := task.run(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.name, err)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return assemble(&results), nil
}

// assemble merges analyzer results into a Summary. Detector outputs keep the
// order each analyzer produced.
func assemble(r *analyzerResults) *Summary {
	return &Summary{
		SessionID:           r.session.SessionID,
		Project:             r.session.Project,
		DurationMinutes:     r.session.DurationMinutes,
		TotalTurns:          r.session.TotalTurns,
		TotalAssistantTurns: r.session.TotalAssistantTurns,
		TokenUsage: TokenTotals{
			Input:         r.tokens.InputTokens,
			Output:        r.tokens.OutputTokens,
			CacheRead:     r.tokens.CacheReadTokens,
			CacheCreation: r.tokens.CacheCreationTokens,
		},
		EstimatedCostUSD:  r.tokens.EstimatedCostUSD,
		LinterLoops:       nonNil(r.linter.Loops),
		ToolFailures:      nonNil(r.failures.Failures),
		RepeatedSequences: nonNil(r.sequences.Sequences),
		LargeReads:        nonNil(r.reads.Reads),
		PermissionEvents:  nonNil(r.permissions.Events),
		HookFailures:      nonNil(r.hooks.Failures),
		EditCount:         r.operations.Edits,
		ToolCallCount:     r.operations.ToolCalls,
		AgentSpawnCount:   r.operations.AgentSpawns,
	}
}

// nonNil makes empty findings serialize as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
