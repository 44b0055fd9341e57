// Package render writes summaries as JSON or terminal tables.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/santaclaude2025/session-improver/internal/analytics"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

const defaultWidth = 100

// WriteSummary writes s to w in the requested format.
func WriteSummary(w io.Writer, s *analytics.Summary, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return writeJSON(w, s)
	case FormatTable:
		return writeTables(w, s, determineWidth(w), shouldUseColor(w))
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeJSON(w io.Writer, s *analytics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

func writeTables(w io.Writer, s *analytics.Summary, width int, color bool) error {
	sampleWidth := width / 2
	if sampleWidth < 30 {
		sampleWidth = 30
	}

	overview := newTable(w, color)
	overview.SetTitle("Session")
	overview.AppendRows([]table.Row{
		{"Session ID", valueOrDash(s.SessionID)},
		{"Project", valueOrDash(s.Project)},
		{"Duration (min)", s.DurationMinutes},
		{"Turns (user / assistant)", fmt.Sprintf("%d / %d", s.TotalTurns, s.TotalAssistantTurns)},
		{"Tokens (in / out)", fmt.Sprintf("%d / %d", s.TokenUsage.Input, s.TokenUsage.Output)},
		{"Cache (read / created)", fmt.Sprintf("%d / %d", s.TokenUsage.CacheRead, s.TokenUsage.CacheCreation)},
		{"Estimated cost (USD)", s.EstimatedCostUSD.StringFixed(4)},
		{"Tool calls / edits / agents", fmt.Sprintf("%d / %d / %d", s.ToolCallCount, s.EditCount, s.AgentSpawnCount)},
	})
	overview.Render()

	if len(s.LinterLoops) > 0 {
		tw := newTable(w, color)
		tw.SetTitle("Linter loops")
		tw.AppendHeader(table.Row{"Linter", "Smell", "Iterations", "Files", "Sample"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight},
			{Number: 5, WidthMax: sampleWidth},
		})
		for _, l := range s.LinterLoops {
			tw.AppendRow(table.Row{l.Linter, l.Smell, l.Iterations, strings.Join(l.Files, "\n"), firstOrDash(l.ErrorSamples)})
		}
		tw.Render()
	}

	if len(s.ToolFailures) > 0 {
		tw := newTable(w, color)
		tw.SetTitle("Tool failures")
		tw.AppendHeader(table.Row{"Tool", "Input", "Retries", "Errors", "Sample"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: sampleWidth / 2},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, WidthMax: sampleWidth},
		})
		for _, f := range s.ToolFailures {
			tw.AppendRow(table.Row{f.Tool, f.InputSummary, f.RetryCount, f.ErrorCount, valueOrDash(f.ErrorSample)})
		}
		tw.Render()
	}

	if len(s.RepeatedSequences) > 0 {
		tw := newTable(w, color)
		tw.SetTitle("Repeated sequences")
		tw.AppendHeader(table.Row{"Sequence", "Length", "Count"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: width - 30},
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
		})
		for _, seq := range s.RepeatedSequences {
			tw.AppendRow(table.Row{strings.Join(seq.Sequence, " → "), seq.Length, seq.Count})
		}
		tw.Render()
	}

	if len(s.LargeReads) > 0 {
		tw := newTable(w, color)
		tw.SetTitle("Repeated reads")
		tw.AppendHeader(table.Row{"File", "Times read"})
		tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		for _, r := range s.LargeReads {
			tw.AppendRow(table.Row{r.File, r.TimesRead})
		}
		tw.Render()
	}

	if len(s.PermissionEvents) > 0 {
		tw := newTable(w, color)
		tw.SetTitle("Permission prompts")
		tw.AppendHeader(table.Row{"Tool", "Input pattern", "Count"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: sampleWidth},
			{Number: 3, Align: text.AlignRight},
		})
		for _, p := range s.PermissionEvents {
			tw.AppendRow(table.Row{p.Tool, p.InputPattern, p.Count})
		}
		tw.Render()
	}

	if len(s.HookFailures) > 0 {
		tw := newTable(w, color)
		tw.SetTitle("Hook failures")
		tw.AppendHeader(table.Row{"Hook", "Count", "Sample"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, WidthMax: sampleWidth},
		})
		for _, h := range s.HookFailures {
			tw.AppendRow(table.Row{h.HookName, h.Count, firstOrDash(h.ErrorSamples)})
		}
		tw.Render()
	}

	if !s.HasFindings() {
		_, err := fmt.Fprintln(w, "No findings.")
		return err
	}
	return nil
}

func newTable(w io.Writer, color bool) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	if color {
		tw.Style().Title.Colors = text.Colors{text.Bold, text.FgCyan}
		tw.Style().Color.Header = text.Colors{text.Bold}
	}
	return tw
}

func valueOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func firstOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return items[0]
}

func determineWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return defaultWidth
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
