package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zorak1103/logsieve/internal/pattern"
	"github.com/zorak1103/logsieve/internal/processor"
	"github.com/zorak1103/logsieve/internal/reporting"
)

// reportRun is a built report together with the metadata it is rendered with.
type reportRun struct {
	Result processor.ReportResult
	Meta   reporting.Meta
	// IgnoreErrors lists ignore patterns skipped before the report was built
	IgnoreErrors []processor.PatternError
}

// removeIgnored applies the stored ignore patterns to text.
func removeIgnored(ctx context.Context, a *app, text string) (processor.IgnoreResult, error) {
	patterns, err := a.patternList(ctx, pattern.KindIgnore)
	if err != nil {
		return processor.IgnoreResult{}, err
	}
	return a.processor.RemoveIgnoredLines(text, patterns), nil
}

// buildReportRun builds a report over the input, optionally removing ignored lines first.
func buildReportRun(ctx context.Context, a *app, in logInput, applyIgnore bool) (reportRun, error) {
	run := reportRun{
		Meta: reporting.Meta{
			Source:      in.Source,
			Files:       in.Files,
			GeneratedAt: time.Now(),
		},
	}

	text := in.Text
	if applyIgnore {
		ignored, err := removeIgnored(ctx, a, text)
		if err != nil {
			return run, err
		}
		text = ignored.Text
		stats := ignored.Stats
		run.Meta.Ignore = &stats
		run.IgnoreErrors = ignored.Errors
	}

	patterns, err := a.patternList(ctx, pattern.KindReport)
	if err != nil {
		return run, err
	}

	run.Meta.Lines = processor.CountLines(text)
	run.Result = a.processor.BuildReport(text, patterns)
	return run, nil
}

// printPatternErrors lists patterns that were skipped. Processing continues without them.
func printPatternErrors(w io.Writer, kind pattern.Kind, errs []processor.PatternError) {
	for _, e := range errs {
		_, _ = fmt.Fprintf(w, "⚠️  Skipped %s pattern #%d %q: %v\n", kind, e.Index+1, e.Pattern, e.Err)
	}
}

// printIgnoreStats writes the summary of an ignore pass.
func printIgnoreStats(w io.Writer, s processor.IgnoreStats) {
	_, _ = fmt.Fprintln(w, "📊 Ignore Statistics:")
	_, _ = fmt.Fprintf(w, "   Lines before:      %d\n", s.LinesBefore)
	_, _ = fmt.Fprintf(w, "   Lines after:       %d\n", s.LinesAfter)
	_, _ = fmt.Fprintf(w, "   Lines removed:     %d\n", s.LinesRemoved())
	_, _ = fmt.Fprintf(w, "   Patterns applied:  %d\n", s.PatternsApplied)
	_, _ = fmt.Fprintf(w, "   Patterns disabled: %d\n", s.PatternsDisabled)
	if s.PatternsFailed > 0 {
		_, _ = fmt.Fprintf(w, "   Patterns failed:   %d\n", s.PatternsFailed)
	}
}
