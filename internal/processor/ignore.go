package processor

import (
	"strings"

	"github.com/zorak1103/logsieve/internal/pattern"
)

// IgnoreStats summarizes an ignore pass.
type IgnoreStats struct {
	LinesBefore      int // Lines in the input text
	LinesAfter       int // Lines in the cleaned text
	PatternsApplied  int // Enabled patterns that compiled and ran
	PatternsDisabled int // Patterns skipped because they are disabled
	PatternsFailed   int // Enabled patterns skipped because of an error
}

// LinesRemoved returns how many lines the pass removed, blank lines included.
func (s IgnoreStats) LinesRemoved() int {
	return s.LinesBefore - s.LinesAfter
}

// IgnoreResult is the outcome of RemoveIgnoredLines.
type IgnoreResult struct {
	Text   string
	Errors []PatternError
	Stats  IgnoreStats
}

// Err joins all per-pattern errors, or returns nil when every pattern applied.
func (r IgnoreResult) Err() error {
	return joinPatternErrors(r.Errors)
}

// RemoveIgnoredLines removes every line matched by an enabled ignore pattern
// and then collapses the blank lines left behind.
//
// Patterns apply in order, each one to the text left by its predecessors.
// Blank lines are collapsed before the first pattern too, so a pattern spanning
// several lines sees the same line structure on a second pass over the result.
// The result is joined with "\n" and has no trailing newline.
func RemoveIgnoredLines(text string, patterns pattern.List, opts Options) IgnoreResult {
	return removeIgnoredLines(text, patterns, opts.compile)
}

func removeIgnoredLines(text string, patterns pattern.List, compile compileFunc) IgnoreResult {
	text = normalizeLineEndings(text)

	res := IgnoreResult{
		Stats: IgnoreStats{LinesBefore: countLines(text)},
	}

	text = collapseKeepingEnd(text)

	for i, p := range patterns {
		if !p.Enabled {
			res.Stats.PatternsDisabled++
			continue
		}

		m, err := compile(p.Text)
		if err != nil {
			res.Errors = append(res.Errors, PatternError{Index: i, Pattern: p.Text, Err: err})
			res.Stats.PatternsFailed++
			continue
		}

		cleaned, err := m.RemoveLines(text)
		if err != nil {
			res.Errors = append(res.Errors, PatternError{Index: i, Pattern: p.Text, Err: err})
			res.Stats.PatternsFailed++
			continue
		}

		text = cleaned
		res.Stats.PatternsApplied++
	}

	res.Text = collapseBlankLines(text)
	res.Stats.LinesAfter = countLines(res.Text)

	return res
}

// collapseBlankLines splits on "\n" or "\r\n", drops empty segments and joins with "\n".
func collapseBlankLines(text string) string {
	segments := strings.Split(text, "\n")
	kept := segments[:0]

	for _, s := range segments {
		s = strings.TrimSuffix(s, "\r")
		if s != "" {
			kept = append(kept, s)
		}
	}

	return strings.Join(kept, "\n")
}

// collapseKeepingEnd collapses blank lines but keeps a trailing newline, which
// lets the last line still be removed by a pattern.
func collapseKeepingEnd(text string) string {
	collapsed := collapseBlankLines(text)
	if collapsed != "" && strings.HasSuffix(text, "\n") {
		collapsed += "\n"
	}
	return collapsed
}
