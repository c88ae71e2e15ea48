package processor

import (
	"cmp"
	"slices"

	"github.com/zorak1103/logsieve/internal/pattern"
)

// MatchGroup maps each distinct matched value of one pattern to its occurrence count.
type MatchGroup map[string]int

// Entry is one row of a MatchGroup.
type Entry struct {
	Key   string
	Count int
}

// Entries returns the group sorted by count, highest first, and by key for equal counts.
func (g MatchGroup) Entries() []Entry {
	entries := make([]Entry, 0, len(g))
	for k, c := range g {
		entries = append(entries, Entry{Key: k, Count: c})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	return entries
}

// Total returns the sum of all counts.
func (g MatchGroup) Total() int {
	total := 0
	for _, c := range g {
		total += c
	}
	return total
}

// ReportSection holds the matches of one report pattern.
type ReportSection struct {
	Pattern string
	Matches MatchGroup
}

// Total returns the number of matches in the section.
func (s ReportSection) Total() int {
	return s.Matches.Total()
}

// ReportResult is the outcome of BuildReport. Sections follow pattern order.
type ReportResult struct {
	Sections []ReportSection
	Errors   []PatternError
}

// Err joins all per-pattern errors, or returns nil when every pattern applied.
func (r ReportResult) Err() error {
	return joinPatternErrors(r.Errors)
}

// Empty reports whether no pattern produced a match.
func (r ReportResult) Empty() bool {
	return len(r.Sections) == 0
}

// Section returns the section for the given pattern text.
func (r ReportResult) Section(patternText string) (ReportSection, bool) {
	for _, s := range r.Sections {
		if s.Pattern == patternText {
			return s, true
		}
	}
	return ReportSection{}, false
}

// BuildReport counts the matches of every enabled report pattern against text.
// Patterns do not influence each other; each one sees the original text.
// Patterns without matches produce no section.
func BuildReport(text string, patterns pattern.List, opts Options) ReportResult {
	return buildReport(text, patterns, opts.compile)
}

func buildReport(text string, patterns pattern.List, compile compileFunc) ReportResult {
	text = normalizeLineEndings(text)

	var res ReportResult

	for i, p := range patterns {
		if !p.Enabled {
			continue
		}

		m, err := compile(p.Text)
		if err != nil {
			res.Errors = append(res.Errors, PatternError{Index: i, Pattern: p.Text, Err: err})
			continue
		}

		group := make(MatchGroup)
		if err := m.Each(text, func(key string) { group[key]++ }); err != nil {
			res.Errors = append(res.Errors, PatternError{Index: i, Pattern: p.Text, Err: err})
			continue
		}

		if len(group) == 0 {
			continue
		}

		res.Sections = append(res.Sections, ReportSection{Pattern: p.Text, Matches: group})
	}

	return res
}
