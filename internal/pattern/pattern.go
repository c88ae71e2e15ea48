// Package pattern compiles user-defined log patterns and evaluates them against log text.
package pattern

import (
	"fmt"
	"strings"
)

// Kind distinguishes what a pattern is used for.
type Kind string

const (
	// KindIgnore patterns strip matching lines from log text.
	KindIgnore Kind = "ignore"
	// KindReport patterns are counted and grouped into a report.
	KindReport Kind = "report"
)

// Kinds lists all known pattern kinds in display order.
var Kinds = []Kind{KindIgnore, KindReport}

// ParseKind converts user input (case-insensitive) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIgnore:
		return KindIgnore, nil
	case KindReport:
		return KindReport, nil
	default:
		return "", fmt.Errorf("unknown pattern kind %q (expected %q or %q)", s, KindIgnore, KindReport)
	}
}

// Pattern is a single user-defined regular expression with its enabled flag.
type Pattern struct {
	Text    string `mapstructure:"pattern" json:"pattern"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

// List is an ordered sequence of patterns. Order matters for ignore patterns,
// which are applied one after another to the shrinking text.
type List []Pattern

// Enabled returns the enabled patterns in their original order.
// The receiver is not modified.
func (l List) Enabled() List {
	out := make(List, 0, len(l))
	for _, p := range l {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Texts returns the pattern sources in order.
func (l List) Texts() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.Text
	}
	return out
}
