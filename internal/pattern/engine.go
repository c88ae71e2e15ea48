package pattern

import (
	"fmt"
	"strings"
	"time"
)

// Engine names the regular expression implementation used to compile patterns.
type Engine string

const (
	// EngineRegexp2 is a backtracking engine with Perl/.NET syntax (lookaround,
	// backreferences). It accepts the patterns users usually copy from other log tools.
	EngineRegexp2 Engine = "regexp2"
	// EngineRE2 is the Go standard library engine with linear-time matching.
	EngineRE2 Engine = "re2"

	// DefaultEngine is used when no engine is configured.
	DefaultEngine = EngineRegexp2
)

// DefaultMatchTimeout bounds a single regexp2 match. A pattern with
// catastrophic backtracking then fails with an error instead of hanging.
const DefaultMatchTimeout = 5 * time.Second

// lineTerminator is appended to a pattern when removing whole lines.
const lineTerminator = `\r?\n`

// ParseEngine converts a configuration value into an Engine. An empty value selects DefaultEngine.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultEngine, nil
	case EngineRegexp2:
		return EngineRegexp2, nil
	case EngineRE2:
		return EngineRE2, nil
	default:
		return "", fmt.Errorf("unknown regex engine %q (expected %q or %q)", s, EngineRegexp2, EngineRE2)
	}
}

// Matcher is a compiled pattern. Implementations are safe for concurrent use.
type Matcher interface {
	// Source returns the pattern text the matcher was compiled from.
	Source() string

	// RemoveLines excises every non-overlapping match of the pattern that is
	// immediately followed by a line terminator, terminator included.
	RemoveLines(text string) (string, error)

	// Each calls fn for every non-overlapping, non-empty match, left to right.
	// The key is capture group 1 when the pattern has one and it matched
	// non-empty text, otherwise the whole match.
	Each(text string, fn func(key string)) error

	// FindFirst returns the byte offsets of the leftmost match.
	FindFirst(text string) (Location, bool, error)
}

// Location is a half-open byte range [Start, End) in the searched text.
type Location struct {
	Start int
	End   int
}

// Line returns the 1-based line number of the location start within text.
func (l Location) Line(text string) int {
	return strings.Count(text[:l.Start], "\n") + 1
}

// Compile compiles text with the given engine and DefaultMatchTimeout. Matching
// is case sensitive and multiline: ^ and $ match at line boundaries.
//
// Empty patterns are rejected, because an empty expression followed by a line
// terminator would remove every newline of the text.
func Compile(text string, engine Engine) (Matcher, error) {
	return CompileWithTimeout(text, engine, DefaultMatchTimeout)
}

// CompileWithTimeout is like Compile with an explicit match timeout. The timeout
// only applies to regexp2, since RE2 matching is linear in the input. A timeout
// of zero or less selects DefaultMatchTimeout.
func CompileWithTimeout(text string, engine Engine, timeout time.Duration) (Matcher, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &InvalidPatternError{Pattern: text, Diagnostic: "empty pattern"}
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}

	switch engine {
	case EngineRE2:
		m, err := compileRE2(text)
		if err != nil {
			return nil, err
		}
		return m, nil
	case EngineRegexp2, "":
		m, err := compileRegexp2(text, timeout)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown regex engine %q", engine)
	}
}

// Validate reports whether text compiles with engine.
func Validate(text string, engine Engine) error {
	_, err := Compile(text, engine)
	return err
}

// wrapLine builds the expression used by RemoveLines. The pattern is grouped
// so that a top-level alternation still binds to the terminator.
func wrapLine(text string) string {
	return "(?:" + text + ")" + lineTerminator
}
