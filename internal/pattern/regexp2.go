package pattern

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const regexp2Options = regexp2.Multiline

type regexp2Matcher struct {
	source string
	find   *regexp2.Regexp
	remove *regexp2.Regexp
	groups int
}

var _ Matcher = (*regexp2Matcher)(nil)

func compileRegexp2(text string, timeout time.Duration) (*regexp2Matcher, error) {
	find, err := regexp2.Compile(text, regexp2Options)
	if err != nil {
		return nil, newInvalidPatternError(text, err)
	}

	remove, err := regexp2.Compile(wrapLine(text), regexp2Options)
	if err != nil {
		return nil, newInvalidPatternError(text, err)
	}

	find.MatchTimeout = timeout
	remove.MatchTimeout = timeout

	// GetGroupNumbers includes group 0, the whole match
	return &regexp2Matcher{
		source: text,
		find:   find,
		remove: remove,
		groups: len(find.GetGroupNumbers()) - 1,
	}, nil
}

func (m *regexp2Matcher) Source() string {
	return m.source
}

// RemoveLines cuts the matches out of the original string, so bytes that are
// not valid UTF-8 survive unchanged.
func (m *regexp2Matcher) RemoveLines(text string) (string, error) {
	idx := runeIndex{text: text}

	var sb strings.Builder
	last := 0

	match, err := m.remove.FindStringMatch(text)
	for match != nil {
		start := idx.byteOffset(match.Index)
		end := idx.byteOffset(match.Index + match.Length)
		sb.WriteString(text[last:start])
		last = end

		match, err = m.remove.FindNextMatch(match)
	}
	if err != nil {
		return text, err
	}

	if last == 0 {
		return text, nil
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

func (m *regexp2Matcher) Each(text string, fn func(key string)) error {
	idx := runeIndex{text: text}

	match, err := m.find.FindStringMatch(text)
	for match != nil {
		if match.Length > 0 {
			start := idx.byteOffset(match.Index)
			end := idx.byteOffset(match.Index + match.Length)
			key := text[start:end]
			if m.groups > 0 {
				if g := match.GroupByNumber(1); g != nil && g.Length > 0 {
					gStart := idx.byteOffset(g.Index)
					gEnd := idx.byteOffset(g.Index + g.Length)
					key = text[gStart:gEnd]
				}
			}
			fn(key)
		}

		match, err = m.find.FindNextMatch(match)
	}

	return err
}

func (m *regexp2Matcher) FindFirst(text string) (Location, bool, error) {
	match, err := m.find.FindStringMatch(text)
	if err != nil || match == nil {
		return Location{}, false, err
	}

	idx := runeIndex{text: text}
	start := idx.byteOffset(match.Index)
	end := idx.byteOffset(match.Index + match.Length)
	return Location{Start: start, End: end}, true, nil
}

// runeIndex maps the rune offsets regexp2 reports to byte offsets in text.
// An invalid UTF-8 byte counts as one rune, as in the []rune conversion
// regexp2 matches on. Ascending lookups continue from the previous one.
type runeIndex struct {
	text  string
	runes int
	bytes int
}

func (r *runeIndex) byteOffset(n int) int {
	if n < r.runes {
		r.runes, r.bytes = 0, 0
	}
	r.bytes = runeOffset(r.text, r.bytes, n-r.runes)
	r.runes = n
	return r.bytes
}

// runeOffset returns the byte offset reached after skipping n runes from byte offset from.
func runeOffset(text string, from, n int) int {
	i := from
	for ; n > 0 && i < len(text); n-- {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}
