package pattern

import "regexp"

type re2Matcher struct {
	source string
	find   *regexp.Regexp
	remove *regexp.Regexp
}

var _ Matcher = (*re2Matcher)(nil)

func compileRE2(text string) (*re2Matcher, error) {
	find, err := regexp.Compile("(?m)" + text)
	if err != nil {
		return nil, newInvalidPatternError(text, err)
	}

	remove, err := regexp.Compile("(?m)" + wrapLine(text))
	if err != nil {
		return nil, newInvalidPatternError(text, err)
	}

	return &re2Matcher{source: text, find: find, remove: remove}, nil
}

func (m *re2Matcher) Source() string {
	return m.source
}

func (m *re2Matcher) RemoveLines(text string) (string, error) {
	return m.remove.ReplaceAllLiteralString(text, ""), nil
}

func (m *re2Matcher) Each(text string, fn func(key string)) error {
	hasGroup := m.find.NumSubexp() > 0

	for _, loc := range m.find.FindAllStringSubmatchIndex(text, -1) {
		if loc[1] == loc[0] {
			continue
		}

		key := text[loc[0]:loc[1]]
		if hasGroup && loc[2] >= 0 && loc[3] > loc[2] {
			key = text[loc[2]:loc[3]]
		}
		fn(key)
	}

	return nil
}

func (m *re2Matcher) FindFirst(text string) (Location, bool, error) {
	loc := m.find.FindStringIndex(text)
	if loc == nil {
		return Location{}, false, nil
	}
	return Location{Start: loc[0], End: loc[1]}, true, nil
}
