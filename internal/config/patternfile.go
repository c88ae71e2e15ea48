package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/zorak1103/logsieve/internal/pattern"
)

// Pattern files hold one pattern per line. Empty lines and lines starting
// with "#" are skipped, a leading "!" marks a disabled pattern. Patterns that
// really begin with one of these characters are written as `\#` or `\!`.
const (
	patternFileComment  = "#"
	patternFileDisabled = "!"
)

// ReadPatternFile reads a pattern file for `logsieve patterns import`.
func ReadPatternFile(path string) (pattern.List, error) {
	f, err := os.Open(path) // #nosec G304 -- path is given explicitly by the user on the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var list pattern.List
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, patternFileComment) {
			continue
		}

		p := pattern.Pattern{Text: line, Enabled: true}
		if rest, ok := strings.CutPrefix(line, patternFileDisabled); ok {
			p = pattern.Pattern{Text: rest, Enabled: false}
		}
		list = append(list, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}

	return list, nil
}

// FormatPatternFile renders list in the pattern file format with a comment header.
func FormatPatternFile(kind pattern.Kind, list pattern.List) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s logsieve %s patterns\n", patternFileComment, kind)
	for _, p := range list {
		if !p.Enabled {
			b.WriteString(patternFileDisabled)
		}
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}

	return b.String()
}

// WritePatternFile writes list to path for `logsieve patterns export`.
func WritePatternFile(path string, kind pattern.Kind, list pattern.List) error {
	if err := os.WriteFile(path, []byte(FormatPatternFile(kind, list)), 0o600); err != nil {
		return fmt.Errorf("failed to write pattern file %s: %w", path, err)
	}
	return nil
}
