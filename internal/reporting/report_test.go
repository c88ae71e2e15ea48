package reporting

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/logsieve/internal/processor"
)

func sampleResult() processor.ReportResult {
	return processor.ReportResult{
		Sections: []processor.ReportSection{
			{Pattern: `ERROR: (\w+)`, Matches: processor.MatchGroup{"disk": 3, "net": 1, "a|b": 1}},
		},
		Errors: []processor.PatternError{
			{Index: 1, Pattern: "(", Err: errors.New("missing closing )")},
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		result       processor.ReportResult
		meta         Meta
		wantContains []string
		wantMissing  []string
	}{
		{
			name:   "sections, errors and ignore stats",
			result: sampleResult(),
			meta: Meta{
				Source:      "prod",
				Files:       []string{"error.log"},
				GeneratedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
				Lines:       42,
				Ignore:      &processor.IgnoreStats{LinesBefore: 100, LinesAfter: 42},
			},
			wantContains: []string{
				"# Log Report: prod",
				"**Files:** `error.log`",
				"**Lines:** 42",
				"## `ERROR: (\\w+)`",
				"| disk | 3 |\n| a\\|b | 1 |\n| net | 1 |",
				"**Total:** 5",
				"## ⚠️ Pattern Errors",
				`- pattern #2 "(": missing closing )`,
				"| Matches | 5 |",
				"| Lines Removed | 58 |",
				"| Ignore Reduction | 58.0% |",
			},
		},
		{
			name:         "empty result",
			result:       processor.ReportResult{},
			wantContains: []string{"# Log Report: ad-hoc", "_No report pattern matched._", "| Sections | 0 |", "| Pattern Errors | 0 |"},
			wantMissing:  []string{"## ⚠️ Pattern Errors", "Lines Removed", "**Files:**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RenderMarkdown(tt.result, tt.meta)
			for _, want := range tt.wantContains {
				assert.Contains(t, got, want)
			}
			for _, missing := range tt.wantMissing {
				assert.NotContains(t, got, missing)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, `ERROR: (\w+) (5 matches)`)
	assert.Contains(t, out, "disk")
	assert.Contains(t, out, "net")
	assert.Less(t, strings.Index(out, "disk"), strings.Index(out, "net"), "rows follow count order")

	buf.Reset()
	require.NoError(t, RenderTable(&buf, processor.ReportResult{}))
	assert.Empty(t, buf.String())
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveReport(dir, "prod/web", "# report")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prod_web"), filepath.Dir(path))
	assert.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, "# report", string(data))

	reports, err := ListReports(dir, "prod/web")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, reports)
}

func TestPruneReports(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	oldReport := filepath.Join(dir, "prod", "old.md")
	newReport := filepath.Join(dir, "prod", "new.md")
	other := filepath.Join(dir, "prod", "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(oldReport), 0o750))
	for _, p := range []string{oldReport, newReport, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	old := now.AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(oldReport, old, old))
	require.NoError(t, os.Chtimes(other, old, old))

	pruned, err := PruneReports(dir, 30, now, true)
	require.NoError(t, err)
	assert.Equal(t, []string{oldReport}, pruned)
	assert.FileExists(t, oldReport, "dry run keeps files")

	pruned, err = PruneReports(dir, 30, now, false)
	require.NoError(t, err)
	assert.Equal(t, []string{oldReport}, pruned)
	assert.NoFileExists(t, oldReport)
	assert.FileExists(t, newReport)
	assert.FileExists(t, other)
}

func TestPruneReports_MissingDir(t *testing.T) {
	pruned, err := PruneReports(filepath.Join(t.TempDir(), "missing"), 30, time.Now(), false)
	require.NoError(t, err)
	assert.Empty(t, pruned)
}
