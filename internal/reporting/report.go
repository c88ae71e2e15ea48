// Package reporting renders and stores match reports.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/zorak1103/logsieve/internal/processor"
	"github.com/zorak1103/logsieve/internal/sanitize"
)

const (
	reportExt        = ".md"
	reportNameLayout = "2006-01-02_15-04-05"
)

// Meta describes where a report came from.
type Meta struct {
	Source      string    // Source name, used for the report directory
	Files       []string  // Files the text was loaded from
	GeneratedAt time.Time // Zero means now
	Lines       int       // Number of analyzed lines
	Ignore      *processor.IgnoreStats
}

// RenderMarkdown formats a report result as a markdown document.
func RenderMarkdown(result processor.ReportResult, meta Meta) string {
	var sb strings.Builder

	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	title := meta.Source
	if title == "" {
		title = "ad-hoc"
	}

	// Header
	sb.WriteString(fmt.Sprintf("# Log Report: %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Date:** %s  \n", generated.Format(time.RFC1123)))
	if len(meta.Files) > 0 {
		quoted := make([]string, len(meta.Files))
		for i, f := range meta.Files {
			quoted[i] = "`" + f + "`"
		}
		sb.WriteString(fmt.Sprintf("**Files:** %s  \n", strings.Join(quoted, ", ")))
	}
	sb.WriteString(fmt.Sprintf("**Lines:** %d\n\n", meta.Lines))

	if result.Empty() {
		sb.WriteString("_No report pattern matched._\n\n")
	}

	for _, section := range result.Sections {
		sb.WriteString(fmt.Sprintf("## `%s`\n\n", section.Pattern))
		sb.WriteString("| Value | Count |\n")
		sb.WriteString("|-------|-------|\n")
		for _, e := range section.Matches.Entries() {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", escapeCell(e.Key), e.Count))
		}
		sb.WriteString(fmt.Sprintf("\n**Total:** %d\n\n", section.Total()))
	}

	if len(result.Errors) > 0 {
		sb.WriteString("## ⚠️ Pattern Errors\n\n")
		for _, pe := range result.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", pe.Error()))
		}
		sb.WriteString("\n")
	}

	// Statistics Section
	sb.WriteString("## 📊 Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Sections | %d |\n", len(result.Sections)))
	sb.WriteString(fmt.Sprintf("| Matches | %d |\n", totalMatches(result)))
	sb.WriteString(fmt.Sprintf("| Pattern Errors | %d |\n", len(result.Errors)))
	if s := meta.Ignore; s != nil {
		sb.WriteString(fmt.Sprintf("| Lines Before Ignore | %d |\n", s.LinesBefore))
		sb.WriteString(fmt.Sprintf("| Lines Removed | %d |\n", s.LinesRemoved()))
		sb.WriteString(fmt.Sprintf("| Ignore Reduction | %.1f%% |\n", calculateSavings(s.LinesBefore, s.LinesAfter)))
	}

	return sb.String()
}

// escapeCell keeps a matched value from breaking the markdown table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func totalMatches(result processor.ReportResult) int {
	total := 0
	for _, s := range result.Sections {
		total += s.Total()
	}
	return total
}

func calculateSavings(original, processed int) float64 {
	if original == 0 {
		return 0
	}
	return float64(original-processed) / float64(original) * 100
}

// RenderTable writes one terminal table per report section.
func RenderTable(w io.Writer, result processor.ReportResult) error {
	for i, section := range result.Sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "🔎 %s (%d matches)\n", section.Pattern, section.Total()); err != nil {
			return err
		}

		table := tablewriter.NewWriter(w)
		table.Header("Value", "Count")
		for _, e := range section.Matches.Entries() {
			if err := table.Append(e.Key, fmt.Sprintf("%d", e.Count)); err != nil {
				return fmt.Errorf("failed to add table row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	return nil
}

// SaveReport writes a report to the source's directory and returns the file path.
func SaveReport(reportsDir, sourceName, content string) (string, error) {
	if sourceName == "" {
		sourceName = "ad-hoc"
	}

	// Create source directory inside reports dir
	sourceDir := filepath.Join(reportsDir, sanitize.Name(sourceName))
	if err := os.MkdirAll(sourceDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// Generate filename: YYYY-MM-DD_HH-MM-SS.md
	filename := time.Now().Format(reportNameLayout) + reportExt
	filePath := filepath.Join(sourceDir, filename)

	// Write file
	if err := os.WriteFile(filePath, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filePath, nil
}

// ListReports returns the report files stored for a source, newest last.
func ListReports(reportsDir, sourceName string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(reportsDir, sanitize.Name(sourceName), "*"+reportExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return matches, nil
}

// PruneReports deletes report files older than retentionDays below reportsDir.
// With dryRun set it only returns what would be deleted.
func PruneReports(reportsDir string, retentionDays int, now time.Time, dryRun bool) ([]string, error) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	var pruned []string
	err := filepath.WalkDir(reportsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == reportsDir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != reportExt {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		if !dryRun {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove report %s: %w", path, err)
			}
		}
		pruned = append(pruned, path)
		return nil
	})
	if err != nil {
		return pruned, fmt.Errorf("failed to prune reports in %s: %w", reportsDir, err)
	}

	return pruned, nil
}
