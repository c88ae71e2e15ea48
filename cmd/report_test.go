package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportCmd_Structure(t *testing.T) {
	t.Parallel()

	applyIgnore := reportCmd.Flags().Lookup("apply-ignore")
	if applyIgnore == nil {
		t.Fatal("Expected 'apply-ignore' flag to be defined")
	}
	if applyIgnore.DefValue != "true" {
		t.Errorf("Expected 'apply-ignore' flag default to be 'true', got '%s'", applyIgnore.DefValue)
	}

	for _, name := range []string{"markdown", "save", "notify"} {
		f := reportCmd.Flags().Lookup(name)
		if f == nil {
			t.Errorf("Expected '%s' flag to be defined", name)
			continue
		}
		if f.DefValue != testFalseValue {
			t.Errorf("Expected '%s' flag default to be 'false', got '%s'", name, f.DefValue)
		}
	}
}

func TestReportCmd_Table(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	stdout, _, err := executeCommand(t, "report", logFile)
	require.NoError(t, err)

	assert.Contains(t, stdout, `🔎 ERROR:? (\w+) (3 matches)`)
	assert.Contains(t, stdout, "timeout")
	assert.Contains(t, stdout, "refused")
	assert.Contains(t, stdout, "🔎 PHP (Warning|Notice|Fatal error) (1 matches)")
}

func TestReportCmd_Markdown(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	stdout, _, err := executeCommand(t, "report", logFile, "--markdown")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Log Report: ad-hoc")
	assert.Contains(t, stdout, "| timeout | 2 |")
	assert.Contains(t, stdout, "| refused | 1 |")
	assert.Contains(t, stdout, "**Lines:** 5")
	assert.Contains(t, stdout, "| Lines Removed | 2 |")
}

func TestReportCmd_WithoutIgnore(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	stdout, _, err := executeCommand(t, "report", logFile, "--markdown", "--apply-ignore=false")
	require.NoError(t, err)

	assert.Contains(t, stdout, "**Lines:** 7")
	assert.NotContains(t, stdout, "Lines Removed")
}

func TestReportCmd_NoMatches(t *testing.T) {
	setupTestEnv(t)

	stdout, _, err := executeCommandWithInput(t, "all good\n", "report", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No report pattern matched (1 lines analyzed)")
}

func TestReportCmd_Save(t *testing.T) {
	dir := setupTestEnv(t)
	writeTestFile(t, dir, "logs/app.log", testSampleLog)

	_, _, err := executeCommand(t, "sources", "add", "--name", "My App", "--path", filepath.Join(dir, "logs"), "--activate")
	require.NoError(t, err)

	_, stderr, err := executeCommand(t, "report", "--save")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Report saved:")

	entries, err := os.ReadDir(filepath.Join(dir, "reports", "My_App"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, "reports", "My_App", entries[0].Name())) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Log Report: My App")
}

func TestReportCmd_NotifyDisabled(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	_, _, err := executeCommand(t, "report", logFile, "--notify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notifications are disabled")
}
