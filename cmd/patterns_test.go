package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/logsieve/internal/pattern"
)

func TestPatternsCmd_Subcommands(t *testing.T) {
	t.Parallel()

	expected := []string{"list", "add", "update", "remove", "enable", "disable", "move", "find", "import", "export"}
	registered := make(map[string]bool)
	for _, c := range patternsCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("Expected patterns subcommand %q to be registered", name)
		}
	}
}

func TestPatternsCmd_List(t *testing.T) {
	setupTestEnv(t)

	stdout, _, err := executeCommand(t, "patterns", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, ".*GET /health(check)? HTTP.*")
	assert.Contains(t, stdout, `ERROR:? (\w+)`)

	stdout, _, err = executeCommand(t, "patterns", "list", "--kind", "report")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "health")
	assert.Contains(t, stdout, "PHP (Warning|Notice|Fatal error)")

	_, _, err = executeCommand(t, "patterns", "list", "--kind", "bogus")
	assert.Error(t, err)
}

func TestPatternsCmd_AddAndRemove(t *testing.T) {
	setupTestEnv(t)

	stdout, _, err := executeCommand(t, "patterns", "add", "--kind", "report", `user=(\w+)`)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added report pattern #5 at position 3")

	_, _, err = executeCommand(t, "patterns", "add", "(broken")
	require.Error(t, err, "invalid patterns are rejected")
	assert.ErrorIs(t, err, pattern.ErrInvalidPattern)

	_, _, err = executeCommand(t, "patterns", "remove", "5")
	require.NoError(t, err)

	a := openTestApp(t)
	report, err := a.patternList(context.Background(), pattern.KindReport)
	require.NoError(t, err)
	assert.Len(t, report, 2)
}

func TestPatternsCmd_AddFromLine(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	stdout, _, err := executeCommand(t, "patterns", "add", "--from-line", "3", "--file", logFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, `^2025-01-01 10:00:02 DEBUG cache warm`)

	stdout, _, err = executeCommand(t, "ignore", logFile)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "DEBUG cache warm")

	_, _, err = executeCommand(t, "patterns", "add", "--from-line", "99", "--file", logFile)
	assert.Error(t, err)

	_, _, err = executeCommand(t, "patterns", "add", "--from-line", "1")
	assert.Error(t, err, "--from-line needs --file")
}

func TestPatternsCmd_EnableDisable(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	_, _, err := executeCommand(t, "patterns", "enable", "2")
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "ignore", logFile)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "DEBUG")

	_, _, err = executeCommand(t, "patterns", "disable", "1", "2")
	require.NoError(t, err)

	stdout, _, err = executeCommand(t, "ignore", logFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "GET /health HTTP")
	assert.Contains(t, stdout, "DEBUG")
}

func TestPatternsCmd_UpdateAndMove(t *testing.T) {
	setupTestEnv(t)

	_, _, err := executeCommand(t, "patterns", "update", "2", ".*TRACE.*")
	require.NoError(t, err)

	_, _, err = executeCommand(t, "patterns", "move", "2", "1")
	require.NoError(t, err)

	a := openTestApp(t)
	ignore, err := a.patternList(context.Background(), pattern.KindIgnore)
	require.NoError(t, err)
	assert.Equal(t, pattern.List{
		{Text: ".*TRACE.*", Enabled: false},
		{Text: ".*GET /health(check)? HTTP.*", Enabled: true},
	}, ignore)

	_, _, err = executeCommand(t, "patterns", "move", "2", "0")
	assert.Error(t, err, "positions start at 1")

	_, _, err = executeCommand(t, "patterns", "update", "99", "x")
	assert.Error(t, err)
}

func TestPatternsCmd_Find(t *testing.T) {
	dir := setupTestEnv(t)
	logFile := writeTestFile(t, dir, "app.log", testSampleLog)

	stdout, _, err := executeCommand(t, "patterns", "find", `timeout while \w+`, logFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "First match on line 2")
	assert.Contains(t, stdout, "2025-01-01 10:00:01 ERROR: timeout while reading")
	assert.Contains(t, stdout, `matched: "timeout while reading"`)

	stdout, _, err = executeCommand(t, "patterns", "find", "nothing like this", logFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No match")
}

func TestPatternsCmd_ImportExport(t *testing.T) {
	dir := setupTestEnv(t)

	exported := filepath.Join(dir, "ignore.txt")
	_, _, err := executeCommand(t, "patterns", "export", exported)
	require.NoError(t, err)

	content, err := os.ReadFile(exported) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, "# logsieve ignore patterns\n.*GET /health(check)? HTTP.*\n!.*DEBUG.*\n", string(content))

	_, _, err = executeCommand(t, "patterns", "import", "--kind", "report", exported)
	require.NoError(t, err)

	a := openTestApp(t)
	report, err := a.patternList(context.Background(), pattern.KindReport)
	require.NoError(t, err)
	assert.Len(t, report, 4, "import appends by default")

	_, _, err = executeCommand(t, "patterns", "import", "--kind", "report", "--replace", exported)
	require.NoError(t, err)

	report, err = a.patternList(context.Background(), pattern.KindReport)
	require.NoError(t, err)
	assert.Equal(t, pattern.List{
		{Text: ".*GET /health(check)? HTTP.*", Enabled: true},
		{Text: ".*DEBUG.*", Enabled: false},
	}, report)

	stdout, _, err := executeCommand(t, "patterns", "export", "--kind", "report")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# logsieve report patterns")
}

func TestPatternsCmd_ImportRejectsInvalidPatterns(t *testing.T) {
	dir := setupTestEnv(t)
	file := writeTestFile(t, dir, "bad.txt", "fine\n(broken\n")

	_, _, err := executeCommand(t, "patterns", "import", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern 2 of")
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1", want: 1},
		{input: "42", want: 42},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseID(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLineAt(t *testing.T) {
	t.Parallel()

	text := "first\r\nsecond line\nthird"
	assert.Equal(t, "first", lineAt(text, 2))
	assert.Equal(t, "second line", lineAt(text, 7))
	assert.Equal(t, "third", lineAt(text, len(text)-1))
}
