package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugInfoCmd(t *testing.T) {
	dir := setupTestEnv(t)
	t.Setenv("LOGSIEVE_NOTIFICATION_SHOUTRRR_URL", "discord://very-secret@webhook")

	_, _, err := executeCommand(t, "sources", "add", "--type", "remote", "--name", "prod",
		"--url", "https://logs.example.com", "--user", "admin", "--password", "hunter2", "--activate")
	require.NoError(t, err)
	_, _, err = executeCommand(t, "files", "add", writeTestFile(t, dir, "a.log", "x\n"))
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "debug-info")
	require.NoError(t, err)

	for _, want := range []string{
		"logsieve Debug Information",
		"## General Info",
		"## Settings",
		"## System environment",
		"**database.version** (int): `3`",
		"+ .*GET /health(check)? HTTP.*",
		"- .*DEBUG.*",
		"**sources.active** (string): `prod`",
		"**session.files** (1 file(s))",
	} {
		assert.Contains(t, stdout, want)
	}
	assert.NotContains(t, stdout, "very-secret")
	assert.NotContains(t, stdout, "hunter2")
}

func TestDebugInfoCmd_Output(t *testing.T) {
	dir := setupTestEnv(t)
	target := filepath.Join(dir, "debug.md")

	stdout, _, err := executeCommand(t, "debug-info", "--github", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Debug information written to")

	data, err := os.ReadFile(target) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Contains(t, string(data), "**database.path** (string): `./logsieve.sqlite`\n")
}

func TestDebugInfoCmd_WithoutConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := executeCommand(t, "debug-info")
	require.NoError(t, err)
	assert.Contains(t, stdout, "logsieve Debug Information")
	assert.NotContains(t, stdout, "database.version")
}
