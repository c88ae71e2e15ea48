package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/logsieve/internal/pattern"
	"github.com/zorak1103/logsieve/internal/templates"
)

func TestInitCmd_Structure(t *testing.T) {
	t.Parallel()

	cmd := initCmd

	if cmd.Use != "init" {
		t.Errorf("Expected command use 'init', got '%s'", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" || cmd.Example == "" {
		t.Error("Expected short, long and example to be set")
	}

	forceFlag := cmd.Flags().Lookup("force")
	if forceFlag == nil {
		t.Fatal("Expected 'force' flag to be defined")
	}
	if forceFlag.DefValue != testFalseValue {
		t.Errorf("Expected 'force' flag default to be 'false', got '%s'", forceFlag.DefValue)
	}
}

func TestInitCmd_CreatesFilesAndDirectories(t *testing.T) {
	dir := setupTestEnv(t)

	for _, d := range []string{"reports", "downloads"} {
		info, err := os.Stat(filepath.Join(dir, d))
		if err != nil {
			t.Errorf("Expected directory %s to be created: %v", d, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("Expected %s to be a directory", d)
		}
	}

	for _, f := range []string{"config.yaml", ".env", "logsieve.sqlite"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("Expected file %s to be created: %v", f, err)
		}
	}

	content, err := os.ReadFile(filepath.Join(dir, "config.yaml")) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, string(templates.ConfigYAML), string(content))
}

func TestInitCmd_SeedsPatterns(t *testing.T) {
	setupTestEnv(t)
	a := openTestApp(t)

	ignore, err := a.patternList(context.Background(), pattern.KindIgnore)
	require.NoError(t, err)
	assert.Equal(t, pattern.List{
		{Text: ".*GET /health(check)? HTTP.*", Enabled: true},
		{Text: ".*DEBUG.*", Enabled: false},
	}, ignore)

	report, err := a.patternList(context.Background(), pattern.KindReport)
	require.NoError(t, err)
	assert.Len(t, report, 2)
}

func TestInitCmd_SkipsExistingFiles(t *testing.T) {
	dir := setupTestEnv(t)

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CUSTOM=1\n"), 0o600))

	stdout, _, err := executeCommand(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Skipping")

	content, err := os.ReadFile(envPath) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM=1\n", string(content))
}

func TestInitCmd_ForceOverwritesFiles(t *testing.T) {
	dir := setupTestEnv(t)

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CUSTOM=1\n"), 0o600))

	_, _, err := executeCommand(t, "init", "--force")
	require.NoError(t, err)

	content, err := os.ReadFile(envPath) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, string(templates.EnvFile), string(content))
}

func TestInitCmd_DoesNotReseedPatterns(t *testing.T) {
	setupTestEnv(t)

	_, _, err := executeCommand(t, "patterns", "remove", "2")
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "init")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Seeded")

	a := openTestApp(t)
	ignore, err := a.patternList(context.Background(), pattern.KindIgnore)
	require.NoError(t, err)
	assert.Len(t, ignore, 1)
}

func TestInitCmd_FilePermissions(t *testing.T) {
	dir := setupTestEnv(t)

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected config.yaml permissions 0600, got %o", perm)
	}
}
