package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/logsieve/internal/loader"
	"github.com/zorak1103/logsieve/internal/state"
)

func TestFilesCmd_AddListRemove(t *testing.T) {
	dir := setupTestEnv(t)
	a := writeTestFile(t, dir, "a.log", "first\n")
	b := writeTestFile(t, dir, "b.log", "second\n")

	stdout, _, err := executeCommand(t, "files", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No files in the session")

	stdout, _, err = executeCommand(t, "files", "add", "a.log", b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added a.log")

	stdout, _, err = executeCommand(t, "files", "add", a)
	require.NoError(t, err)
	assert.Contains(t, stdout, "already in the session", "relative and absolute names are the same file")

	st, err := state.Load("state.json")
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, st.Files())

	require.NoError(t, os.Remove(b))
	stdout, _, err = executeCommand(t, "files", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, a+" (6B)")
	assert.Contains(t, stdout, b+" (missing)")

	stdout, _, err = executeCommand(t, "files", "rm", b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed 1 file(s)")

	st, err = state.Load("state.json")
	require.NoError(t, err)
	assert.Equal(t, []string{a}, st.Files())
}

func TestFilesCmd_AddRejectsNonRegularFiles(t *testing.T) {
	dir := setupTestEnv(t)

	_, _, err := executeCommand(t, "files", "add", filepath.Join(dir, "reports"))
	assert.ErrorIs(t, err, loader.ErrNotRegularFile)

	_, _, err = executeCommand(t, "files", "add", filepath.Join(dir, "missing.log"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFilesCmd_Clear(t *testing.T) {
	dir := setupTestEnv(t)
	writeTestFile(t, dir, "a.log", "x\n")
	writeTestFile(t, dir, "b.log", "y\n")

	_, _, err := executeCommand(t, "files", "add", "a.log", "b.log")
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "files", "clear")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 2 file(s)")

	st, err := state.Load("state.json")
	require.NoError(t, err)
	assert.Empty(t, st.Files())
}
