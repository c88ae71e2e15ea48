package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/docker"
)

const testSampleLog = `2025-01-01 10:00:00 GET /health HTTP/1.1 200
2025-01-01 10:00:01 ERROR: timeout while reading
2025-01-01 10:00:02 DEBUG cache warm
2025-01-01 10:00:03 PHP Warning: undefined index
2025-01-01 10:00:04 GET /healthcheck HTTP/1.1 200
2025-01-01 10:00:05 ERROR: timeout while writing
2025-01-01 10:00:06 ERROR: refused connection
`

// setupTestEnv runs 'logsieve init' in a fresh temporary working directory.
// The directory then holds the template config, the seeded database and the
// reports and downloads directories.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	_, _, err := executeCommand(t, "init")
	require.NoError(t, err)
	return dir
}

// writeTestFile writes content to name below dir and returns the path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandWithInput(t, "", args...)
}

// executeCommandWithInput runs the root command with stdin set to input.
func executeCommandWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	return executeCommandContext(context.Background(), t, input, args...)
}

func executeCommandContext(ctx context.Context, t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag of c and its subcommands to its default,
// because cobra keeps flag values between executions. It also drops the
// context of every command: cobra only hands the execution context down to a
// subcommand whose context is still nil.
func resetFlags(c *cobra.Command) {
	c.SetContext(nil) //nolint:staticcheck // nil lets ExecuteContext pass the new context down

	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// openTestApp opens the app of the current test environment.
func openTestApp(t *testing.T) *app {
	t.Helper()

	loaded, err := config.Load(defaultConfigFile)
	require.NoError(t, err)

	a, err := openApp(context.Background(), loaded)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// fakeDockerClient serves canned containers and log entries.
type fakeDockerClient struct {
	containers []docker.Container
	entries    []docker.LogEntry
	sinceCalls []time.Time
	tailCalls  []int
}

var _ docker.Client = (*fakeDockerClient)(nil)

func (f *fakeDockerClient) Ping(_ context.Context) error { return nil }

func (f *fakeDockerClient) Close() error { return nil }

func (f *fakeDockerClient) ListContainers(_ context.Context, _ docker.FilterOptions) ([]docker.Container, error) {
	return f.containers, nil
}

func (f *fakeDockerClient) ReadLogsSince(_ context.Context, _ string, since time.Time) ([]docker.LogEntry, error) {
	f.sinceCalls = append(f.sinceCalls, since)
	var out []docker.LogEntry
	for _, e := range f.entries {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDockerClient) ReadLogsTail(_ context.Context, _ string, n int) ([]docker.LogEntry, error) {
	f.tailCalls = append(f.tailCalls, n)
	if n < len(f.entries) {
		return f.entries[len(f.entries)-n:], nil
	}
	return f.entries, nil
}

// useFakeDocker makes the commands talk to fake for the rest of the test.
func useFakeDocker(t *testing.T, fake *fakeDockerClient) {
	t.Helper()

	orig := newDockerClient
	newDockerClient = func(string) (docker.Client, error) { return fake, nil }
	t.Cleanup(func() { newDockerClient = orig })
}
