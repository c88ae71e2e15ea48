package docker

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiplexed(t *testing.T, frames ...[2]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	stdout := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	stderr := stdcopy.NewStdWriter(&buf, stdcopy.Stderr)

	for _, f := range frames {
		w := stdout
		if f[0] == StreamStderr {
			w = stderr
		}
		_, err := w.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	return &buf
}

func TestParseLogStream_Multiplexed(t *testing.T) {
	buf := multiplexed(t,
		[2]string{StreamStdout, "2025-01-01T10:00:00Z started\n2025-01-01T10:00:02Z ready\n"},
		[2]string{StreamStderr, "2025-01-01T10:00:01Z warning: slow disk\n"},
	)

	entries, err := parseLogStream(buf, false)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "started", entries[0].Message)
	assert.Equal(t, StreamStdout, entries[0].Stream)
	assert.Equal(t, "warning: slow disk", entries[1].Message, "entries are ordered by timestamp")
	assert.Equal(t, StreamStderr, entries[1].Stream)
	assert.Equal(t, "ready", entries[2].Message)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 2, 0, time.UTC), entries[2].Timestamp)
}

func TestParseLogStream_SplitFrames(t *testing.T) {
	buf := multiplexed(t,
		[2]string{StreamStdout, "2025-01-01T10:00:00Z first ha"},
		[2]string{StreamStdout, "lf\n2025-01-01T10:00:01Z no newline at end"},
	)

	entries, err := parseLogStream(buf, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first half", entries[0].Message)
	assert.Equal(t, "no newline at end", entries[1].Message)
}

func TestParseLogStream_TTY(t *testing.T) {
	raw := "2025-01-01T10:00:00.5Z tty line\r\nplain line without timestamp\n"

	entries, err := parseLogStream(strings.NewReader(raw), true)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "tty line", entries[0].Message)
	assert.Equal(t, "plain line without timestamp", entries[1].Message)
	assert.True(t, entries[1].Timestamp.IsZero())
}

func TestParseLogStream_CorruptHeader(t *testing.T) {
	// Stream type 9 is not a valid stdcopy stream
	_, err := parseLogStream(bytes.NewReader([]byte{9, 0, 0, 0, 0, 0, 0, 1, 'x'}), false)
	assert.Error(t, err)
}

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
		wantTS  bool
	}{
		{name: "timestamp and message", line: "2025-11-30T19:00:00.123456789Z message here", wantMsg: "message here", wantTS: true},
		{name: "timestamp only", line: "2025-11-30T19:00:00Z", wantMsg: "", wantTS: true},
		{name: "no timestamp", line: "just text", wantMsg: "just text"},
		{name: "empty", line: "", wantMsg: ""},
		{name: "utf8", line: "2025-11-30T19:00:00Z größe überschritten 🚀", wantMsg: "größe überschritten 🚀", wantTS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := parseLogLine(tt.line, StreamStdout)
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.wantTS, !entry.Timestamp.IsZero())
			assert.Equal(t, StreamStdout, entry.Stream)
		})
	}
}

func TestFormatText(t *testing.T) {
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	entries := []LogEntry{
		{Timestamp: ts, Message: "ERROR: disk full"},
		{Message: "INFO: ok"},
	}

	assert.Equal(t, "ERROR: disk full\nINFO: ok\n", FormatText(entries, false))
	assert.Equal(t, "2025-01-01T10:00:00Z ERROR: disk full\nINFO: ok\n", FormatText(entries, true))
	assert.Empty(t, FormatText(nil, true))
}

func TestLatestLogTime(t *testing.T) {
	early := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	assert.True(t, LatestLogTime(nil).IsZero())
	assert.Equal(t, late, LatestLogTime([]LogEntry{{Timestamp: late}, {Timestamp: early}, {}}))
}
