package docker

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
)

// lineCollector is an io.Writer that splits a stream into log entries.
// Partial lines are held back until the next write or flush.
type lineCollector struct {
	stream  string
	pending []byte
	entries *[]LogEntry
}

func (c *lineCollector) Write(p []byte) (int, error) {
	c.pending = append(c.pending, p...)
	for {
		i := bytes.IndexByte(c.pending, '\n')
		if i < 0 {
			break
		}
		c.emit(string(c.pending[:i]))
		c.pending = c.pending[i+1:]
	}
	return len(p), nil
}

func (c *lineCollector) flush() {
	if len(c.pending) > 0 {
		c.emit(string(c.pending))
		c.pending = nil
	}
}

func (c *lineCollector) emit(line string) {
	*c.entries = append(*c.entries, parseLogLine(strings.TrimSuffix(line, "\r"), c.stream))
}

// parseLogStream parses the Docker log stream into LogEntry objects ordered by time.
// Non-TTY streams are multiplexed with 8-byte frame headers and demultiplexed with stdcopy.
func parseLogStream(reader io.Reader, tty bool) ([]LogEntry, error) {
	var entries []LogEntry
	stdout := &lineCollector{stream: StreamStdout, entries: &entries}
	stderr := &lineCollector{stream: StreamStderr, entries: &entries}

	var err error
	if tty {
		_, err = io.Copy(stdout, reader)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, reader)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading log stream after %d entries: %w", len(entries), err)
	}

	stdout.flush()
	stderr.flush()

	// Frames of the two streams may arrive out of order
	if !tty && allTimestamped(entries) {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		})
	}

	return entries, nil
}

func allTimestamped(entries []LogEntry) bool {
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			return false
		}
	}
	return true
}

// parseLogLine splits "2025-11-30T19:00:00.123456789Z message" into timestamp and message.
// Lines without a leading timestamp are kept whole.
func parseLogLine(line, stream string) LogEntry {
	entry := LogEntry{Stream: stream, Message: line}

	ts, message, found := strings.Cut(line, " ")
	if !found {
		ts, message = line, ""
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return entry
	}

	entry.Timestamp = t
	entry.Message = message
	return entry
}

// FormatText renders entries as log text, one line per entry.
// With timestamps, each line is prefixed with its RFC 3339 timestamp.
func FormatText(entries []LogEntry, timestamps bool) string {
	var b strings.Builder
	for _, e := range entries {
		if timestamps && !e.Timestamp.IsZero() {
			b.WriteString(e.Timestamp.UTC().Format(time.RFC3339Nano))
			b.WriteByte(' ')
		}
		b.WriteString(e.Message)
		b.WriteByte('\n')
	}
	return b.String()
}

// LatestLogTime returns the timestamp of the most recent entry, or the zero time.
func LatestLogTime(entries []LogEntry) time.Time {
	var latest time.Time
	for _, e := range entries {
		if e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	return latest
}
