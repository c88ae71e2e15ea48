package remote

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zorak1103/logsieve/internal/errors"
	"github.com/zorak1103/logsieve/internal/source"
)

func testOptions() Options {
	return Options{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
}

// newTestServer serves the list and file calls and checks Basic auth.
func newTestServer(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		path := r.URL.Path
		switch {
		case path == rootPath+listFilesCmd:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error_text":"","content":["error.log","debug.log.gz"]}`))
		case strings.HasPrefix(path, rootPath+getFileCmd):
			data, ok := files[strings.TrimPrefix(path, rootPath+getFileCmd)]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestListLogFiles(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL+"/", "admin", "secret", testOptions())

	names, err := c.ListLogFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"error.log", "debug.log.gz"}, names)
}

func TestListLogFiles_AuthenticationFailed(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, "admin", "wrong", testOptions())

	_, err := c.ListLogFiles(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	var fetchErr *apperrors.RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
}

func TestParseFileList(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []string
		wantErr bool
	}{
		{name: "bare array", data: `["a.log","b.log"]`, want: []string{"a.log", "b.log"}},
		{name: "envelope", data: ` {"content":["a.log"]} `, want: []string{"a.log"}},
		{name: "empty envelope", data: `{"content":[]}`, want: []string{}},
		{name: "server error text", data: `{"error_text":"access denied","content":[]}`, wantErr: true},
		{name: "html page", data: `<html>login</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFileList([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownload(t *testing.T) {
	const content = "line one\nline two\n"
	srv := newTestServer(t, map[string][]byte{
		"error.log":    []byte(content),
		"debug.log.gz": gzipped(t, content),
	})
	c := NewClient(srv.URL, "admin", "secret", testOptions())

	for _, name := range []string{"error.log", "debug.log.gz"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			var lastReceived int64
			n, err := c.Download(context.Background(), name, &buf, func(received, _ int64) {
				lastReceived = received
			})
			require.NoError(t, err)
			assert.Equal(t, content, buf.String())
			assert.Equal(t, int64(len(content)), n)
			assert.Positive(t, lastReceived)
		})
	}
}

func TestDownload_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, "admin", "secret", testOptions())

	_, err := c.Download(context.Background(), "nope.log", &bytes.Buffer{}, nil)
	var fetchErr *apperrors.RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestDownload_EmptyName(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "admin", "secret", testOptions())
	_, err := c.Download(context.Background(), "  ", &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		failStatus   int
		maxRetries   int
		wantErr      bool
		wantRequests int32
	}{
		{name: "recovers from server errors", failures: 2, failStatus: http.StatusBadGateway, maxRetries: 2, wantRequests: 3},
		{name: "gives up after max retries", failures: 5, failStatus: http.StatusInternalServerError, maxRetries: 1, wantErr: true, wantRequests: 2},
		{name: "does not retry client errors", failures: 5, failStatus: http.StatusBadRequest, maxRetries: 3, wantErr: true, wantRequests: 1},
		{name: "does not retry auth errors", failures: 5, failStatus: http.StatusForbidden, maxRetries: 3, wantErr: true, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if requests.Add(1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				_, _ = w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			opts := testOptions()
			opts.MaxRetries = tt.maxRetries
			c := NewClient(srv.URL, "u", "p", opts)

			_, err := c.ListLogFiles(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRequests, requests.Load())
		})
	}
}

func TestExecuteWithRetry_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 5
	opts.RetryDelay = time.Hour
	c := NewClient(srv.URL, "u", "p", opts)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListLogFiles(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIgnoreSSLErrors(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["secure.log"]`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 0

	strict := NewClient(srv.URL, "u", "p", opts)
	_, err := strict.ListLogFiles(context.Background())
	assert.Error(t, err, "self-signed certificate must be rejected by default")

	opts.IgnoreSSLErrors = true
	lenient := NewClient(srv.URL, "u", "p", opts)
	names, err := lenient.ListLogFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"secure.log"}, names)
}

func TestFromSource(t *testing.T) {
	_, err := FromSource(source.Source{Type: source.TypeRemote, Name: "broken", ServerURL: "ftp://x"}, testOptions())
	assert.ErrorIs(t, err, source.ErrInvalidSource)

	c, err := FromSource(source.Source{
		Type:      source.TypeRemote,
		Name:      "prod",
		ServerURL: "https://logs.example.com/",
		Username:  "admin",
	}, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "https://logs.example.com"+rootPath+listFilesCmd, c.endpoint(listFilesCmd))
}

func TestDownloadToFile(t *testing.T) {
	const content = "2025-01-01 ERROR boom\n"
	srv := newTestServer(t, map[string][]byte{"debug.log.gz": gzipped(t, content)})
	c := NewClient(srv.URL, "admin", "secret", testOptions())

	dir := filepath.Join(t.TempDir(), "downloads")
	path, n, err := c.DownloadToFile(context.Background(), "debug.log.gz", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "debug.log"), path)
	assert.Equal(t, int64(len(content)), n)

	data, err := os.ReadFile(path) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	_, _, err = c.DownloadToFile(context.Background(), "missing.log", dir, nil)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed downloads leave no temp files behind")
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "error.log", LocalName("error.log"))
	assert.Equal(t, "debug.log", LocalName("debug.log.gz"))
	assert.Equal(t, "passwd", LocalName("../../etc/passwd"))
	assert.Equal(t, "my_log.txt", LocalName("my log.txt"))
}
