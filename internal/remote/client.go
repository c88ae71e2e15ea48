// Package remote downloads log files from a remote log server.
//
// The server exposes two ezjscore calls below the server URL:
//
//	/ezjscore/call/loganalyzer::get_log_file_list        JSON list of file names
//	/ezjscore/call/loganalyzer::get_log_file::<name>     raw (possibly gzipped) file content
//
// Requests authenticate with HTTP Basic auth.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"go.uber.org/zap"

	apperrors "github.com/zorak1103/logsieve/internal/errors"
	"github.com/zorak1103/logsieve/internal/loader"
	"github.com/zorak1103/logsieve/internal/source"
)

// Common errors
var (
	ErrAuthenticationFailed = errors.New("username and/or password incorrect")
	ErrInvalidResponse      = errors.New("invalid server response")
)

const (
	rootPath     = "/ezjscore/call/loganalyzer::"
	listFilesCmd = "get_log_file_list"
	getFileCmd   = "get_log_file::"
)

// ProgressFunc is called while a download runs. Total is -1 when the server sent no length.
type ProgressFunc func(received, total int64)

// Client defines the remote log server operations.
type Client interface {
	// ListLogFiles returns the names of the log files offered by the server.
	ListLogFiles(ctx context.Context) ([]string, error)
	// Download streams the decoded content of a log file to w and returns the bytes written.
	Download(ctx context.Context, name string, w io.Writer, progress ProgressFunc) (int64, error)
}

// Options configures the HTTP client.
type Options struct {
	Timeout         time.Duration
	IgnoreSSLErrors bool
	MaxRetries      int           // Retries after the first attempt for network errors and 5xx
	RetryDelay      time.Duration // Linear backoff step, default 1s
	Logger          *zap.Logger
}

// HTTPClient implements Client over HTTP(S).
type HTTPClient struct {
	serverURL  string
	username   string
	password   string
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
}

// Compile-time verification that HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

// NewClient creates a client for the server at serverURL.
func NewClient(serverURL, username, password string, opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Bodies are decoded by decodeBody so progress follows the wire size
	transport.DisableCompression = true
	if opts.IgnoreSSLErrors {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via remote.ignore_ssl_errors for self-signed servers
	}

	return &HTTPClient{
		serverURL: strings.TrimRight(serverURL, "/"),
		username:  username,
		password:  password,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:   opts,
		logger: logger,
	}
}

// FromSource creates a client for a remote log file source.
func FromSource(s source.Source, opts Options) (*HTTPClient, error) {
	if !s.IsRemoteValid() {
		return nil, fmt.Errorf("%w: %s is not a usable remote source", source.ErrInvalidSource, s.Name)
	}
	return NewClient(s.ServerURL, s.Username, s.Password, opts), nil
}

func (c *HTTPClient) endpoint(call string) string {
	return c.serverURL + rootPath + call
}

func (c *HTTPClient) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request to %s: %w", endpoint, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept-Encoding", "gzip")
	return req, nil
}

// executeWithRetry performs a GET with retry logic for transient errors.
// On success the caller owns the response body.
func (c *HTTPClient) executeWithRetry(ctx context.Context, endpoint string) (*http.Response, error) {
	attempts := c.opts.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.opts.RetryDelay
			c.logger.Warn("retrying remote request",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		req, err := c.newRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, Err: ctx.Err()}
			}
			lastErr = &apperrors.RemoteFetchError{Endpoint: endpoint, Err: err}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			drain(resp)
			return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrAuthenticationFailed}
		case resp.StatusCode >= 500:
			body := drain(resp)
			lastErr = &apperrors.RemoteFetchError{Endpoint: endpoint, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("server error: %s", body)}
			continue
		default:
			body := drain(resp)
			return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("unexpected status: %s", body)}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// drain reads a short excerpt of the body for error messages and closes it.
func drain(resp *http.Response) string {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close() // error not actionable, the response is discarded
	return strings.TrimSpace(string(excerpt))
}

// listResponse is the ezjscore envelope; some servers send the bare array instead.
type listResponse struct {
	ErrorText string   `json:"error_text"`
	Content   []string `json:"content"`
}

// ListLogFiles returns the file names offered by the server.
func (c *HTTPClient) ListLogFiles(ctx context.Context) ([]string, error) {
	endpoint := c.endpoint(listFilesCmd)

	resp, err := c.executeWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Close response body; error not actionable as body is already read
	}()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, Err: err}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, Err: err}
	}

	names, err := parseFileList(data)
	if err != nil {
		return nil, &apperrors.RemoteFetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("remote log files listed", zap.String("endpoint", endpoint), zap.Int("count", len(names)))
	return names, nil
}

func parseFileList(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)

	var names []string
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		}
		return names, nil
	}

	var envelope listResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if envelope.ErrorText != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, envelope.ErrorText)
	}
	return envelope.Content, nil
}

// Download streams the decoded content of the named file to w.
func (c *HTTPClient) Download(ctx context.Context, name string, w io.Writer, progress ProgressFunc) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: empty file name", ErrInvalidResponse)
	}
	endpoint := c.endpoint(getFileCmd + url.PathEscape(name))

	resp, err := c.executeWithRetry(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close() // error not actionable after the copy finished
	}()

	resp.Body = &countingReader{r: resp.Body, total: resp.ContentLength, progress: progress}

	body, err := decodeBody(resp)
	if err != nil {
		return 0, &apperrors.RemoteFetchError{Endpoint: endpoint, Err: err}
	}

	start := time.Now()
	n, err := io.Copy(w, body)
	if err != nil {
		return n, &apperrors.RemoteFetchError{Endpoint: endpoint, Err: fmt.Errorf("download interrupted: %w", err)}
	}

	c.logger.Info("remote log file downloaded",
		zap.String("file", name),
		zap.String("size", units.HumanSize(float64(n))),
		zap.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// decodeBody returns the body reader. Some servers serve .gz logs as
// application/octet-stream, so the content decides, not the headers.
func decodeBody(resp *http.Response) (io.Reader, error) {
	body, _, err := loader.NewReader(resp.Body)
	return body, err
}

type countingReader struct {
	r        io.ReadCloser
	received int64
	total    int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.received += int64(n)
		if c.progress != nil {
			c.progress(c.received, c.total)
		}
	}
	return n, err
}

func (c *countingReader) Close() error {
	return c.r.Close()
}
