// Package docker reads container logs from the Docker API for docker log sources.
package docker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	apperrors "github.com/zorak1103/logsieve/internal/errors"
	"github.com/zorak1103/logsieve/internal/pattern"
)

// Common errors
var (
	ErrConnectionFailed = errors.New("docker connection failed")
	ErrNotFound         = errors.New("container not found")
)

// Client defines the Docker operations used by logsieve.
// All methods accept context.Context for cancellation and timeout support.
type Client interface {
	// Ping verifies the Docker daemon is accessible.
	Ping(ctx context.Context) error
	// Close releases the connection.
	Close() error

	// ListContainers lists containers matching the filter options.
	ListContainers(ctx context.Context, opts FilterOptions) ([]Container, error)

	// ReadLogsSince reads container logs from since forward, ordered by timestamp.
	ReadLogsSince(ctx context.Context, containerName string, since time.Time) ([]LogEntry, error)
	// ReadLogsTail reads the last n log lines of a container.
	ReadLogsTail(ctx context.Context, containerName string, n int) ([]LogEntry, error)
}

// sdkClient implements Client on the Docker SDK
type sdkClient struct {
	cli        *client.Client
	socketPath string
}

// Compile-time verification that sdkClient implements Client
var _ Client = (*sdkClient)(nil)

// NewClient connects to the Docker daemon at socketPath (or default if empty).
func NewClient(socketPath string) (Client, error) {
	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}

	if socketPath != "" {
		opts = append(opts, client.WithHost(socketPath))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, &apperrors.DockerConnectionError{SocketPath: socketPath, Operation: "NewClient", Err: err}
	}

	return &sdkClient{cli: cli, socketPath: socketPath}, nil
}

func (c *sdkClient) fail(op string, err error) error {
	if errdefs.IsNotFound(err) {
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	} else if client.IsErrConnectionFailed(err) {
		err = fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return &apperrors.DockerConnectionError{SocketPath: c.socketPath, Operation: op, Err: err}
}

func (c *sdkClient) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return c.fail("Ping", err)
	}
	return nil
}

func (c *sdkClient) Close() error {
	return c.cli.Close()
}

func (c *sdkClient) ListContainers(ctx context.Context, opts FilterOptions) ([]Container, error) {
	var nameFilter pattern.Matcher
	if opts.NamePattern != "" {
		m, err := pattern.Compile(opts.NamePattern, pattern.EngineRE2)
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern '%s': %w", opts.NamePattern, err)
		}
		nameFilter = m
	}

	containers, err := c.cli.ContainerList(ctx, container.ListOptions{All: opts.IncludeAll})
	if err != nil {
		return nil, c.fail("ContainerList", err)
	}

	var result []Container
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}

		if nameFilter != nil {
			if _, ok, _ := nameFilter.FindFirst(name); !ok {
				continue
			}
		}

		result = append(result, Container{
			ID:     ctr.ID,
			Name:   name,
			State:  ctr.State,
			Image:  ctr.Image,
			Labels: ctr.Labels,
		})
	}

	return result, nil
}

func (c *sdkClient) ReadLogsSince(ctx context.Context, containerName string, since time.Time) ([]LogEntry, error) {
	return c.readLogs(ctx, containerName, container.LogsOptions{
		Since: since.Format(time.RFC3339Nano),
	})
}

func (c *sdkClient) ReadLogsTail(ctx context.Context, containerName string, n int) ([]LogEntry, error) {
	return c.readLogs(ctx, containerName, container.LogsOptions{
		Tail: strconv.Itoa(n),
	})
}

func (c *sdkClient) readLogs(ctx context.Context, containerName string, opts container.LogsOptions) ([]LogEntry, error) {
	// TTY containers send a raw stream without multiplexing headers
	info, err := c.cli.ContainerInspect(ctx, containerName)
	if err != nil {
		return nil, c.fail("ContainerInspect", err)
	}
	tty := info.Config != nil && info.Config.Tty

	opts.ShowStdout = true
	opts.ShowStderr = true
	opts.Timestamps = true

	reader, err := c.cli.ContainerLogs(ctx, containerName, opts)
	if err != nil {
		return nil, c.fail("ContainerLogs", err)
	}
	// Close reader after parsing; error not actionable in defer context as stream is already consumed
	defer func() { _ = reader.Close() }()

	entries, err := parseLogStream(reader, tty)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs for container %s: %w", containerName, err)
	}
	return entries, nil
}
