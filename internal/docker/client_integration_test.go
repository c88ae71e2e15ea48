//go:build integration

package docker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestClient_Integration talks to a real Docker daemon.
// Run with: go test -tags=integration ./internal/docker/...
func TestClient_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := NewClient("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer c.Close() // nolint:errcheck

	if err := c.Ping(ctx); err != nil {
		t.Skipf("Skipping test - Docker daemon not available: %v", err)
	}

	if _, err := c.ListContainers(ctx, FilterOptions{IncludeAll: true}); err != nil {
		t.Errorf("ListContainers failed: %v", err)
	}

	_, err = c.ReadLogsTail(ctx, "logsieve-no-such-container", 10)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing container, got %v", err)
	}
}
