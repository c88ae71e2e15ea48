package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zorak1103/logsieve/internal/sanitize"
)

// LocalName returns the file name a downloaded remote file is stored under.
// The content is stored decoded, so a trailing .gz is dropped.
func LocalName(name string) string {
	return sanitize.Name(strings.TrimSuffix(filepath.Base(name), ".gz"))
}

// DownloadToFile downloads the named file into dir and returns the written path.
// The file only appears under its final name once the download completed.
func (c *HTTPClient) DownloadToFile(ctx context.Context, name, dir string, progress ProgressFunc) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("failed to create download directory %s: %w", dir, err)
	}

	target := filepath.Join(dir, LocalName(name))
	tmpFile, err := os.CreateTemp(dir, "download-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file in directory %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	n, err := c.Download(ctx, name, tmpFile, progress)
	if err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return "", n, err
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return "", n, fmt.Errorf("failed to sync temp file %s: %w", tmpPath, err)
	}
	_ = tmpFile.Close() // Explicit ignore - we've already synced

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return "", n, fmt.Errorf("failed to rename temp file %s to %s: %w", tmpPath, target, err)
	}

	return target, n, nil
}
