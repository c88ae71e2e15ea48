// Package loader reads local log files into a single text buffer.
package loader

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNotRegularFile is returned for directories, devices and other non-files.
var ErrNotRegularFile = errors.New("not a regular file")

// maxConcurrentReads bounds the number of files read at the same time.
const maxConcurrentReads = 4

var gzipMagic = []byte{0x1f, 0x8b}

// File is a loaded log file.
type File struct {
	Path       string
	Content    string
	Size       int64 // Size on disk
	Compressed bool  // Content was gunzipped
}

// ReadFiles reads all paths concurrently. Results keep the argument order.
// The first failure cancels the remaining reads.
func ReadFiles(ctx context.Context, paths ...string) ([]File, error) {
	files := make([]File, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentReads)

	for i, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := ReadFile(path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// ReadFile reads one file, decompressing it when it starts with the gzip magic bytes.
func ReadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat log file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	f, err := os.Open(path) // #nosec G304 -- log file paths are chosen by the user
	if err != nil {
		return File{}, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	content, compressed, err := readMaybeGzip(f)
	if err != nil {
		return File{}, fmt.Errorf("failed to read log file %s: %w", path, err)
	}

	return File{Path: path, Content: content, Size: info.Size(), Compressed: compressed}, nil
}

// Decompress returns the content of r, gunzipped when it starts with the gzip magic bytes.
func Decompress(r io.Reader) (string, bool, error) {
	return readMaybeGzip(r)
}

func readMaybeGzip(r io.Reader) (string, bool, error) {
	dr, compressed, err := NewReader(r)
	if err != nil {
		return "", compressed, err
	}

	data, err := io.ReadAll(dr)
	if err != nil {
		if compressed {
			return "", true, fmt.Errorf("invalid gzip data: %w", err)
		}
		return "", false, err
	}
	return string(data), compressed, nil
}

// NewReader returns a reader over the decoded content of r. Content starting
// with the gzip magic bytes is gunzipped whatever the file name or content type
// says, and compressed reports whether that happened.
func NewReader(r io.Reader) (io.Reader, bool, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, err
	}
	if !bytes.Equal(head, gzipMagic) {
		return br, false, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, true, fmt.Errorf("invalid gzip data: %w", err)
	}
	return zr, true, nil
}

// Concat joins file contents in order, terminating each non-empty file with a newline.
func Concat(files []File) string {
	var b strings.Builder
	for _, f := range files {
		if f.Content == "" {
			continue
		}
		b.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Load reads paths and returns their concatenated content.
func Load(ctx context.Context, paths ...string) (string, error) {
	files, err := ReadFiles(ctx, paths...)
	if err != nil {
		return "", err
	}
	return Concat(files), nil
}

// ListDir returns the regular files in dir whose names match glob, sorted by name.
// An empty glob matches every file.
func ListDir(dir, glob string) ([]string, error) {
	if glob == "" {
		glob = "*"
	}
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", glob, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list log directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(glob, e.Name()); ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
