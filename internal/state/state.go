// Package state manages the persistent session state of the application.
//
// The session tracks the log files currently opened for analysis and, for
// Docker sources, the timestamp of the newest log line already fetched.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// State represents the persistent session state
type State struct {
	Version     string                `json:"version"`
	LastUpdated time.Time             `json:"last_updated"`
	LogFiles    []string              `json:"log_files"`
	Containers  map[string]*Container `json:"containers"`
	mu          sync.RWMutex          `json:"-"`
	filePath    string                `json:"-"`
	modified    bool                  `json:"-"`
}

// Container represents the fetch state for a single Docker container
type Container struct {
	Name      string    `json:"name"`
	LastFetch time.Time `json:"last_fetch"`
	LastLog   time.Time `json:"last_log"`
}

// Load loads the state from a JSON file at the specified path.
// Returns an empty state if the file doesn't exist.
func Load(filePath string) (*State, error) {
	s := &State{
		Version:    "1",
		Containers: make(map[string]*Container),
		filePath:   filePath,
	}

	// If file doesn't exist, return empty state
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return s, nil
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- filePath is controlled by application config
	if err != nil {
		return nil, fmt.Errorf("failed to read state file from %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", filePath, err)
	}

	if s.Containers == nil {
		s.Containers = make(map[string]*Container)
	}
	s.filePath = filePath
	return s, nil
}

// Path returns the file the state is stored in.
func (s *State) Path() string {
	return s.filePath
}

// Save saves the state to the JSON file atomically.
// Uses a temporary file and rename operation to ensure atomic writes.
// Only saves if the state has been modified since the last save.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveUnlocked()
}

// saveUnlocked performs the save operation without acquiring the lock
// Caller must hold the lock
func (s *State) saveUnlocked() error {
	if !s.modified {
		return nil // No changes to save
	}

	s.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", s.filePath, err)
	}

	// Atomic write: write to temp file, then rename
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, "state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in directory %s for state %s: %w", dir, s.filePath, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to write temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to sync temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}

	_ = tmpFile.Close() // Explicit ignore - we've already synced

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to rename temp file %s to %s: %w", tmpPath, s.filePath, err)
	}

	s.modified = false
	return nil
}

// AddFile appends a log file to the session. Paths are stored absolute.
// Returns false if the file is already part of the session.
func (s *State) AddFile(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.LogFiles, abs) {
		return false, nil
	}
	s.LogFiles = append(s.LogFiles, abs)
	s.modified = true
	return true, nil
}

// RemoveFiles removes the given files from the session and returns how many were removed.
func (s *State) RemoveFiles(paths ...string) int {
	remove := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			remove[abs] = struct{}{}
		}
		remove[p] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.LogFiles)
	s.LogFiles = slices.DeleteFunc(s.LogFiles, func(f string) bool {
		_, ok := remove[f]
		return ok
	})

	removed := before - len(s.LogFiles)
	if removed > 0 {
		s.modified = true
	}
	return removed
}

// Files returns a copy of the session's log files in the order they were added.
func (s *State) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.LogFiles)
}

// Clear removes all files from the session.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.LogFiles) > 0 {
		s.LogFiles = nil
		s.modified = true
	}
}

// LastLog returns the timestamp of the newest log line fetched from a container.
// Returns zero time and false if the container was never fetched.
func (s *State) LastLog(containerName string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ctr, exists := s.Containers[containerName]; exists {
		return ctr.LastLog, true
	}
	return time.Time{}, false
}

// UpdateContainer records a fetch of containerName whose newest line was lastLog.
func (s *State) UpdateContainer(containerName string, fetched, lastLog time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Containers[containerName] = &Container{
		Name:      containerName,
		LastFetch: fetched,
		LastLog:   lastLog,
	}
	s.modified = true
}

// ContainerNames returns the containers with a saved cursor, sorted.
func (s *State) ContainerNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.Containers))
	for name := range s.Containers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RemoveContainer forgets the fetch state of a container.
// Returns true if the container was found and removed.
func (s *State) RemoveContainer(containerName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Containers[containerName]; exists {
		delete(s.Containers, containerName)
		s.modified = true
		return true
	}
	return false
}

// ResetAll clears the session and persists the change to disk.
func (s *State) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LogFiles = nil
	s.Containers = make(map[string]*Container)
	s.modified = true

	return s.saveUnlocked()
}
