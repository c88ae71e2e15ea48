// Package apperrors provides domain-specific error types for logsieve.
// These error types include contextual information to aid debugging and error reporting.
package apperrors

import "fmt"

// ConfigurationError represents configuration-related errors.
// It includes the configuration file path and specific key that caused the error.
type ConfigurationError struct {
	ConfigPath string // Path to the configuration file
	Key        string // Configuration key that caused the error
	Err        error  // Underlying error
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	path := e.ConfigPath
	if path == "" {
		path = "<defaults>"
	}
	if e.Key != "" {
		return fmt.Sprintf("configuration error in %s (key: %s): %v", path, e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", path, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StorageError represents failures of the SQLite database.
type StorageError struct {
	Path      string // Database file path
	Operation string // Operation that failed (e.g., "migrate", "insert source")
	Err       error  // Underlying error
}

// Error implements the error interface for StorageError.
func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage %s failed (db: %s): %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// RemoteFetchError represents request and response errors of a remote log server.
// It includes the endpoint URL and HTTP status code.
type RemoteFetchError struct {
	Endpoint   string // Request URL without credentials
	StatusCode int    // HTTP status code (0 if not applicable)
	Err        error  // Underlying error
}

// Error implements the error interface for RemoteFetchError.
func (e *RemoteFetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote fetch error at %s (status: %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote fetch error at %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// DockerConnectionError represents Docker connection and operation errors.
// It includes the socket path and the operation that failed.
type DockerConnectionError struct {
	SocketPath string // Docker socket path (e.g., /var/run/docker.sock)
	Operation  string // Operation that failed (e.g., "Ping", "ContainerLogs")
	Err        error  // Underlying error
}

// Error implements the error interface for DockerConnectionError.
func (e *DockerConnectionError) Error() string {
	if e.SocketPath != "" {
		return fmt.Sprintf("docker %s failed (socket: %s): %v", e.Operation, e.SocketPath, e.Err)
	}
	return fmt.Sprintf("docker %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *DockerConnectionError) Unwrap() error {
	return e.Err
}
