// Package source manages the configured log file sources.
//
// A source is a local directory, a remote log server or a Docker container.
// Sources are stored in the logFileSource table; one of them can be marked active.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Errors returned by the registry
var (
	ErrNotFound      = errors.New("log file source not found")
	ErrInvalidSource = errors.New("invalid log file source")
	ErrNoActive      = errors.New("no active log file source")
)

// Type identifies where a source reads its logs from.
type Type int

// Source types as stored in the database.
const (
	TypeLocal  Type = 1
	TypeRemote Type = 2
	TypeDocker Type = 3
)

// String returns the name used on the command line.
func (t Type) String() string {
	switch t {
	case TypeLocal:
		return "local"
	case TypeRemote:
		return "remote"
	case TypeDocker:
		return "docker"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseType converts a command line name or number into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "1":
		return TypeLocal, nil
	case "remote", "ezpublish", "2":
		return TypeRemote, nil
	case "docker", "3":
		return TypeDocker, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q (expected local, remote or docker)", ErrInvalidSource, s)
	}
}

// Source is one configured log file source.
type Source struct {
	ID            int64
	Type          Type
	Name          string
	LocalPath     string // Directory for local sources, download directory override for remote ones
	ServerURL     string
	Username      string
	Password      string
	ContainerName string
	Priority      int
}

// IsStored reports whether the source has been written to the database.
func (s *Source) IsStored() bool {
	return s.ID > 0
}

// LocalPathExists reports whether LocalPath names an existing directory.
func (s *Source) LocalPathExists() bool {
	if s.LocalPath == "" {
		return false
	}
	info, err := os.Stat(s.LocalPath)
	return err == nil && info.IsDir()
}

// IsRemoteValid reports whether the source has everything needed to contact a remote server.
func (s *Source) IsRemoteValid() bool {
	if s.Type != TypeRemote || s.Username == "" {
		return false
	}
	u, err := url.Parse(s.ServerURL)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate checks the fields required by the source type.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSource)
	}

	switch s.Type {
	case TypeLocal:
		if s.LocalPath == "" {
			return fmt.Errorf("%w: local path is required for local sources", ErrInvalidSource)
		}
	case TypeRemote:
		if !s.IsRemoteValid() {
			return fmt.Errorf("%w: remote sources need an http(s) server URL and a username", ErrInvalidSource)
		}
	case TypeDocker:
		if s.ContainerName == "" {
			return fmt.Errorf("%w: container name is required for docker sources", ErrInvalidSource)
		}
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidSource, int(s.Type))
	}
	return nil
}

// String describes the source without exposing the password.
func (s Source) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s (%s", s.ID, s.Name, s.Type)

	switch s.Type {
	case TypeLocal:
		fmt.Fprintf(&b, ", path: %s", s.LocalPath)
	case TypeRemote:
		fmt.Fprintf(&b, ", server: %s, user: %s", s.ServerURL, s.Username)
		if s.Password != "" {
			b.WriteString(", password: ***")
		}
	case TypeDocker:
		fmt.Fprintf(&b, ", container: %s", s.ContainerName)
	}

	fmt.Fprintf(&b, ", priority: %d)", s.Priority)
	return b.String()
}
