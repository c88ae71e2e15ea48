package version

import (
	"runtime"
	"testing"
)

func withVersion(t *testing.T, v, date, commit string) {
	t.Helper()
	origVersion, origDate, origCommit := Version, BuildDate, GitCommit
	t.Cleanup(func() {
		Version, BuildDate, GitCommit = origVersion, origDate, origCommit
	})
	Version, BuildDate, GitCommit = v, date, commit
}

func TestGetFullVersion(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		buildDate string
		gitCommit string
		want      string
	}{
		{
			name:      "default values",
			version:   "dev",
			buildDate: "unknown",
			gitCommit: "unknown",
			want:      "dev (build: unknown, commit: unknown)",
		},
		{
			name:      "production release",
			version:   "1.0.0",
			buildDate: "2024-01-15T10:30:00Z",
			gitCommit: "abc123def",
			want:      "1.0.0 (build: 2024-01-15T10:30:00Z, commit: abc123def)",
		},
		{
			name: "empty values",
			want: " (build: , commit: )",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version, tt.buildDate, tt.gitCommit)

			if got := GetFullVersion(); got != tt.want {
				t.Errorf("GetFullVersion() = %q, want %q", got, tt.want)
			}
			if got := GetVersion(); got != tt.version {
				t.Errorf("GetVersion() = %q, want %q", got, tt.version)
			}
		})
	}
}

func TestGet(t *testing.T) {
	withVersion(t, "1.2.3", "2025-01-01", "deadbeef")

	info := Get()
	if info.Version != "1.2.3" || info.BuildDate != "2025-01-01" || info.GitCommit != "deadbeef" {
		t.Errorf("Get() build metadata = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform() != want {
		t.Errorf("Platform() = %q, want %q", info.Platform(), want)
	}
}
