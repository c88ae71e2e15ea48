// Package debuginfo renders a markdown document describing the running
// installation, meant to be pasted into bug reports.
package debuginfo

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zorak1103/logsieve/internal/config"
	"github.com/zorak1103/logsieve/internal/version"
)

const hidden = "<hidden>"

// secretMarkers hide environment values whose names contain one of them.
var secretMarkers = []string{"PASSWORD", "PASSWD", "SECRET", "TOKEN", "KEY", "SHOUTRRR"}

// Setting is one key of the settings section.
type Setting struct {
	Key    string
	Value  string
	Type   string
	Hidden bool
}

// Info collects what the document shows.
type Info struct {
	Now         time.Time
	Version     version.Info
	ConfigPath  string
	Args        []string
	Settings    []Setting
	Environment []string // KEY=value pairs, os.Environ format
}

// Collect gathers the debug information of the current process.
func Collect(cfg *config.Config, extra ...Setting) Info {
	info := Info{
		Now:         time.Now(),
		Version:     version.Get(),
		Args:        os.Args[1:],
		Environment: os.Environ(),
	}
	if cfg != nil {
		info.ConfigPath = cfg.ConfigFilePath
		info.Settings = ConfigSettings(cfg)
	}
	info.Settings = append(info.Settings, extra...)
	return info
}

// ConfigSettings flattens the effective configuration. Notification URLs carry
// credentials and are hidden.
func ConfigSettings(cfg *config.Config) []Setting {
	str := func(key, value string) Setting { return Setting{Key: key, Value: value, Type: "string"} }
	num := func(key string, value int) Setting { return Setting{Key: key, Value: strconv.Itoa(value), Type: "int"} }
	flag := func(key string, value bool) Setting { return Setting{Key: key, Value: strconv.FormatBool(value), Type: "bool"} }
	dur := func(key string, value time.Duration) Setting { return Setting{Key: key, Value: value.String(), Type: "duration"} }
	patterns := func(key string, value []string) Setting {
		return Setting{Key: key, Value: strings.Join(value, "\n"), Type: fmt.Sprintf("%d pattern(s)", len(value))}
	}

	return []Setting{
		str("database.path", cfg.Database.Path),
		str("processing.engine", cfg.Processing.Engine),
		dur("processing.match_timeout", cfg.Processing.MatchTimeout),
		patterns("processing.ignore_patterns", cfg.Processing.IgnorePatterns.Texts()),
		patterns("processing.report_patterns", cfg.Processing.ReportPatterns.Texts()),
		dur("remote.timeout", cfg.Remote.Timeout),
		flag("remote.ignore_ssl_errors", cfg.Remote.IgnoreSSLErrors),
		num("remote.max_retries", cfg.Remote.MaxRetries),
		str("remote.download_dir", cfg.Remote.DownloadDir),
		str("docker.socket_path", cfg.Docker.SocketPath),
		str("output.reports_dir", cfg.Output.ReportsDir),
		str("output.state_file", cfg.Output.StateFile),
		num("output.report_retention_days", cfg.Output.ReportRetentionDays),
		flag("notification.enabled", cfg.Notification.Enabled),
		{Key: "notification.shoutrrr_url", Value: cfg.Notification.ShoutrrURL, Type: "string", Hidden: cfg.Notification.ShoutrrURL != ""},
		dur("watch.debounce", cfg.Watch.Debounce),
		str("logging.level", cfg.Logging.Level),
		str("logging.format", cfg.Logging.Format),
	}
}

// Line renders one "**headline**: value" line. Empty values read *empty*,
// multi-line values become a fenced block. Without GitHub line breaks the
// line ends in two spaces so plain markdown renders a hard break.
func Line(headline, data string, githubBreaks bool, typeText string) string {
	switch {
	case strings.Contains(data, "\n"):
		data = "\n```\n" + strings.TrimSpace(data) + "\n```"
	case data == "":
		data = "*empty*"
	default:
		data = "`" + data + "`"
	}

	var sb strings.Builder
	sb.WriteString("**" + headline + "**")
	if typeText != "" {
		sb.WriteString(" (" + typeText + ")")
	}
	sb.WriteString(": " + data)
	if !githubBreaks {
		sb.WriteString("  ")
	}
	sb.WriteString("\n")
	return sb.String()
}

// Render formats the information as markdown.
func Render(info Info, githubBreaks bool) string {
	var sb strings.Builder

	sb.WriteString("logsieve Debug Information\n")
	sb.WriteString("==========================\n")

	sb.WriteString("\n## General Info\n\n")
	sb.WriteString(Line("Current Date", info.Now.Format(time.RFC1123), githubBreaks, ""))
	sb.WriteString(Line("Version", info.Version.Version, githubBreaks, ""))
	sb.WriteString(Line("Build date", info.Version.BuildDate, githubBreaks, ""))
	sb.WriteString(Line("Git commit", info.Version.GitCommit, githubBreaks, ""))
	sb.WriteString(Line("Operating System", info.Version.Platform(), githubBreaks, ""))
	sb.WriteString(Line("Go Version", info.Version.GoVersion, githubBreaks, ""))
	sb.WriteString(Line("Config file", info.ConfigPath, githubBreaks, ""))
	sb.WriteString(Line("Application arguments", strings.Join(info.Args, "`, `"), githubBreaks, ""))

	sb.WriteString("\n## Settings\n\n")
	for _, s := range info.Settings {
		value := s.Value
		if s.Hidden {
			value = hidden
		}
		sb.WriteString(Line(s.Key, value, githubBreaks, s.Type))
	}

	sb.WriteString("\n## System environment\n\n")
	env := slices.Clone(info.Environment)
	slices.Sort(env)
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		if isSecret(key) {
			value = hidden
		}
		sb.WriteString(Line(key, value, githubBreaks, ""))
	}

	return sb.String()
}

func isSecret(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range secretMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
