// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/zorak1103/logsieve/internal/errors"
	"github.com/zorak1103/logsieve/internal/pattern"
)

// Common errors
var (
	Err = errors.New("config error")
)

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	Processing   ProcessingConfig   `mapstructure:"processing"`
	Remote       RemoteConfig       `mapstructure:"remote"`
	Docker       DockerConfig       `mapstructure:"docker"`
	Output       OutputConfig       `mapstructure:"output"`
	Notification NotificationConfig `mapstructure:"notification"`
	Watch        WatchConfig        `mapstructure:"watch"`
	Logging      LoggingConfig      `mapstructure:"logging"`

	// ConfigFilePath stores the path to the loaded config file (not marshaled from YAML)
	ConfigFilePath string `mapstructure:"-"`
}

// DatabaseConfig contains the SQLite database location
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ProcessingConfig contains the regex engine and the seed patterns
type ProcessingConfig struct {
	Engine         string        `mapstructure:"engine"`
	MatchTimeout   time.Duration `mapstructure:"match_timeout"` // Per-match limit of the regexp2 engine
	IgnorePatterns pattern.List  `mapstructure:"ignore_patterns"`
	ReportPatterns pattern.List  `mapstructure:"report_patterns"`
}

// RemoteConfig contains settings for remote log servers
type RemoteConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	IgnoreSSLErrors bool          `mapstructure:"ignore_ssl_errors"`
	MaxRetries      int           `mapstructure:"max_retries"`
	DownloadDir     string        `mapstructure:"download_dir"`
}

// DockerConfig contains Docker-specific settings
type DockerConfig struct {
	SocketPath string `mapstructure:"socket_path"`
}

// OutputConfig contains output path settings
type OutputConfig struct {
	ReportsDir          string `mapstructure:"reports_dir"`
	StateFile           string `mapstructure:"state_file"`
	ReportRetentionDays int    `mapstructure:"report_retention_days"`
}

// NotificationConfig contains notification settings
type NotificationConfig struct {
	ShoutrrURL string `mapstructure:"shoutrrr_url"` // Shoutrrr URL format
	Enabled    bool   `mapstructure:"enabled"`
}

// WatchConfig contains settings for the watch command
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig contains diagnostic logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Engine returns the configured regex engine. Validate guarantees it parses.
func (c *Config) Engine() pattern.Engine {
	e, err := pattern.ParseEngine(c.Processing.Engine)
	if err != nil {
		return pattern.DefaultEngine
	}
	return e
}

// autoDetectDockerSocket determines the Docker socket path based on environment and platform.
func autoDetectDockerSocket() string {
	if os.Getenv("DOCKER_HOST") != "" {
		return os.Getenv("DOCKER_HOST")
	}
	// Check for Unix socket
	if _, err := os.Stat("/var/run/docker.sock"); err == nil {
		return "unix:///var/run/docker.sock"
	}
	// Default to Windows named pipe if Unix socket not found
	return "npipe:////./pipe/docker_engine"
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/logsieve")
		v.AddConfigPath("/etc/logsieve")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			configFile := v.ConfigFileUsed()
			if configFile == "" {
				configFile = configPath
			}
			return nil, &apperrors.ConfigurationError{
				ConfigPath: configFile,
				Err:        fmt.Errorf("error reading config file: %w", err),
			}
		}
		// Config file not found; using defaults and env vars
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("LOGSIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &apperrors.ConfigurationError{
			ConfigPath: v.ConfigFileUsed(),
			Err:        fmt.Errorf("error unmarshaling config: %w", err),
		}
	}

	// Store the config file path in the struct (DI approach, no global state)
	cfg.ConfigFilePath = v.ConfigFileUsed()

	if cfg.Docker.SocketPath == "" {
		cfg.Docker.SocketPath = autoDetectDockerSocket()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "./logsieve.sqlite")

	v.SetDefault("processing.engine", string(pattern.DefaultEngine))
	v.SetDefault("processing.match_timeout", pattern.DefaultMatchTimeout.String())
	v.SetDefault("processing.ignore_patterns", []map[string]any{})
	v.SetDefault("processing.report_patterns", []map[string]any{})

	v.SetDefault("remote.timeout", "60s")
	v.SetDefault("remote.ignore_ssl_errors", true)
	v.SetDefault("remote.max_retries", 3)
	v.SetDefault("remote.download_dir", "./downloads")

	v.SetDefault("docker.socket_path", autoDetectDockerSocket())

	// Notification defaults
	v.SetDefault("notification.shoutrrr_url", "") // Required for AutomaticEnv to work
	v.SetDefault("notification.enabled", false)

	v.SetDefault("output.reports_dir", "./reports")
	v.SetDefault("output.state_file", "./state.json")
	v.SetDefault("output.report_retention_days", 30)

	v.SetDefault("watch.debounce", "500ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate ensures all required fields are set and values are within valid ranges.
func (c *Config) Validate() error {
	if err := c.validateRequiredFields(); err != nil {
		return err
	}

	if err := c.validateRanges(); err != nil {
		return err
	}

	return c.validatePatterns()
}

func (c *Config) fail(key string, err error) error {
	return &apperrors.ConfigurationError{ConfigPath: c.ConfigFilePath, Key: key, Err: err}
}

func (c *Config) validateRequiredFields() error {
	requiredFields := []struct {
		key   string
		value string
	}{
		{"database.path", c.Database.Path},
		{"docker.socket_path", c.Docker.SocketPath},
		{"output.reports_dir", c.Output.ReportsDir},
		{"output.state_file", c.Output.StateFile},
		{"remote.download_dir", c.Remote.DownloadDir},
	}

	for _, field := range requiredFields {
		if field.value == "" {
			return c.fail(field.key, fmt.Errorf("%w: %s is required", Err, field.key))
		}
	}

	if c.Notification.Enabled && c.Notification.ShoutrrURL == "" {
		return c.fail("notification.shoutrrr_url",
			fmt.Errorf("%w: notification.shoutrrr_url is required when notifications are enabled (set LOGSIEVE_NOTIFICATION_SHOUTRRR_URL)", Err))
	}
	return nil
}

func (c *Config) validateRanges() error {
	if c.Output.ReportRetentionDays < 1 || c.Output.ReportRetentionDays > 365 {
		return c.fail("output.report_retention_days",
			fmt.Errorf("%w: must be between 1 and 365, got %d", Err, c.Output.ReportRetentionDays))
	}
	if c.Remote.MaxRetries < 0 || c.Remote.MaxRetries > 10 {
		return c.fail("remote.max_retries",
			fmt.Errorf("%w: must be between 0 and 10, got %d", Err, c.Remote.MaxRetries))
	}
	if c.Remote.Timeout <= 0 {
		return c.fail("remote.timeout", fmt.Errorf("%w: must be positive, got %s", Err, c.Remote.Timeout))
	}
	if c.Watch.Debounce < 0 {
		return c.fail("watch.debounce", fmt.Errorf("%w: must not be negative, got %s", Err, c.Watch.Debounce))
	}
	if _, err := pattern.ParseEngine(c.Processing.Engine); err != nil {
		return c.fail("processing.engine", err)
	}
	if c.Processing.MatchTimeout <= 0 {
		return c.fail("processing.match_timeout",
			fmt.Errorf("%w: must be positive, got %s", Err, c.Processing.MatchTimeout))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return c.fail("logging.level", fmt.Errorf("%w: unknown level %q", Err, c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return c.fail("logging.format", fmt.Errorf("%w: unknown format %q", Err, c.Logging.Format))
	}
	return nil
}

func (c *Config) validatePatterns() error {
	engine := c.Engine()

	lists := []struct {
		key  string
		list pattern.List
	}{
		{"processing.ignore_patterns", c.Processing.IgnorePatterns},
		{"processing.report_patterns", c.Processing.ReportPatterns},
	}

	for _, l := range lists {
		for i, p := range l.list {
			if !p.Enabled {
				continue
			}
			if _, err := pattern.CompileWithTimeout(p.Text, engine, c.Processing.MatchTimeout); err != nil {
				return c.fail(fmt.Sprintf("%s[%d]", l.key, i), err)
			}
		}
	}
	return nil
}
