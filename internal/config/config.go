package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/leandromarcosmoreira/ClawController/internal/logger"
	"github.com/leandromarcosmoreira/ClawController/internal/tls"
)

// Config is the full watchdog configuration.
type Config struct {
	EnvFiles []string       `toml:"env_files" mapstructure:"env_files"`
	Gateway  GatewayConfig  `toml:"gateway" mapstructure:"gateway"`
	Watchdog WatchdogConfig `toml:"watchdog" mapstructure:"watchdog"`
	Activity ActivityConfig `toml:"activity" mapstructure:"activity"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Metrics  MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`
}

type GatewayConfig struct {
	URL     string `toml:"url" mapstructure:"url"`
	AgentID string `toml:"agent_id" mapstructure:"agent_id"`
}

type WatchdogConfig struct {
	Interval             time.Duration `toml:"interval" mapstructure:"interval"`
	ProbeTimeout         time.Duration `toml:"probe_timeout" mapstructure:"probe_timeout"`
	NotifyTimeout        time.Duration `toml:"notify_timeout" mapstructure:"notify_timeout"`
	MaxRestartAttempts   int           `toml:"max_restart_attempts" mapstructure:"max_restart_attempts"`
	NotificationCooldown time.Duration `toml:"notification_cooldown" mapstructure:"notification_cooldown"`
	NotifyOnRecovery     bool          `toml:"notify_on_recovery" mapstructure:"notify_on_recovery"`
	RestartCommand       string        `toml:"restart_command" mapstructure:"restart_command"`
	RestartEnv           []string      `toml:"restart_env" mapstructure:"restart_env"`
	RestartTimeout       time.Duration `toml:"restart_timeout" mapstructure:"restart_timeout"`
	State                string        `toml:"state" mapstructure:"state"`
}

type ActivityConfig struct {
	Sinks []string `toml:"sinks" mapstructure:"sinks"`
}

type ServerConfig struct {
	Listen   string     `toml:"listen" mapstructure:"listen"`
	BasePath string     `toml:"base_path" mapstructure:"base_path"`
	TLS      tls.Config `toml:"tls" mapstructure:"tls"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type LogConfig struct {
	Level      string            `toml:"level" mapstructure:"level"`
	Format     string            `toml:"format" mapstructure:"format"`
	Color      bool              `toml:"color" mapstructure:"color"`
	Timestamps bool              `toml:"timestamps" mapstructure:"timestamps"`
	File       logger.FileConfig `toml:"file" mapstructure:"file"`
}

// Logger converts the section into a logger.Config.
func (l LogConfig) Logger() logger.Config {
	return logger.Config{
		Slog: logger.SlogConfig{
			Level:      l.Level,
			Format:     l.Format,
			Color:      l.Color,
			Timestamps: l.Timestamps,
		},
		File: l.File,
	}
}

var defaults = map[string]interface{}{
	"gateway.url":                    "http://openclaw-gateway:18789",
	"gateway.agent_id":               "main",
	"watchdog.interval":              "30s",
	"watchdog.probe_timeout":         "10s",
	"watchdog.notify_timeout":        "5s",
	"watchdog.max_restart_attempts":  3,
	"watchdog.notification_cooldown": "15m",
	"watchdog.notify_on_recovery":    true,
	"watchdog.restart_command":       "",
	"watchdog.restart_timeout":       "60s",
	"watchdog.state":                 "data/gateway_watchdog_state.json",
	"activity.sinks":                 []string{"sqlite:data/mission_control.db"},
	"server.listen":                  ":8080",
	"server.base_path":               "/api",
	"server.tls.enabled":             false,
	"server.tls.auto_generate":       false,
	"server.tls.min_version":         "1.2",
	"metrics.enabled":                false,
	"metrics.listen":                 ":9090",
	"log.level":                      "info",
	"log.format":                     logger.FormatText,
	"log.color":                      false,
	"log.timestamps":                 true,
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string][]string{
	"gateway.url":                    {"OPENCLAW_URL"},
	"gateway.agent_id":               {"OPENCLAW_AGENT_ID"},
	"watchdog.interval":              {"WATCHDOG_INTERVAL"},
	"watchdog.probe_timeout":         {"WATCHDOG_PROBE_TIMEOUT"},
	"watchdog.notify_timeout":        {"WATCHDOG_NOTIFY_TIMEOUT"},
	"watchdog.max_restart_attempts":  {"WATCHDOG_MAX_RESTART_ATTEMPTS"},
	"watchdog.notification_cooldown": {"WATCHDOG_NOTIFICATION_COOLDOWN"},
	"watchdog.notify_on_recovery":    {"WATCHDOG_NOTIFY_ON_RECOVERY"},
	"watchdog.restart_command":       {"WATCHDOG_RESTART_COMMAND"},
	"watchdog.restart_timeout":       {"WATCHDOG_RESTART_TIMEOUT"},
	"watchdog.state":                 {"WATCHDOG_STATE"},
	"activity.sinks":                 {"DATABASE_URL"},
	"server.listen":                  {"WATCHDOG_LISTEN"},
	"metrics.enabled":                {"WATCHDOG_METRICS_ENABLED"},
	"metrics.listen":                 {"WATCHDOG_METRICS_LISTEN"},
	"log.level":                      {"WATCHDOG_LOG_LEVEL"},
	"log.format":                     {"WATCHDOG_LOG_FORMAT"},
}

// Load reads configuration from defaults, the optional TOML file at path and
// the environment, in increasing order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := applyEnvFiles(v.GetStringSlice("env_files"), filepath.Dir(path)); err != nil {
			return Config{}, err
		}
	}
	for k, envs := range envBindings {
		if err := v.BindEnv(append([]string{k}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", k, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Validate checks ranges and formats.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Gateway.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("gateway.url must be an http(s) URL, got %q", c.Gateway.URL))
	}
	if c.Gateway.AgentID == "" {
		errs = append(errs, errors.New("gateway.agent_id must not be empty"))
	}
	w := c.Watchdog
	for name, d := range map[string]time.Duration{
		"watchdog.interval":        w.Interval,
		"watchdog.probe_timeout":   w.ProbeTimeout,
		"watchdog.notify_timeout":  w.NotifyTimeout,
		"watchdog.restart_timeout": w.RestartTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if w.MaxRestartAttempts < 0 {
		errs = append(errs, fmt.Errorf("watchdog.max_restart_attempts must not be negative, got %d", w.MaxRestartAttempts))
	}
	if w.NotificationCooldown < 0 {
		errs = append(errs, fmt.Errorf("watchdog.notification_cooldown must not be negative, got %s", w.NotificationCooldown))
	}
	if strings.TrimSpace(w.State) == "" {
		errs = append(errs, errors.New("watchdog.state must not be empty"))
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, fmt.Errorf("server.base_path must start with '/', got %q", c.Server.BasePath))
	}
	if err := c.Server.TLS.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// applyEnvFiles exports variables from .env files that are not already set,
// so the real environment always wins. Relative paths resolve against base.
func applyEnvFiles(files []string, base string) error {
	for _, f := range files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(base, f)
		}
		pairs, err := loadEnvFile(f)
		if err != nil {
			return fmt.Errorf("env file %s: %w", f, err)
		}
		for k, val := range pairs {
			if _, ok := os.LookupEnv(k); !ok {
				if err := os.Setenv(k, val); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// LoadEnvFile parses a simple .env file and returns a slice of "KEY=VALUE" entries.
func LoadEnvFile(path string) ([]string, error) {
	m, err := loadEnvFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out, nil
}

// loadEnvFile parses a simple .env file with KEY=VALUE lines (no export, no quotes). Lines starting with # are ignored.
func loadEnvFile(path string) (map[string]string, error) {
	// Mitigate G304: sanitize user-provided path by cleaning it before use.
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			m[k] = v
		}
	}
	return m, nil
}
