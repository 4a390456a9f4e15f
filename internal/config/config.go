// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads connector settings: the Code42 asset configuration
// plus the transport, state, tracing and metrics options around it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// State backends.
const (
	StateBackendMemory = "memory"
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// Tracing exporters.
const (
	TracingExporterNone    = "none"
	TracingExporterConsole = "console"
	TracingExporterOTLP    = "otlp"
)

// Config is the full connector configuration.
type Config struct {
	// CloudInstance is the Code42 console host (required).
	CloudInstance string `yaml:"cloud_instance"`

	// Username is the local account username or API client id (required).
	Username string `yaml:"username"`

	// Password is the account password or API client secret (required).
	// May be a secret reference such as "env:CODE42_PASSWORD" or "keychain:code42".
	Password string `yaml:"password"`

	// AuthType is "local_account" (default) or "api_client".
	AuthType string `yaml:"auth_type,omitempty"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxAttempts is the number of tries per request; 1 disables retries.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// RequestsPerSecond rate-limits API calls; 0 disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`

	State   StateConfig   `yaml:"state,omitempty"`
	Tracing TracingConfig `yaml:"tracing,omitempty"`

	// MetricsFile receives Prometheus text-format metrics after each run.
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// StateConfig selects where asset state is kept.
type StateConfig struct {
	// Backend is memory, file or sqlite. Default: file
	Backend string `yaml:"backend,omitempty"`

	// Path is a directory for the file backend or a database file for sqlite.
	Path string `yaml:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	// Exporter is none, console or otlp. Default: none
	Exporter string `yaml:"exporter,omitempty"`

	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends spans over plain HTTP.
	Insecure bool `yaml:"insecure,omitempty"`
}

// Default returns a Config with defaults applied and no credentials.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file and overrides it with CODE42_*
// environment variables. An empty configPath uses the XDG config file when
// it exists. Credentials are not validated here; see ValidateAsset.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	explicit := configPath != ""
	if !explicit {
		if p, err := ConfigPath(); err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, &c42errors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("failed to load from %s", configPath),
					Cause:  err,
				}
			}
		}
	}

	cfg.loadFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AuthType == "" {
		c.AuthType = "local_account"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.State.Backend == "" {
		c.State.Backend = StateBackendFile
	}
	if c.State.Path == "" {
		switch c.State.Backend {
		case StateBackendSQLite:
			c.State.Path = filepath.Join(DataDir(), "state.db")
		case StateBackendFile:
			c.State.Path = filepath.Join(DataDir(), "state")
		}
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = TracingExporterNone
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("CODE42_CLOUD_INSTANCE"); val != "" {
		c.CloudInstance = val
	}
	if val := os.Getenv("CODE42_USERNAME"); val != "" {
		c.Username = val
	}
	if val := os.Getenv("CODE42_PASSWORD"); val != "" {
		c.Password = val
	}
	if val := os.Getenv("CODE42_AUTH_TYPE"); val != "" {
		c.AuthType = val
	}
	if val := os.Getenv("CODE42_TIMEOUT"); val != "" {
		if d, err := parseDuration(val); err == nil {
			c.Timeout = d
		}
	}
	if val := os.Getenv("CODE42_MAX_ATTEMPTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.MaxAttempts = n
		}
	}
	if val := os.Getenv("CODE42_REQUESTS_PER_SECOND"); val != "" {
		if rps, err := strconv.ParseFloat(val, 64); err == nil {
			c.RequestsPerSecond = rps
		}
	}
	if val := os.Getenv("CODE42_INSECURE_SKIP_VERIFY"); val != "" {
		c.InsecureSkipVerify = val == "true" || val == "1"
	}
	if val := os.Getenv("CODE42_STATE_BACKEND"); val != "" {
		c.State.Backend = val
	}
	if val := os.Getenv("CODE42_STATE_PATH"); val != "" {
		c.State.Path = val
	}
	if val := os.Getenv("CODE42_TRACING_EXPORTER"); val != "" {
		c.Tracing.Exporter = val
	}
	if val := os.Getenv("CODE42_TRACING_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}
	if val := os.Getenv("CODE42_TRACING_INSECURE"); val != "" {
		c.Tracing.Insecure = val == "true" || val == "1"
	}
	if val := os.Getenv("CODE42_METRICS_FILE"); val != "" {
		c.MetricsFile = val
	}
}

// Overlay applies asset configuration values, as carried by an action
// request, on top of c. Keys use the YAML names; nested keys may be given
// as maps ("state": {"backend": ...}). Numeric timeouts are seconds.
func (c *Config) Overlay(values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}

	normalized := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case float64:
			if k == "timeout" {
				v = (time.Duration(val * float64(time.Second))).String()
			}
		case int:
			if k == "timeout" {
				v = (time.Duration(val) * time.Second).String()
			}
		}
		normalized[k] = v
	}

	data, err := yaml.Marshal(normalized)
	if err != nil {
		return &c42errors.ConfigError{Reason: "asset configuration is not serializable", Cause: err}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &c42errors.ConfigError{Reason: "invalid asset configuration", Cause: err}
	}

	c.applyDefaults()
	return c.Validate()
}

// Validate checks option values. Missing credentials are reported by
// ValidateAsset instead so that non-API commands work without them.
func (c *Config) Validate() error {
	switch c.AuthType {
	case "local_account", "api_client":
	default:
		return &c42errors.ConfigError{Key: "auth_type", Reason: fmt.Sprintf("must be local_account or api_client, got %q", c.AuthType)}
	}

	if c.MaxAttempts < 1 || c.MaxAttempts > 10 {
		return &c42errors.ConfigError{Key: "max_attempts", Reason: fmt.Sprintf("must be between 1 and 10, got %d", c.MaxAttempts)}
	}

	if c.RequestsPerSecond < 0 {
		return &c42errors.ConfigError{Key: "requests_per_second", Reason: "must not be negative"}
	}

	switch c.State.Backend {
	case StateBackendMemory, StateBackendFile, StateBackendSQLite:
	default:
		return &c42errors.ConfigError{Key: "state.backend", Reason: fmt.Sprintf("must be one of memory, file, sqlite, got %q", c.State.Backend)}
	}

	switch c.Tracing.Exporter {
	case TracingExporterNone, TracingExporterConsole:
	case TracingExporterOTLP:
		if c.Tracing.Endpoint == "" {
			return &c42errors.ConfigError{Key: "tracing.endpoint", Reason: "required when tracing.exporter is otlp"}
		}
	default:
		return &c42errors.ConfigError{Key: "tracing.exporter", Reason: fmt.Sprintf("must be one of none, console, otlp, got %q", c.Tracing.Exporter)}
	}

	return nil
}

// ValidateAsset checks the settings required to talk to Code42.
func (c *Config) ValidateAsset() error {
	required := []struct {
		key   string
		value string
	}{
		{"cloud_instance", c.CloudInstance},
		{"username", c.Username},
		{"password", c.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &c42errors.ConfigError{Key: r.key, Reason: "required asset configuration is missing"}
		}
	}
	return nil
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy safe to print, with the password masked.
func (c *Config) Redacted() *Config {
	clone := c.Clone()
	if clone.Password != "" && !IsSecretReference(clone.Password) {
		clone.Password = "[REDACTED]"
	}
	return clone
}

// IsSecretReference reports whether a value names a secret instead of
// holding it: "env:NAME", "${NAME}" or "keychain:KEY".
func IsSecretReference(value string) bool {
	return strings.HasPrefix(value, "env:") ||
		strings.HasPrefix(value, "keychain:") ||
		(strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}"))
}

// parseDuration accepts Go durations ("45s") or bare seconds ("45").
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
