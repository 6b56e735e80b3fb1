// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for sirseer-licenses with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. The .env credential file (base URL and API token only)
//  4. Configuration file
//  5. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

// envOverrides lists the environment variables that override file settings.
type envOverrides struct {
	BaseURL   string `envconfig:"BASEURL"`
	PageSize  *int   `envconfig:"SIRSEER_PAGE_SIZE"`
	Export    string `envconfig:"SIRSEER_EXPORT"`
	OutputDir string `envconfig:"SIRSEER_OUTPUT_DIR"`
	LogLevel  string `envconfig:"SIRSEER_LOG_LEVEL"`
	VerifyTLS *bool  `envconfig:"SIRSEER_VERIFY_TLS"`
}

// validLogLevels are the levels accepted by logging.level.
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// validExportFormats are the formats accepted by export.format.
var validExportFormats = map[string]bool{"json": true, "csv": true, "xlsx": true, "none": true}

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-licenses.yaml (current directory)
//   - .sirseer-licenses.yml (current directory)
//   - ~/.sirseer/licenses.yaml
//   - ~/.sirseer/licenses.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is performed
// on file and directory paths.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.source = configPath
	} else {
		home := homeDir()
		defaultPaths := []string{
			".sirseer-licenses.yaml",
			".sirseer-licenses.yml",
			filepath.Join(home, ".sirseer", "licenses.yaml"),
			filepath.Join(home, ".sirseer", "licenses.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				cfg.source = path
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Export.OutputDir = expandPath(cfg.Export.OutputDir)
	cfg.Export.LogFile = expandPath(cfg.Export.LogFile)
	cfg.BlackDuck.CredentialsFile = expandPath(cfg.BlackDuck.CredentialsFile)
	cfg.Telemetry.TraceFile = expandPath(cfg.Telemetry.TraceFile)

	return cfg, nil
}

// Source returns the path of the loaded config file, or "" when only
// defaults and environment variables were used.
func (c *Config) Source() string {
	return c.source
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("invalid environment override: %v: %w", err, licerrors.ErrInvalidConfig)
	}

	if env.BaseURL != "" {
		cfg.BlackDuck.BaseURL = env.BaseURL
	}
	if env.PageSize != nil {
		cfg.BlackDuck.PageSize = *env.PageSize
	}
	if env.VerifyTLS != nil {
		cfg.BlackDuck.VerifyTLS = *env.VerifyTLS
	}
	if env.Export != "" {
		cfg.Export.Format = env.Export
	}
	if env.OutputDir != "" {
		cfg.Export.OutputDir = env.OutputDir
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir(), path[2:])
	}
	return os.ExpandEnv(path)
}

// Validate checks if the configuration contains valid values. This should be
// called after loading configuration and applying flags to catch invalid
// settings early. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.BlackDuck.PageSize <= 0 {
		return invalid("page size must be positive, got: %d", c.BlackDuck.PageSize)
	}
	if c.BlackDuck.Timeout <= 0 {
		return invalid("timeout must be positive, got: %s", c.BlackDuck.Timeout)
	}
	if c.BlackDuck.TokenEnv == "" {
		return invalid("token environment variable name cannot be empty")
	}
	if c.Retry.MaxRetries < 0 {
		return invalid("max retries cannot be negative, got: %d", c.Retry.MaxRetries)
	}
	if c.Retry.InitialBackoff <= 0 {
		return invalid("initial backoff must be positive, got: %s", c.Retry.InitialBackoff)
	}
	if c.Retry.Multiplier < 1 {
		return invalid("backoff multiplier must be at least 1, got: %g", c.Retry.Multiplier)
	}
	if !validExportFormats[strings.ToLower(c.Export.Format)] {
		return invalid("unknown export format %q (expected json, csv, xlsx or none)", c.Export.Format)
	}
	if c.Export.LogFile == "" {
		return invalid("log file cannot be empty")
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("unknown log level %q (expected debug, info, warn or error)", c.Logging.Level)
	}
	if f := strings.ToLower(c.Logging.Format); f != "console" && f != "json" {
		return invalid("unknown log format %q (expected console or json)", c.Logging.Format)
	}
	return nil
}

// MaxElapsed returns the longest a single request can spend waiting between
// retries with the configured schedule.
func (r RetryConfig) MaxElapsed() time.Duration {
	var total time.Duration
	wait := r.InitialBackoff
	for i := 0; i < r.MaxRetries; i++ {
		total += wait
		wait = time.Duration(float64(wait) * r.Multiplier)
	}
	return total
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), licerrors.ErrInvalidConfig)
}
