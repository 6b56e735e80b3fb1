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

// Package config types define the configuration structures used throughout
// sirseer-licenses. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

import "time"

// Config represents the complete configuration for sirseer-licenses.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	BlackDuck BlackDuckConfig `yaml:"blackduck"`
	Retry     RetryConfig     `yaml:"retry"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// source is the config file that was loaded, if any
	source string
}

// BlackDuckConfig contains the server location, how credentials are found,
// and the connection settings for the Black Duck API.
type BlackDuckConfig struct {
	BaseURL         string        `yaml:"base_url"`
	TokenEnv        string        `yaml:"token_env"`
	CredentialsFile string        `yaml:"credentials_file"`
	PageSize        int           `yaml:"page_size"`
	Timeout         time.Duration `yaml:"timeout"`
	VerifyTLS       bool          `yaml:"verify_tls"`
}

// RetryConfig controls how transient server and network failures are retried.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

// ExportConfig controls where and how results are written.
type ExportConfig struct {
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
	LogFile   string `yaml:"log_file"`
}

// LoggingConfig controls diagnostic logging on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig controls trace export. An empty TraceFile disables tracing.
type TelemetryConfig struct {
	TraceFile string `yaml:"trace_file"`
}

// DefaultConfig returns a Config with a 3000 item page, a 15 second timeout,
// three retries starting at 0.3 seconds, and a JSON export to the working
// directory.
func DefaultConfig() *Config {
	return &Config{
		BlackDuck: BlackDuckConfig{
			TokenEnv:        "API_TOKEN",
			CredentialsFile: ".env",
			PageSize:        3000,
			Timeout:         15 * time.Second,
			VerifyTLS:       false,
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 300 * time.Millisecond,
			Multiplier:     2.0,
		},
		Export: ExportConfig{
			Format:    "json",
			OutputDir: ".",
			LogFile:   "logfile.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
