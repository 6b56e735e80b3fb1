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

// Package metadata types define the structures used for tracking and
// persisting information about enumeration runs. These types capture
// statistics and audit information for compliance reporting.
package metadata

import (
	"time"
)

// Run status values
const (
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// RunMetadata represents the complete metadata record for a single run.
// It captures what was enumerated, how it was enumerated, and the results.
type RunMetadata struct {
	ToolVersion string     `json:"tool_version"`
	RunID       string     `json:"run_id"`
	Parameters  RunParams  `json:"parameters"`
	Results     RunResults `json:"results"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// RunParams captures the settings a run was started with. Credentials are
// never recorded.
type RunParams struct {
	BaseURL      string `json:"base_url"`
	PageSize     int    `json:"page_size"`
	ExportFormat string `json:"export_format"`
	ExportPath   string `json:"export_path,omitempty"`
	LogFile      string `json:"log_file"`
	Interactive  bool   `json:"interactive"`
	VerifyTLS    bool   `json:"verify_tls"`
}

// RunResults contains the statistics of a completed run.
type RunResults struct {
	Licenses        int       `json:"licenses"`
	Terms           int       `json:"terms"`
	Warnings        int       `json:"warnings"`
	APICallCount    int       `json:"api_calls_made"`
	FailedCallCount int       `json:"api_calls_failed"`
	Duration        string    `json:"duration"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}
