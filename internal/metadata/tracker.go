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

// Package metadata provides functionality for tracking and persisting metadata
// about enumeration runs. It records the number of licenses and terms
// collected, the API calls made, and the warnings raised along the way.
//
// The metadata system serves several purposes:
//   - Provides audit trails for compliance reporting
//   - Enables troubleshooting by recording run parameters
//   - Records performance metrics for the slow license-terms walk
//
// Every run gets a random run ID that is also logged, so the metadata file can
// be matched with the log output of the same run.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
)

// Tracker collects statistics during a run and generates metadata.
// It is safe for concurrent use. Create a new tracker at the start of each
// run and call its methods to record activity.
type Tracker struct {
	mu          sync.Mutex
	runID       string
	startTime   time.Time
	apiCalls    int
	failedCalls int
	licenses    int
	terms       int
	warnings    int
}

// New creates a new metadata tracker with a fresh run ID and the current time.
func New() *Tracker {
	return &Tracker{
		runID:     uuid.NewString(),
		startTime: time.Now(),
	}
}

// RunID returns the identifier of the tracked run.
func (t *Tracker) RunID() string {
	return t.runID
}

// RecordRequest records a completed API call. It matches the signature of
// blackduck.Options.OnRequest.
func (t *Tracker) RecordRequest(info blackduck.RequestInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.apiCalls++
	if info.Err != nil || info.StatusCode != http.StatusOK {
		t.failedCalls++
	}
}

// RecordLicense records an enumerated license and its terms.
func (t *Tracker) RecordLicense(license blackduck.License) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.licenses++
	t.terms += len(license.Terms)
}

// RecordWarning records a missing-field warning.
func (t *Tracker) RecordWarning(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.warnings++
}

// GenerateMetadata creates a RunMetadata record from the statistics gathered
// so far. A nil runErr marks the run completed.
func (t *Tracker) GenerateMetadata(toolVersion string, params RunParams, status string, runErr error) *RunMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	completedAt := time.Now()

	m := &RunMetadata{
		ToolVersion: toolVersion,
		RunID:       t.runID,
		Parameters:  params,
		Results: RunResults{
			Licenses:        t.licenses,
			Terms:           t.terms,
			Warnings:        t.warnings,
			APICallCount:    t.apiCalls,
			FailedCallCount: t.failedCalls,
			Duration:        completedAt.Sub(t.startTime).String(),
			StartedAt:       t.startTime,
			CompletedAt:     completedAt,
		},
		Status: status,
	}
	if runErr != nil {
		m.Error = runErr.Error()
	}
	return m
}

// SaveMetadata persists a RunMetadata record to path. The file is written
// atomically using a temporary file and rename to prevent corruption.
func SaveMetadata(metadata *RunMetadata, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	// Write to temporary file first for atomicity
	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	if err := WriteMetadataToWriter(metadata, file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	// Atomically rename to final location
	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to save metadata file: %w", err)
	}

	return nil
}

// LoadMetadata reads a metadata file written by SaveMetadata.
func LoadMetadata(path string) (*RunMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata RunMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}

// WriteMetadataToWriter serializes metadata to JSON and writes it to the
// provided io.Writer. The output is formatted with indentation for readability.
func WriteMetadataToWriter(metadata *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}
