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

package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
)

func TestNew(t *testing.T) {
	tracker := New()

	if _, err := uuid.Parse(tracker.RunID()); err != nil {
		t.Errorf("RunID() = %q is not a UUID: %v", tracker.RunID(), err)
	}
	if tracker.startTime.IsZero() {
		t.Error("start time not set")
	}
	if New().RunID() == tracker.RunID() {
		t.Error("two trackers share a run ID")
	}
}

func TestTracker_RecordRequest(t *testing.T) {
	tests := []struct {
		name       string
		requests   []blackduck.RequestInfo
		wantCalls  int
		wantFailed int
	}{
		{
			name:      "all successful",
			requests:  []blackduck.RequestInfo{{StatusCode: http.StatusOK}, {StatusCode: http.StatusOK}},
			wantCalls: 2,
		},
		{
			name: "status and transport failures",
			requests: []blackduck.RequestInfo{
				{StatusCode: http.StatusOK},
				{StatusCode: http.StatusNotFound},
				{Err: errors.New("connection refused")},
			},
			wantCalls:  3,
			wantFailed: 2,
		},
		{
			name: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := New()
			for _, r := range tt.requests {
				tracker.RecordRequest(r)
			}

			m := tracker.GenerateMetadata("test", RunParams{}, StatusCompleted, nil)
			if m.Results.APICallCount != tt.wantCalls {
				t.Errorf("APICallCount = %d, want %d", m.Results.APICallCount, tt.wantCalls)
			}
			if m.Results.FailedCallCount != tt.wantFailed {
				t.Errorf("FailedCallCount = %d, want %d", m.Results.FailedCallCount, tt.wantFailed)
			}
		})
	}
}

func TestTracker_RecordLicenseAndWarning(t *testing.T) {
	tracker := New()
	tracker.RecordLicense(blackduck.License{Name: "A", Terms: make([]blackduck.Term, 2)})
	tracker.RecordLicense(blackduck.License{Name: "B"})
	tracker.RecordWarning("Exception getting license terms")

	m := tracker.GenerateMetadata("test", RunParams{}, StatusCompleted, nil)
	if m.Results.Licenses != 2 {
		t.Errorf("Licenses = %d, want 2", m.Results.Licenses)
	}
	if m.Results.Terms != 2 {
		t.Errorf("Terms = %d, want 2", m.Results.Terms)
	}
	if m.Results.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", m.Results.Warnings)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.RecordRequest(blackduck.RequestInfo{StatusCode: http.StatusOK})
			}
		}()
	}
	wg.Wait()

	if got := tracker.GenerateMetadata("test", RunParams{}, StatusCompleted, nil).Results.APICallCount; got != 1000 {
		t.Errorf("APICallCount = %d, want 1000", got)
	}
}

func TestGenerateMetadata(t *testing.T) {
	tracker := New()
	tracker.startTime = time.Now().Add(-5 * time.Minute)

	params := RunParams{
		BaseURL:      "https://blackduck.example.com",
		PageSize:     3000,
		ExportFormat: "json",
		ExportPath:   "results.json",
		LogFile:      "logfile.json",
	}

	m := tracker.GenerateMetadata("1.0.0", params, StatusFailed, errors.New("unable to pull info"))

	if m.ToolVersion != "1.0.0" {
		t.Errorf("ToolVersion = %q", m.ToolVersion)
	}
	if m.RunID != tracker.RunID() {
		t.Errorf("RunID = %q, want %q", m.RunID, tracker.RunID())
	}
	if m.Parameters != params {
		t.Errorf("Parameters = %+v, want %+v", m.Parameters, params)
	}
	if m.Status != StatusFailed || m.Error != "unable to pull info" {
		t.Errorf("Status = %q, Error = %q", m.Status, m.Error)
	}

	duration, err := time.ParseDuration(m.Results.Duration)
	if err != nil {
		t.Fatalf("invalid duration %q: %v", m.Results.Duration, err)
	}
	if duration < 5*time.Minute {
		t.Errorf("Duration = %v, want at least 5m", duration)
	}
	if !m.Results.CompletedAt.After(m.Results.StartedAt) {
		t.Error("CompletedAt should be after StartedAt")
	}
}

func TestSaveAndLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "metadata.json")

	tracker := New()
	tracker.RecordLicense(blackduck.License{Name: "A", Terms: make([]blackduck.Term, 3)})
	original := tracker.GenerateMetadata("1.0.0", RunParams{BaseURL: "https://bd", PageSize: 50}, StatusCompleted, nil)

	if err := SaveMetadata(original, path); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	if loaded.RunID != original.RunID {
		t.Errorf("RunID = %q, want %q", loaded.RunID, original.RunID)
	}
	if loaded.Results.Terms != 3 || loaded.Parameters.PageSize != 50 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Error != "" {
		t.Errorf("Error = %q, want empty", loaded.Error)
	}
}

func TestLoadMetadata_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadMetadata(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMetadata(bad); err == nil || !strings.Contains(err.Error(), "failed to parse metadata") {
		t.Errorf("LoadMetadata(bad) error = %v", err)
	}
}

func TestWriteMetadataToWriter(t *testing.T) {
	m := New().GenerateMetadata("1.0.0", RunParams{BaseURL: "https://bd"}, StatusInterrupted, nil)

	var buf bytes.Buffer
	if err := WriteMetadataToWriter(m, &buf); err != nil {
		t.Fatalf("WriteMetadataToWriter failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"tool_version", "run_id", "parameters", "results", "status"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := decoded["error"]; ok {
		t.Error("error key should be omitted when empty")
	}
	if !strings.Contains(buf.String(), "\n  \"run_id\"") {
		t.Error("expected two-space indentation")
	}
}
