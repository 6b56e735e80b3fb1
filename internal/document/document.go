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

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
)

// DefaultLogFile is the log file written next to the working directory.
const DefaultLogFile = "logfile.json"

// Document is the aggregated result of a run. It is safe for concurrent use.
type Document struct {
	mu       sync.Mutex
	path     string
	logs     []string
	licenses []blackduck.License
}

// Snapshot is the serialized form of a Document. Field order is the order of
// the keys in the written JSON.
type Snapshot struct {
	Logs     []string            `json:"logs"`
	Licenses []blackduck.License `json:"licenses"`
}

// New creates an empty document that is persisted to path on every Log.
// An empty path keeps the document in memory only.
func New(path string) *Document {
	return &Document{
		path:     path,
		logs:     make([]string, 0),
		licenses: make([]blackduck.License, 0),
	}
}

// Path returns the log file location.
func (d *Document) Path() string {
	return d.path
}

// Log appends an entry and rewrites the log file.
func (d *Document) Log(entry string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logs = append(d.logs, entry)
	if d.path == "" {
		return nil
	}
	return writeAtomic(d.path, d.snapshotLocked())
}

// AddLicense appends a license. It does not touch the log file.
func (d *Document) AddLicense(license blackduck.License) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if license.Terms == nil {
		license.Terms = make([]blackduck.Term, 0)
	}
	d.licenses = append(d.licenses, license)
}

// Licenses returns a copy of the licenses collected so far.
func (d *Document) Licenses() []blackduck.License {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]blackduck.License(nil), d.licenses...)
}

// Logs returns a copy of the log entries.
func (d *Document) Logs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.logs...)
}

// Snapshot returns a copy of the document contents.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Document) snapshotLocked() Snapshot {
	return Snapshot{
		Logs:     append(make([]string, 0, len(d.logs)), d.logs...),
		Licenses: append(make([]blackduck.License, 0, len(d.licenses)), d.licenses...),
	}
}

// Save writes the document to path atomically.
func (d *Document) Save(path string) error {
	return writeAtomic(path, d.Snapshot())
}

// Marshal renders a snapshot as JSON indented by four spaces.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Load reads a document written by Save or Log.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("document %s is corrupted (invalid JSON): %w", path, err)
	}
	return s, nil
}

// writeAtomic writes the snapshot using a write-to-temp-and-rename pattern.
func writeAtomic(path string, s Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if mkdirErr := os.MkdirAll(dir, 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, mkdirErr)
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := file.Name()

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	// Sync to ensure data is flushed to disk
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempFile, 0o644); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
