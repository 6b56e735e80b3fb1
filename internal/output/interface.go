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

package output

import (
	"io"

	"github.com/sirseerhq/sirseer-licenses/internal/document"
)

// Exporter defines the interface for serializing an output document.
// This abstraction allows the CLI to select a format at runtime without
// knowing how each one is laid out.
type Exporter interface {
	// Export writes the document to w and returns the number of records
	// written: licenses for JSON, data rows for the tabular formats.
	Export(w io.Writer, doc document.Snapshot) (int, error)

	// Format reports which format the exporter produces.
	Format() Format
}
