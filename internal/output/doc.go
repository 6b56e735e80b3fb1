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

// Package output exports the result of a run to a file.
//
// Three formats are supported. JSON writes the whole output document, log
// lines included, indented by four spaces. CSV and XLSX flatten the licenses
// into one row per (license, term) pair under the header
// "License Name, Term Name, Responsibility, Description"; a license without
// terms produces no rows. The pseudo-format "none" writes nothing.
//
// Example usage:
//
//	var format output.Format = output.FormatJSON
//	flags.Var(&format, "export", "export format: json, csv, xlsx or none")
//
//	result, err := output.ExportFile(".", format, doc.Snapshot())
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Results exported to %s\n", result.Path)
package output
