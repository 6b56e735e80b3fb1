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

// Package document holds the output document of a run: the user-facing log
// lines and the enumerated licenses.
//
// The document doubles as the run's log file. Every call to Log appends the
// entry and rewrites the whole document to disk using a write-to-temp-and-rename
// pattern, so the file on disk is always complete JSON even if the process is
// interrupted mid-run.
//
// Example usage:
//
//	doc := document.New("logfile.json")
//	if err := doc.Log("2025-03-04 05:06 URL: ... HTTP error: 404"); err != nil {
//	    return err
//	}
//	doc.AddLicense(license)
package document
