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

// Package main implements the sirseer-licenses command-line interface.
// The tool signs in to a Black Duck server with an API token, enumerates
// every license definition together with its terms, and exports the result
// as JSON, CSV or XLSX.
//
// The CLI supports:
//   - Credentials from flags, environment variables or a .env file
//   - Optional YAML configuration (.sirseer-licenses.yaml)
//   - Interactive prompts for credentials and export choices (--interactive)
//   - A logfile.json document recording API failures as they happen
//   - Run metadata and OpenTelemetry trace files for auditing
//
// Usage:
//
//	sirseer-licenses [flags]
//
// Example:
//
//	export BASEURL=https://blackduck.example.com
//	export API_TOKEN=your_token
//	sirseer-licenses --export csv --output-dir ./reports
//
// Exit codes:
//   - 0: Success
//   - 1: General error or API error
//   - 2: Authentication/authorization error
//   - 3: Network error or retries exhausted
//   - 130: Interrupted
package main
