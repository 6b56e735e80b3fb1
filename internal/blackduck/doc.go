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

// Package blackduck provides a client for the Black Duck REST API covering
// the calls needed to export license definitions and their license terms.
//
// The package includes:
//   - A Client that exchanges a static API token for a Session
//   - A Session that performs authenticated, paginated GET requests
//   - A retrying transport for transient server and network failures
//   - A MockFetcher for testing code that consumes the Fetcher interface
//
// Basic usage:
//
//	client := blackduck.NewClient("https://blackduck.example.com", apiToken, blackduck.Options{})
//	session, err := client.Authenticate(ctx)
//	if err != nil {
//	    // Handle error
//	}
//	err = session.FetchAll(ctx, session.LicenseDashboardURL(), blackduck.MediaTypeBOM, 3000,
//	    func(items []any) error {
//	        // Process license items
//	        return nil
//	    })
package blackduck
