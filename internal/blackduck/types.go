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

package blackduck

import "time"

// Media types requested from each endpoint. Black Duck versions its
// resources through the Accept header.
const (
	MediaTypeUser            = "application/vnd.blackducksoftware.user-4+json"
	MediaTypeBOM             = "application/vnd.blackducksoftware.bill-of-materials-6+json"
	MediaTypeComponentDetail = "application/vnd.blackducksoftware.component-detail-5+json"
)

// API paths relative to the server base URL.
const (
	authenticatePath     = "/api/tokens/authenticate"
	licenseDashboardPath = "/api/license-dashboard"
	licenseTermsSuffix   = "/license-terms"
)

// CSRFHeader carries the anti-forgery token issued at authentication.
const CSRFHeader = "X-CSRF-TOKEN"

// Default values for client operations
const (
	DefaultPageSize = 3000
	DefaultTimeout  = 15 * time.Second

	// maxResponseBytes bounds a single response body.
	maxResponseBytes = 64 * 1024 * 1024
)

// License is a license definition together with its terms, in the order
// the API returned them. Names are not unique.
type License struct {
	Name  string `json:"name"`
	Terms []Term `json:"terms"`
}

// Term is a single clause of a license.
type Term struct {
	Name           string `json:"name"`
	Responsibility string `json:"responsibility"`
	Description    string `json:"description"`
}

// RequestInfo describes one completed API call. It is passed to
// Options.OnRequest after retries have been resolved.
type RequestInfo struct {
	Method     string
	URL        string
	StatusCode int
	Duration   time.Duration
	Err        error
}
