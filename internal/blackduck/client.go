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

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

// Fetcher defines the interface for authenticated Black Duck API reads.
// This interface allows for easy mocking in tests.
type Fetcher interface {
	// Fetch performs a single request and returns the decoded JSON object of a
	// 200 response. Any other status yields an *apierror.APIError.
	Fetch(ctx context.Context, method, rawURL, accept string) (map[string]any, error)
}

// LicenseDashboardURL returns the license list endpoint for a server.
func LicenseDashboardURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + licenseDashboardPath
}

// LicenseTermsURL returns the license-terms collection of a license resource.
func LicenseTermsURL(licenseHref string) string {
	return strings.TrimRight(licenseHref, "/") + licenseTermsSuffix
}

// Paginate walks a Black Duck collection page by page, calling visit with the
// items of each page in order. Pages are requested with limit=pageSize and an
// increasing offset until the collection's totalCount has been seen, a page
// comes back empty, or, when the server omits totalCount, a page is shorter
// than pageSize.
//
// When totalCount is known the walk is bounded to ceil(totalCount/n) pages,
// where n is the size of the first page. A page whose first item repeats the
// first item of the page before it is never visited. Both cases return an
// error wrapping ErrPaginationStalled.
//
// A page without an items array returns an error wrapping ErrMissingField.
// Errors from visit are returned unchanged and stop the walk.
func Paginate(ctx context.Context, f Fetcher, rawURL, accept string, pageSize int, visit func(items []any) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var (
		seen     int
		pages    int
		maxPages int
		previous any
	)
	for {
		pageURL, err := withPage(rawURL, pageSize, seen)
		if err != nil {
			return err
		}

		page, err := f.Fetch(ctx, http.MethodGet, pageURL, accept)
		if err != nil {
			return err
		}

		items, ok := page["items"].([]any)
		if !ok {
			return fmt.Errorf("page %s has no items: %w", pageURL, licerrors.ErrMissingField)
		}
		if pages > 0 && len(items) > 0 && reflect.DeepEqual(items[0], previous) {
			return fmt.Errorf("page %s repeats the previous page: %w", pageURL, licerrors.ErrPaginationStalled)
		}

		if err := visit(items); err != nil {
			return err
		}
		seen += len(items)
		pages++

		if len(items) == 0 {
			return nil
		}
		previous = items[0]

		total, ok := totalCount(page)
		if !ok {
			if len(items) < pageSize {
				return nil
			}
			continue
		}
		if seen >= total {
			return nil
		}
		if maxPages == 0 {
			maxPages = (total + len(items) - 1) / len(items)
		}
		if pages >= maxPages {
			return fmt.Errorf("%d of %d items after %d pages of %s: %w",
				seen, total, pages, rawURL, licerrors.ErrPaginationStalled)
		}
	}
}

// withPage sets the limit and, past the first page, the offset query parameters.
func withPage(rawURL string, limit, offset int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// totalCount reads the collection size reported alongside a page.
func totalCount(page map[string]any) (int, bool) {
	switch v := page["totalCount"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
