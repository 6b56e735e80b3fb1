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

package enumerator

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
	"github.com/sirseerhq/sirseer-licenses/internal/logging"
)

const tracerName = "github.com/sirseerhq/sirseer-licenses/internal/enumerator"

// Warning messages logged when a payload lacks an expected field.
const (
	WarnLicenses = "Exception getting licenses"
	WarnTerms    = "Exception getting license terms"
)

// Options configures an Enumerator. The zero value is usable.
type Options struct {
	// PageSize is the limit requested per page. Defaults to blackduck.DefaultPageSize.
	PageSize int

	// Logger receives progress and warnings. Nil discards them.
	Logger *zap.Logger

	// OnLicense is called with each license once all of its terms are known.
	OnLicense func(blackduck.License)

	// OnWarning is called with the message of every missing-field warning.
	OnWarning func(msg string)
}

// Enumerator collects every license and its terms from a Black Duck server.
type Enumerator struct {
	fetcher   blackduck.Fetcher
	baseURL   string
	pageSize  int
	logger    *zap.Logger
	tracer    trace.Tracer
	onLicense func(blackduck.License)
	onWarning func(string)

	warnings int
	terms    int
}

// New creates an Enumerator reading from the server at baseURL through f.
func New(f blackduck.Fetcher, baseURL string, opts Options) *Enumerator {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = blackduck.DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{
		fetcher:   f,
		baseURL:   baseURL,
		pageSize:  pageSize,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		onLicense: opts.OnLicense,
		onWarning: opts.OnWarning,
	}
}

// Warnings returns the number of missing-field warnings logged so far.
func (e *Enumerator) Warnings() int {
	return e.warnings
}

// Terms returns the number of terms collected so far.
func (e *Enumerator) Terms() int {
	return e.terms
}

// Enumerate fetches the license list and the terms of each license, in the
// order the server returns them.
//
// A license entry without a name or hyperlink ends the walk of the list with a
// warning; the licenses gathered before it are returned with a nil error.
// A failed request ends enumeration at once and is returned together with
// the licenses completed before it.
func (e *Enumerator) Enumerate(ctx context.Context) ([]blackduck.License, error) {
	licenses := make([]blackduck.License, 0)

	listURL := blackduck.LicenseDashboardURL(e.baseURL)
	e.logger.Info("Fetching license list", zap.String("url", listURL), zap.Int("limit", e.pageSize))

	err := blackduck.Paginate(ctx, e.fetcher, listURL, blackduck.MediaTypeBOM, e.pageSize, func(items []any) error {
		e.logger.Debug("License page", zap.Int("items", len(items)), zap.Int("seen", len(licenses)))

		for _, item := range items {
			name, href, err := licenseRef(item)
			if err != nil {
				return err
			}

			license, err := e.enumerateLicense(ctx, name, href)
			if err != nil {
				return err
			}

			licenses = append(licenses, license)
			if e.onLicense != nil {
				e.onLicense(license)
			}
		}
		return nil
	})

	if errors.Is(err, licerrors.ErrMissingField) {
		e.warn(WarnLicenses, err)
		return licenses, nil
	}
	if err != nil {
		return licenses, err
	}
	return licenses, nil
}

// enumerateLicense fetches the terms of one license. Only request failures are
// returned; missing fields end the term list with a warning.
func (e *Enumerator) enumerateLicense(ctx context.Context, name, href string) (blackduck.License, error) {
	ctx, span := e.tracer.Start(ctx, "enumerate license",
		trace.WithAttributes(
			attribute.String("license.name", name),
			attribute.String("license.href", href),
		))
	defer span.End()

	logger := logging.WithTrace(ctx, e.logger)
	logger.Info("Enumerating license", zap.String("license", name))

	license := blackduck.License{Name: name, Terms: make([]blackduck.Term, 0)}

	err := blackduck.Paginate(ctx, e.fetcher, blackduck.LicenseTermsURL(href), blackduck.MediaTypeComponentDetail, e.pageSize,
		func(items []any) error {
			for _, item := range items {
				term, err := parseTerm(item)
				if err != nil {
					return err
				}
				logger.Info("License Term", zap.String("license", name), zap.String("term", term.Name))
				license.Terms = append(license.Terms, term)
			}
			return nil
		})

	span.SetAttributes(attribute.Int("license.terms", len(license.Terms)))
	e.terms += len(license.Terms)

	if errors.Is(err, licerrors.ErrMissingField) {
		e.warn(WarnTerms, err, zap.String("license", name))
		return license, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return license, err
	}
	return license, nil
}

func (e *Enumerator) warn(msg string, err error, fields ...zap.Field) {
	e.warnings++
	e.logger.Warn(msg, append(fields, zap.Error(err))...)
	if e.onWarning != nil {
		e.onWarning(msg)
	}
}

// licenseRef reads the name and _meta.href of a license-dashboard item.
func licenseRef(item any) (name, href string, err error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("license item is %T, not an object: %w", item, licerrors.ErrMissingField)
	}

	name, err = stringField(obj, "name")
	if err != nil {
		return "", "", err
	}

	meta, ok := obj["_meta"].(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("license %q has no _meta: %w", name, licerrors.ErrMissingField)
	}
	href, err = stringField(meta, "href")
	if err != nil {
		return "", "", fmt.Errorf("license %q: %w", name, err)
	}
	if href == "" {
		return "", "", fmt.Errorf("license %q has an empty href: %w", name, licerrors.ErrMissingField)
	}

	return name, href, nil
}

// parseTerm reads a license-terms item.
func parseTerm(item any) (blackduck.Term, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return blackduck.Term{}, fmt.Errorf("term item is %T, not an object: %w", item, licerrors.ErrMissingField)
	}

	var (
		term blackduck.Term
		err  error
	)
	if term.Name, err = stringField(obj, "name"); err != nil {
		return blackduck.Term{}, err
	}
	if term.Responsibility, err = stringField(obj, "responsibility"); err != nil {
		return blackduck.Term{}, err
	}
	if term.Description, err = stringField(obj, "description"); err != nil {
		return blackduck.Term{}, err
	}
	return term, nil
}

// stringField returns obj[key] as a string. A null value reads as "".
func stringField(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, licerrors.ErrMissingField)
	}
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return fmt.Sprint(s), nil
	}
}
