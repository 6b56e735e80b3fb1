// Package apierror provides the error type returned for non-200 Black Duck API
// responses and an Inspector that classifies errors for retry decisions and
// exit codes, so callers never need to match on error strings.
package apierror
