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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrAuthentication indicates the API token could not be exchanged for a session,
	// or the API rejected the session credentials.
	// Maps to exit code 2.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRetriesExhausted indicates a request kept failing with a transient
	// server error until the retry budget ran out.
	// Maps to exit code 3.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnexpectedStatus indicates the API answered with a status other than 200.
	// Maps to exit code 1.
	ErrUnexpectedStatus = errors.New("unexpected http status")

	// ErrMissingField indicates an API payload lacked a field the enumerator needs.
	// It is logged as a warning and never terminates the run.
	ErrMissingField = errors.New("missing field")

	// ErrPaginationStalled indicates a paged listing stopped advancing, such as
	// a server that ignores the offset parameter. Maps to exit code 1.
	ErrPaginationStalled = errors.New("pagination stalled")

	// ErrMissingCredentials indicates no base URL or API token could be found.
	// Maps to exit code 1.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidConfig indicates the loaded configuration failed validation.
	// Maps to exit code 1.
	ErrInvalidConfig = errors.New("invalid configuration")
)
