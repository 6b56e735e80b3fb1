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
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Format names an export format. It implements pflag.Value so it can be
// bound directly to a command-line flag.
type Format string

// Supported export formats
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatNone Format = "none"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatJSON

// Formats lists every accepted format in display order.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX, FormatNone}

var _ pflag.Value = (*Format)(nil)

// ParseFormat converts user input to a Format. Matching ignores case and
// surrounding whitespace; the empty string selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFormat, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (expected one of %s)", s, formatList())
}

// String implements pflag.Value.
func (f *Format) String() string {
	if f == nil || *f == "" {
		return string(DefaultFormat)
	}
	return string(*f)
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// FileName returns the export file name for the format, or "" for none.
func (f Format) FileName() string {
	if f == FormatNone {
		return ""
	}
	return "results." + string(f)
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
