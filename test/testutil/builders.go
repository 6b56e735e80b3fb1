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

package testutil

import (
	"fmt"

	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
)

// MockLicense is a license served by BlackDuckServer.
type MockLicense struct {
	Name  string
	Terms []blackduck.Term
}

// LicenseBuilder provides a fluent API for creating test licenses
type LicenseBuilder struct {
	license MockLicense
}

// NewLicenseBuilder creates a license with the given name and no terms.
func NewLicenseBuilder(name string) *LicenseBuilder {
	return &LicenseBuilder{license: MockLicense{Name: name}}
}

// WithTerm appends a term.
func (b *LicenseBuilder) WithTerm(name, responsibility, description string) *LicenseBuilder {
	b.license.Terms = append(b.license.Terms, blackduck.Term{
		Name:           name,
		Responsibility: responsibility,
		Description:    description,
	})
	return b
}

// WithTerms appends n generated terms.
func (b *LicenseBuilder) WithTerms(n int) *LicenseBuilder {
	for i := 1; i <= n; i++ {
		b.WithTerm(
			fmt.Sprintf("Term %d", i),
			"RESPONSIBILITY",
			fmt.Sprintf("Description of term %d of %s", i, b.license.Name),
		)
	}
	return b
}

// Build returns the license.
func (b *LicenseBuilder) Build() MockLicense {
	out := b.license
	out.Terms = append([]blackduck.Term(nil), b.license.Terms...)
	return out
}

// SampleLicenses returns license A with two terms and license B with none.
func SampleLicenses() []MockLicense {
	return []MockLicense{
		NewLicenseBuilder("A").
			WithTerm("Include License", "REQUIRED", "Include the full license text").
			WithTerm("Commercial Use", "PERMITTED", "The software may be used commercially").
			Build(),
		NewLicenseBuilder("B").Build(),
	}
}

// GenerateLicenses returns n licenses named "License 1".."License n", each
// with termsPerLicense generated terms.
func GenerateLicenses(n, termsPerLicense int) []MockLicense {
	out := make([]MockLicense, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, NewLicenseBuilder(fmt.Sprintf("License %d", i)).WithTerms(termsPerLicense).Build())
	}
	return out
}
