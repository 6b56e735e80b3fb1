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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

// Keys of the .env credential file.
const (
	BaseURLKey  = "BASEURL"
	APITokenKey = "API_TOKEN"
)

// Credentials are the server location and the static API token used to
// open a session.
type Credentials struct {
	BaseURL  string
	APIToken string
}

// Complete reports whether both values are present.
func (c Credentials) Complete() bool {
	return c.BaseURL != "" && c.APIToken != ""
}

// merge fills empty fields of c from other.
func (c Credentials) merge(other Credentials) Credentials {
	if c.BaseURL == "" {
		c.BaseURL = other.BaseURL
	}
	if c.APIToken == "" {
		c.APIToken = other.APIToken
	}
	return c
}

// LoadCredentialsFile reads a dotenv file holding BASEURL and API_TOKEN.
// A missing file is not an error; found reports whether it existed.
func LoadCredentialsFile(path string) (creds Credentials, found bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, fmt.Errorf("failed to access credentials file %s: %w", path, statErr)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, true, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}

	return Credentials{
		BaseURL:  strings.TrimSpace(v.GetString(strings.ToLower(BaseURLKey))),
		APIToken: strings.TrimSpace(v.GetString(strings.ToLower(APITokenKey))),
	}, true, nil
}

// SaveCredentials writes the credentials as a dotenv file readable only by
// the current user.
func SaveCredentials(path string, creds Credentials) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	content := fmt.Sprintf("%s=%s\n%s=%s\n", BaseURLKey, creds.BaseURL, APITokenKey, creds.APIToken)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict credentials file: %w", err)
	}
	return nil
}

// ResolveCredentials combines credential sources in precedence order: the
// given flag values, the environment (BASEURL and the variable named by
// blackduck.token_env), the .env file, and finally the config file's
// base_url. fileFound reports whether the .env file existed. The result may
// be incomplete; callers decide whether to prompt or fail with
// ErrMissingCredentials.
func (c *Config) ResolveCredentials(flags Credentials, getenv func(string) string) (creds Credentials, fileFound bool, err error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	creds = flags.merge(Credentials{
		BaseURL:  strings.TrimSpace(getenv(BaseURLKey)),
		APIToken: strings.TrimSpace(getenv(c.BlackDuck.TokenEnv)),
	})

	if !creds.Complete() {
		fromFile, found, err := LoadCredentialsFile(c.BlackDuck.CredentialsFile)
		if err != nil {
			return creds, found, err
		}
		fileFound = found
		creds = creds.merge(fromFile)
	}

	creds = creds.merge(Credentials{BaseURL: c.BlackDuck.BaseURL})
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")

	return creds, fileFound, nil
}

// RequireCredentials returns an error wrapping ErrMissingCredentials naming
// the values that are absent.
func RequireCredentials(creds Credentials) error {
	var missing []string
	if creds.BaseURL == "" {
		missing = append(missing, BaseURLKey)
	}
	if creds.APIToken == "" {
		missing = append(missing, APITokenKey)
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%s not set (use flags, environment or a .env file): %w",
		strings.Join(missing, " and "), licerrors.ErrMissingCredentials)
}
