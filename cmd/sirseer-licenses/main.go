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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
	"github.com/sirseerhq/sirseer-licenses/internal/output"
	"github.com/sirseerhq/sirseer-licenses/pkg/version"
)

// Exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitAuth        = 2
	exitNetwork     = 3
	exitInterrupted = 130
)

// streams are the process handles a run reads from and writes to.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	getenv func(string) string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCommand(streams{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		getenv: os.Getenv,
	})

	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := mapErrorToExitCode(err)
	if err != nil && code != exitInterrupted {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func newRootCommand(s streams) *cobra.Command {
	opts := &options{export: output.DefaultFormat}

	cmd := &cobra.Command{
		Use:   "sirseer-licenses",
		Short: "Export Black Duck license definitions and their terms",
		Long: `SirSeer Licenses enumerates every license known to a Black Duck server
together with the terms of each license, and exports the result as JSON,
CSV or XLSX.

Credentials are read, in order of precedence, from:
  - the --base-url and --token flags
  - the BASEURL and API_TOKEN environment variables
  - a .env file in the working directory
With --interactive, missing credentials are prompted for and saved to .env.`,
		Args:          cobra.NoArgs,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), s, opts, cmd.Flags())
		},
	}
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)

	opts.bindFlags(cmd.Flags())

	return cmd
}

// bindFlags registers the command-line flags on flags.
func (o *options) bindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.configPath, "config", "", "Path to config file (default: .sirseer-licenses.yaml or ~/.sirseer/licenses.yaml)")
	flags.StringVar(&o.baseURL, "base-url", "", "Black Duck server URL (overrides BASEURL env var)")
	flags.StringVar(&o.token, "token", "", "Black Duck API token (overrides API_TOKEN env var)")
	flags.Var(&o.export, "export", "Export format: json, csv, xlsx or none")
	flags.StringVar(&o.outputDir, "output-dir", "", "Directory for the export file (default: current directory)")
	flags.StringVar(&o.logFile, "log-file", "", "Path of the log document (default: logfile.json)")
	flags.IntVar(&o.pageSize, "page-size", 0, "Items requested per page (default: 3000)")
	flags.BoolVar(&o.interactive, "interactive", false, "Prompt for missing credentials and export choices")
	flags.BoolVar(&o.verifyTLS, "verify-tls", false, "Verify the server TLS certificate")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&o.traceFile, "trace", "", "Write OpenTelemetry spans to this file")
	flags.StringVar(&o.metadataFile, "metadata-file", "", "Write run metadata JSON to this file")
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}

	if errors.Is(err, licerrors.ErrAuthentication) {
		return exitAuth // Authentication/authorization errors
	}

	if errors.Is(err, licerrors.ErrNetworkFailure) ||
		errors.Is(err, licerrors.ErrRetriesExhausted) {
		return exitNetwork // Network errors
	}

	return exitError // General error
}
