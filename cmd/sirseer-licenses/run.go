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
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
	"github.com/sirseerhq/sirseer-licenses/internal/config"
	"github.com/sirseerhq/sirseer-licenses/internal/document"
	"github.com/sirseerhq/sirseer-licenses/internal/enumerator"
	"github.com/sirseerhq/sirseer-licenses/internal/logging"
	"github.com/sirseerhq/sirseer-licenses/internal/metadata"
	"github.com/sirseerhq/sirseer-licenses/internal/output"
	"github.com/sirseerhq/sirseer-licenses/internal/prompt"
	"github.com/sirseerhq/sirseer-licenses/internal/telemetry"
	"github.com/sirseerhq/sirseer-licenses/pkg/version"
)

const serviceName = "sirseer-licenses"

// Messages shown to the user.
const (
	startMessage     = "You will have the option to save the results in either CSV or JSON format at the end."
	introMessage     = "Enumerating licenses and their terms. This process may take about 10-15 minutes."
	saveHintMessage  = "At the end, you will have the option to save the results in either CSV or JSON format."
	envFoundMessage  = "Detected .env file."
	envMissingMsg    = ".env file not detected. You will be prompted to enter environment variables."
	interruptMessage = "Control-C detected, exiting."
	notSavedMessage  = "Results not saved."
	invalidMessage   = "Invalid input. Results not exported."
)

// options holds the raw command-line flag values.
type options struct {
	configPath   string
	baseURL      string
	token        string
	export       output.Format
	outputDir    string
	logFile      string
	pageSize     int
	interactive  bool
	verifyTLS    bool
	logLevel     string
	traceFile    string
	metadataFile string
}

// runner carries the state of one enumeration run.
type runner struct {
	cfg      *config.Config
	opts     *options
	streams  streams
	logger   *zap.Logger
	tracker  *metadata.Tracker
	prompter *prompt.Prompter
	doc      *document.Document

	params metadata.RunParams
	status string
}

// run executes a complete enumeration: resolve credentials, authenticate,
// enumerate every license with its terms, then export.
func run(ctx context.Context, s streams, opts *options, flags *pflag.FlagSet) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, s.errOut)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	shutdown, err := telemetry.Init(serviceName, version.Version, cfg.Telemetry.TraceFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	r := &runner{
		cfg:      cfg,
		opts:     opts,
		streams:  s,
		logger:   logger,
		tracker:  metadata.New(),
		prompter: prompt.New(s.in, s.out),
		doc:      document.New(cfg.Export.LogFile),
		params: metadata.RunParams{
			PageSize:     cfg.BlackDuck.PageSize,
			ExportFormat: cfg.Export.Format,
			LogFile:      cfg.Export.LogFile,
			Interactive:  opts.interactive,
			VerifyTLS:    cfg.BlackDuck.VerifyTLS,
		},
		status: metadata.StatusCompleted,
	}

	if src := cfg.Source(); src != "" {
		logger.Debug("Loaded configuration", zap.String("path", src))
	}
	logger.Debug("Starting run", zap.String("run_id", r.tracker.RunID()), zap.String("version", version.Version))

	runErr := r.execute(ctx)
	r.saveMetadata(runErr)
	return runErr
}

func (r *runner) execute(ctx context.Context) error {
	creds, err := r.credentials(ctx)
	if err != nil {
		return r.abort(ctx, err)
	}
	r.params.BaseURL = creds.BaseURL

	if r.opts.interactive {
		fmt.Fprintln(r.streams.out, startMessage)
		if err := r.prompter.Continue(ctx); err != nil {
			return r.abort(ctx, err)
		}
	}

	retry := retryConfig(r.cfg.Retry)
	r.logger.Debug("Retry policy",
		zap.Int("max_retries", retry.MaxRetries),
		zap.Duration("max_wait", r.cfg.Retry.MaxElapsed()),
		zap.Ints("statuses", retry.RetryableStatuses))

	client := blackduck.NewClient(creds.BaseURL, creds.APIToken, blackduck.Options{
		Timeout:            r.cfg.BlackDuck.Timeout,
		InsecureSkipVerify: !r.cfg.BlackDuck.VerifyTLS,
		Retry:              retry,
		Logger:             r.logger,
		OnRequest:          r.tracker.RecordRequest,
	})

	session, err := client.Authenticate(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.logger.Debug("Authenticated", zap.String("url", session.BaseURL()))

	r.logger.Info(introMessage)
	if r.opts.interactive {
		fmt.Fprintln(r.streams.out, saveHintMessage)
		if err := r.prompter.Continue(ctx); err != nil {
			return r.abort(ctx, err)
		}
	}

	enum := enumerator.New(session, session.BaseURL(), enumerator.Options{
		PageSize: r.cfg.BlackDuck.PageSize,
		Logger:   r.logger,
		OnLicense: func(l blackduck.License) {
			r.doc.AddLicense(l)
			r.tracker.RecordLicense(l)
		},
		OnWarning: r.tracker.RecordWarning,
	})

	licenses, err := enum.Enumerate(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	r.logger.Info("Enumeration complete",
		zap.Int("licenses", len(licenses)),
		zap.Int("terms", enum.Terms()),
		zap.Int("warnings", enum.Warnings()))

	return r.export(ctx)
}

// credentials resolves the base URL and API token. In interactive mode
// missing values are prompted for and saved to the credentials file.
func (r *runner) credentials(ctx context.Context) (config.Credentials, error) {
	flagCreds := config.Credentials{BaseURL: r.opts.baseURL, APIToken: r.opts.token}
	creds, found, err := r.cfg.ResolveCredentials(flagCreds, r.streams.getenv)
	if err != nil {
		return creds, err
	}
	if found {
		fmt.Fprintln(r.streams.out, envFoundMessage)
	}
	if creds.Complete() {
		return creds, nil
	}
	if !r.opts.interactive {
		return creds, config.RequireCredentials(creds)
	}

	if !found {
		fmt.Fprintln(r.streams.out, envMissingMsg)
	}
	baseURL, err := r.prompter.Ask(ctx, prompt.BaseURLText)
	if err != nil {
		return creds, fmt.Errorf("failed to read %s: %w", config.BaseURLKey, err)
	}
	token, err := r.prompter.Ask(ctx, prompt.APITokenText)
	if err != nil {
		return creds, fmt.Errorf("failed to read %s: %w", config.APITokenKey, err)
	}

	creds = config.Credentials{BaseURL: strings.TrimRight(baseURL, "/"), APIToken: token}
	if err := config.RequireCredentials(creds); err != nil {
		return creds, err
	}

	path := r.cfg.BlackDuck.CredentialsFile
	if err := config.SaveCredentials(path, creds); err != nil {
		return creds, err
	}
	r.logger.Info("Credentials saved", zap.String("path", path))
	return creds, nil
}

// export writes the results in the configured format, or the one chosen at
// the prompt in interactive mode.
func (r *runner) export(ctx context.Context) error {
	format, err := output.ParseFormat(r.cfg.Export.Format)
	if err != nil {
		return r.abort(ctx, err)
	}
	if r.opts.interactive {
		format, err = r.chooseExport(ctx)
		if err != nil {
			return r.abort(ctx, err)
		}
	}
	r.params.ExportFormat = string(format)

	if format == output.FormatNone {
		r.logger.Debug("Export skipped")
		return nil
	}

	result, err := output.ExportFile(r.cfg.Export.OutputDir, format, r.doc.Snapshot())
	if err != nil {
		return r.abort(ctx, fmt.Errorf("failed to export results: %w", err))
	}
	r.params.ExportPath = result.Path

	r.logger.Info("Results exported to "+result.Path,
		zap.String("format", string(result.Format)),
		zap.Int("records", result.Records))
	return nil
}

// chooseExport asks whether and how to save. Declining or an unknown answer
// yields FormatNone.
func (r *runner) chooseExport(ctx context.Context) (output.Format, error) {
	save, err := r.prompter.Confirm(ctx, prompt.SaveText)
	if err != nil {
		return output.FormatNone, err
	}
	if !save {
		r.logger.Info(notSavedMessage)
		return output.FormatNone, nil
	}

	choice, err := r.prompter.Choice(ctx, prompt.ExportText)
	if err != nil && !errors.Is(err, io.EOF) {
		return output.FormatNone, err
	}

	format, err := output.ParseFormat(choice)
	if err != nil || format == output.FormatNone {
		r.logger.Info(invalidMessage)
		return output.FormatNone, nil
	}
	return format, nil
}

// fail reports an error that ended the run. API errors are also appended to
// the log document: the request line first, then the response body.
func (r *runner) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return r.abort(ctx, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		r.logger.Error("Unable to pull info from endpoint",
			zap.String("url", apiErr.URL),
			zap.Int("status", apiErr.StatusCode))
		r.record(apiErr.LogEntry(time.Now()))
		r.record(apiErr.Body)
	} else {
		r.logger.Error("Request failed", zap.Error(err))
	}
	return r.abort(ctx, err)
}

// abort sets the final run status. When ctx was canceled the error is
// replaced by the cancellation so the process exits as interrupted.
func (r *runner) abort(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		r.status = metadata.StatusFailed
		return err
	}
	r.status = metadata.StatusInterrupted
	r.logger.Info(interruptMessage)
	return fmt.Errorf("interrupted: %w", ctx.Err())
}

func (r *runner) record(entry string) {
	if err := r.doc.Log(entry); err != nil {
		r.logger.Warn("Failed to write log document", zap.String("path", r.doc.Path()), zap.Error(err))
	}
}

func (r *runner) saveMetadata(runErr error) {
	if r.opts.metadataFile == "" {
		return
	}

	m := r.tracker.GenerateMetadata(version.Version, r.params, r.status, runErr)
	if err := metadata.SaveMetadata(m, r.opts.metadataFile); err != nil {
		r.logger.Warn("Failed to save run metadata", zap.String("path", r.opts.metadataFile), zap.Error(err))
		return
	}
	r.logger.Debug("Run metadata saved", zap.String("path", r.opts.metadataFile))
}

// applyFlags overrides configuration values with flags set on the command line.
func applyFlags(cfg *config.Config, opts *options, flags *pflag.FlagSet) {
	if flags.Changed("export") {
		cfg.Export.Format = opts.export.String()
	}
	if flags.Changed("output-dir") {
		cfg.Export.OutputDir = opts.outputDir
	}
	if flags.Changed("log-file") {
		cfg.Export.LogFile = opts.logFile
	}
	if flags.Changed("page-size") {
		cfg.BlackDuck.PageSize = opts.pageSize
	}
	if flags.Changed("verify-tls") {
		cfg.BlackDuck.VerifyTLS = opts.verifyTLS
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("trace") {
		cfg.Telemetry.TraceFile = opts.traceFile
	}
}

func retryConfig(cfg config.RetryConfig) *blackduck.RetryConfig {
	rc := blackduck.DefaultRetryConfig()
	rc.MaxRetries = cfg.MaxRetries
	rc.InitialBackoff = cfg.InitialBackoff
	rc.BackoffMultiplier = cfg.Multiplier
	return rc
}
