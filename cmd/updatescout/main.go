/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/carverauto/updatescout/pkg/batch"
	"github.com/carverauto/updatescout/pkg/config"
	"github.com/carverauto/updatescout/pkg/logger"
	"github.com/carverauto/updatescout/pkg/render"
	"github.com/carverauto/updatescout/pkg/scout"
	"github.com/carverauto/updatescout/pkg/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitPartial = 3

	dateLayout        = "2006-01-02"
	defaultConfigPath = "/etc/updatescout/updatescout.json"
)

var (
	errFailedToLoadConfig = errors.New("failed to load config")
	errUnknownCommand     = errors.New("unknown command")
)

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type options struct {
	configPath string
	workers    int
	outputDir  string
	formats    []string
	from       string
	to         string
	quiet      bool
	debug      bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	command := "updates"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	var opts options

	flagSet := pflag.NewFlagSet("updatescout "+command, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the configuration file")
	flagSet.IntVarP(&opts.workers, "workers", "w", 0, "machines resolved concurrently (overrides config)")
	flagSet.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for report files (overrides config)")
	flagSet.StringSliceVar(&opts.formats, "format", nil, "report file formats: table, json, csv (overrides config)")
	flagSet.StringVar(&opts.from, "from", "", "notifications created on or after this day, YYYY-MM-DD (default yesterday)")
	flagSet.StringVar(&opts.to, "to", "", "notifications created on or before this day, YYYY-MM-DD (default today)")
	flagSet.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the report table")
	flagSet.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flagSet.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}

		return exitUsage
	}

	if opts.version {
		fmt.Fprintln(stdout, version.GetFullVersion())
		return exitOK
	}

	if flagSet.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected argument: %s\n", flagSet.Arg(0))
		return exitUsage
	}

	err := dispatch(ctx, command, flagSet, &opts, stdout)

	var usage usageError

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	case errors.Is(err, batch.ErrBatchAborted), errors.Is(err, context.Canceled):
		fmt.Fprintf(stderr, "incomplete run: %v\n", err)
		return exitPartial
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}

func dispatch(ctx context.Context, command string, flagSet *pflag.FlagSet, opts *options, stdout io.Writer) error {
	if command != "updates" && command != "notifications" {
		return usageError{fmt.Errorf("%w %q (expected updates or notifications)", errUnknownCommand, command)}
	}

	cfg := scout.DefaultConfig()
	if err := config.NewConfig(nil).LoadAndValidate(ctx, opts.configPath, cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	if err := applyOverrides(cfg, flagSet, opts); err != nil {
		return err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	if opts.debug {
		logConfig.Debug = true
	}

	log, err := logger.New(logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if command == "notifications" {
		return runNotifications(ctx, cfg, opts, log, stdout)
	}

	return runUpdates(ctx, cfg, opts, log, stdout)
}

func applyOverrides(cfg *scout.Config, flagSet *pflag.FlagSet, opts *options) error {
	if flagSet.Changed("workers") {
		cfg.Workers = opts.workers
	}

	if flagSet.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}

	if flagSet.Changed("format") {
		cfg.Output.Formats = opts.formats
	}

	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}

	return nil
}

func runUpdates(ctx context.Context, cfg *scout.Config, opts *options, log logger.Logger, stdout io.Writer) error {
	out, runErr := scout.Run(ctx, cfg, log)
	if out == nil {
		return runErr
	}

	if !opts.quiet {
		if err := render.Table(stdout, out.Report, out.Report.Summary); err != nil {
			return errors.Join(runErr, err)
		}
	}

	for _, f := range out.Files {
		log.Info().Str("file", f).Msg("Report written")
	}

	return runErr
}

func runNotifications(ctx context.Context, cfg *scout.Config, opts *options, log logger.Logger, stdout io.Writer) error {
	today := time.Now().UTC()

	from, err := parseDay(opts.from, today.AddDate(0, 0, -1))
	if err != nil {
		return usageError{fmt.Errorf("--from: %w", err)}
	}

	to, err := parseDay(opts.to, today)
	if err != nil {
		return usageError{fmt.Errorf("--to: %w", err)}
	}

	out, err := scout.SearchNotifications(ctx, cfg, from, to, log)
	if err != nil {
		return err
	}

	if opts.quiet {
		return nil
	}

	if out.File != "" {
		_, err = fmt.Fprintf(stdout, "%d notifications saved to %s\n", out.Result.Count, out.File)
		return err
	}

	_, err = fmt.Fprintf(stdout, "%s\n", out.Result.Raw)

	return err
}

func parseDay(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}

	return time.Parse(dateLayout, value)
}
