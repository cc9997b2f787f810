package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"opactx/internal/build"
	"opactx/internal/metrics"
)

// Environment variables read as flag defaults.
const (
	EnvLogLevel  = "OPACTX_LOG_LEVEL"
	EnvLogFormat = "OPACTX_LOG_FORMAT"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

// failure marks an error already reported to the user.
type failure struct {
	err error
}

func (f *failure) Error() string {
	return f.err.Error()
}

func (f *failure) Unwrap() error {
	return f.err
}

// app holds the global flags and the wiring shared by every command.
type app struct {
	out    io.Writer
	errOut io.Writer

	logLevel    string
	logFormat   string
	metricsFile string

	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{out: stdout, errOut: stderr, logger: zerolog.Nop()}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()

	if werr := a.writeMetrics(); werr != nil {
		fmt.Fprintf(stderr, "Failed to write metrics: %v\n", werr)

		if err == nil {
			return exitFailure
		}
	}

	if err == nil {
		return exitOK
	}

	var f *failure
	if errors.As(err, &f) {
		return exitFailure
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	return exitUsage
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "opactx",
		Short: "Build OPA data bundles from a typed policy context",
		Long: `opactx turns standards, exceptions and fetched sources into a single
canonical context document, validates it against a JSON Schema compiled from
the opactx schema DSL and writes it as an OPA data bundle.

Examples:
  opactx validate
  opactx build --clean
  opactx inspect dist/bundle context.standards`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", envOr(EnvLogLevel, "warn"), "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", envOr(EnvLogFormat, "json"), "log format (json, console)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")

	root.AddCommand(
		a.buildCmd(),
		a.validateCmd(),
		a.compileCmd(),
		a.inspectCmd(),
		a.listPluginsCmd(),
		a.versionCmd(),
	)

	return root
}

// setup configures logging and metrics from the global flags.
func (a *app) setup() error {
	level, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}

	switch a.logFormat {
	case "json":
		a.logger = zerolog.New(a.errOut)
	case "console":
		a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, TimeFormat: time.RFC3339})
	default:
		return fmt.Errorf("invalid log format %q", a.logFormat)
	}

	a.logger = a.logger.Level(level).With().Timestamp().Logger()

	if a.metricsFile != "" {
		a.registry = prometheus.NewRegistry()
		a.metrics = metrics.NewWithRegistry(a.registry)
	}

	return nil
}

func (a *app) writeMetrics() error {
	if a.registry == nil {
		return nil
	}

	return prometheus.WriteToTextfile(a.metricsFile, a.registry)
}

// runner creates a build runner reporting progress to stdout.
func (a *app) runner(quiet bool) *build.Runner {
	opts := []build.Option{build.WithLogger(a.logger)}

	if a.metrics != nil {
		opts = append(opts, build.WithMetrics(a.metrics))
	}

	if !quiet {
		opts = append(opts, build.WithObserver(newPrinter(a.out).observe))
	}

	return build.NewRunner(opts...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
