package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/codesentry/codesentry/analyzers"
	"github.com/codesentry/codesentry/config"
	cerrors "github.com/codesentry/codesentry/errors"
	"github.com/codesentry/codesentry/report"
	"github.com/codesentry/codesentry/summary"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const AppName = "codesentry"

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitReportWrite = 2
)

type App struct {
	logger zerolog.Logger
	cli    *cli.App

	stdout io.Writer
	stderr io.Writer

	catalog       analyzers.Catalog
	clock         report.Clock
	newSummarizer func(zerolog.Logger, summary.Options) *summary.Summarizer

	exitCode int
}

func New() *App {
	return newApp(os.Stdout, os.Stderr)
}

func newApp(stdout, stderr io.Writer) *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        stderr,
		TimeFormat: time.RFC3339Nano,
	}).With().Timestamp().Logger()

	app := &App{
		logger:        logger,
		stdout:        stdout,
		stderr:        stderr,
		catalog:       analyzers.DefaultCatalog(),
		clock:         report.SystemClock{},
		newSummarizer: summary.NewFromEnv,
	}

	app.cli = &cli.App{
		Name:      AppName,
		Usage:     "AI-assisted static analysis and code review for Python projects",
		ArgsUsage: "PATH",
		UsageText: AppName + " [options] PATH\n" +
			AppName + " versions\n\n" +
			"Options must come before PATH. To analyze a directory named \"versions\",\n" +
			"pass it as ./versions.",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose (debug) logging",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output directory for the reports (default: the analyzed project)",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Timeout in seconds per analyzer",
				Value: config.DefaultTimeoutSeconds,
			},
			&cli.IntFlag{
				Name:  "max-chars",
				Usage: "Max characters of each analyzer output sent to the AI summary",
				Value: config.DefaultMaxChars,
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit non-zero if any analyzer fails",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: fmt.Sprintf("Config file (default: %s in the analyzed project, if present)", config.FileName),
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: fmt.Sprintf("Chat model used for the AI summary (default: %s)", summary.DefaultModel),
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics of the run to this textfile",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Action: app.analyze,
		Commands: []*cli.Command{
			{
				Name:   "versions",
				Usage:  "Print the versions of the analysis tools (analyze a directory named versions with ./versions)",
				Action: app.versions,
			},
		},
	}
	return app
}

// Run executes the command line and returns the process exit code.
func (a *App) Run(args []string) int {
	a.exitCode = ExitOK

	err := a.cli.Run(args)
	if err == nil {
		return a.exitCode
	}

	switch cerrors.CodeOf(err) {
	case cerrors.ErrCodeNothingToAnalyze:
		fmt.Fprintf(a.stdout, "[%s] WARNING: %s\n", AppName, describe(err))
		return ExitOK
	case cerrors.ErrCodeReportWrite:
		fmt.Fprintf(a.stderr, "[%s] ERROR: %s\n", AppName, describe(err))
		return ExitReportWrite
	default:
		fmt.Fprintf(a.stderr, "[%s] ERROR: %s\n", AppName, describe(err))
		return ExitFailure
	}
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func (a *App) progress(format string, args ...any) {
	fmt.Fprintf(a.stdout, "["+AppName+"] "+format+"\n", args...)
}

// describe renders err for the user without the code prefix.
func describe(err error) string {
	var se *cerrors.StructuredError
	if !stderrors.As(err, &se) {
		return err.Error()
	}
	if se.Cause != nil {
		return fmt.Sprintf("%s: %v", se.Message, se.Cause)
	}
	return se.Message
}
