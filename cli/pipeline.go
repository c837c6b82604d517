package cli

// This file contains the analysis pipeline run by the root command.

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/codesentry/codesentry/analyzers"
	"github.com/codesentry/codesentry/config"
	"github.com/codesentry/codesentry/metrics"
	"github.com/codesentry/codesentry/model"
	"github.com/codesentry/codesentry/project"
	"github.com/codesentry/codesentry/report"
	"github.com/codesentry/codesentry/runner"
	"github.com/codesentry/codesentry/summary"
	"github.com/codesentry/codesentry/upload"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func (a *App) analyze(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one PATH argument (flags go before PATH), got %d", ctx.NArg())
	}

	repoPath, err := project.Validate(ctx.Args().First())
	if err != nil {
		return err
	}

	cfg, cfgPath, err := config.LoadForProject(repoPath, ctx.String("config"))
	if err != nil {
		return err
	}
	if cfgPath != "" {
		a.logger.Debug().Str("path", cfgPath).Msg("Loaded config file")
	}
	if err := applyFlags(ctx, cfg); err != nil {
		return err
	}

	status, err := a.runPipeline(ctx.Context, repoPath, cfg)
	if err != nil {
		return err
	}

	if cfg.Strict && status == model.StatusFailed {
		a.exitCode = ExitFailure
	}
	return nil
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(ctx *cli.Context, cfg *config.Config) error {
	if ctx.IsSet("timeout") {
		if ctx.Int("timeout") <= 0 {
			return fmt.Errorf("--timeout must be positive, got %d", ctx.Int("timeout"))
		}
		cfg.TimeoutSeconds = ctx.Int("timeout")
	}
	if ctx.IsSet("max-chars") {
		if ctx.Int("max-chars") < 0 {
			return fmt.Errorf("--max-chars must not be negative, got %d", ctx.Int("max-chars"))
		}
		cfg.MaxChars = ctx.Int("max-chars")
	}
	if ctx.IsSet("strict") {
		cfg.Strict = ctx.Bool("strict")
	}
	if ctx.IsSet("model") {
		cfg.Summary.Model = ctx.String("model")
	}
	if ctx.IsSet("out") {
		out, err := filepath.Abs(ctx.String("out"))
		if err != nil {
			return fmt.Errorf("failed to resolve output directory: %w", err)
		}
		cfg.OutDir = out
	}
	if ctx.IsSet("metrics-file") {
		path, err := filepath.Abs(ctx.String("metrics-file"))
		if err != nil {
			return fmt.Errorf("failed to resolve metrics file: %w", err)
		}
		cfg.MetricsFile = path
	}
	return nil
}

// runPipeline analyzes the validated project at repoPath and writes the
// reports. Analyzer and summary failures are recorded, not returned; only a
// report that cannot be written is an error.
func (a *App) runPipeline(ctx context.Context, repoPath string, cfg *config.Config) (model.PipelineStatus, error) {
	runID := uuid.NewString()
	logger := a.logger.With().Str("run_id", runID).Logger()

	hasTests, reason := project.DetectTests(repoPath)
	a.progress("Analyzing repo: %s", repoPath)
	a.progress("Test detection: %s", reason)

	set := analyzers.New(logger, runner.New(logger), a.catalog, cfg.Timeout())
	catalog := set.Catalog()

	a.progress("Collecting tool versions...")
	versions := set.Versions(ctx)

	results := model.NewResultSet()
	run := func(an analyzers.Analyzer, note string) {
		a.progress("Running %s%s...", an.Name, note)
		res := set.Run(ctx, an, repoPath)
		logger.Info().
			Str("tool", an.Name).
			Int("exit_code", res.ExitCode).
			Float64("duration", res.DurationSec).
			Stringer("outcome", res.Outcome).
			Msg("Analyzer finished")
		results.Add(an.Name, res)
	}

	run(catalog.Style, "")
	run(catalog.Security, "")
	if hasTests {
		run(catalog.Tests, " (tests detected)")
	} else {
		run(catalog.Lint, " (no tests detected)")
	}

	status := results.Status()
	a.progress("Pipeline status: %s", status)

	a.progress("Generating AI summary...")
	summarizer := a.newSummarizer(logger, summary.Options{
		Model:   cfg.Summary.Model,
		BaseURL: cfg.Summary.BaseURL,
		Timeout: cfg.SummaryTimeout(),
		Catalog: catalog,
	})
	aiSummary := summarizer.Summarize(ctx, repoPath, results, cfg.MaxChars)

	git, err := project.GitInfo(ctx, repoPath)
	if err != nil {
		logger.Debug().Err(err).Msg("No git information for project")
	}

	paths, err := report.NewWriter(a.clock).Write(model.RunReport{
		RepoPath:       repoPath,
		PipelineStatus: status,
		Versions:       versions,
		Tools:          results,
		Summary:        aiSummary,
		Git:            git,
	}, cfg.OutDir)
	if err != nil {
		return status, err
	}

	if cfg.MetricsFile != "" {
		rec := metrics.NewRecorder()
		rec.Observe(results, status, a.clock.Now())
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics file")
		} else {
			logger.Debug().Str("path", cfg.MetricsFile).Msg("Metrics written")
		}
	}

	if cfg.Upload.Enabled() {
		a.publish(ctx, logger, cfg.Upload, runID, paths)
	}

	a.progress("Done.")
	a.progress("Markdown report: %s", paths.Markdown)
	a.progress("JSON report: %s", paths.JSON)

	return status, nil
}

// publish uploads both reports. Failures are logged; the local files remain
// the output of the run.
func (a *App) publish(ctx context.Context, logger zerolog.Logger, u config.Upload, runID string, paths report.Paths) {
	store, err := upload.New(ctx, logger, upload.Options{
		Endpoint:  u.Endpoint,
		Region:    u.Region,
		Bucket:    u.Bucket,
		AccessKey: u.AccessKey,
		SecretKey: u.SecretKey,
		UseSSL:    u.UseSSL,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to report storage")
		return
	}

	urls, err := store.Publish(ctx, u.Prefix, runID, paths.JSON, paths.Markdown)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to upload reports")
		return
	}
	for _, url := range urls {
		a.progress("Uploaded: %s", url)
	}
}
