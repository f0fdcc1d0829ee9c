package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"blockmerge/pkg/config"
	"blockmerge/pkg/logger"
	"blockmerge/pkg/merge"
	"blockmerge/pkg/metrics"
	"blockmerge/pkg/normalize"
	"blockmerge/pkg/pipeline"
	"blockmerge/pkg/sources"
)

// listVersionLayout formats the list version when none is configured.
const listVersionLayout = "2006.0102.1504"

type buildOptions struct {
	output string
	dryRun bool
}

func newBuildCommand(opts *globalOptions) *cobra.Command {
	bo := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch all sources and write the merged list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), opts, bo)
		},
	}
	cmd.Flags().StringVarP(&bo.output, "output", "o", "", "Override output.path")
	cmd.Flags().BoolVar(&bo.dryRun, "dry-run", false, "Build the list and print it to stdout instead of writing the file")
	return cmd
}

func runBuild(ctx context.Context, opts *globalOptions, bo *buildOptions) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if bo.output != "" {
		cfg.Output.Path = bo.output
	}

	log, closeLog, err := logger.Setup(cfg.Logging.Level, logTarget(cfg.Logging.File, bo.dryRun))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeLog()) }()

	p, norm, srcs, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := norm.Close(); cerr != nil {
			log.Warn("failed to close rejected lines log", "error", cerr)
		}
	}()

	log.Info("starting run", "sources", len(srcs), "strict", cfg.Output.Strict, "output", cfg.Output.Path)

	if bo.dryRun {
		return dryRun(ctx, p, cfg, opts)
	}

	report, runErr := p.Run(ctx)
	exportMetrics(cfg, srcs, report, runErr, log)
	if runErr != nil {
		log.Error("run failed", "state", report.State, "error", runErr)
		return &exitError{code: 1}
	}
	return nil
}

// logTarget keeps diagnostics off stdout during a dry run, where stdout
// carries the rules.
func logTarget(file string, dryRun bool) string {
	if dryRun && strings.EqualFold(strings.TrimSpace(file), "stdout") {
		return "stderr"
	}
	return file
}

// newPipeline wires the configured components into a pipeline.
func newPipeline(cfg *config.Config, log *slog.Logger) (*pipeline.Pipeline, *normalize.Normalizer, []sources.Source, error) {
	exclusions := append([]string{}, normalize.DefaultExclusions...)
	exclusions = append(exclusions, cfg.Exclusions.List...)
	if cfg.Exclusions.Path != "" {
		fromFile, err := normalize.LoadExclusions(cfg.Exclusions.Path, log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading exclusions: %w", err)
		}
		exclusions = append(exclusions, fromFile...)
	}

	srcs := sources.BuildSources(sources.Catalog, cfg.Sources, cfg.Custom.List, cfg.Catalog.Enabled)
	if len(srcs) == 0 {
		return nil, nil, nil, errors.New("no sources configured")
	}

	norm := normalize.New(normalize.Options{
		Exclusions:   normalize.NewExclusionSet(exclusions...),
		Strict:       cfg.Output.Strict,
		SpecialRules: cfg.Output.SpecialRules,
		Log:          log,
		ErrorLimit:   cfg.Logging.ErrorLimit,
		RejectedLog:  cfg.Output.RejectedLog,
	})

	policy := sources.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Fetch.MaxAttempts
	policy.BaseDelay = cfg.Fetch.BaseDelay
	policy.MaxDelay = cfg.Fetch.MaxDelay

	reader := sources.NewReader(&sources.ReaderOptions{
		Fetcher: sources.NewHTTPFetcher(&sources.HTTPConfig{
			Timeout:     cfg.Fetch.Timeout,
			MaxSize:     cfg.Fetch.MaxSize,
			UserAgent:   cfg.Fetch.UserAgent,
			ContentType: cfg.Fetch.ContentType,
		}),
		Policy: policy,
		Cache:  sources.NewCache(cfg.Fetch.CacheDir, log),
		Log:    log,
	})

	listVersion := cfg.Output.Version
	if listVersion == "" {
		listVersion = time.Now().UTC().Format(listVersionLayout)
	}

	p := pipeline.New(pipeline.Options{
		Sources:    srcs,
		Reader:     reader,
		Normalizer: norm,
		Merge: merge.Options{
			Supplemental:      cfg.Output.SpecialRules,
			Order:             cfg.Output.Order,
			CompressWildcards: cfg.Output.CompressWildcards,
		},
		MaxFailed:   cfg.Gate.MaxFailedSources,
		Concurrency: cfg.Fetch.Concurrency,
		OutputPath:  cfg.Output.Path,
		Title:       cfg.Output.Title,
		Version:     listVersion,
		Log:         log,
	})
	return p, norm, srcs, nil
}

func dryRun(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, opts *globalOptions) error {
	rules, report, err := p.Build(ctx)
	if err != nil {
		return err
	}
	for _, r := range rules {
		fmt.Fprintln(opts.stdout, r.String())
	}
	fmt.Fprintf(opts.stderr, "%d rules from %d of %d sources (%d stale), %d lines rejected; %s not written\n",
		report.Emitted, report.Verified(), report.Attempted, report.Stale, report.Rejected, cfg.Output.Path)
	return nil
}

func exportMetrics(cfg *config.Config, srcs []sources.Source, report *pipeline.Report, runErr error, log *slog.Logger) {
	if cfg.Metrics.Textfile == "" {
		return
	}

	ids := make([]string, 0, len(srcs))
	for _, s := range srcs {
		ids = append(ids, s.ID)
	}

	run := metrics.NewRun()
	run.Observe(metrics.Observation{
		Attempted:     report.Attempted,
		Failed:        report.Failed,
		Stale:         report.Stale,
		Emitted:       report.Emitted,
		Rejected:      report.Rejected,
		Success:       runErr == nil,
		Duration:      report.Duration(),
		Finished:      report.Finished,
		FailedSources: report.FailedSources,
		Sources:       ids,
	})
	if err := run.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("failed to export metrics", "path", cfg.Metrics.Textfile, "error", err)
	}
}
