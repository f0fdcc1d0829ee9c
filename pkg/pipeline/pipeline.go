// Package pipeline drives one aggregation run: fetch every source, normalize
// its lines, merge the rules and, unless too many sources failed, write the
// rule file.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"blockmerge/pkg/merge"
	"blockmerge/pkg/normalize"
	"blockmerge/pkg/output"
	"blockmerge/pkg/rule"
	"blockmerge/pkg/sources"
)

// DefaultMaxFailed is the number of failed sources a run tolerates.
const DefaultMaxFailed = 3

// State is the stage a run is in.
type State int

// Run states. A run ends in StateAborted or StateWritten, or stays in
// StateMerging when the output could not be written.
const (
	StateInit State = iota
	StateFetching
	StateNormalizing
	StateMerging
	StateAborted
	StateWritten
)

// String implements the fmt.Stringer interface for State.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateFetching:
		return "FETCHING"
	case StateNormalizing:
		return "NORMALIZING"
	case StateMerging:
		return "MERGING"
	case StateAborted:
		return "ABORTED"
	case StateWritten:
		return "WRITTEN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reader reads the raw text of a source. Implementations report failures in
// the result instead of returning them.
type Reader interface {
	Read(ctx context.Context, source sources.Source) sources.Result
}

// type check
var _ Reader = (*sources.Reader)(nil)

// QualityGateError aborts a run in which more sources failed than allowed.
type QualityGateError struct {
	Failed    int
	Threshold int
	// Sources are the IDs of the failed sources in source order.
	Sources []string
}

// type check
var _ error = (*QualityGateError)(nil)

// Error implements the error interface for *QualityGateError.
func (err *QualityGateError) Error() string {
	return fmt.Sprintf(
		"quality gate: %d sources failed, at most %d allowed (%s)",
		err.Failed,
		err.Threshold,
		strings.Join(err.Sources, ", "),
	)
}

// Options configures a Pipeline. Reader and Normalizer must not be nil.
type Options struct {
	Sources    []sources.Source
	Reader     Reader
	Normalizer *normalize.Normalizer
	Merge      merge.Options

	// MaxFailed is the largest number of failed sources that still lets the
	// run write its output.
	MaxFailed int

	// Concurrency bounds parallel fetches. Values below 2 fetch one source
	// at a time.
	Concurrency int

	OutputPath string
	Title      string
	Version    string

	Log *slog.Logger

	// Now returns the current time. nil means time.Now.
	Now func() time.Time
}

// Report summarises a run.
type Report struct {
	Attempted int
	Failed    int
	Stale     int
	Emitted   int
	Rejected  int
	State     State
	Started   time.Time
	Finished  time.Time

	// FailedSources lists the IDs of failed sources in source order.
	FailedSources []string
}

// Verified returns the number of sources whose text was obtained.
func (r *Report) Verified() int {
	return r.Attempted - r.Failed
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Pipeline runs aggregation over a fixed configuration.
type Pipeline struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// New returns a new pipeline.
func New(opts Options) *Pipeline {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{opts: opts, log: log, now: now}
}

// Build fetches, normalizes and merges every source and applies the quality
// gate. It never writes. On a gate failure the report is in StateAborted and
// the error is a *QualityGateError.
func (p *Pipeline) Build(ctx context.Context) ([]rule.Rule, *Report, error) {
	report := &Report{State: StateInit, Started: p.now()}

	p.transition(report, StateFetching)
	results := p.fetch(ctx)
	report.Attempted = len(results)

	p.transition(report, StateNormalizing)
	accepted := make([]rule.Rule, 0, 1024)
	for _, res := range results {
		if !res.OK() {
			report.Failed++
			report.FailedSources = append(report.FailedSources, res.Source.ID)
			continue
		}

		rules, stats, err := p.opts.Normalizer.Text(res.Source.ID, strings.NewReader(res.Text))
		if err != nil {
			p.log.Error("failed to normalize blocklist", "list", res.Source.ID, "error", err)
			report.Failed++
			report.FailedSources = append(report.FailedSources, res.Source.ID)
			continue
		}
		if res.FromCache {
			report.Stale++
		}
		report.Rejected += stats.Excluded + stats.Invalid
		accepted = append(accepted, rules...)
	}

	p.transition(report, StateMerging)
	if report.Failed > p.opts.MaxFailed {
		p.transition(report, StateAborted)
		report.Finished = p.now()
		return nil, report, &QualityGateError{
			Failed:    report.Failed,
			Threshold: p.opts.MaxFailed,
			Sources:   report.FailedSources,
		}
	}

	merged := merge.Merge(accepted, p.opts.Merge)
	report.Emitted = len(merged)
	report.Finished = p.now()
	return merged, report, nil
}

// Run builds the rule list and writes it to the output path. The returned
// report is never nil.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rules, report, err := p.Build(ctx)
	if err != nil {
		p.logSummary(report)
		return report, err
	}

	header := output.Header{
		Title:   p.opts.Title,
		Version: p.opts.Version,
		Updated: report.Started,
		Sources: report.Verified(),
	}
	if err = output.WriteFile(p.opts.OutputPath, header, rules); err != nil {
		report.Finished = p.now()
		p.logSummary(report)
		return report, err
	}

	p.transition(report, StateWritten)
	report.Finished = p.now()
	p.logSummary(report)
	return report, nil
}

// fetch reads every source and returns the results in source order
// regardless of completion order.
func (p *Pipeline) fetch(ctx context.Context) []sources.Result {
	workers := p.opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	mapper := iter.Mapper[sources.Source, sources.Result]{MaxGoroutines: workers}
	return mapper.Map(p.opts.Sources, func(source *sources.Source) sources.Result {
		return p.opts.Reader.Read(ctx, *source)
	})
}

func (p *Pipeline) transition(report *Report, to State) {
	p.log.Debug("run state", "from", report.State, "to", to)
	report.State = to
}

func (p *Pipeline) logSummary(report *Report) {
	p.log.Info("run finished",
		"state", report.State,
		"attempted", report.Attempted,
		"failed", report.Failed,
		"stale", report.Stale,
		"emitted", report.Emitted,
		"rejected", report.Rejected,
		"duration", report.Duration(),
	)
}
