package sources

import (
	"context"
	"log/slog"
)

// Result is the outcome of reading one source. Err is nil when Text holds
// the source body, fresh or from the cache; otherwise it is an
// *UnavailableError.
type Result struct {
	Source    Source
	Text      string
	Err       error
	Attempts  int
	FromCache bool
}

// OK reports whether the source text was obtained.
func (r Result) OK() bool {
	return r.Err == nil
}

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Fetcher performs single fetch attempts. It must not be nil.
	Fetcher Fetcher

	// Policy decides retries. A zero MaxAttempts means DefaultRetryPolicy.
	Policy RetryPolicy

	// Cache, if not nil, stores fetched bodies and serves them when a fetch
	// fails.
	Cache *Cache

	Log *slog.Logger
}

// Reader fetches sources under a retry policy.
type Reader struct {
	fetcher Fetcher
	policy  RetryPolicy
	cache   *Cache
	log     *slog.Logger
}

// NewReader returns a new reader. opts must not be nil.
func NewReader(opts *ReaderOptions) *Reader {
	policy := opts.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Reader{
		fetcher: opts.Fetcher,
		policy:  policy,
		cache:   opts.Cache,
		log:     log,
	}
}

// Read fetches source. Failures are reported in the result and never
// returned as an error, so one broken feed cannot stop a run.
func (r *Reader) Read(ctx context.Context, source Source) Result {
	var text string
	attempts, err := r.policy.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		text, fetchErr = r.fetcher.Fetch(ctx, source)
		return fetchErr
	}, func(attempt int, err error) {
		r.log.Warn("transient fetch failure, retrying",
			"list", source.ID, "url", source.Location, "attempt", attempt, "error", err)
	})

	res := Result{Source: source, Attempts: attempts}
	if err == nil {
		res.Text = text
		if isURL(source.Location) {
			if cacheErr := r.cache.Write(source, text); cacheErr != nil {
				r.log.Warn("failed to write cache", "list", source.ID, "error", cacheErr)
			}
		}
		r.log.Debug("fetched blocklist", "list", source.ID, "bytes", len(text), "attempts", attempts)
		return res
	}

	if r.cache != nil && isURL(source.Location) {
		cached, cacheErr := r.cache.Read(source)
		if cacheErr == nil {
			r.log.Warn("download failed, using cached list", "list", source.ID, "error", err)
			res.Text = cached
			res.FromCache = true
			return res
		}
	}

	res.Err = &UnavailableError{Source: source.ID, Attempts: attempts, Err: err}
	r.log.Error("source unavailable", "list", source.ID, "url", source.Location, "attempts", attempts, "error", err)
	return res
}
