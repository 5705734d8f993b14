// Package worker implements the fetch, scrape and enqueue loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
	"github.com/JakeFAU/ics-crawler/internal/metrics"
)

// Pacer delays requests to keep per-host load polite.
type Pacer interface {
	Wait(ctx context.Context, rawURL string) error
}

// Scraper turns one fetched page into crawl candidates.
type Scraper interface {
	Scrape(ctx context.Context, requestedURL string, resp crawler.CrawlResponse) []string
}

// Config controls Worker behavior.
type Config struct {
	ID             int
	FetchAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// Worker pulls URLs from the frontier and feeds discovered links back in.
type Worker struct {
	frontier crawler.Frontier
	fetcher  crawler.Fetcher
	scraper  Scraper
	pacer    Pacer
	retry    *RetryPolicy
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Worker. A nil pacer disables politeness delays.
func New(
	frontier crawler.Frontier,
	fetcher crawler.Fetcher,
	scraper Scraper,
	pacer Pacer,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		frontier: frontier,
		fetcher:  fetcher,
		scraper:  scraper,
		pacer:    pacer,
		retry:    NewRetryPolicy(cfg.FetchAttempts, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
		cfg:      cfg,
		logger:   logger.With(zap.Int("worker", cfg.ID)),
	}
}

// Run processes URLs until the frontier drains, which returns nil, or the
// context ends, which returns the context error.
func (w *Worker) Run(ctx context.Context) error {
	for {
		rawURL, err := w.frontier.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, crawler.ErrFrontierDrained) {
				w.logger.Debug("frontier drained; worker exiting")
				return nil
			}
			if ctx.Err() != nil {
				return fmt.Errorf("worker %d: %w", w.cfg.ID, ctx.Err())
			}
			return fmt.Errorf("worker %d dequeue: %w", w.cfg.ID, err)
		}
		w.process(ctx, rawURL)
	}
}

func (w *Worker) process(ctx context.Context, rawURL string) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	defer w.frontier.Done(rawURL)

	if w.pacer != nil {
		if err := w.pacer.Wait(ctx, rawURL); err != nil {
			w.logger.Debug("politeness wait aborted", zap.String("url", rawURL), zap.Error(err))
			return
		}
	}

	resp, err := w.fetch(ctx, rawURL)
	if err != nil {
		metrics.ObserveFetchError(rawURL)
		w.logger.Warn("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return
	}
	metrics.ObserveFetch(rawURL, resp.StatusCode, len(resp.Body))

	links := w.scraper.Scrape(ctx, rawURL, resp)
	added := 0
	for _, link := range links {
		if w.frontier.Enqueue(ctx, link) {
			added++
		}
	}
	metrics.ObserveLinksEnqueued(added)
	w.logger.Debug("url processed",
		zap.String("url", rawURL),
		zap.String("final_url", resp.FinalURL),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("candidates", len(links)),
		zap.Int("enqueued", added),
	)
}

func (w *Worker) fetch(ctx context.Context, rawURL string) (crawler.CrawlResponse, error) {
	for attempt := 1; ; attempt++ {
		resp, err := w.fetcher.Fetch(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		if !w.retry.ShouldRetry(err, attempt) || ctx.Err() != nil {
			return crawler.CrawlResponse{}, fmt.Errorf("fetch %s after %d attempt(s): %w", rawURL, attempt, err)
		}
		wait := w.retry.Backoff(attempt)
		metrics.ObserveFetchRetry()
		w.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return crawler.CrawlResponse{}, fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
		case <-timer.C:
		}
	}
}
