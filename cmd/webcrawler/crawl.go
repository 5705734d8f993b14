package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/api"
	"github.com/JakeFAU/ics-crawler/internal/config"
	"github.com/JakeFAU/ics-crawler/internal/crawler"
	"github.com/JakeFAU/ics-crawler/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/ics-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/ics-crawler/internal/frontier/memory"
	"github.com/JakeFAU/ics-crawler/internal/logging"
	"github.com/JakeFAU/ics-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/ics-crawler/internal/report"
	"github.com/JakeFAU/ics-crawler/internal/tokenizer"
	"github.com/JakeFAU/ics-crawler/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl from the configured seeds and write the session report",
		Long: `Crawls breadth-first from crawler.seeds until no in-scope links remain,
crawler.max_pages pages have been fetched, or the process is interrupted,
then writes the report to report.path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fetcher := collyfetcher.New(collyfetcher.Config{
				UserAgent: rt.cfg.Crawler.UserAgent,
				Timeout:   rt.cfg.RequestTimeout(),
			}, rt.logger.Named("fetcher"))

			s, err := newSession(rt.cfg, fetcher, rt.logger)
			if err != nil {
				return err
			}
			rep, err := s.run(ctx)
			if err != nil {
				return err
			}
			return s.writeReport(rep)
		},
	}
}

// session owns every component of one crawl run.
type session struct {
	id         string
	cfg        config.Config
	stats      *crawler.CorpusStats
	frontier   *memory.Frontier
	dispatcher *dispatcher.Dispatcher
	server     *api.Server
	logger     *zap.Logger
}

func newSession(cfg config.Config, fetcher crawler.Fetcher, logger *zap.Logger) (*session, error) {
	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	id := sessionID.String()
	logger = logging.ForSession(logger, id)

	normalizer := cfg.Normalizer()
	stats := crawler.NewCorpusStats(crawler.VisitedKey(cfg.Crawler.VisitedKey), normalizer)
	frontier := memory.New(cfg.Crawler.MaxPages)

	var robots crawler.RobotsPolicy = crawler.AllowAll{}
	if cfg.Robots.Respect {
		robots = crawler.NewRobotsChecker(crawler.RobotsConfig{
			UserAgent:    cfg.Crawler.UserAgent,
			Timeout:      cfg.RobotsTimeout(),
			CacheEnabled: cfg.Robots.CacheEnabled,
		}, logger.Named("robots"))
	}
	extractor := crawler.NewExtractor(
		crawler.ExtractorConfig{Normalizer: normalizer, ReportDomain: cfg.Scope.ReportDomain},
		robots,
		tokenizer.New(),
		stats,
		crawler.NewValidator(cfg.Scope.AllowedSuffixes),
		logger.Named("extractor"),
	)
	limiter := ratelimit.New(ratelimit.Config{Delay: cfg.Delay()})

	workers := make([]dispatcher.Runner, 0, cfg.Crawler.Concurrency)
	for i := 0; i < cfg.Crawler.Concurrency; i++ {
		workers = append(workers, worker.New(
			frontier,
			fetcher,
			extractor,
			limiter,
			worker.Config{ID: i, FetchAttempts: cfg.Crawler.FetchAttempts},
			logger.Named("worker"),
		))
	}

	s := &session{
		id:         id,
		cfg:        cfg,
		stats:      stats,
		frontier:   frontier,
		dispatcher: dispatcher.New(workers...),
		logger:     logger,
	}
	if cfg.Server.Enabled {
		s.server = api.NewServer(stats, id, logger.Named("api"))
	}
	return s, nil
}

// run crawls until the frontier drains or ctx ends and returns the report.
// Interruption is not an error: the partial statistics are still reported.
func (s *session) run(ctx context.Context) (report.Report, error) {
	var srv *http.Server
	if s.server != nil {
		srv = s.startServer(ctx)
		defer s.stopServer(srv)
	}

	seeded := 0
	for _, seed := range s.cfg.Crawler.Seeds {
		if s.frontier.Enqueue(ctx, seed) {
			seeded++
		}
	}
	s.logger.Info("crawl started",
		zap.Int("seeds", seeded),
		zap.Int("concurrency", s.cfg.Crawler.Concurrency),
		zap.Int("max_pages", s.cfg.Crawler.MaxPages),
	)
	if s.server != nil {
		s.server.SetReady(true)
	}

	start := time.Now()
	err := s.dispatcher.Run(ctx)
	s.frontier.Close()
	switch {
	case err == nil:
		s.logger.Info("crawl finished", zap.Duration("elapsed", time.Since(start)))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("crawl interrupted; reporting partial results", zap.Duration("elapsed", time.Since(start)))
	default:
		return report.Report{}, fmt.Errorf("crawl session %s: %w", s.id, err)
	}

	rep := report.Build(s.id, s.stats.Snapshot(), report.Options{
		TopWords:     s.cfg.Report.TopWords,
		IncludePages: s.cfg.Report.IncludePages,
	}, time.Now())
	s.logger.Info("session summary",
		zap.Int("unique_pages", rep.UniquePages),
		zap.String("longest_page", rep.LongestPage.URL),
		zap.Int("longest_page_tokens", rep.LongestPage.Tokens),
		zap.Int("subdomains", len(rep.Subdomains)),
		zap.Int("frontier_seen", s.frontier.Seen()),
	)
	return rep, nil
}

func (s *session) writeReport(rep report.Report) error {
	format, err := report.ParseFormat(s.cfg.Report.Format)
	if err != nil {
		return fmt.Errorf("report format: %w", err)
	}
	if err := report.WriteFile(s.cfg.Report.Path, rep, format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.logger.Info("report written", zap.String("path", s.cfg.Report.Path), zap.String("format", string(format)))
	return nil
}

func (s *session) startServer(ctx context.Context) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	go func() {
		s.logger.Info("http server started", zap.Int("port", s.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
	return srv
}

func (s *session) stopServer(srv *http.Server) {
	s.server.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", zap.Error(err))
	}
}
