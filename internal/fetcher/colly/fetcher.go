// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
)

const defaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements crawler.Fetcher using the Colly collector. Robots
// handling is left to the extractor, so the collector never consults
// robots.txt itself.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.WithTransport(newHTTPTransport())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.IgnoreRobotsTxt = true
	c.ParseHTTPErrorResponse = true
	if cfg.MaxBodyBytes > 0 {
		c.MaxBodySize = cfg.MaxBodyBytes
	}
	// Clones share the base HTTP client, so the timeout is set once here.
	c.SetRequestTimeout(cfg.Timeout)
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET. Any HTTP status is returned as a
// response; only transport failures produce an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.CrawlResponse, error) {
	var (
		result   crawler.CrawlResponse
		fetchErr error
	)
	collector := f.buildCollector()
	configureCollectorHooks(collector, &result, &fetchErr)

	if err := runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return crawler.CrawlResponse{}, err
	}
	f.logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.String("final_url", result.FinalURL),
		zap.Int("status_code", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
	)
	return result, nil
}

// buildCollector clones the base so each fetch gets its own callbacks. The
// base was built with AllowURLRevisit because colly's redirect check reads
// the base collector and its shared visited store.
func (f *Fetcher) buildCollector() *colly.Collector {
	return f.baseCollector.Clone()
}

func configureCollectorHooks(hooks collectorHooks, result *crawler.CrawlResponse, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = crawler.CrawlResponse{
			FinalURL:         r.Request.URL.String(),
			StatusCode:       r.StatusCode,
			Body:             append([]byte(nil), r.Body...),
			DeclaredEncoding: declaredEncoding(r.Headers),
		}
		if r.StatusCode != http.StatusOK {
			result.Error = http.StatusText(r.StatusCode)
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			*result = crawler.CrawlResponse{
				FinalURL:   r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Error:      err.Error(),
			}
			return
		}
		*fetchErr = err
	})
}

// declaredEncoding reports the charset the body is in once colly has
// processed it. Colly transcodes any declared charset to UTF-8, so a
// declared charset always means UTF-8 here; no declaration means the raw
// bytes were left alone.
func declaredEncoding(headers *http.Header) string {
	if headers == nil {
		return ""
	}
	_, params, err := mime.ParseMediaType(headers.Get("Content-Type"))
	if err != nil || params["charset"] == "" {
		return ""
	}
	return "utf-8"
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
