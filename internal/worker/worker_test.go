package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
	"github.com/JakeFAU/ics-crawler/internal/frontier/memory"
)

// MockFetcher is a mock implementation of the crawler.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL string) (crawler.CrawlResponse, error) {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(crawler.CrawlResponse), args.Error(1)
}

// MockScraper is a mock implementation of the Scraper interface.
type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Scrape(ctx context.Context, requestedURL string, resp crawler.CrawlResponse) []string {
	args := m.Called(ctx, requestedURL, resp)
	links, _ := args.Get(0).([]string)
	return links
}

type recordingPacer struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (p *recordingPacer) Wait(_ context.Context, rawURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, rawURL)
	return p.err
}

func ok(url string) crawler.CrawlResponse {
	return crawler.CrawlResponse{FinalURL: url, StatusCode: 200, Body: []byte("<html></html>")}
}

func fastRetry(attempts int) Config {
	return Config{FetchAttempts: attempts, RetryBaseDelay: time.Millisecond, RetryMaxDelay: 2 * time.Millisecond}
}

func TestWorkerCrawlsUntilDrained(t *testing.T) {
	t.Parallel()

	const (
		seed  = "https://www.ics.uci.edu/"
		child = "https://www.ics.uci.edu/about"
	)
	frontier := memory.New(0)
	require.True(t, frontier.Enqueue(context.Background(), seed))

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, seed).Return(ok(seed), nil).Once()
	fetcher.On("Fetch", mock.Anything, child).Return(ok(child), nil).Once()

	scraper := &MockScraper{}
	scraper.On("Scrape", mock.Anything, seed, ok(seed)).Return([]string{child, child, seed}).Once()
	scraper.On("Scrape", mock.Anything, child, ok(child)).Return([]string(nil)).Once()

	pacer := &recordingPacer{}
	w := New(frontier, fetcher, scraper, pacer, fastRetry(1), zap.NewNop())

	require.NoError(t, w.Run(context.Background()))
	fetcher.AssertExpectations(t)
	scraper.AssertExpectations(t)
	require.Equal(t, []string{seed, child}, pacer.urls)
	require.Equal(t, 2, frontier.Seen())
}

func TestWorkerRetriesTransientFetchErrors(t *testing.T) {
	t.Parallel()

	const seed = "https://www.ics.uci.edu/"
	frontier := memory.New(0)
	frontier.Enqueue(context.Background(), seed)

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, seed).Return(crawler.CrawlResponse{}, errors.New("connection reset")).Twice()
	fetcher.On("Fetch", mock.Anything, seed).Return(ok(seed), nil).Once()
	scraper := &MockScraper{}
	scraper.On("Scrape", mock.Anything, seed, ok(seed)).Return([]string(nil)).Once()

	w := New(frontier, fetcher, scraper, nil, fastRetry(3), zap.NewNop())
	require.NoError(t, w.Run(context.Background()))
	fetcher.AssertNumberOfCalls(t, "Fetch", 3)
	scraper.AssertExpectations(t)
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	const seed = "https://www.ics.uci.edu/"
	frontier := memory.New(0)
	frontier.Enqueue(context.Background(), seed)

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, seed).Return(crawler.CrawlResponse{}, errors.New("dial timeout"))
	scraper := &MockScraper{}

	w := New(frontier, fetcher, scraper, nil, fastRetry(2), zap.NewNop())
	require.NoError(t, w.Run(context.Background()))
	fetcher.AssertNumberOfCalls(t, "Fetch", 2)
	scraper.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkerSkipsFetchWhenPacerFails(t *testing.T) {
	t.Parallel()

	const seed = "https://www.ics.uci.edu/"
	frontier := memory.New(0)
	frontier.Enqueue(context.Background(), seed)

	fetcher := &MockFetcher{}
	scraper := &MockScraper{}
	pacer := &recordingPacer{err: errors.New("rate limit wait: deadline")}

	w := New(frontier, fetcher, scraper, pacer, fastRetry(1), zap.NewNop())
	require.NoError(t, w.Run(context.Background()))
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	frontier := memory.New(0)
	frontier.Enqueue(context.Background(), "https://www.ics.uci.edu/")
	// Hold one URL in flight so the next Dequeue blocks.
	_, err := frontier.Dequeue(context.Background())
	require.NoError(t, err)

	w := New(frontier, &MockFetcher{}, &MockScraper{}, nil, Config{ID: 7}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		require.Contains(t, err.Error(), "worker 7")
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestWorkerCanceledWithPendingURLsFetchesNothing(t *testing.T) {
	t.Parallel()

	frontier := memory.New(0)
	frontier.Enqueue(context.Background(), "https://www.ics.uci.edu/")
	frontier.Enqueue(context.Background(), "https://www.cs.uci.edu/")

	fetcher := &MockFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New(frontier, fetcher, &MockScraper{}, nil, Config{ID: 3}, zap.NewNop())
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	require.Equal(t, 2, frontier.Pending())
}
