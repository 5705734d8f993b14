package crawler

import (
	"context"
	"errors"
)

// ErrFrontierDrained is returned by Frontier.Dequeue when no more work can
// appear.
var ErrFrontierDrained = errors.New("frontier drained")

// Fetcher retrieves a URL and reports the final response.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (CrawlResponse, error)
}

// Frontier owns the queue of discovered but unfetched URLs.
type Frontier interface {
	// Enqueue adds rawURL unless the frontier has seen it before.
	Enqueue(ctx context.Context, rawURL string) bool
	// Dequeue blocks until a URL is available. It returns ErrFrontierDrained
	// once the crawl is finished.
	Dequeue(ctx context.Context) (string, error)
	// Done marks a dequeued URL as fully processed.
	Done(rawURL string)
}

// Tokenizer splits page text into words and computes frequencies.
type Tokenizer interface {
	Tokenize(text string) []string
	RemoveStopwords(tokens []string) []string
	Frequencies(tokens []string) map[string]int
}

// RobotsPolicy decides whether a URL may be processed.
type RobotsPolicy interface {
	CanCrawl(ctx context.Context, rawURL string) bool
}

// URLValidator decides crawl eligibility for a candidate link. A URL that
// cannot be parsed yields an error rather than a verdict.
type URLValidator interface {
	Check(rawURL string) (Verdict, error)
}
