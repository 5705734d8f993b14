// Package memory provides the in-memory crawl frontier.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
)

// ErrDrained is returned by Dequeue once no more work can appear: nothing is
// pending and nothing is in flight, the page budget is spent, or the
// frontier was closed.
var ErrDrained = crawler.ErrFrontierDrained

// Frontier implements crawler.Frontier as a FIFO with cross-call
// deduplication. It tracks URLs that have been dequeued but not yet marked
// Done so it can tell an empty queue that may still grow from a finished
// crawl.
type Frontier struct {
	mu        sync.Mutex
	pending   []string
	seen      map[string]struct{}
	inFlight  int
	dispensed int
	maxPages  int
	closed    bool
	changed   chan struct{}
}

// New creates a Frontier. maxPages caps how many URLs Dequeue hands out;
// zero or less means no cap.
func New(maxPages int) *Frontier {
	return &Frontier{
		seen:     make(map[string]struct{}),
		maxPages: maxPages,
		changed:  make(chan struct{}),
	}
}

// Enqueue adds rawURL if it has never been enqueued before. The seen check
// and insert are atomic, so concurrent callers cannot both add the same URL.
func (f *Frontier) Enqueue(ctx context.Context, rawURL string) bool {
	if rawURL == "" || ctx.Err() != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	if _, ok := f.seen[rawURL]; ok {
		return false
	}
	f.seen[rawURL] = struct{}{}
	f.pending = append(f.pending, rawURL)
	f.broadcastLocked()
	return true
}

// Dequeue pops the oldest pending URL, blocking while the queue is empty but
// other URLs are still in flight. Once ctx is done nothing more is handed out.
func (f *Frontier) Dequeue(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("dequeue canceled: %w", err)
		}
		f.mu.Lock()
		if f.closed || f.budgetSpentLocked() {
			f.mu.Unlock()
			return "", ErrDrained
		}
		if len(f.pending) > 0 {
			next := f.pending[0]
			f.pending[0] = ""
			f.pending = f.pending[1:]
			f.inFlight++
			f.dispensed++
			f.mu.Unlock()
			return next, nil
		}
		if f.inFlight == 0 {
			f.mu.Unlock()
			return "", ErrDrained
		}
		wait := f.changed
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("dequeue canceled: %w", ctx.Err())
		case <-wait:
		}
	}
}

// Done marks a dequeued URL as processed.
func (f *Frontier) Done(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
	f.broadcastLocked()
}

// Close stops the frontier; blocked and future Dequeue calls return
// ErrDrained. Closing twice is safe.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.broadcastLocked()
}

// Pending returns the number of queued URLs.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Seen returns how many distinct URLs were ever enqueued.
func (f *Frontier) Seen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func (f *Frontier) budgetSpentLocked() bool {
	return f.maxPages > 0 && f.dispensed >= f.maxPages
}

// broadcastLocked wakes every goroutine waiting in Dequeue.
func (f *Frontier) broadcastLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
