// Package report summarizes a crawl session from the corpus statistics.
package report

import (
	"sort"
	"time"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
)

// DefaultTopWords is how many words a report lists when unset.
const DefaultTopWords = 50

// WordCount is one entry of the word frequency ranking.
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// SubdomainCount is the outlink total recorded for one subdomain label.
type SubdomainCount struct {
	Subdomain string `json:"subdomain" yaml:"subdomain"`
	Outlinks  int    `json:"outlinks" yaml:"outlinks"`
}

// Report is the end-of-session summary.
type Report struct {
	SessionID   string              `json:"session_id" yaml:"session_id"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	UniquePages int                 `json:"unique_pages" yaml:"unique_pages"`
	LongestPage crawler.LongestPage `json:"longest_page" yaml:"longest_page"`
	TopWords    []WordCount         `json:"top_words" yaml:"top_words"`
	Subdomains  []SubdomainCount    `json:"subdomains" yaml:"subdomains"`
	Pages       []string            `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// Options selects what Build includes.
type Options struct {
	TopWords     int
	IncludePages bool
}

// Build assembles a Report from a statistics snapshot.
func Build(sessionID string, snap crawler.StatsSnapshot, opts Options, now time.Time) Report {
	top := opts.TopWords
	if top <= 0 {
		top = DefaultTopWords
	}
	r := Report{
		SessionID:   sessionID,
		GeneratedAt: now.UTC(),
		UniquePages: snap.UniquePages,
		LongestPage: snap.LongestPage,
		TopWords:    TopWords(snap.Words, top),
		Subdomains:  SortedSubdomains(snap.Subdomains),
	}
	if opts.IncludePages {
		r.Pages = append([]string(nil), snap.AllPages...)
	}
	return r
}

// TopWords ranks words by count, highest first, breaking ties
// alphabetically, and keeps at most n entries. n <= 0 keeps all.
func TopWords(words map[string]int, n int) []WordCount {
	ranked := make([]WordCount, 0, len(words))
	for w, c := range words {
		ranked = append(ranked, WordCount{Word: w, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SortedSubdomains lists subdomain counts alphabetically by label.
func SortedSubdomains(subdomains map[string]int) []SubdomainCount {
	out := make([]SubdomainCount, 0, len(subdomains))
	for s, c := range subdomains {
		out = append(out, SubdomainCount{Subdomain: s, Outlinks: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subdomain < out[j].Subdomain })
	return out
}
