package crawler

import "strings"

// Normalizer reduces a URL to the comparison key used for deduplication.
type Normalizer struct {
	// StripQuery drops everything from the first '?' onward.
	StripQuery bool
}

// DefaultNormalizer strips both the fragment and the query.
func DefaultNormalizer() Normalizer {
	return Normalizer{StripQuery: true}
}

// Normalize truncates rawURL at the first '#' and then, when StripQuery is
// set, at the first '?'. No other rewriting is applied: case, trailing
// slashes and percent-escapes are preserved. Normalize is idempotent.
func (n Normalizer) Normalize(rawURL string) string {
	if idx := strings.IndexByte(rawURL, '#'); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	if n.StripQuery {
		if idx := strings.IndexByte(rawURL, '?'); idx >= 0 {
			rawURL = rawURL[:idx]
		}
	}
	return rawURL
}

// NormalizeURL applies the default policy.
func NormalizeURL(rawURL string) string {
	return DefaultNormalizer().Normalize(rawURL)
}
