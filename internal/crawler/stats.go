package crawler

import "sync"

// CorpusStats owns every run-wide accumulator: the visited set, word
// frequencies, the longest page, per-subdomain outlink counts and the log of
// processed pages. All mutation happens under one lock so a page's update is
// applied entirely or not at all.
type CorpusStats struct {
	mu         sync.Mutex
	visited    map[string]struct{}
	words      map[string]int
	longest    LongestPage
	subdomains map[string]int
	allPages   []string
	visitedKey VisitedKey
	normalizer Normalizer
}

// NewCorpusStats creates empty accumulators. key selects how page URLs are
// stored in the visited set; normalizer is used only for VisitedKeyNormalized.
func NewCorpusStats(key VisitedKey, normalizer Normalizer) *CorpusStats {
	if key == "" {
		key = VisitedKeyRaw
	}
	return &CorpusStats{
		visited:    make(map[string]struct{}),
		words:      make(map[string]int),
		subdomains: make(map[string]int),
		visitedKey: key,
		normalizer: normalizer,
	}
}

// Apply records one processed page and returns the links from delta that
// were not in the visited set, preserving order and duplicates. The filter
// runs after the page itself is recorded, so a self-link is dropped.
func (s *CorpusStats) Apply(delta PageDelta) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visited[s.key(delta.FinalURL)] = struct{}{}
	s.allPages = append(s.allPages, delta.FinalURL)
	s.observeLengthLocked(delta.FinalURL, delta.TokenCount)
	s.mergeLocked(delta.Frequencies)
	if delta.Subdomain != "" {
		s.subdomains[delta.Subdomain] += delta.AnchorCount
	}

	novel := make([]string, 0, len(delta.Links))
	for _, link := range delta.Links {
		if _, seen := s.visited[s.key(link)]; seen {
			continue
		}
		novel = append(novel, link)
	}
	return novel
}

// MergeFrequencies adds per-page counts into the corpus table.
func (s *CorpusStats) MergeFrequencies(freq map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(freq)
}

// ObservePageLength replaces the longest page record when tokens strictly
// exceeds the current count. Ties keep the earlier page.
func (s *CorpusStats) ObservePageLength(url string, tokens int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observeLengthLocked(url, tokens)
}

// Visited reports whether url is in the visited set.
func (s *CorpusStats) Visited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[s.key(url)]
	return ok
}

// MarkVisited inserts url and returns true if it was not already present.
// The check and insert happen under the same lock.
func (s *CorpusStats) MarkVisited(url string) bool {
	if url == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(url)
	if _, ok := s.visited[k]; ok {
		return false
	}
	s.visited[k] = struct{}{}
	return true
}

// VisitedCount returns the size of the visited set.
func (s *CorpusStats) VisitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// Snapshot returns a deep copy of all accumulators.
func (s *CorpusStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	words := make(map[string]int, len(s.words))
	for k, v := range s.words {
		words[k] = v
	}
	subs := make(map[string]int, len(s.subdomains))
	for k, v := range s.subdomains {
		subs[k] = v
	}
	return StatsSnapshot{
		UniquePages: len(s.visited),
		LongestPage: s.longest,
		Words:       words,
		Subdomains:  subs,
		AllPages:    append([]string(nil), s.allPages...),
	}
}

func (s *CorpusStats) key(url string) string {
	if s.visitedKey == VisitedKeyNormalized {
		return s.normalizer.Normalize(url)
	}
	return url
}

func (s *CorpusStats) mergeLocked(freq map[string]int) {
	for word, count := range freq {
		s.words[word] += count
	}
}

func (s *CorpusStats) observeLengthLocked(url string, tokens int) bool {
	if tokens <= s.longest.Tokens {
		return false
	}
	s.longest = LongestPage{URL: url, Tokens: tokens}
	return true
}
