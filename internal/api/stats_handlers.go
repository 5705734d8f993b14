package api

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
	"github.com/JakeFAU/ics-crawler/internal/report"
)

const (
	defaultTopWords  = 50
	maxTopWords      = 1000
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// StatsHandler exposes read-only views of the corpus statistics.
type StatsHandler struct {
	source    StatsSource
	sessionID string
	logger    *zap.Logger
}

// NewStatsHandler wires the statistics source and logger.
func NewStatsHandler(source StatsSource, sessionID string, logger *zap.Logger) *StatsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{source: source, sessionID: sessionID, logger: logger}
}

// Summary handles GET /v1/stats. It returns the session's headline numbers,
// or 503 when no statistics source is wired.
func (h *StatsHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summaryDTO{
		SessionID:     h.sessionID,
		UniquePages:   snap.UniquePages,
		ProcessedURLs: len(snap.AllPages),
		LongestPage:   snap.LongestPage,
		DistinctWords: len(snap.Words),
		Subdomains:    len(snap.Subdomains),
	})
}

// Words handles GET /v1/stats/words?top=N. Words are ranked by count, then
// alphabetically; 400 is returned for a non-positive or non-numeric top.
func (h *StatsHandler) Words(w http.ResponseWriter, r *http.Request) {
	top, err := parsePositive(r, "top", defaultTopWords, maxTopWords)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"words": report.TopWords(snap.Words, top),
	})
}

// Subdomains handles GET /v1/stats/subdomains, sorted by label.
func (h *StatsHandler) Subdomains(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subdomains": report.SortedSubdomains(snap.Subdomains),
	})
}

// Pages handles GET /v1/stats/pages?limit=&offset=, listing processed pages
// in the order they were recorded.
func (h *StatsHandler) Pages(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, defaultPageLimit, maxPageLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	pages := snap.AllPages
	if offset > len(pages) {
		offset = len(pages)
	}
	end := offset + limit
	if end > len(pages) {
		end = len(pages)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": pages[offset:end],
		"total": len(pages),
	})
}

func (h *StatsHandler) snapshot(w http.ResponseWriter) (crawler.StatsSnapshot, bool) {
	if h.source == nil {
		h.logger.Warn("stats requested before a source was wired")
		writeError(w, http.StatusServiceUnavailable, "statistics unavailable")
		return crawler.StatsSnapshot{}, false
	}
	return h.source.Snapshot(), true
}

func parsePositive(r *http.Request, key string, def, maxVal int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, errors.New("invalid " + key)
	}
	if val > maxVal {
		val = maxVal
	}
	return val, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	limit, err := parsePositive(r, "limit", def, maxLimit)
	if err != nil {
		return 0, 0, err
	}
	offset := 0
	if offStr := r.URL.Query().Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

type summaryDTO struct {
	SessionID     string              `json:"session_id"`
	UniquePages   int                 `json:"unique_pages"`
	ProcessedURLs int                 `json:"processed_urls"`
	LongestPage   crawler.LongestPage `json:"longest_page"`
	DistinctWords int                 `json:"distinct_words"`
	Subdomains    int                 `json:"subdomains"`
}
