package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
)

func newTestStats() *crawler.CorpusStats {
	stats := crawler.NewCorpusStats(crawler.VisitedKeyRaw, crawler.DefaultNormalizer())
	stats.Apply(crawler.PageDelta{
		FinalURL:    "https://www.ics.uci.edu/",
		TokenCount:  40,
		Frequencies: map[string]int{"ics": 4, "research": 2, "alpha": 2},
		Subdomain:   "www",
		AnchorCount: 5,
	})
	stats.Apply(crawler.PageDelta{
		FinalURL:    "https://vision.ics.uci.edu/",
		TokenCount:  10,
		Frequencies: map[string]int{"vision": 3},
		Subdomain:   "vision",
		AnchorCount: 2,
	})
	return stats
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerHealthAndReadiness(t *testing.T) {
	t.Parallel()

	server := NewServer(newTestStats(), "session-1", zap.NewNop())
	h := server.Handler()

	rec := serve(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	require.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/readyz").Code)
	server.SetReady(true)
	require.Equal(t, http.StatusOK, serve(t, h, "/readyz").Code)
}

func TestServerMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := NewServer(newTestStats(), "session-1", zap.NewNop()).Handler()
	rec := serve(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "crawler_active_workers")
}

func TestServerSummary(t *testing.T) {
	t.Parallel()

	h := NewServer(newTestStats(), "session-1", zap.NewNop()).Handler()
	rec := serve(t, h, "/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body summaryDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, summaryDTO{
		SessionID:     "session-1",
		UniquePages:   2,
		ProcessedURLs: 2,
		LongestPage:   crawler.LongestPage{URL: "https://www.ics.uci.edu/", Tokens: 40},
		DistinctWords: 4,
		Subdomains:    2,
	}, body)
}

func TestServerWords(t *testing.T) {
	t.Parallel()

	h := NewServer(newTestStats(), "session-1", zap.NewNop()).Handler()
	rec := serve(t, h, "/v1/stats/words?top=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Words []struct {
			Word  string `json:"word"`
			Count int    `json:"count"`
		} `json:"words"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Words, 2)
	require.Equal(t, "ics", body.Words[0].Word)
	require.Equal(t, "vision", body.Words[1].Word)

	require.Equal(t, http.StatusBadRequest, serve(t, h, "/v1/stats/words?top=0").Code)
	require.Equal(t, http.StatusBadRequest, serve(t, h, "/v1/stats/words?top=abc").Code)
}

func TestServerSubdomainsAndPages(t *testing.T) {
	t.Parallel()

	h := NewServer(newTestStats(), "session-1", zap.NewNop()).Handler()

	rec := serve(t, h, "/v1/stats/subdomains")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"subdomains":[{"subdomain":"vision","outlinks":2},{"subdomain":"www","outlinks":5}]}`, rec.Body.String())

	rec = serve(t, h, "/v1/stats/pages?limit=1&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"pages":["https://vision.ics.uci.edu/"],"total":2}`, rec.Body.String())

	rec = serve(t, h, "/v1/stats/pages?offset=10")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"pages":[],"total":2}`, rec.Body.String())

	require.Equal(t, http.StatusBadRequest, serve(t, h, "/v1/stats/pages?offset=-1").Code)
}

func TestStatsHandlerWithoutSource(t *testing.T) {
	t.Parallel()

	handler := NewStatsHandler(nil, "", nil)
	rec := httptest.NewRecorder()
	handler.Summary(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	t.Parallel()

	h := NewServer(newTestStats(), "session-1", zap.NewNop()).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	recoverMiddleware(zap.NewNop())(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
