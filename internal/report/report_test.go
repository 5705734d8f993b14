package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/ics-crawler/internal/crawler"
)

func sampleSnapshot() crawler.StatsSnapshot {
	return crawler.StatsSnapshot{
		UniquePages: 3,
		LongestPage: crawler.LongestPage{URL: "https://www.ics.uci.edu/long", Tokens: 900},
		Words:       map[string]int{"research": 5, "ics": 9, "alpha": 5, "zeta": 1},
		Subdomains:  map[string]int{"www": 12, "vision": 4, "ngs": 7},
		AllPages: []string{
			"https://www.ics.uci.edu/",
			"https://vision.ics.uci.edu/",
			"https://www.ics.uci.edu/long",
		},
	}
}

func TestTopWordsOrdering(t *testing.T) {
	t.Parallel()

	got := TopWords(sampleSnapshot().Words, 3)
	require.Equal(t, []WordCount{
		{Word: "ics", Count: 9},
		{Word: "alpha", Count: 5},
		{Word: "research", Count: 5},
	}, got)
	require.Len(t, TopWords(sampleSnapshot().Words, 0), 4)
	require.Empty(t, TopWords(nil, 10))
}

func TestSortedSubdomains(t *testing.T) {
	t.Parallel()

	require.Equal(t, []SubdomainCount{
		{Subdomain: "ngs", Outlinks: 7},
		{Subdomain: "vision", Outlinks: 4},
		{Subdomain: "www", Outlinks: 12},
	}, SortedSubdomains(sampleSnapshot().Subdomains))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Build("session-1", sampleSnapshot(), Options{TopWords: 2}, now)
	require.Equal(t, "session-1", r.SessionID)
	require.Equal(t, now, r.GeneratedAt)
	require.Equal(t, 3, r.UniquePages)
	require.Equal(t, 900, r.LongestPage.Tokens)
	require.Len(t, r.TopWords, 2)
	require.Len(t, r.Subdomains, 3)
	require.Nil(t, r.Pages)

	withPages := Build("session-1", sampleSnapshot(), Options{IncludePages: true}, now)
	require.Len(t, withPages.Pages, 3)
	require.Len(t, withPages.TopWords, 4)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatYAML, "YAML": FormatYAML, "yml": FormatYAML, "json": FormatJSON, " text ": FormatText} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestWriteFormats(t *testing.T) {
	t.Parallel()

	r := Build("s", sampleSnapshot(), Options{TopWords: 2, IncludePages: true}, time.Unix(0, 0))

	var js bytes.Buffer
	require.NoError(t, Write(&js, r, FormatJSON))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	require.EqualValues(t, 3, decoded["unique_pages"])

	var ym bytes.Buffer
	require.NoError(t, Write(&ym, r, FormatYAML))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	require.Equal(t, "s", fromYAML["session_id"])
	require.Contains(t, ym.String(), "longest_page:")

	var txt bytes.Buffer
	require.NoError(t, Write(&txt, r, FormatText))
	require.Contains(t, txt.String(), "Unique pages: 3")
	require.Contains(t, txt.String(), "ngs, 7\nvision, 4\nwww, 12\n")
	require.Contains(t, txt.String(), "  1. ics, 9")

	require.Error(t, Write(&txt, r, Format("xml")))
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "report.yaml")
	r := Build("s", sampleSnapshot(), Options{}, time.Unix(0, 0))
	require.NoError(t, WriteFile(path, r, FormatYAML))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "session_id: s")
}
