package crawler

// CrawlResponse is what a Fetcher hands to the Extractor for one page.
// It is treated as immutable for the duration of an extraction call.
type CrawlResponse struct {
	// FinalURL is the URL the page was actually served from, after redirects.
	FinalURL string `json:"final_url"`
	// StatusCode is the HTTP status of the final response.
	StatusCode int `json:"status_code"`
	// Error carries the fetch layer's error text for non-success responses.
	Error string `json:"error,omitempty"`
	// Body is the raw response payload.
	Body []byte `json:"-"`
	// DeclaredEncoding is the charset label advertised by the server, if any.
	DeclaredEncoding string `json:"declared_encoding,omitempty"`
}

// LongestPage records the page with the most tokens seen so far.
type LongestPage struct {
	URL    string `json:"url" yaml:"url"`
	Tokens int    `json:"tokens" yaml:"tokens"`
}

// PageDelta is the complete contribution of one processed page to the
// corpus statistics. It is built without touching shared state and applied
// in a single step by CorpusStats.Apply.
type PageDelta struct {
	FinalURL    string
	TokenCount  int
	Frequencies map[string]int
	// Subdomain is empty when the page is outside the reporting domain.
	Subdomain   string
	AnchorCount int
	Links       []string
}

// StatsSnapshot is a deep copy of the corpus statistics at one instant.
type StatsSnapshot struct {
	UniquePages int            `json:"unique_pages"`
	LongestPage LongestPage    `json:"longest_page"`
	Words       map[string]int `json:"words"`
	Subdomains  map[string]int `json:"subdomains"`
	AllPages    []string       `json:"all_pages"`
}

// VisitedKey selects which form of a page URL is stored in the visited set.
type VisitedKey string

// Supported visited-set key policies.
const (
	// VisitedKeyRaw stores the response URL exactly as fetched.
	VisitedKeyRaw VisitedKey = "raw"
	// VisitedKeyNormalized stores the normalized response URL so it matches
	// the form used for link candidates.
	VisitedKeyNormalized VisitedKey = "normalized"
)
