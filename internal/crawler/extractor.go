package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultReportDomain is the apex whose subdomains get outlink counts.
const DefaultReportDomain = "ics.uci.edu"

// ExtractorConfig holds the policy knobs of an Extractor.
type ExtractorConfig struct {
	Normalizer   Normalizer
	ReportDomain string
}

// Extractor turns one fetched page into candidate links and statistics.
type Extractor struct {
	cfg       ExtractorConfig
	robots    RobotsPolicy
	tokenizer Tokenizer
	stats     *CorpusStats
	validator URLValidator
	logger    *zap.Logger
}

// NewExtractor wires an Extractor. A nil robots policy allows everything and
// a nil validator uses DefaultValidator.
func NewExtractor(
	cfg ExtractorConfig,
	robots RobotsPolicy,
	tokenizer Tokenizer,
	stats *CorpusStats,
	validator URLValidator,
	logger *zap.Logger,
) *Extractor {
	if cfg.ReportDomain == "" {
		cfg.ReportDomain = DefaultReportDomain
	}
	if robots == nil {
		robots = AllowAll{}
	}
	if validator == nil {
		validator = DefaultValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		cfg:       cfg,
		robots:    robots,
		tokenizer: tokenizer,
		stats:     stats,
		validator: validator,
		logger:    logger,
	}
}

// Scrape extracts links from resp and keeps the ones the validator accepts.
// Links the validator cannot parse are logged and skipped.
func (e *Extractor) Scrape(ctx context.Context, requestedURL string, resp CrawlResponse) []string {
	links := e.ExtractLinks(ctx, requestedURL, resp)
	valid := make([]string, 0, len(links))
	for _, link := range links {
		verdict, err := e.validator.Check(link)
		if err != nil {
			LinksRejected.WithLabelValues("malformed").Inc()
			e.logger.Debug("skipping malformed link", zap.String("url", link), zap.Error(err))
			continue
		}
		if !verdict.Valid {
			LinksRejected.WithLabelValues(string(verdict.Reason)).Inc()
			continue
		}
		valid = append(valid, link)
	}
	return valid
}

// ExtractLinks processes one page. Non-200 responses and pages denied by
// robots return nil without touching the statistics. Otherwise the page is
// recorded and the normalized outbound links not yet visited are returned.
func (e *Extractor) ExtractLinks(ctx context.Context, requestedURL string, resp CrawlResponse) []string {
	if resp.StatusCode != http.StatusOK {
		observePage("skipped_status")
		e.logger.Debug("skipping non-200 response",
			zap.String("url", requestedURL),
			zap.Int("status_code", resp.StatusCode),
			zap.String("error", resp.Error),
		)
		return nil
	}
	if !e.robots.CanCrawl(ctx, resp.FinalURL) {
		observePage("robots_denied")
		return nil
	}

	text := decodeBody(resp.Body, resp.DeclaredEncoding)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		// Only reader errors surface here.
		observePage("parse_failed")
		e.logger.Warn("failed to parse page", zap.String("url", resp.FinalURL), zap.Error(err))
		return nil
	}

	delta := e.buildDelta(resp.FinalURL, doc)
	LinksDiscovered.Add(float64(len(delta.Links)))
	observePage("processed")
	novel := e.stats.Apply(delta)
	e.logger.Debug("page processed",
		zap.String("url", requestedURL),
		zap.String("final_url", resp.FinalURL),
		zap.Int("tokens", delta.TokenCount),
		zap.Int("anchors", delta.AnchorCount),
		zap.Int("novel_links", len(novel)),
	)
	return novel
}

func (e *Extractor) buildDelta(finalURL string, doc *goquery.Document) PageDelta {
	tokens := e.tokenizer.Tokenize(doc.Text())
	delta := PageDelta{
		FinalURL:    finalURL,
		TokenCount:  len(tokens),
		Frequencies: e.tokenizer.Frequencies(e.tokenizer.RemoveStopwords(tokens)),
	}

	base, baseErr := url.Parse(finalURL)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		delta.AnchorCount++
		if baseErr != nil {
			return
		}
		href, _ := sel.Attr("href")
		ref, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			e.logger.Debug("unresolvable href", zap.String("page", finalURL), zap.String("href", href))
			return
		}
		delta.Links = append(delta.Links, e.cfg.Normalizer.Normalize(ref.String()))
	})

	if baseErr == nil && strings.Contains(base.Host, e.cfg.ReportDomain) {
		delta.Subdomain = subdomainLabel(finalURL)
	}
	return delta
}

// subdomainLabel returns the text between the first "//" and the first ".".
func subdomainLabel(rawURL string) string {
	start := strings.Index(rawURL, "//")
	dot := strings.IndexByte(rawURL, '.')
	if start < 0 || dot < start+2 {
		return ""
	}
	return rawURL[start+2 : dot]
}

// decodeBody converts body to UTF-8 using the declared charset, falling back
// to ISO-8859-1, which maps every byte and so cannot fail.
func decodeBody(body []byte, declared string) string {
	var enc encoding.Encoding = charmap.ISO8859_1
	if label := strings.TrimSpace(declared); label != "" {
		if found, _ := charset.Lookup(label); found != nil {
			enc = found
		}
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		out, _ = charmap.ISO8859_1.NewDecoder().Bytes(body)
	}
	return string(out)
}
