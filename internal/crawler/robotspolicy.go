package crawler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRobotsTimeout = 10 * time.Second
	maxRobotsBytes       = 1 << 20

	robotsWildcardAgent = "User-agent: *"
	robotsDisallow      = "Disallow:"
)

// RobotsRules is the set of disallowed substrings taken from the wildcard
// user-agent block of one robots.txt.
type RobotsRules struct {
	Disallow []string
}

// Allows reports whether rawURL contains none of the disallowed substrings.
// A nil rule set allows everything.
func (r *RobotsRules) Allows(rawURL string) bool {
	if r == nil {
		return true
	}
	for _, token := range r.Disallow {
		if strings.Contains(rawURL, token) {
			return false
		}
	}
	return true
}

type robotsScanState int

const (
	seekingBlock robotsScanState = iota
	inBlock
	done
)

// ParseRobots extracts the wildcard block's Disallow tokens. The block
// starts after the first line that is exactly "User-agent: *" and ends at the
// first blank line or at end of input. Every line in the block containing
// "Disallow:" contributes the text after its first ':' and one following
// character. A body without a wildcard block yields nil.
func ParseRobots(body []byte) *RobotsRules {
	var rules *RobotsRules
	state := seekingBlock
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRobotsBytes)
	for state != done && scanner.Scan() {
		line := scanner.Text()
		switch state {
		case seekingBlock:
			if line == robotsWildcardAgent {
				rules = &RobotsRules{}
				state = inBlock
			}
		case inBlock:
			if line == "" {
				state = done
				continue
			}
			if !strings.Contains(line, robotsDisallow) {
				continue
			}
			idx := strings.IndexByte(line, ':') + 2
			if idx >= len(line) {
				continue
			}
			rules.Disallow = append(rules.Disallow, line[idx:])
		}
	}
	return rules
}

// RobotsChecker fetches robots.txt for a page's host and applies the
// substring rules. Fetch failures of any kind allow the page.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	useCache  bool
	cache     sync.Map
	logger    *zap.Logger
}

// RobotsConfig controls RobotsChecker behavior.
type RobotsConfig struct {
	UserAgent string
	Timeout   time.Duration
	// CacheEnabled keeps parsed rules per host for the life of the checker.
	CacheEnabled bool
	// Client overrides the HTTP client; its Timeout is replaced by Timeout
	// when Timeout is set.
	Client *http.Client
}

// NewRobotsChecker builds a RobotsChecker.
func NewRobotsChecker(cfg RobotsConfig, logger *zap.Logger) *RobotsChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRobotsTimeout
	}
	client := &http.Client{}
	if cfg.Client != nil {
		cp := *cfg.Client
		client = &cp
	}
	client.Timeout = timeout
	return &RobotsChecker{
		client:    client,
		userAgent: cfg.UserAgent,
		useCache:  cfg.CacheEnabled,
		logger:    logger,
	}
}

// CanCrawl implements RobotsPolicy.
func (r *RobotsChecker) CanCrawl(ctx context.Context, rawURL string) bool {
	if r == nil {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		r.logger.Warn("robots check skipped for unparseable url", zap.String("url", rawURL), zap.Error(err))
		return true
	}
	rules := r.rulesFor(ctx, parsed.Host)
	allowed := rules.Allows(rawURL)
	if allowed {
		observeRobotsDecision("allowed")
	} else {
		observeRobotsDecision("denied")
		r.logger.Debug("robots denied url", zap.String("url", rawURL))
	}
	return allowed
}

func (r *RobotsChecker) rulesFor(ctx context.Context, host string) *RobotsRules {
	key := strings.ToLower(host)
	if r.useCache {
		if cached, ok := r.cache.Load(key); ok {
			rules, _ := cached.(*RobotsRules)
			return rules
		}
	}
	rules, err := r.load(ctx, host)
	if err != nil {
		observeRobotsDecision("fail_open")
		r.logger.Debug("robots unavailable; allowing host", zap.String("host", host), zap.Error(err))
		if ctx.Err() != nil {
			return nil
		}
		rules = nil
	}
	if r.useCache {
		r.cache.Store(key, rules)
	}
	return rules
}

func (r *RobotsChecker) load(ctx context.Context, host string) (*RobotsRules, error) {
	robotsURL := "http://" + host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("Failed to close robots response body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("robots status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	return ParseRobots(body), nil
}

// AllowAll is the RobotsPolicy used when robots compliance is disabled.
type AllowAll struct{}

// CanCrawl always returns true.
func (AllowAll) CanCrawl(context.Context, string) bool { return true }
