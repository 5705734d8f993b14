package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrMalformedURL is returned when a candidate URL cannot be parsed.
var ErrMalformedURL = errors.New("malformed url")

// InvalidURLError reports a URL the validator could not parse.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("validate %q: %v", e.URL, e.Err)
}

// Unwrap lets errors.Is match both ErrMalformedURL and the parse error.
func (e *InvalidURLError) Unwrap() []error {
	return []error{ErrMalformedURL, e.Err}
}

// DefaultAllowedSuffixes are the academic domains in crawl scope.
var DefaultAllowedSuffixes = []string{
	".ics.uci.edu",
	".cs.uci.edu",
	".informatics.uci.edu",
	".stat.uci.edu",
}

// disallowedExtensions is matched as a substring of the path and query.
var disallowedExtensions = []string{
	"css", "js", "bmp", "gif", "jpg", "jpeg", "ico",
	"png", "tif", "tiff", "mid", "mp2", "mp3", "mp4",
	"wav", "avi", "mov", "mpeg", "ram", "m4v", "mkv", "ogg", "ogv", "pdf",
	"ps", "eps", "tex", "ppt", "pptx", "doc", "docx", "xls", "xlsx", "names",
	"data", "dat", "exe", "bz2", "tar", "msi", "bin", "7z", "psd", "dmg", "iso",
	"epub", "dll", "cnf", "tgz", "sha1",
	"thmx", "mso", "arff", "rtf", "jar", "csv",
	"rm", "smil", "wmv", "swf", "wma", "zip", "rar", "gz",
}

var disallowedSuffix = regexp.MustCompile(`\.(css|js|bmp|gif|jpe?g|ico` +
	`|png|tiff?|mid|mp2|mp3|mp4` +
	`|wav|avi|mov|mpeg|ram|m4v|mkv|ogg|ogv|pdf` +
	`|ps|eps|tex|ppt|pptx|doc|docx|xls|xlsx|names` +
	`|data|dat|exe|bz2|tar|msi|bin|7z|psd|dmg|iso` +
	`|epub|dll|cnf|tgz|sha1` +
	`|thmx|mso|arff|rtf|jar|csv` +
	`|rm|smil|wmv|swf|wma|zip|rar|gz)$`)

// Rejection names the rule that excluded a URL.
type Rejection string

// Rejection reasons in evaluation order.
const (
	RejectNone            Rejection = ""
	RejectScheme          Rejection = "scheme"
	RejectDomain          Rejection = "domain"
	RejectExtensionToken  Rejection = "extension_token"
	RejectTrap            Rejection = "trap"
	RejectExtensionSuffix Rejection = "extension_suffix"
)

// Verdict is the outcome of validating one URL.
type Verdict struct {
	Valid  bool
	Reason Rejection
}

// Validator decides whether a URL is eligible for crawling. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	suffixes []string
}

// NewValidator builds a Validator scoped to hosts containing one of suffixes.
// Empty entries are ignored; an empty list falls back to the defaults.
func NewValidator(suffixes []string) *Validator {
	cleaned := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.TrimSpace(s)
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultAllowedSuffixes...)
	}
	return &Validator{suffixes: cleaned}
}

// DefaultValidator is scoped to DefaultAllowedSuffixes.
func DefaultValidator() *Validator {
	return NewValidator(nil)
}

// IsValid reports whether rawURL should be crawled. A URL that cannot be
// parsed yields an *InvalidURLError rather than false.
func (v *Validator) IsValid(rawURL string) (bool, error) {
	verdict, err := v.Check(rawURL)
	if err != nil {
		return false, err
	}
	return verdict.Valid, nil
}

// Check is IsValid with the rejection reason attached.
func (v *Validator) Check(rawURL string) (Verdict, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Verdict{}, &InvalidURLError{URL: rawURL, Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return reject(RejectScheme), nil
	}
	if !v.inScope(netloc(parsed)) {
		return reject(RejectDomain), nil
	}

	path := stripParams(parsed.EscapedPath())
	lowerPath := strings.ToLower(path)
	lowerQuery := strings.ToLower(parsed.RawQuery)
	for _, ext := range disallowedExtensions {
		if strings.Contains(lowerPath, ext) || strings.Contains(lowerQuery, ext) {
			return reject(RejectExtensionToken), nil
		}
	}

	if isTrapPath(path) {
		return reject(RejectTrap), nil
	}

	if disallowedSuffix.MatchString(lowerPath) {
		return reject(RejectExtensionSuffix), nil
	}
	return Verdict{Valid: true}, nil
}

func (v *Validator) inScope(host string) bool {
	for _, suffix := range v.suffixes {
		if strings.Contains(host, suffix) {
			return true
		}
	}
	return false
}

// netloc is the authority as written: userinfo, when present, stays in front
// of the host and takes part in the scope check.
func netloc(u *url.URL) string {
	if u.User == nil {
		return u.Host
	}
	return u.User.String() + "@" + u.Host
}

// stripParams drops ";params" from the last path segment.
func stripParams(path string) string {
	last := strings.LastIndexByte(path, '/')
	if last < 0 {
		last = 0
	}
	if idx := strings.IndexByte(path[last:], ';'); idx >= 0 {
		return path[:last+idx]
	}
	return path
}

// isTrapPath flags paths that repeat segments, e.g. /a/b/a/b/a.
func isTrapPath(path string) bool {
	if idx := strings.IndexByte(path, '.'); idx >= 0 {
		path = path[:idx]
	}
	segments := strings.Split(path, "/")
	distinct := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		distinct[s] = struct{}{}
	}
	return len(segments) >= len(distinct)+2
}

func reject(reason Rejection) Verdict {
	return Verdict{Valid: false, Reason: reason}
}
