package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, FormatJSON, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Write encodes r to w.
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatText:
		return writeText(w, r)
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush yaml report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile writes r to path, creating parent directories. A path of "-"
// writes to stdout.
func WriteFile(path string, r Report, format Format) (err error) {
	if path == "-" {
		return Write(os.Stdout, r, format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}()
	return Write(f, r, format)
}

func writeText(w io.Writer, r Report) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\n", r.SessionID)
	fmt.Fprintf(&sb, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Unique pages: %d\n", r.UniquePages)
	fmt.Fprintf(&sb, "Longest page: %s (%d words)\n\n", r.LongestPage.URL, r.LongestPage.Tokens)

	fmt.Fprintf(&sb, "Top %d words:\n", len(r.TopWords))
	for i, wc := range r.TopWords {
		fmt.Fprintf(&sb, "%3d. %s, %d\n", i+1, wc.Word, wc.Count)
	}

	fmt.Fprintf(&sb, "\nSubdomains (%d):\n", len(r.Subdomains))
	for _, s := range r.Subdomains {
		fmt.Fprintf(&sb, "%s, %d\n", s.Subdomain, s.Outlinks)
	}

	if len(r.Pages) > 0 {
		fmt.Fprintf(&sb, "\nPages (%d):\n", len(r.Pages))
		for _, p := range r.Pages {
			sb.WriteString(p)
			sb.WriteByte('\n')
		}
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}
