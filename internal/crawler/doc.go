// Package crawler implements the link-discovery and politeness core of the
// crawler: URL normalization and validation, robots.txt checks, per-page
// link extraction, and the corpus statistics every processed page feeds.
package crawler
