// Package main hosts the webcrawler command.
//
// Architecture overview:
//   - Seeds from config enter an in-memory frontier that deduplicates across
//     the whole session and knows when nothing is pending or in flight.
//   - A dispatcher runs crawler.concurrency workers. Each worker paces itself
//     per host, fetches with colly, and hands the response to the extractor.
//   - The extractor checks robots.txt, tokenizes the page, records it in the
//     corpus statistics and returns unvisited links; the validator keeps the
//     in-scope ones and the worker enqueues them.
//   - When the frontier drains, the page budget is spent, or SIGINT/SIGTERM
//     arrives, the session report is written from a statistics snapshot.
//   - With server.enabled, a chi server exposes health probes, Prometheus
//     metrics and the live statistics while the crawl runs.
//
// Quick checklist:
//   - Configure via a YAML file (--config) or CRAWLER_* env vars, e.g.
//     CRAWLER_CRAWLER_CONCURRENCY, CRAWLER_CRAWLER_DELAY_MS,
//     CRAWLER_ROBOTS_RESPECT, CRAWLER_REPORT_PATH.
//   - Run locally: go run ./cmd/webcrawler crawl --config config.yaml
//   - Inspect the filter: go run ./cmd/webcrawler validate URL...
package main
