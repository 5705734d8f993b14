// Package api hosts the optional HTTP server for watching a crawl session.
// Notable routes:
//   - GET /healthz / readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/stats for the live corpus summary, plus /v1/stats/words,
//     /v1/stats/subdomains and /v1/stats/pages for the detailed tables.
package api
