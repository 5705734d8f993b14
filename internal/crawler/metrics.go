package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesProcessed counts extraction calls partitioned by outcome.
	PagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_pages_processed_total",
		Help: "Pages handed to the extractor, labeled by outcome.",
	}, []string{"outcome"})
	// LinksDiscovered counts normalized links found on processed pages.
	LinksDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_links_discovered_total",
		Help: "Normalized anchors extracted from processed pages.",
	})
	// LinksRejected counts candidates the validator excluded, by rule.
	LinksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_links_rejected_total",
		Help: "Candidate links rejected by the validator, labeled by reason.",
	}, []string{"reason"})
	// RobotsDecisions counts robots outcomes (allowed, denied, fail_open).
	RobotsDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_robots_decisions_total",
		Help: "Robots politeness decisions, labeled by outcome.",
	}, []string{"outcome"})
)

func observeRobotsDecision(outcome string) {
	RobotsDecisions.WithLabelValues(outcome).Inc()
}

func observePage(outcome string) {
	PagesProcessed.WithLabelValues(outcome).Inc()
}
