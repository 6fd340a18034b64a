package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LinesParsed counts raw lines that matched an adapter grammar.
	LinesParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hivetrace_lines_parsed_total",
		Help: "Raw log lines that produced a normalized event, per source kind.",
	}, []string{"source"})

	// LinesSkipped counts raw lines no adapter matched.
	LinesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hivetrace_lines_skipped_total",
		Help: "Raw log lines dropped as unmatched, per source kind.",
	}, []string{"source"})

	// ReportsGenerated counts parse invocations per service.
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hivetrace_reports_generated_total",
		Help: "Reports produced, per honeypot service.",
	}, []string{"service"})

	// GeoLookups counts external resolver calls by outcome.
	GeoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hivetrace_geo_lookups_total",
		Help: "Geo resolver lookups, by outcome (resolved, unknown, cached).",
	}, []string{"outcome"})
)

// StartServer exposes /metrics on the given address and blocks.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
