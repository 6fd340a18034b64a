package engine

import (
	"bufio"
	"context"
	"log"
	"os"
	"sort"
	"time"

	"hivetrace/internal/actor"
	"hivetrace/internal/audit"
	"hivetrace/internal/geo"
	"hivetrace/internal/metrics"
	"hivetrace/internal/parser"
	"hivetrace/internal/report"
	"hivetrace/internal/score"
	"hivetrace/internal/session"
	"hivetrace/internal/types"
)

// Engine orchestrates one parse invocation: load log files, run the line
// adapters, reconstruct sessions, score actors, enrich with geo data and
// fold everything into a Report.
//
// Invocations are independent and safe to run concurrently; the geo cache
// is the only shared mutable state and synchronizes itself.
type Engine struct {
	cfg   *types.Config
	rules *score.RuleTable
	geo   *geo.Cache // nil disables enrichment
	audit *audit.Logger
}

// New creates an engine. geoCache and auditLogger may be nil.
func New(cfg *types.Config, rules *score.RuleTable, geoCache *geo.Cache, auditLogger *audit.Logger) *Engine {
	if rules == nil {
		rules = score.DefaultRules()
	}
	return &Engine{
		cfg:   cfg,
		rules: rules,
		geo:   geoCache,
		audit: auditLogger,
	}
}

// filesFor maps a service's configured log paths to adapters.
func (e *Engine) filesFor(service string) []parser.SourceFile {
	paths, ok := e.cfg.Sources[service]
	if !ok {
		return nil
	}
	return parser.AdaptersFor(paths)
}

// Services lists the configured honeypot services, sorted.
func (e *Engine) Services() []string {
	names := make([]string, 0, len(e.cfg.Sources))
	for name := range e.cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse re-reads the service's log files and computes a fresh Report.
// It never fails: missing files, malformed lines and resolver outages all
// degrade to emptier report sections.
func (e *Engine) Parse(ctx context.Context, service string) *types.Report {
	start := time.Now()

	var (
		events  []types.Event
		skipped int
	)

	for _, sf := range e.filesFor(service) {
		evts, skip := parseFile(sf.Path, sf.Adapter)
		events = append(events, evts...)
		skipped += skip
	}

	table := actor.NewTable()
	recon := session.NewReconstructor()
	for _, evt := range events {
		table.Observe(evt)
		recon.Observe(evt)
	}
	sessions, _ := recon.Finish()

	scores := make(map[string]types.ThreatScore, len(table.Records()))
	for id, rec := range table.Records() {
		scores[id] = e.rules.Score(rec, table.Commands(id))
	}

	if e.geo != nil && e.cfg.Geo.Enabled {
		located := e.geo.EnrichAll(ctx, table.IPs(), e.cfg.Geo.Workers)
		for ip, rec := range located {
			loc := rec
			table.Records()[ip].Location = &loc
		}
	}

	rep := report.Build(report.Input{
		Service:      service,
		Events:       events,
		Sessions:     sessions,
		Actors:       table.Records(),
		Scores:       scores,
		LinesSkipped: skipped,
	})

	metrics.ReportsGenerated.WithLabelValues(service).Inc()
	if e.audit != nil {
		if err := e.audit.LogRun(audit.RunRecord{
			Timestamp:  start,
			Service:    service,
			Events:     len(events),
			Skipped:    skipped,
			Actors:     len(table.Records()),
			Sessions:   len(sessions),
			DurationMS: time.Since(start).Milliseconds(),
		}); err != nil {
			log.Printf("[AUDIT] failed to record run: %v", err)
		}
	}

	log.Printf("[ENGINE] %s: %d events, %d skipped, %d actors, %d sessions in %s",
		service, len(events), skipped, len(table.Records()), len(sessions), time.Since(start).Round(time.Millisecond))

	return rep
}

// parseFile runs every line of one log file through an adapter. A missing
// file is zero events, not an error.
func parseFile(path string, a parser.Adapter) ([]types.Event, int) {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[ENGINE] cannot read %s: %v", path, err)
		}
		return nil, 0
	}
	defer f.Close()

	var (
		events  []types.Event
		skipped int
	)

	scanner := bufio.NewScanner(f)
	// Some honeypots log whole request bodies on one line.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		evt := a.Parse(line)
		if evt == nil {
			skipped++
			metrics.LinesSkipped.WithLabelValues(string(a.Kind())).Inc()
			continue
		}
		events = append(events, *evt)
		metrics.LinesParsed.WithLabelValues(string(a.Kind())).Inc()
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[ENGINE] error while reading %s: %v", path, err)
	}

	return events, skipped
}
