package parser

import (
	"regexp"
	"strings"
	"time"

	"hivetrace/internal/types"
)

// sqlInjectionPatterns flag query arguments that look like injection attempts.
// DML against a honeypot database is unauthorized by definition, so INSERT,
// UPDATE and DELETE count as attempts too.
var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)'.*OR.*'.*=.*'`),
	regexp.MustCompile(`(?i)UNION.*SELECT`),
	regexp.MustCompile(`(?i)DROP\s+TABLE`),
	regexp.MustCompile(`(?i)INSERT.*INTO`),
	regexp.MustCompile(`(?i)UPDATE.*SET`),
	regexp.MustCompile(`(?i)DELETE.*FROM`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`/\*.*\*/`),
	regexp.MustCompile(`(?i)'.*OR.*1=1`),
	regexp.MustCompile(`(?i)'.*OR.*'1'='1`),
	regexp.MustCompile(`(?i)EXEC\s*\(`),
	regexp.MustCompile(`(?i)xp_cmdshell`),
}

// QueryAdapter extracts events from the database honeypot logs: the general
// query log and the error log share one adapter because lines from both are
// distinguishable by shape.
type QueryAdapter struct {
	reGeneral *regexp.Regexp
	reErrTS   *regexp.Regexp
	reDenied  *regexp.Regexp
	now       func() time.Time
}

// NewQueryAdapter creates a new database log adapter.
func NewQueryAdapter() *QueryAdapter {
	return &QueryAdapter{
		// 2025-11-21T09:15:02.123456Z   12 Query  SELECT * FROM users
		reGeneral: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)\s+(\d+)\s+(\w+)\s*(.*)$`),
		reErrTS:   regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)`),
		// Access denied for user 'root'@'10.0.0.5'
		reDenied: regexp.MustCompile(`Access denied for user '(\S+?)'@'(\S+?)'`),
		now:      time.Now,
	}
}

// Kind implements the Adapter interface.
func (a *QueryAdapter) Kind() types.SourceKind { return types.SourceQuery }

// Parse implements the Adapter interface.
func (a *QueryAdapter) Parse(line string) *types.Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if m := a.reGeneral.FindStringSubmatch(line); m != nil {
		return a.parseGeneral(line, m)
	}
	if strings.Contains(line, "[ERROR]") || strings.Contains(line, "[Warning]") || strings.Contains(line, "[Note]") {
		return a.parseError(line)
	}
	return nil
}

func (a *QueryAdapter) parseGeneral(line string, m []string) *types.Event {
	ts := a.timestamp(m[1])
	command := m[3]
	argument := m[4]

	evt := &types.Event{
		Timestamp: ts,
		Kind:      types.SourceQuery,
		Verb:      argument,
		Raw:       line,
		Level:     types.ThreatInfo,
	}

	if dm := a.reDenied.FindStringSubmatch(argument); dm != nil {
		evt.Type = types.EventAuthFailed
		evt.User = dm[1]
		evt.IP = dm[2]
		evt.Level = types.ThreatMedium
		return evt
	}

	switch command {
	case "Connect":
		evt.Type = types.EventConnOpen
	case "Quit":
		evt.Type = types.EventConnClose
	default:
		evt.Type = types.EventQuery
		if isInjection(argument) {
			evt.Level = types.ThreatHigh
		}
	}
	return evt
}

func (a *QueryAdapter) parseError(line string) *types.Event {
	ts := a.now()
	if m := a.reErrTS.FindStringSubmatch(line); m != nil {
		ts = a.timestamp(m[1])
	}

	evt := &types.Event{
		Timestamp: ts,
		Kind:      types.SourceQuery,
		Type:      types.EventQuery,
		Verb:      line,
		Raw:       line,
		Level:     types.ThreatInfo,
	}

	if dm := a.reDenied.FindStringSubmatch(line); dm != nil {
		evt.Type = types.EventAuthFailed
		evt.User = dm[1]
		evt.IP = dm[2]
		evt.Level = types.ThreatMedium
	} else if strings.Contains(line, "[ERROR]") {
		evt.Level = types.ThreatLow
	}
	return evt
}

func (a *QueryAdapter) timestamp(raw string) time.Time {
	ts, err := time.Parse("2006-01-02T15:04:05.999999Z", raw)
	if err != nil {
		return a.now()
	}
	return ts
}

// isInjection reports whether a query argument matches any known
// SQL injection pattern.
func isInjection(query string) bool {
	for _, re := range sqlInjectionPatterns {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}
