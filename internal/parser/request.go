package parser

import (
	"regexp"
	"strings"
	"time"

	"hivetrace/internal/types"
)

// Paths and user agents that raise the threat level of a request.
var (
	suspiciousPaths  = []string{"/admin", "/config", "/api/v1", "/database", "/backup"}
	suspiciousAgents = []string{"curl", "wget", "python", "bot", "scanner", "sqlmap"}
)

// RequestAdapter extracts events from the API honeypot request log.
// Format: 2025-11-21T09:15:02.123456 - 10.0.0.5 - GET /config - curl/8.0
type RequestAdapter struct {
	re  *regexp.Regexp
	now func() time.Time
}

// NewRequestAdapter creates a new request log adapter.
func NewRequestAdapter() *RequestAdapter {
	return &RequestAdapter{
		re:  regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+) - ([\d.]+) - (\w+) (/\S*) - (.+)$`),
		now: time.Now,
	}
}

// Kind implements the Adapter interface.
func (a *RequestAdapter) Kind() types.SourceKind { return types.SourceRequest }

// Parse implements the Adapter interface.
func (a *RequestAdapter) Parse(line string) *types.Event {
	line = strings.TrimSpace(line)
	m := a.re.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	ts, err := time.ParseInLocation("2006-01-02T15:04:05.999999", m[1], time.UTC)
	if err != nil {
		ts = a.now()
	}

	path := m[4]
	agent := m[5]

	return &types.Event{
		Timestamp: ts,
		Kind:      types.SourceRequest,
		Type:      types.EventRequest,
		IP:        m[2],
		Method:    m[3],
		Verb:      path,
		UserAgent: agent,
		Raw:       line,
		Level:     assessRequest(path, agent),
	}
}

// assessRequest scores a request line by its indicators: a suspicious path
// counts double, a suspicious agent once. Three or more indicators mean
// HIGH, one or two MEDIUM, none LOW.
func assessRequest(path, agent string) types.ThreatLevel {
	indicators := 0
	for _, p := range suspiciousPaths {
		if strings.Contains(path, p) {
			indicators += 2
			break
		}
	}
	lowerAgent := strings.ToLower(agent)
	for _, sa := range suspiciousAgents {
		if strings.Contains(lowerAgent, sa) {
			indicators++
			break
		}
	}

	switch {
	case indicators >= 3:
		return types.ThreatHigh
	case indicators >= 1:
		return types.ThreatMedium
	default:
		return types.ThreatLow
	}
}
