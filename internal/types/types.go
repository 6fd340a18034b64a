package types

import (
	"strings"
	"time"
)

// ThreatLevel is the per-event risk classification.
type ThreatLevel string

const (
	ThreatInfo   ThreatLevel = "INFO"
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
)

// AtLeast reports whether l is at or above the given level.
func (l ThreatLevel) AtLeast(min ThreatLevel) bool {
	return levelRank(l) >= levelRank(min)
}

func levelRank(l ThreatLevel) int {
	switch l {
	case ThreatHigh:
		return 3
	case ThreatMedium:
		return 2
	case ThreatLow:
		return 1
	default:
		return 0
	}
}

// ScoreLevel is the per-actor bucket derived from a numeric threat score.
type ScoreLevel string

const (
	ScoreMinimal  ScoreLevel = "MINIMAL"
	ScoreLow      ScoreLevel = "LOW"
	ScoreMedium   ScoreLevel = "MEDIUM"
	ScoreHigh     ScoreLevel = "HIGH"
	ScoreCritical ScoreLevel = "CRITICAL"
)

// SourceKind identifies which honeypot log family a line came from.
type SourceKind string

const (
	SourceAuth    SourceKind = "auth"
	SourceCommand SourceKind = "command"
	SourceRequest SourceKind = "request"
	SourceQuery   SourceKind = "query"
)

// EventType is the normalized action extracted from a raw line.
type EventType string

const (
	EventAuthFailed   EventType = "auth_failed"
	EventAuthSuccess  EventType = "auth_success"
	EventConnOpen     EventType = "conn_open"
	EventConnClose    EventType = "conn_close"
	EventSessionStart EventType = "session_start"
	EventSessionEnd   EventType = "session_end"
	EventCommand      EventType = "command"
	EventRequest      EventType = "request"
	EventQuery        EventType = "query"
)

// Event is one normalized interaction parsed from a raw log line.
// Immutable once created; exactly one per matched line.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Kind      SourceKind  `json:"source_kind"`
	Type      EventType   `json:"type"`
	IP        string      `json:"ip,omitempty"`
	User      string      `json:"user,omitempty"`
	Verb      string      `json:"verb,omitempty"` // command text, request path, or SQL fragment
	Raw       string      `json:"-"`
	Level     ThreatLevel `json:"threat_level"`

	// Request specific
	Method    string `json:"method,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Session is a bounded sequence of events attributable to one actor.
type Session struct {
	ID        string     `json:"id"`
	User      string     `json:"user"`
	IP        string     `json:"ip,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"` // nil while the session is open
	Events    []Event    `json:"events"`
}

// Closed reports whether the session saw an explicit or implicit end.
func (s *Session) Closed() bool { return s.EndedAt != nil }

// SyntheticIDPrefix marks actor IDs fabricated when no real IP was observable.
const SyntheticIDPrefix = "unknown_"

// SyntheticID builds the per-user stand-in actor ID.
func SyntheticID(user string) string { return SyntheticIDPrefix + user }

// IsSyntheticID reports whether id is a fabricated per-user actor ID.
func IsSyntheticID(id string) bool { return strings.HasPrefix(id, SyntheticIDPrefix) }

// GeoRecord is coarse location metadata for an IP. Country "Unknown" is a
// valid terminal value, not an error.
type GeoRecord struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
}

// Unknown reports whether the record carries no usable location.
func (g GeoRecord) Unknown() bool { return g.Country == "" || g.Country == "Unknown" }

// ActorRecord aggregates everything observed for one attacking entity,
// keyed by IP or by a synthetic unknown_<user> ID.
type ActorRecord struct {
	ID                string         `json:"id"`
	Interactions      int            `json:"interactions"`
	FailedAttempts    int            `json:"failed_attempts"`
	SuccessfulLogins  int            `json:"successful_logins"`
	ConnectionsOpened int            `json:"connections_opened"`
	ConnectionsClosed int            `json:"connections_closed"`
	Users             map[string]int `json:"users"`
	FirstSeen         time.Time      `json:"first_seen"`
	LastSeen          time.Time      `json:"last_seen"`
	Location          *GeoRecord     `json:"location,omitempty"`
}

// PrimaryUser returns the most frequently seen username for this actor.
// Count ties break lexicographically so ranking stays reproducible.
func (a *ActorRecord) PrimaryUser() string {
	best := ""
	bestCount := -1
	for user, count := range a.Users {
		if count > bestCount || (count == bestCount && user < best) {
			best = user
			bestCount = count
		}
	}
	return best
}

// ThreatScore is the computed risk for one subject (actor or event).
type ThreatScore struct {
	Subject string     `json:"subject"`
	Score   int        `json:"score"` // always within [0,100]
	Level   ScoreLevel `json:"level"`
}

// RankedActor is an ActorRecord with its score, as it appears in a Report.
type RankedActor struct {
	ActorRecord
	Score int        `json:"score"`
	Level ScoreLevel `json:"level"`
}

// Attack is one entry of the recent-attacks list.
type Attack struct {
	Timestamp time.Time   `json:"timestamp"`
	Kind      SourceKind  `json:"source_kind"`
	Actor     string      `json:"actor"`
	Level     ThreatLevel `json:"threat_level"`
	Details   string      `json:"details"`
}

// Report is the engine's sole output: dashboard-ready aggregates for one
// parse invocation. A missing log file yields an all-zero Report, never an
// error. The report carries no wall-clock field so identical input parses
// to identical output.
type Report struct {
	Service           string `json:"service"`
	TotalInteractions int    `json:"total_interactions"`
	UniqueActors      int    `json:"unique_actors"`
	FailedAuths       int    `json:"failed_auths"`
	SuccessfulAuths   int    `json:"successful_auths"`
	ConnectionsOpened int    `json:"connections_opened"`
	ConnectionsClosed int    `json:"connections_closed"`
	CommandsExecuted  int    `json:"commands_executed"`
	SessionsObserved  int    `json:"sessions_observed"`
	LinesSkipped      int    `json:"lines_skipped"`

	ThreatSummary  map[ThreatLevel]int `json:"threat_summary"`
	Actors         []RankedActor       `json:"actors"`
	Sessions       []Session           `json:"sessions"`
	HourlyActivity [24]int             `json:"hourly_activity"`
	DailyActivity  map[string]int      `json:"daily_activity"`
	RecentAttacks  []Attack            `json:"recent_attacks"`
}

// NewReport returns a structurally valid empty report for a service.
func NewReport(service string) *Report {
	return &Report{
		Service:       service,
		ThreatSummary: make(map[ThreatLevel]int),
		Actors:        []RankedActor{},
		Sessions:      []Session{},
		DailyActivity: make(map[string]int),
		RecentAttacks: []Attack{},
	}
}

// SourcePaths lists the log files one honeypot service appends to.
// Only the fields matching the service's protocol are set.
type SourcePaths struct {
	AuthLog     string `yaml:"auth_log"`
	CommandsLog string `yaml:"commands_log"`
	RequestLog  string `yaml:"request_log"`
	GeneralLog  string `yaml:"general_log"`
	ErrorLog    string `yaml:"error_log"`
}

// Config represents the application configuration.
type Config struct {
	Sources map[string]SourcePaths `yaml:"sources"`

	Geo struct {
		Enabled     bool          `yaml:"enabled"`
		Timeout     time.Duration `yaml:"timeout"`
		Workers     int           `yaml:"workers"`
		CachePath   string        `yaml:"cache_path"` // empty disables warm-start persistence
		PrimaryURL  string        `yaml:"primary_url"`
		FallbackURL string        `yaml:"fallback_url"`
	} `yaml:"geo"`

	Scoring struct {
		RulesPath string `yaml:"rules_path"` // optional YAML override of the weight table
	} `yaml:"scoring"`

	Dashboard struct {
		Enabled bool   `yaml:"enabled"`
		Port    string `yaml:"port"`
	} `yaml:"dashboard"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Port    string `yaml:"port"`
	} `yaml:"metrics"`

	Output struct {
		AuditLogPath string `yaml:"audit_log_path"`
	} `yaml:"output"`
}
