package parser

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hivetrace/internal/types"
)

// AuthAdapter extracts events from sshd-style auth logs.
type AuthAdapter struct {
	// Pre-compiled regexes
	reLine      *regexp.Regexp
	reIP        *regexp.Regexp
	reUser      *regexp.Regexp
	reFailed    *regexp.Regexp
	reAccepted  *regexp.Regexp
	reConnOpen  *regexp.Regexp
	reConnClose *regexp.Regexp

	now func() time.Time
}

// NewAuthAdapter creates a new auth log adapter.
func NewAuthAdapter() *AuthAdapter {
	return &AuthAdapter{
		// Nov 21 09:15:02 honeypot sshd[4211]: Failed password for root from 10.0.0.5 port 52944 ssh2
		reLine:      regexp.MustCompile(`^(\w{3}) +(\d{1,2}) (\d{2}):(\d{2}):(\d{2}) \S+ sshd\[\d+\]: (.+)$`),
		reIP:        regexp.MustCompile(`from (\d+\.\d+\.\d+\.\d+)`),
		reUser:      regexp.MustCompile(`user=(\S+)|for (?:invalid user )?(\S+) from`),
		reFailed:    regexp.MustCompile(`Failed password|authentication failure`),
		reAccepted:  regexp.MustCompile(`Accepted \w+|session opened`),
		reConnOpen:  regexp.MustCompile(`Connection from (\d+\.\d+\.\d+\.\d+)`),
		reConnClose: regexp.MustCompile(`Connection closed by (\d+\.\d+\.\d+\.\d+)`),
		now:         time.Now,
	}
}

// Kind implements the Adapter interface.
func (a *AuthAdapter) Kind() types.SourceKind { return types.SourceAuth }

// Parse implements the Adapter interface.
func (a *AuthAdapter) Parse(line string) *types.Event {
	line = strings.TrimSpace(line)
	m := a.reLine.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	day, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	min, _ := strconv.Atoi(m[4])
	sec, _ := strconv.Atoi(m[5])
	ts, ok := syslogTime(m[1], day, hour, min, sec, a.now())
	if !ok {
		// Matched line with an unparseable month: keep the event, fall back to now.
		log.Printf("[PARSER] unparseable syslog timestamp, using current time: %q", line)
		ts = a.now()
	}

	msg := m[6]

	evt := &types.Event{
		Timestamp: ts,
		Kind:      types.SourceAuth,
		Raw:       line,
		Level:     types.ThreatInfo,
	}

	if cm := a.reConnOpen.FindStringSubmatch(msg); cm != nil {
		evt.Type = types.EventConnOpen
		evt.IP = cm[1]
		return evt
	}
	if cm := a.reConnClose.FindStringSubmatch(msg); cm != nil {
		evt.Type = types.EventConnClose
		evt.IP = cm[1]
		return evt
	}

	if im := a.reIP.FindStringSubmatch(msg); im != nil {
		evt.IP = im[1]
	}
	if um := a.reUser.FindStringSubmatch(msg); um != nil {
		if um[1] != "" {
			evt.User = um[1]
		} else {
			evt.User = um[2]
		}
	}

	switch {
	case a.reFailed.MatchString(msg):
		evt.Type = types.EventAuthFailed
		evt.Level = types.ThreatMedium
	case a.reAccepted.MatchString(msg):
		evt.Type = types.EventAuthSuccess
		evt.Level = types.ThreatMedium
	default:
		// sshd chatter we do not classify
		return nil
	}

	return evt
}
