package parser

import (
	"regexp"
	"strings"
	"time"

	"hivetrace/internal/score"
	"hivetrace/internal/types"
)

// ShellAdapter extracts events from interactive shell session logs
// (commands.log written by the shell honeypot).
type ShellAdapter struct {
	reSessionIP  *regexp.Regexp
	reSession    *regexp.Regexp
	reSessionEnd *regexp.Regexp
	reCommand    *regexp.Regexp

	now func() time.Time
}

// NewShellAdapter creates a new shell session log adapter.
func NewShellAdapter() *ShellAdapter {
	return &ShellAdapter{
		// 2025-11-21 09:15:02 Session started for user root from 10.0.0.5
		reSessionIP: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}:\d{2}) Session started for user (\S+) from (\d+\.\d+\.\d+\.\d+)$`),
		// 2025-11-21 09:15:02 Session started for user root
		reSession: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}:\d{2}) Session started for user (\S+)$`),
		// 2025-11-21 09:17:40 Session closed for user root
		reSessionEnd: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}:\d{2}) Session (?:closed|terminated) for user (\S+)$`),
		// 2025-11-21 09:15:10 root: whoami
		reCommand: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (\d{2}:\d{2}:\d{2}) (\S+): (.+)$`),
		now:       time.Now,
	}
}

// Kind implements the Adapter interface.
func (a *ShellAdapter) Kind() types.SourceKind { return types.SourceCommand }

// Parse implements the Adapter interface.
func (a *ShellAdapter) Parse(line string) *types.Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if m := a.reSessionIP.FindStringSubmatch(line); m != nil {
		return &types.Event{
			Timestamp: a.timestamp(m[1], m[2]),
			Kind:      types.SourceCommand,
			Type:      types.EventSessionStart,
			User:      m[3],
			IP:        m[4],
			Raw:       line,
			Level:     types.ThreatInfo,
		}
	}
	if m := a.reSession.FindStringSubmatch(line); m != nil {
		return &types.Event{
			Timestamp: a.timestamp(m[1], m[2]),
			Kind:      types.SourceCommand,
			Type:      types.EventSessionStart,
			User:      m[3],
			Raw:       line,
			Level:     types.ThreatInfo,
		}
	}
	if m := a.reSessionEnd.FindStringSubmatch(line); m != nil {
		return &types.Event{
			Timestamp: a.timestamp(m[1], m[2]),
			Kind:      types.SourceCommand,
			Type:      types.EventSessionEnd,
			User:      m[3],
			Raw:       line,
			Level:     types.ThreatInfo,
		}
	}
	if m := a.reCommand.FindStringSubmatch(line); m != nil {
		command := m[4]
		evt := &types.Event{
			Timestamp: a.timestamp(m[1], m[2]),
			Kind:      types.SourceCommand,
			Type:      types.EventCommand,
			User:      m[3],
			Verb:      command,
			Raw:       line,
			Level:     score.ClassifyCommand(command),
		}
		// "exit" ends the session as well as being the last command
		if strings.TrimSpace(command) == "exit" {
			evt.Type = types.EventSessionEnd
		}
		return evt
	}

	return nil
}

// timestamp parses the "YYYY-MM-DD HH:MM:SS" pair the shell honeypot writes.
// A match guarantees the shape, so failure here is an invariant violation;
// we degrade to the current time rather than dropping the event.
func (a *ShellAdapter) timestamp(date, clock string) time.Time {
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.UTC)
	if err != nil {
		return a.now()
	}
	return ts
}
