package parser

import (
	"time"

	"hivetrace/internal/types"
)

// Adapter turns one raw log line into at most one normalized event.
// A nil return means the line did not match any grammar rule; the caller
// counts it as skipped. Adapters never fail on malformed input.
type Adapter interface {
	Kind() types.SourceKind
	Parse(line string) *types.Event
}

// SourceFile pairs one log file with the adapter that understands it.
type SourceFile struct {
	Path    string
	Adapter Adapter
}

// AdaptersFor maps a service's configured log paths to adapters, in a
// fixed order so parsing stays reproducible.
func AdaptersFor(paths types.SourcePaths) []SourceFile {
	var files []SourceFile
	if paths.AuthLog != "" {
		files = append(files, SourceFile{paths.AuthLog, NewAuthAdapter()})
	}
	if paths.CommandsLog != "" {
		files = append(files, SourceFile{paths.CommandsLog, NewShellAdapter()})
	}
	if paths.RequestLog != "" {
		files = append(files, SourceFile{paths.RequestLog, NewRequestAdapter()})
	}
	if paths.GeneralLog != "" {
		files = append(files, SourceFile{paths.GeneralLog, NewQueryAdapter()})
	}
	if paths.ErrorLog != "" {
		files = append(files, SourceFile{paths.ErrorLog, NewQueryAdapter()})
	}
	return files
}

var monthNums = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// syslogTime builds a timestamp from syslog "Mon DD HH:MM:SS" fields.
// Syslog carries no year, so the current year is assumed; entries spanning
// a year boundary are silently mis-dated (known limitation of the format).
func syslogTime(mon string, day, hour, min, sec int, now time.Time) (time.Time, bool) {
	m, ok := monthNums[mon]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(now.Year(), m, day, hour, min, sec, 0, time.UTC), true
}
