package actor

import (
	"hivetrace/internal/types"
)

// Table accumulates per-actor counters from a stream of events.
//
// Actors are keyed by IP. When a protocol never exposes one (shell session
// logs without a "from <ip>" suffix) a synthetic unknown_<user> ID keeps the
// activity attributable. One Table lives for one parse invocation, so it
// needs no locking.
type Table struct {
	records  map[string]*types.ActorRecord
	commands map[string][]string
}

// NewTable creates an empty actor table.
func NewTable() *Table {
	return &Table{
		records:  make(map[string]*types.ActorRecord),
		commands: make(map[string][]string),
	}
}

// Observe folds one event into the table. Events carrying neither an IP
// nor a user are unattributable and ignored here; the aggregator still
// counts them.
func (t *Table) Observe(evt types.Event) {
	id := evt.IP
	if id == "" {
		if evt.User == "" {
			return
		}
		id = types.SyntheticID(evt.User)
	}

	rec, ok := t.records[id]
	if !ok {
		rec = &types.ActorRecord{
			ID:        id,
			Users:     make(map[string]int),
			FirstSeen: evt.Timestamp,
			LastSeen:  evt.Timestamp,
		}
		t.records[id] = rec
	}

	rec.Interactions++
	if evt.User != "" {
		rec.Users[evt.User]++
	}

	switch evt.Type {
	case types.EventAuthFailed:
		rec.FailedAttempts++
	case types.EventAuthSuccess:
		rec.SuccessfulLogins++
	case types.EventConnOpen:
		rec.ConnectionsOpened++
	case types.EventConnClose:
		rec.ConnectionsClosed++
	case types.EventSessionStart:
		// A session implies a connection that authenticated.
		rec.ConnectionsOpened++
		rec.SuccessfulLogins++
	case types.EventCommand:
		t.commands[id] = append(t.commands[id], evt.Verb)
	}

	if evt.Timestamp.Before(rec.FirstSeen) {
		rec.FirstSeen = evt.Timestamp
	}
	if evt.Timestamp.After(rec.LastSeen) {
		rec.LastSeen = evt.Timestamp
	}
}

// Records returns the accumulated actor records keyed by actor ID.
func (t *Table) Records() map[string]*types.ActorRecord {
	return t.records
}

// Commands returns the commands observed for one actor, in log order.
func (t *Table) Commands(id string) []string {
	return t.commands[id]
}

// IPs returns every non-synthetic actor ID, for geo enrichment.
func (t *Table) IPs() []string {
	ips := make([]string, 0, len(t.records))
	for id := range t.records {
		if !types.IsSyntheticID(id) {
			ips = append(ips, id)
		}
	}
	return ips
}
