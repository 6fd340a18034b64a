package session

import (
	"fmt"

	"hivetrace/internal/types"
)

// Reconstructor groups a stream of events into per-actor sessions.
//
// Per actor there is at most one open session. A start marker closes any
// session still open for that actor (ended at its last seen event) before
// opening the next one, so sessions for the same actor never overlap. An
// explicit end marker closes the session; end-of-log leaves it open.
// Events that cannot be attributed to an actor are kept as loose events:
// they still count in aggregates but belong to no session.
type Reconstructor struct {
	open     map[string]*types.Session
	counters map[string]int
	all      []*types.Session // creation order, deterministic output
	loose    []types.Event
}

// NewReconstructor creates an empty reconstructor.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{
		open:     make(map[string]*types.Session),
		counters: make(map[string]int),
	}
}

// Observe feeds the next event, in log order.
func (r *Reconstructor) Observe(evt types.Event) {
	key := evt.User
	if key == "" {
		key = evt.IP
	}
	if key == "" {
		r.loose = append(r.loose, evt)
		return
	}

	switch evt.Type {
	case types.EventSessionStart:
		r.closeImplicit(key)
		r.counters[key]++
		s := &types.Session{
			ID:        fmt.Sprintf("%s-%d", key, r.counters[key]),
			User:      evt.User,
			IP:        evt.IP,
			StartedAt: evt.Timestamp,
			Events:    []types.Event{},
		}
		r.open[key] = s
		r.all = append(r.all, s)

	case types.EventSessionEnd:
		s, ok := r.open[key]
		if !ok {
			r.loose = append(r.loose, evt)
			return
		}
		s.Events = append(s.Events, evt)
		ended := evt.Timestamp
		s.EndedAt = &ended
		delete(r.open, key)

	default:
		s, ok := r.open[key]
		if !ok {
			r.loose = append(r.loose, evt)
			return
		}
		s.Events = append(s.Events, evt)
	}
}

// closeImplicit ends the actor's current session at its last seen event,
// standing in for a timeout the log never recorded.
func (r *Reconstructor) closeImplicit(key string) {
	s, ok := r.open[key]
	if !ok {
		return
	}
	ended := s.StartedAt
	if n := len(s.Events); n > 0 {
		ended = s.Events[n-1].Timestamp
	}
	s.EndedAt = &ended
	delete(r.open, key)
}

// Finish returns all sessions in creation order plus the loose events.
// Sessions never explicitly closed come back with a nil EndedAt.
func (r *Reconstructor) Finish() ([]types.Session, []types.Event) {
	sessions := make([]types.Session, 0, len(r.all))
	for _, s := range r.all {
		sessions = append(sessions, *s)
	}
	return sessions, r.loose
}
