package session

import (
	"testing"
	"time"

	"hivetrace/internal/types"
)

func ts(minute int) time.Time {
	return time.Date(2025, time.November, 21, 9, minute, 0, 0, time.UTC)
}

func start(user string, minute int) types.Event {
	return types.Event{Timestamp: ts(minute), Kind: types.SourceCommand, Type: types.EventSessionStart, User: user}
}

func command(user, verb string, minute int) types.Event {
	return types.Event{Timestamp: ts(minute), Kind: types.SourceCommand, Type: types.EventCommand, User: user, Verb: verb}
}

func end(user string, minute int) types.Event {
	return types.Event{Timestamp: ts(minute), Kind: types.SourceCommand, Type: types.EventSessionEnd, User: user}
}

func TestReconstructor_ExplicitClose(t *testing.T) {
	r := NewReconstructor()
	r.Observe(start("root", 0))
	r.Observe(command("root", "whoami", 1))
	r.Observe(end("root", 2))

	sessions, loose := r.Finish()
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}
	if len(loose) != 0 {
		t.Errorf("Expected no loose events, got %d", len(loose))
	}

	s := sessions[0]
	if !s.Closed() {
		t.Fatal("Expected session to be closed")
	}
	if !s.EndedAt.Equal(ts(2)) {
		t.Errorf("Expected ended_at %v, got %v", ts(2), s.EndedAt)
	}
	if len(s.Events) != 2 { // command + end marker
		t.Errorf("Expected 2 events in session, got %d", len(s.Events))
	}
}

func TestReconstructor_ImplicitCloseOnRestart(t *testing.T) {
	r := NewReconstructor()
	r.Observe(start("root", 0))
	r.Observe(command("root", "ls", 1))
	r.Observe(start("root", 5)) // new session closes the first implicitly
	r.Observe(command("root", "id", 6))

	sessions, _ := r.Finish()
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}

	first, second := sessions[0], sessions[1]
	if !first.Closed() {
		t.Fatal("Expected first session closed by the second start marker")
	}
	if !first.EndedAt.Equal(ts(1)) {
		t.Errorf("Expected first session ended at its last event %v, got %v", ts(1), first.EndedAt)
	}
	if second.Closed() {
		t.Error("Expected second session left open at end of log")
	}

	// No event of the first session may fall at or after the second start.
	for _, evt := range first.Events {
		if !evt.Timestamp.Before(second.StartedAt) {
			t.Errorf("Event %v leaked past the next start marker %v", evt.Timestamp, second.StartedAt)
		}
		if evt.Timestamp.Before(first.StartedAt) {
			t.Errorf("Event %v precedes session start %v", evt.Timestamp, first.StartedAt)
		}
	}
}

func TestReconstructor_SessionIDsAreDeterministic(t *testing.T) {
	r := NewReconstructor()
	r.Observe(start("root", 0))
	r.Observe(start("root", 1))
	sessions, _ := r.Finish()

	if sessions[0].ID != "root-1" || sessions[1].ID != "root-2" {
		t.Errorf("Expected ordinal IDs root-1, root-2; got %s, %s", sessions[0].ID, sessions[1].ID)
	}
}

func TestReconstructor_LooseEvents(t *testing.T) {
	r := NewReconstructor()
	// Command before any session start: attributable to the user but no
	// open session, so it stays loose.
	r.Observe(command("root", "whoami", 0))
	// No actor at all.
	r.Observe(types.Event{Timestamp: ts(1), Type: types.EventQuery, Verb: "SELECT 1"})

	sessions, loose := r.Finish()
	if len(sessions) != 0 {
		t.Fatalf("Expected no sessions, got %d", len(sessions))
	}
	if len(loose) != 2 {
		t.Fatalf("Expected 2 loose events, got %d", len(loose))
	}
}

func TestReconstructor_SeparateActorsDoNotInterfere(t *testing.T) {
	r := NewReconstructor()
	r.Observe(start("alice", 0))
	r.Observe(start("bob", 1))
	r.Observe(command("alice", "ls", 2))
	r.Observe(end("bob", 3))

	sessions, _ := r.Finish()
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].User != "alice" || sessions[0].Closed() {
		t.Errorf("Expected alice's session open, got %+v", sessions[0])
	}
	if sessions[1].User != "bob" || !sessions[1].Closed() {
		t.Errorf("Expected bob's session closed, got %+v", sessions[1])
	}
	if len(sessions[0].Events) != 1 {
		t.Errorf("Expected alice's command in alice's session, got %d events", len(sessions[0].Events))
	}
}
