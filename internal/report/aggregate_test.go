package report

import (
	"testing"
	"time"

	"hivetrace/internal/types"
)

func at(minute int) time.Time {
	return time.Date(2025, time.November, 21, 9, minute, 0, 0, time.UTC)
}

func TestBuild_EmptyInput(t *testing.T) {
	rep := Build(Input{Service: "ssh"})

	if rep.Service != "ssh" {
		t.Errorf("Expected service ssh, got %s", rep.Service)
	}
	if rep.TotalInteractions != 0 || rep.UniqueActors != 0 || rep.SessionsObserved != 0 {
		t.Errorf("Expected all-zero counters, got %+v", rep)
	}
	if rep.Actors == nil || rep.Sessions == nil || rep.RecentAttacks == nil {
		t.Error("Expected empty slices, not nil")
	}
	if rep.ThreatSummary == nil || rep.DailyActivity == nil {
		t.Error("Expected empty maps, not nil")
	}
}

func TestBuild_Counters(t *testing.T) {
	events := []types.Event{
		{Timestamp: at(0), Type: types.EventAuthFailed, IP: "10.0.0.5", Level: types.ThreatMedium},
		{Timestamp: at(1), Type: types.EventCommand, User: "root", Verb: "ls", Level: types.ThreatMedium},
		{Timestamp: at(2), Type: types.EventQuery, IP: "10.0.0.5", Verb: "SELECT 1", Level: types.ThreatInfo},
	}
	actors := map[string]*types.ActorRecord{
		"10.0.0.5": {ID: "10.0.0.5", Interactions: 2, FailedAttempts: 3, ConnectionsOpened: 4, ConnectionsClosed: 2},
		"unknown_root": {ID: "unknown_root", Interactions: 1, SuccessfulLogins: 1},
	}

	rep := Build(Input{Service: "ssh", Events: events, Actors: actors, LinesSkipped: 7})

	if rep.TotalInteractions != 3 {
		t.Errorf("Expected 3 interactions, got %d", rep.TotalInteractions)
	}
	if rep.UniqueActors != 2 {
		t.Errorf("Expected 2 actors, got %d", rep.UniqueActors)
	}
	if rep.FailedAuths != 3 || rep.SuccessfulAuths != 1 {
		t.Errorf("Unexpected auth counters: %+v", rep)
	}
	if rep.ConnectionsOpened != 4 || rep.ConnectionsClosed != 2 {
		t.Errorf("Unexpected connection counters: %+v", rep)
	}
	if rep.CommandsExecuted != 1 {
		t.Errorf("Expected 1 command, got %d", rep.CommandsExecuted)
	}
	if rep.LinesSkipped != 7 {
		t.Errorf("Expected 7 skipped lines, got %d", rep.LinesSkipped)
	}
	if rep.ThreatSummary[types.ThreatMedium] != 2 || rep.ThreatSummary[types.ThreatInfo] != 1 {
		t.Errorf("Unexpected threat summary: %v", rep.ThreatSummary)
	}
	if rep.HourlyActivity[9] != 3 {
		t.Errorf("Expected 3 events in hour 9, got %d", rep.HourlyActivity[9])
	}
	if rep.DailyActivity["2025-11-21"] != 3 {
		t.Errorf("Expected 3 events on 2025-11-21, got %d", rep.DailyActivity["2025-11-21"])
	}
}

func TestRankActors_Ordering(t *testing.T) {
	actors := map[string]*types.ActorRecord{
		"10.0.0.1": {ID: "10.0.0.1", Interactions: 5, FirstSeen: at(0)},
		"10.0.0.2": {ID: "10.0.0.2", Interactions: 5, FirstSeen: at(0)},
		"10.0.0.3": {ID: "10.0.0.3", Interactions: 9, FirstSeen: at(0)},
		"10.0.0.4": {ID: "10.0.0.4", Interactions: 5, FirstSeen: at(3)},
		"10.0.0.5": {ID: "10.0.0.5", Interactions: 1, FirstSeen: at(0)},
	}
	scores := map[string]types.ThreatScore{
		"10.0.0.1": {Subject: "10.0.0.1", Score: 40},
		"10.0.0.2": {Subject: "10.0.0.2", Score: 40},
		"10.0.0.3": {Subject: "10.0.0.3", Score: 40},
		"10.0.0.4": {Subject: "10.0.0.4", Score: 40},
		"10.0.0.5": {Subject: "10.0.0.5", Score: 90},
	}

	ranked := rankActors(actors, scores)

	// Highest score first; then interactions; then first-seen; then ID.
	want := []string{"10.0.0.5", "10.0.0.3", "10.0.0.1", "10.0.0.2", "10.0.0.4"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, ranked[i].ID)
		}
	}
}

func TestRankActors_Deterministic(t *testing.T) {
	actors := map[string]*types.ActorRecord{
		"10.0.0.1": {ID: "10.0.0.1", FirstSeen: at(0)},
		"10.0.0.2": {ID: "10.0.0.2", FirstSeen: at(0)},
		"10.0.0.3": {ID: "10.0.0.3", FirstSeen: at(0)},
	}
	scores := map[string]types.ThreatScore{}

	first := rankActors(actors, scores)
	for i := 0; i < 10; i++ {
		again := rankActors(actors, scores)
		for j := range first {
			if again[j].ID != first[j].ID {
				t.Fatalf("Ranking changed across runs: %v vs %v", again, first)
			}
		}
	}
}

func TestRecentAttacks_FilterOrderAndCap(t *testing.T) {
	var events []types.Event
	for i := 0; i < 20; i++ {
		events = append(events, types.Event{
			Timestamp: at(i),
			Kind:      types.SourceAuth,
			Type:      types.EventAuthFailed,
			IP:        "10.0.0.5",
			User:      "root",
			Level:     types.ThreatMedium,
		})
	}
	// Below MEDIUM: excluded.
	events = append(events, types.Event{Timestamp: at(30), Type: types.EventQuery, IP: "10.0.0.5", Level: types.ThreatLow})

	attacks := recentAttacks(events)
	if len(attacks) != MaxRecentAttacks {
		t.Fatalf("Expected cap of %d attacks, got %d", MaxRecentAttacks, len(attacks))
	}

	// Newest first.
	for i := 1; i < len(attacks); i++ {
		if attacks[i].Timestamp.After(attacks[i-1].Timestamp) {
			t.Errorf("Attacks out of order at position %d", i)
		}
	}
	if !attacks[0].Timestamp.Equal(at(19)) {
		t.Errorf("Expected newest attack first, got %v", attacks[0].Timestamp)
	}
}

func TestRecentAttacks_SyntheticActorAndDetails(t *testing.T) {
	events := []types.Event{
		{Timestamp: at(0), Kind: types.SourceCommand, Type: types.EventCommand, User: "root", Verb: "sudo su", Level: types.ThreatHigh},
		{Timestamp: at(1), Kind: types.SourceRequest, Type: types.EventRequest, IP: "10.0.0.5", Method: "GET", Verb: "/admin", Level: types.ThreatMedium},
	}

	attacks := recentAttacks(events)
	if len(attacks) != 2 {
		t.Fatalf("Expected 2 attacks, got %d", len(attacks))
	}
	if attacks[1].Actor != "unknown_root" {
		t.Errorf("Expected synthetic actor for IP-less command, got %s", attacks[1].Actor)
	}
	if attacks[1].Details != `command "sudo su" by root` {
		t.Errorf("Unexpected command details: %s", attacks[1].Details)
	}
	if attacks[0].Details != "GET /admin from 10.0.0.5" {
		t.Errorf("Unexpected request details: %s", attacks[0].Details)
	}
}
