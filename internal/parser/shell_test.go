package parser

import (
	"testing"
	"time"

	"hivetrace/internal/types"
)

func TestShellAdapter_SessionStartWithIP(t *testing.T) {
	a := NewShellAdapter()

	evt := a.Parse("2025-11-21 09:15:02 Session started for user root from 10.0.0.5")
	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Type != types.EventSessionStart {
		t.Errorf("Expected type session_start, got %s", evt.Type)
	}
	if evt.User != "root" {
		t.Errorf("Expected user 'root', got '%s'", evt.User)
	}
	if evt.IP != "10.0.0.5" {
		t.Errorf("Expected IP '10.0.0.5', got '%s'", evt.IP)
	}

	want := time.Date(2025, time.November, 21, 9, 15, 2, 0, time.UTC)
	if !evt.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, evt.Timestamp)
	}
}

func TestShellAdapter_SessionStartWithoutIP(t *testing.T) {
	a := NewShellAdapter()

	evt := a.Parse("2025-11-21 09:15:02 Session started for user root")
	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Type != types.EventSessionStart {
		t.Errorf("Expected type session_start, got %s", evt.Type)
	}
	if evt.IP != "" {
		t.Errorf("Expected empty IP, got '%s'", evt.IP)
	}
}

func TestShellAdapter_Command(t *testing.T) {
	a := NewShellAdapter()

	evt := a.Parse("2025-11-21 09:15:10 root: sudo su")
	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Type != types.EventCommand {
		t.Errorf("Expected type command, got %s", evt.Type)
	}
	if evt.Verb != "sudo su" {
		t.Errorf("Expected verb 'sudo su', got '%s'", evt.Verb)
	}
	if evt.Level != types.ThreatHigh {
		t.Errorf("Expected HIGH level for sudo su, got %s", evt.Level)
	}
}

func TestShellAdapter_ExitEndsSession(t *testing.T) {
	a := NewShellAdapter()

	evt := a.Parse("2025-11-21 09:17:40 root: exit")
	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Type != types.EventSessionEnd {
		t.Errorf("Expected type session_end for exit, got %s", evt.Type)
	}
}

func TestShellAdapter_SessionClosed(t *testing.T) {
	a := NewShellAdapter()

	evt := a.Parse("2025-11-21 09:18:00 Session closed for user root")
	if evt == nil {
		t.Fatal("Expected parsed event, got nil")
	}
	if evt.Type != types.EventSessionEnd {
		t.Errorf("Expected type session_end, got %s", evt.Type)
	}
}

func TestShellAdapter_Unmatched(t *testing.T) {
	a := NewShellAdapter()

	for _, line := range []string{
		"",
		"garbage",
		"2025-11-21 root: missing time",
	} {
		if evt := a.Parse(line); evt != nil {
			t.Errorf("Expected nil for %q, got %+v", line, evt)
		}
	}
}
