package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"hivetrace/internal/engine"
	"hivetrace/internal/types"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &types.Config{
		Sources: map[string]types.SourcePaths{
			"ssh": {AuthLog: "does/not/exist.log"},
		},
	}
	return New(engine.New(cfg, nil, nil, nil), ":0")
}

func TestHandleServices(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.handleServices(rec, httptest.NewRequest("GET", "/api/v1/services", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var services []string
	if err := json.Unmarshal(rec.Body.Bytes(), &services); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(services) != 1 || services[0] != "ssh" {
		t.Errorf("Expected [ssh], got %v", services)
	}
}

func TestHandleReport(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.handleReport(rec, httptest.NewRequest("GET", "/api/v1/report/ssh", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var rep types.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if rep.Service != "ssh" {
		t.Errorf("Expected service ssh, got %s", rep.Service)
	}
	if rep.TotalInteractions != 0 {
		t.Errorf("Expected empty report for missing logs, got %d interactions", rep.TotalInteractions)
	}
}

func TestHandleReport_UnknownService(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.handleReport(rec, httptest.NewRequest("GET", "/api/v1/report/nope", nil))
	if rec.Code != 404 {
		t.Errorf("Expected 404 for unknown service, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleReport(rec, httptest.NewRequest("GET", "/api/v1/report/", nil))
	if rec.Code != 404 {
		t.Errorf("Expected 404 for empty service, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}
