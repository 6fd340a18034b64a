package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RunRecord is one parse invocation's diagnostic summary.
type RunRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Service    string    `json:"service"`
	Events     int       `json:"events"`
	Skipped    int       `json:"skipped"`
	Actors     int       `json:"actors"`
	Sessions   int       `json:"sessions"`
	DurationMS int64     `json:"duration_ms"`
}

// Logger appends run records to the audit log as JSON lines.
type Logger struct {
	mu       sync.Mutex
	filePath string
}

// NewLogger creates a new audit logger. An empty path disables it.
func NewLogger(filePath string) *Logger {
	return &Logger{filePath: filePath}
}

// LogRun writes a run record in a thread-safe manner.
func (l *Logger) LogRun(rec RunRecord) error {
	if l.filePath == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("failed to encode run record: %w", err)
	}

	return nil
}
