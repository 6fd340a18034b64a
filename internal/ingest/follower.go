package ingest

import (
	"fmt"
	"log"

	"github.com/nxadm/tail"

	"hivetrace/internal/metrics"
	"hivetrace/internal/parser"
	"hivetrace/internal/types"
)

// Follower tails one honeypot log file and emits the normalized events its
// adapter recognizes. Unmatched lines are dropped and counted, same as in
// batch parsing. Used by watch mode; batch reports re-read files directly.
type Follower struct {
	path    string
	adapter parser.Adapter
	t       *tail.Tail
}

// NewFollower creates a follower for a path.
func NewFollower(path string, adapter parser.Adapter) *Follower {
	return &Follower{path: path, adapter: adapter}
}

// Start begins tailing the file and returns a channel of events.
func (f *Follower) Start() (<-chan types.Event, error) {
	// Follow and reopen on rotation; poll as a fallback for filesystems
	// where inotify does not fire (container bind mounts).
	config := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true,
		Logger:    tail.DiscardingLogger,
	}

	log.Printf("[INGEST] following %s (waiting if not present)", f.path)

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to tail file %s: %w", f.path, err)
	}
	f.t = t

	out := make(chan types.Event)

	go func() {
		defer close(out)
		kind := string(f.adapter.Kind())
		for line := range t.Lines {
			if line.Err != nil {
				continue
			}
			evt := f.adapter.Parse(line.Text)
			if evt == nil {
				if len(line.Text) > 0 {
					metrics.LinesSkipped.WithLabelValues(kind).Inc()
				}
				continue
			}
			metrics.LinesParsed.WithLabelValues(kind).Inc()
			out <- *evt
		}
	}()

	return out, nil
}

// Stop stops the tailing.
func (f *Follower) Stop() error {
	if f.t != nil {
		return f.t.Stop()
	}
	return nil
}
