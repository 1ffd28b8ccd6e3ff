package track

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the per-run tracking state: the sink plus the set of plot
// images already sent. A Session is created at run start and discarded at
// run end; nothing is shared across runs.
type Session struct {
	Sink

	id        string
	sentPlots map[string]time.Time
}

// NewSession wraps sink with per-run state. Pass NopSink for runs with
// tracking disabled.
func NewSession(sink Sink) *Session {
	return &Session{
		Sink:      sink,
		id:        uuid.New().String(),
		sentPlots: make(map[string]time.Time),
	}
}

// ID returns the session's local identifier, used to name run-scoped
// artifacts.
func (s *Session) ID() string { return s.id }

// LogPlots uploads the given plot images at step, skipping any plot whose
// file timestamp has not changed since it was last sent. A failed upload is
// returned but does not mark the plot as sent, so a retry resends it.
func (s *Session) LogPlots(ctx context.Context, plots []Plot, step int) error {
	for _, p := range plots {
		if sent, ok := s.sentPlots[p.Name]; ok && sent.Equal(p.Timestamp) {
			continue
		}
		if err := s.LogImage(ctx, p.Name, p.Path, step); err != nil {
			return err
		}
		s.sentPlots[p.Name] = p.Timestamp
	}
	return nil
}
