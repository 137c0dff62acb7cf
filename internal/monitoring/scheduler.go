package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/todolist-web/internal/session"
)

// SessionSweeper periodically purges expired sessions from the store.
type SessionSweeper struct {
	store   session.Store
	cron    *cron.Cron
	timeout time.Duration
	now     func() time.Time
}

// NewSessionSweeper creates a sweeper running on the given cron spec
// (standard five-field syntax or descriptors such as "@every 10m").
func NewSessionSweeper(store session.Store, spec string) (*SessionSweeper, error) {
	s := &SessionSweeper{
		store:   store,
		cron:    cron.New(),
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the sweeper in the background and runs one sweep immediately.
func (s *SessionSweeper) Run() {
	log.Info().Msg("Starting session sweeper...")
	s.Sweep(context.Background())
	s.cron.Start()
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped session sweeper.")
}

// Sweep deletes expired sessions once and returns how many were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("Session sweeper: failed to delete expired sessions")
		return 0
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("Session sweeper: deleted expired sessions")
	}
	return n
}
