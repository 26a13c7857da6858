package scheduler

import (
	"context"
	"fmt"
	"time"

	"inverpulse/database"
	"inverpulse/logging"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepTimeout = 30 * time.Second

// Scheduler runs the periodic signal expiry sweep.
type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
	now  func() time.Time
	log  *zap.Logger
}

// New registers the expiry sweep on expr, a standard five-field cron
// expression or a descriptor such as "@every 5m".
func New(db *gorm.DB, expr string) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		db:   db,
		now:  time.Now,
		log:  logging.Named("scheduler"),
	}
	if _, err := s.cron.AddFunc(expr, s.sweep); err != nil {
		return nil, fmt.Errorf("schedule signal expiry %q: %w", expr, err)
	}
	return s, nil
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("signal expiry sweep failed", zap.Error(err))
	}
}

// RunOnce closes every active signal whose expiry has passed.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	n, err := database.ExpireSignals(ctx, s.db, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired trading signals", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
