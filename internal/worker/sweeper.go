package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type OverdueMarker interface {
	MarkOverdueBooks(ctx context.Context) (int64, error)
}

// Sweeper periodically flips past-due checkouts to overdue. It runs on its
// own schedule, independent of request handling, and stops with its context.
type Sweeper struct {
	marker   OverdueMarker
	interval time.Duration
	log      *zap.Logger
}

func NewSweeper(marker OverdueMarker, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		marker:   marker,
		interval: interval,
		log:      log.Named("sweeper"),
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	marked, err := s.marker.MarkOverdueBooks(ctx)
	if err != nil {
		s.log.Error("mark overdue books", zap.Error(err))
		return
	}
	if marked > 0 {
		s.log.Info("checkouts marked overdue", zap.Int64("count", marked))
	}
}
