package expiry

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Sweeper struct {
	usecase   *DeleteExpiredTicketsUsecase
	interval  time.Duration
	retention time.Duration
}

func NewSweeper(usecase *DeleteExpiredTicketsUsecase, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		usecase:   usecase,
		interval:  interval,
		retention: retention,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done. A
// failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	runID := uuid.NewString()
	ctx = log.ToContext(ctx, logrus.WithFields(logrus.Fields{
		"sweep_id":  runID,
		"retention": s.retention.String(),
	}))

	_, err := s.usecase.DeleteExpired(ctx, s.retention)
	if err != nil {
		log.FromContext(ctx).WithError(err).Error("Expired tickets sweep failed")
	}
}
