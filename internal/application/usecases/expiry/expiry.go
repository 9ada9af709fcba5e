package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"ticketmanager/internal/entities"
	"ticketmanager/internal/observability"
)

type EventsRepository interface {
	// EventIDsBefore returns events with date_time <= cutoff.
	EventIDsBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type TicketsRepository interface {
	DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) (int, error)
}

type DeleteExpiredTicketsUsecase struct {
	eventsRepo  EventsRepository
	ticketsRepo TicketsRepository
	now         func() time.Time
}

func NewDeleteExpiredTicketsUsecase(
	eventsRepo EventsRepository,
	ticketsRepo TicketsRepository,
	now func() time.Time,
) *DeleteExpiredTicketsUsecase {
	if now == nil {
		now = func() time.Time {
			return time.Now().UTC()
		}
	}
	return &DeleteExpiredTicketsUsecase{
		eventsRepo:  eventsRepo,
		ticketsRepo: ticketsRepo,
		now:         now,
	}
}

// DeleteExpired removes every ticket of events that happened at least
// retention ago, whatever their status. Running it again with the same or a
// later cutoff deletes nothing more.
func (u *DeleteExpiredTicketsUsecase) DeleteExpired(ctx context.Context, retention time.Duration) (int, error) {
	if retention < 0 {
		return 0, fmt.Errorf("retention window must not be negative: %w", entities.ErrValidation)
	}

	cutoff := u.now().Add(-retention)

	eventIDs, err := u.eventsRepo.EventIDsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if len(eventIDs) == 0 {
		return 0, nil
	}

	deleted, err := u.ticketsRepo.DeleteByEvents(ctx, eventIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tickets of %d events: %w", len(eventIDs), err)
	}

	log.FromContext(ctx).
		WithField("cutoff", cutoff).
		WithField("events", len(eventIDs)).
		WithField("deleted", deleted).
		Info("Expired tickets deleted")
	observability.ExpiredTicketsDeletedTotal.Add(float64(deleted))

	return deleted, nil
}
