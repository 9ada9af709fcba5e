package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketmanager/internal/entities"
)

type EventsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewEventsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *EventsRepo {
	return &EventsRepo{
		db:     db,
		getter: getter,
	}
}

func (r *EventsRepo) CreateEvent(ctx context.Context, event entities.Event) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO events (event_id, title, date_time)
		VALUES ($1, $2, $3)
	`, event.EventID, event.Title, event.DateTime)
	if err != nil {
		return storeError("insert event", err)
	}
	return nil
}

func (r *EventsRepo) GetEvent(ctx context.Context, eventID uuid.UUID) (entities.Event, error) {
	var event entities.Event
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &event, `
		SELECT event_id, title, date_time
		FROM events
		WHERE event_id = $1
	`, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.Event{}, fmt.Errorf("event %s: %w", eventID, entities.ErrNotFound)
		}
		return entities.Event{}, storeError("select event", err)
	}
	return event, nil
}

func (r *EventsRepo) EventIDsBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &ids, `
		SELECT event_id
		FROM events
		WHERE date_time <= $1
		ORDER BY event_id
	`, cutoff)
	if err != nil {
		return nil, storeError("select past events", err)
	}
	return ids, nil
}
