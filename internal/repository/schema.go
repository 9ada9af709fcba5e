package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	date_time TIMESTAMP WITH TIME ZONE NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (event_id),
	price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
	status VARCHAR(16) NOT NULL DEFAULT 'available'
		CHECK (status IN ('available', 'reserved', 'purchased', 'redeemed')),
	attendee_id VARCHAR(255),
	reservation_deadline TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	CHECK ((status IN ('purchased', 'redeemed')) = (attendee_id IS NOT NULL))
);`)
	if err != nil {
		return fmt.Errorf("failed to create tickets table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS tickets_event_status_idx ON tickets (event_id, status, ticket_id);
CREATE INDEX IF NOT EXISTS tickets_attendee_idx ON tickets (attendee_id) WHERE attendee_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS events_date_time_idx ON events (date_time);`)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
