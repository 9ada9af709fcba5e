package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	domain "ticketmanager/internal/domain/tickets"
	"ticketmanager/internal/entities"
)

const ticketColumns = `ticket_id, event_id, price, status, attendee_id, reservation_deadline, created_at, updated_at`

type TicketsRepo struct {
	db        *sqlx.DB
	getter    *trmsqlx.CtxGetter
	trManager *trmanager.Manager
}

func NewTicketsRepo(
	db *sqlx.DB,
	getter *trmsqlx.CtxGetter,
	trManager *trmanager.Manager,
) *TicketsRepo {
	return &TicketsRepo{
		db:        db,
		getter:    getter,
		trManager: trManager,
	}
}

// CreateTickets inserts the whole batch in one statement.
func (r *TicketsRepo) CreateTickets(ctx context.Context, tickets []entities.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	values := make([]string, 0, len(tickets))
	args := make([]any, 0, len(tickets)*6)
	for i, t := range tickets {
		if !domain.IsValidStatus(t.Status) {
			return fmt.Errorf("ticket %s has unknown status %q: %w", t.TicketID, t.Status, entities.ErrValidation)
		}
		n := i * 6
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))
		args = append(args, t.TicketID, t.EventID, t.Price, t.Status, t.CreatedAt, t.UpdatedAt)
	}

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, event_id, price, status, created_at, updated_at)
		VALUES `+strings.Join(values, ", "), args...)
	if err != nil {
		return storeError("insert tickets", err)
	}
	return nil
}

// ClaimAvailable reserves exactly n available tickets of the event in a
// single conditional update. Rows locked by concurrent claims are skipped, so
// two callers never receive the same ticket; if fewer than n rows could be
// claimed the transaction is rolled back.
//
// Skipped rows count as missing. While another claim or purchase holds locks
// on available tickets, including one that later rolls back, a caller can get
// ErrInsufficientInventory even though enough tickets exist once that
// transaction ends. The error is not marked retryable; callers that expect
// contention may simply try again.
func (r *TicketsRepo) ClaimAvailable(ctx context.Context, eventID uuid.UUID, n int) ([]uuid.UUID, error) {
	var claimed []uuid.UUID

	err := r.trManager.DoWithSettings(ctx, readCommitted(), func(ctx context.Context) error {
		claimed = nil
		err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &claimed, `
			UPDATE tickets
			SET status = 'reserved', updated_at = now()
			WHERE ticket_id IN (
				SELECT ticket_id
				FROM tickets
				WHERE event_id = $1 AND status = 'available'
				ORDER BY ticket_id
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
			RETURNING ticket_id
		`, eventID, n)
		if err != nil {
			return storeError("claim tickets", err)
		}

		if len(claimed) < n {
			return fmt.Errorf("tickets available: %d, requested: %d: %w", len(claimed), n, entities.ErrInsufficientInventory)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortUUIDs(claimed)
	return claimed, nil
}

func (r *TicketsRepo) ReleaseReserved(ctx context.Context, ticketIDs []uuid.UUID) (int, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE tickets
		SET status = 'available', reservation_deadline = NULL, updated_at = now()
		WHERE ticket_id = ANY($1::uuid[]) AND status = 'reserved'
	`, uuidArray(ticketIDs))
	if err != nil {
		return 0, storeError("release tickets", err)
	}

	released, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("release tickets", err)
	}
	return int(released), nil
}

// MarkPurchased assigns every ticket to the attendee, or none of them. The
// rows are locked in ticket_id order first so concurrent purchases of
// overlapping batches queue up instead of deadlocking; the loser sees the
// winner's statuses and fails with ErrConflict.
func (r *TicketsRepo) MarkPurchased(
	ctx context.Context,
	attendeeID string,
	ticketIDs []uuid.UUID,
	policy domain.PurchasePolicy,
) error {
	eligible := policy.EligibleStatuses()
	statuses := make([]string, 0, len(eligible))
	for _, s := range eligible {
		statuses = append(statuses, string(s))
	}

	return r.trManager.DoWithSettings(ctx, readCommitted(), func(ctx context.Context) error {
		tr := r.getter.DefaultTrOrDB(ctx, r.db)

		var locked []uuid.UUID
		err := tr.SelectContext(ctx, &locked, `
			SELECT ticket_id FROM tickets
			WHERE ticket_id = ANY($1::uuid[])
			ORDER BY ticket_id
			FOR UPDATE
		`, uuidArray(ticketIDs))
		if err != nil {
			return storeError("lock tickets for purchase", err)
		}
		if len(locked) < len(ticketIDs) {
			return fmt.Errorf("%d of %d tickets do not exist: %w", len(ticketIDs)-len(locked), len(ticketIDs), entities.ErrNotFound)
		}

		res, err := tr.ExecContext(ctx, `
			UPDATE tickets
			SET status = 'purchased', attendee_id = $1, reservation_deadline = NULL, updated_at = now()
			WHERE ticket_id = ANY($2::uuid[]) AND status = ANY($3::varchar[])
		`, attendeeID, uuidArray(ticketIDs), pq.StringArray(statuses))
		if err != nil {
			return storeError("purchase tickets", err)
		}

		updated, err := res.RowsAffected()
		if err != nil {
			return storeError("purchase tickets", err)
		}
		if int(updated) != len(ticketIDs) {
			return fmt.Errorf(
				"%d of %d tickets are not in a purchasable state (%s): %w",
				len(ticketIDs)-int(updated), len(ticketIDs), strings.Join(statuses, ", "), entities.ErrConflict,
			)
		}
		return nil
	})
}

func (r *TicketsRepo) MarkRedeemed(ctx context.Context, ticketID uuid.UUID) error {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	res, err := tr.ExecContext(ctx, `
		UPDATE tickets
		SET status = 'redeemed', updated_at = now()
		WHERE ticket_id = $1 AND status = 'purchased'
	`, ticketID)
	if err != nil {
		return storeError("redeem ticket", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return storeError("redeem ticket", err)
	}
	if updated == 1 {
		return nil
	}

	var status entities.TicketStatus
	err = tr.GetContext(ctx, &status, `SELECT status FROM tickets WHERE ticket_id = $1`, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ticket %s: %w", ticketID, entities.ErrNotFound)
		}
		return storeError("select ticket status", err)
	}
	if status == entities.TicketStatusRedeemed {
		return fmt.Errorf("ticket %s: %w", ticketID, entities.ErrAlreadyRedeemed)
	}
	return fmt.Errorf("ticket %s is %s, only purchased tickets can be redeemed: %w", ticketID, status, entities.ErrConflict)
}

func (r *TicketsRepo) GetByIDs(ctx context.Context, ticketIDs []uuid.UUID) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &tickets, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE ticket_id = ANY($1::uuid[])
		ORDER BY ticket_id
	`, uuidArray(ticketIDs))
	if err != nil {
		return nil, storeError("select tickets", err)
	}
	return tickets, nil
}

func (r *TicketsRepo) GetByAttendees(ctx context.Context, attendeeIDs []string) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &tickets, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE attendee_id = ANY($1::varchar[])
		ORDER BY ticket_id
	`, pq.StringArray(attendeeIDs))
	if err != nil {
		return nil, storeError("select attendee tickets", err)
	}
	return tickets, nil
}

func (r *TicketsRepo) CountAvailable(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &count, `
		SELECT count(*) FROM tickets WHERE event_id = $1 AND status = 'available'
	`, eventID)
	if err != nil {
		return 0, storeError("count available tickets", err)
	}
	return count, nil
}

func (r *TicketsRepo) DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) (int, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		DELETE FROM tickets WHERE event_id = ANY($1::uuid[])
	`, uuidArray(eventIDs))
	if err != nil {
		return 0, storeError("delete tickets", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("delete tickets", err)
	}
	return int(deleted), nil
}

func readCommitted() trmsql.Settings {
	return trmsql.MustSettings(
		settings.Must(settings.WithCancelable(true)),
		trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}),
	)
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
