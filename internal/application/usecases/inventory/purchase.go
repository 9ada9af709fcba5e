package inventory

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"ticketmanager/internal/entities"
	"ticketmanager/internal/idempotency"
	"ticketmanager/internal/observability"
)

// PurchaseTickets assigns the whole batch to the attendee in one
// transaction. The TicketsPurchased_v1 event is stored in the same
// transaction; the confirmation is delivered later by the event handlers, so
// a notification problem never fails the purchase.
func (u *Usecase) PurchaseTickets(ctx context.Context, in PurchaseTicketsInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		err := u.ticketsRepo.MarkPurchased(ctx, in.AttendeeID, in.TicketIDs, u.policy)
		if err != nil {
			return err
		}

		header := entities.NewEventHeader()
		if key, ok := idempotency.KeyFromContext(ctx); ok {
			header = entities.NewEventHeaderWithIdempotencyKey(key)
		}

		log.FromContext(ctx).Info("Publishing TicketsPurchased_v1 for attendee: ", in.AttendeeID)
		err = u.publisher.Publish(ctx, entities.TicketsPurchased_v1{
			Header:     header,
			AttendeeID: in.AttendeeID,
			TicketIDs:  append([]uuid.UUID(nil), in.TicketIDs...),
		})
		if err != nil {
			return fmt.Errorf("failed to publish TicketsPurchased_v1: %w", err)
		}
		return nil
	})
	if err != nil {
		observability.InventoryOperationFailuresTotal.WithLabelValues("purchase", entities.ErrorKind(err)).Inc()
		return fmt.Errorf("failed to purchase tickets for attendee %s: %w", in.AttendeeID, err)
	}

	observability.TicketsTransitionedTotal.WithLabelValues(string(entities.TicketStatusPurchased)).Add(float64(len(in.TicketIDs)))
	return nil
}
