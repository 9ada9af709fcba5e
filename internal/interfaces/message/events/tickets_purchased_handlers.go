package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketmanager/internal/entities"
)

// SendTicketConfirmationHandler asks the notification service to deliver one
// scannable code per purchased ticket. Codes are derived from the ticket id,
// so redelivered events produce identical commands.
func (h *Handler) SendTicketConfirmationHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"send_ticket_confirmation_handler",
		func(ctx context.Context, event *entities.TicketsPurchased_v1) error {
			log.FromContext(ctx).
				WithField("attendee_id", event.AttendeeID).
				WithField("tickets", len(event.TicketIDs)).
				Info("Sending ticket confirmation")

			tickets := make([]entities.TicketConfirmation, 0, len(event.TicketIDs))
			for _, ticketID := range event.TicketIDs {
				tickets = append(tickets, entities.TicketConfirmation{
					TicketID: ticketID,
					ScanCode: h.scanCode(ticketID.String()),
				})
			}

			err := h.commandBus.Send(ctx, entities.SendTicketConfirmation_v1{
				Header:  entities.NewEventHeaderWithIdempotencyKey(event.Header.IdempotencyKey),
				Contact: event.AttendeeID,
				Tickets: tickets,
			})
			if err != nil {
				return fmt.Errorf("failed to send ticket confirmation for attendee %s: %w", event.AttendeeID, err)
			}
			return nil
		},
	)
}
