package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ticketmanager/internal/entities"
)

func (u *Usecase) GetAttendeeTickets(ctx context.Context, attendeeID string) ([]entities.Ticket, error) {
	if err := validateAttendeeID(attendeeID); err != nil {
		return nil, err
	}

	tickets, err := u.ticketsRepo.GetByAttendees(ctx, []string{attendeeID})
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets of attendee %s: %w", attendeeID, err)
	}
	return tickets, nil
}

// GetTicketsForAttendees groups tickets by owner. Every requested attendee is
// present in the result, with an empty list when they own nothing.
func (u *Usecase) GetTicketsForAttendees(ctx context.Context, attendeeIDs []string) (map[string][]entities.Ticket, error) {
	if len(attendeeIDs) == 0 {
		return nil, fmt.Errorf("at least one attendee id is required: %w", entities.ErrValidation)
	}
	for _, id := range attendeeIDs {
		if err := validateAttendeeID(id); err != nil {
			return nil, err
		}
	}

	tickets, err := u.ticketsRepo.GetByAttendees(ctx, attendeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for attendees: %w", err)
	}

	byAttendee := make(map[string][]entities.Ticket, len(attendeeIDs))
	for _, id := range attendeeIDs {
		byAttendee[id] = []entities.Ticket{}
	}
	for _, ticket := range tickets {
		if ticket.AttendeeID == nil {
			continue
		}
		if _, ok := byAttendee[*ticket.AttendeeID]; ok {
			byAttendee[*ticket.AttendeeID] = append(byAttendee[*ticket.AttendeeID], ticket)
		}
	}
	return byAttendee, nil
}

func (u *Usecase) GetTickets(ctx context.Context, ticketIDs []uuid.UUID) ([]entities.Ticket, error) {
	if err := validateTicketIDs(ticketIDs); err != nil {
		return nil, err
	}

	tickets, err := u.ticketsRepo.GetByIDs(ctx, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("no tickets found with the provided ids: %w", entities.ErrNotFound)
	}
	return tickets, nil
}
