package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "ticketmanager/internal/domain/tickets"
	"ticketmanager/internal/entities"
	"ticketmanager/internal/observability"
)

type TicketsRepository interface {
	CreateTickets(ctx context.Context, tickets []entities.Ticket) error
	// ClaimAvailable moves exactly n available tickets of the event to
	// reserved, or nothing at all.
	ClaimAvailable(ctx context.Context, eventID uuid.UUID, n int) ([]uuid.UUID, error)
	ReleaseReserved(ctx context.Context, ticketIDs []uuid.UUID) (int, error)
	// MarkPurchased assigns every ticket to the attendee, or none of them.
	MarkPurchased(ctx context.Context, attendeeID string, ticketIDs []uuid.UUID, policy domain.PurchasePolicy) error
	MarkRedeemed(ctx context.Context, ticketID uuid.UUID) error
	GetByIDs(ctx context.Context, ticketIDs []uuid.UUID) ([]entities.Ticket, error)
	GetByAttendees(ctx context.Context, attendeeIDs []string) ([]entities.Ticket, error)
	CountAvailable(ctx context.Context, eventID uuid.UUID) (int, error)
}

type EventsRepository interface {
	CreateEvent(ctx context.Context, event entities.Event) error
	GetEvent(ctx context.Context, eventID uuid.UUID) (entities.Event, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Usecase struct {
	ticketsRepo TicketsRepository
	eventsRepo  EventsRepository
	trManager   TxManager
	publisher   EventPublisher
	policy      domain.PurchasePolicy
	now         func() time.Time
}

type Option func(*Usecase)

func WithPurchasePolicy(policy domain.PurchasePolicy) Option {
	return func(u *Usecase) {
		u.policy = policy
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		if now != nil {
			u.now = now
		}
	}
}

func NewUsecase(
	ticketsRepo TicketsRepository,
	eventsRepo EventsRepository,
	trManager TxManager,
	publisher EventPublisher,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		ticketsRepo: ticketsRepo,
		eventsRepo:  eventsRepo,
		trManager:   trManager,
		publisher:   publisher,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usecase) CreateEvent(ctx context.Context, in CreateEventInput) (entities.Event, error) {
	if err := in.Validate(); err != nil {
		return entities.Event{}, err
	}

	event := entities.Event{
		EventID:  uuid.New(),
		Title:    in.Title,
		DateTime: in.DateTime.UTC(),
	}
	if err := u.eventsRepo.CreateEvent(ctx, event); err != nil {
		return entities.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (u *Usecase) CreateTickets(ctx context.Context, in CreateTicketsInput) ([]uuid.UUID, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := u.now()
	tickets := make([]entities.Ticket, 0, in.NumberOfTickets)
	ids := make([]uuid.UUID, 0, in.NumberOfTickets)
	for i := 0; i < in.NumberOfTickets; i++ {
		ticket := entities.NewAvailableTicket(in.EventID, in.Price, now)
		tickets = append(tickets, ticket)
		ids = append(ids, ticket.TicketID)
	}

	if err := u.ticketsRepo.CreateTickets(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets for event %s: %w", in.EventID, err)
	}

	observability.TicketsTransitionedTotal.WithLabelValues(string(entities.TicketStatusAvailable)).Add(float64(len(ids)))
	return ids, nil
}

func (u *Usecase) ReserveTickets(ctx context.Context, in ReserveTicketsInput) ([]uuid.UUID, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ids, err := u.ticketsRepo.ClaimAvailable(ctx, in.EventID, in.NumberOfTickets)
	if errors.Is(err, entities.ErrInsufficientInventory) {
		if _, getErr := u.eventsRepo.GetEvent(ctx, in.EventID); getErr != nil {
			err = getErr
		}
	}
	if err != nil {
		observability.InventoryOperationFailuresTotal.WithLabelValues("reserve", entities.ErrorKind(err)).Inc()
		return nil, fmt.Errorf("failed to reserve %d tickets for event %s: %w", in.NumberOfTickets, in.EventID, err)
	}

	observability.TicketsTransitionedTotal.WithLabelValues(string(entities.TicketStatusReserved)).Add(float64(len(ids)))
	return ids, nil
}

func (u *Usecase) ReleaseTickets(ctx context.Context, ticketIDs []uuid.UUID) (int, error) {
	if err := validateTicketIDs(ticketIDs); err != nil {
		return 0, err
	}

	released, err := u.ticketsRepo.ReleaseReserved(ctx, ticketIDs)
	if err != nil {
		observability.InventoryOperationFailuresTotal.WithLabelValues("release", entities.ErrorKind(err)).Inc()
		return 0, fmt.Errorf("failed to release tickets: %w", err)
	}

	observability.TicketsTransitionedTotal.WithLabelValues(string(entities.TicketStatusAvailable)).Add(float64(released))
	return released, nil
}

func (u *Usecase) RedeemTicket(ctx context.Context, ticketID uuid.UUID) error {
	if ticketID == uuid.Nil {
		return fmt.Errorf("ticket id is required: %w", entities.ErrValidation)
	}

	err := u.ticketsRepo.MarkRedeemed(ctx, ticketID)
	if err != nil {
		observability.InventoryOperationFailuresTotal.WithLabelValues("redeem", entities.ErrorKind(err)).Inc()
		return fmt.Errorf("failed to redeem ticket %s: %w", ticketID, err)
	}

	observability.TicketsTransitionedTotal.WithLabelValues(string(entities.TicketStatusRedeemed)).Inc()
	return nil
}

func (u *Usecase) AvailableCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	return u.ticketsRepo.CountAvailable(ctx, eventID)
}
