package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/uuid"

	domain "ticketmanager/internal/domain/tickets"
	"ticketmanager/internal/entities"
)

type txKey struct{}

// Store keeps tickets and events in memory. Writers are serialized and every
// transaction restores a snapshot when it fails, which gives the same
// all-or-nothing behaviour as the Postgres repositories.
type Store struct {
	txMu sync.Mutex

	mu      sync.RWMutex
	tickets map[uuid.UUID]entities.Ticket
	events  map[uuid.UUID]entities.Event

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		tickets: make(map[uuid.UUID]entities.Ticket),
		events:  make(map[uuid.UUID]entities.Event),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tickets, events := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.tickets, s.events = tickets, events
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	return s.Do(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn()
	})
}

func (s *Store) snapshot() (map[uuid.UUID]entities.Ticket, map[uuid.UUID]entities.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make(map[uuid.UUID]entities.Ticket, len(s.tickets))
	for id, t := range s.tickets {
		tickets[id] = t
	}
	events := make(map[uuid.UUID]entities.Event, len(s.events))
	for id, e := range s.events {
		events[id] = e
	}
	return tickets, events
}

func (s *Store) CreateEvent(ctx context.Context, event entities.Event) error {
	return s.write(ctx, func() error {
		if _, ok := s.events[event.EventID]; ok {
			return fmt.Errorf("event %s already exists: %w", event.EventID, entities.ErrConflict)
		}
		s.events[event.EventID] = event
		return nil
	})
}

func (s *Store) GetEvent(_ context.Context, eventID uuid.UUID) (entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return entities.Event{}, fmt.Errorf("event %s: %w", eventID, entities.ErrNotFound)
	}
	return event, nil
}

func (s *Store) EventIDsBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uuid.UUID
	for id, event := range s.events {
		if !event.DateTime.After(cutoff) {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids, nil
}

func (s *Store) CreateTickets(ctx context.Context, tickets []entities.Ticket) error {
	return s.write(ctx, func() error {
		for _, t := range tickets {
			if !domain.IsValidStatus(t.Status) {
				return fmt.Errorf("ticket %s has unknown status %q: %w", t.TicketID, t.Status, entities.ErrValidation)
			}
			if _, ok := s.events[t.EventID]; !ok {
				return fmt.Errorf("event %s: %w", t.EventID, entities.ErrNotFound)
			}
		}
		for _, t := range tickets {
			s.tickets[t.TicketID] = t
		}
		return nil
	})
}

func (s *Store) ClaimAvailable(ctx context.Context, eventID uuid.UUID, n int) ([]uuid.UUID, error) {
	var claimed []uuid.UUID
	err := s.write(ctx, func() error {
		var available []uuid.UUID
		for id, t := range s.tickets {
			if t.EventID == eventID && t.Status == entities.TicketStatusAvailable {
				available = append(available, id)
			}
		}
		if len(available) < n {
			return fmt.Errorf("tickets available: %d, requested: %d: %w", len(available), n, entities.ErrInsufficientInventory)
		}

		sortIDs(available)
		claimed = available[:n]
		now := s.now()
		for _, id := range claimed {
			t := s.tickets[id]
			if err := domain.Transition(t.Status, entities.TicketStatusReserved); err != nil {
				return err
			}
			t.Status = entities.TicketStatusReserved
			t.UpdatedAt = now
			s.tickets[id] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *Store) ReleaseReserved(ctx context.Context, ticketIDs []uuid.UUID) (int, error) {
	released := 0
	err := s.write(ctx, func() error {
		now := s.now()
		for _, id := range ticketIDs {
			t, ok := s.tickets[id]
			if !ok || t.Status != entities.TicketStatusReserved {
				continue
			}
			if err := domain.Transition(t.Status, entities.TicketStatusAvailable); err != nil {
				return err
			}
			t.Status = entities.TicketStatusAvailable
			t.ReservationDeadline = nil
			t.UpdatedAt = now
			s.tickets[id] = t
			released++
		}
		return nil
	})
	return released, err
}

func (s *Store) MarkPurchased(ctx context.Context, attendeeID string, ticketIDs []uuid.UUID, policy domain.PurchasePolicy) error {
	return s.write(ctx, func() error {
		for _, id := range ticketIDs {
			if _, ok := s.tickets[id]; !ok {
				return fmt.Errorf("ticket %s: %w", id, entities.ErrNotFound)
			}
		}
		for _, id := range ticketIDs {
			t := s.tickets[id]
			if !policy.IsEligible(t.Status) {
				return fmt.Errorf("ticket %s is %s: %w", id, t.Status, entities.ErrConflict)
			}
			if err := domain.Transition(t.Status, entities.TicketStatusPurchased); err != nil {
				return err
			}
		}

		now := s.now()
		for _, id := range ticketIDs {
			t := s.tickets[id]
			t.Status = entities.TicketStatusPurchased
			t.AttendeeID = pointer.To(attendeeID)
			t.ReservationDeadline = nil
			t.UpdatedAt = now
			s.tickets[id] = t
		}
		return nil
	})
}

func (s *Store) MarkRedeemed(ctx context.Context, ticketID uuid.UUID) error {
	return s.write(ctx, func() error {
		t, ok := s.tickets[ticketID]
		if !ok {
			return fmt.Errorf("ticket %s: %w", ticketID, entities.ErrNotFound)
		}
		if err := domain.Transition(t.Status, entities.TicketStatusRedeemed); err != nil {
			return err
		}
		t.Status = entities.TicketStatusRedeemed
		t.UpdatedAt = s.now()
		s.tickets[ticketID] = t
		return nil
	})
}

func (s *Store) GetByIDs(_ context.Context, ticketIDs []uuid.UUID) ([]entities.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tickets []entities.Ticket
	for _, id := range ticketIDs {
		if t, ok := s.tickets[id]; ok {
			tickets = append(tickets, t)
		}
	}
	sortTickets(tickets)
	return tickets, nil
}

func (s *Store) GetByAttendees(_ context.Context, attendeeIDs []string) ([]entities.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(attendeeIDs))
	for _, id := range attendeeIDs {
		wanted[id] = true
	}

	var tickets []entities.Ticket
	for _, t := range s.tickets {
		if wanted[pointer.Get(t.AttendeeID)] {
			tickets = append(tickets, t)
		}
	}
	sortTickets(tickets)
	return tickets, nil
}

func (s *Store) CountAvailable(_ context.Context, eventID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tickets {
		if t.EventID == eventID && t.Status == entities.TicketStatusAvailable {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteByEvents(ctx context.Context, eventIDs []uuid.UUID) (int, error) {
	deleted := 0
	err := s.write(ctx, func() error {
		expired := make(map[uuid.UUID]bool, len(eventIDs))
		for _, id := range eventIDs {
			expired[id] = true
		}
		for id, t := range s.tickets {
			if expired[t.EventID] {
				delete(s.tickets, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

// Ticket returns a copy of a stored ticket, for assertions in tests.
func (s *Store) Ticket(ticketID uuid.UUID) (entities.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[ticketID]
	return t, ok
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

func sortTickets(tickets []entities.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		return bytes.Compare(tickets[i].TicketID[:], tickets[j].TicketID[:]) < 0
	})
}
