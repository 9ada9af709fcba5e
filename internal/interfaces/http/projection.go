package http

import (
	"encoding/json"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"ticketmanager/internal/entities"
)

var ticketAttributes = []interface{}{
	"ticket_id",
	"event_id",
	"price",
	"status",
	"attendee_id",
	"reservation_deadline",
	"created_at",
	"updated_at",
}

// projection lists the ticket attributes to return. A nil projection keeps
// every attribute.
type projection []string

// newProjection keeps the attributes flagged true in requested, plus the
// identifying ones in always.
func newProjection(requested map[string]bool, always ...string) (projection, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	fields := append(projection(nil), always...)
	names := make([]string, 0, len(requested))
	for name := range requested {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := validation.Validate(name, validation.In(ticketAttributes...)); err != nil {
			return nil, fmt.Errorf("requested_attributes: %q %v: %w", name, err, entities.ErrValidation)
		}
		if requested[name] && !fields.has(name) {
			fields = append(fields, name)
		}
	}
	return fields, nil
}

func (p projection) has(name string) bool {
	for _, field := range p {
		if field == name {
			return true
		}
	}
	return false
}

func (p projection) apply(tickets []entities.Ticket) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(tickets))
	for _, ticket := range tickets {
		b, err := json.Marshal(ticket)
		if err != nil {
			return nil, fmt.Errorf("failed to encode ticket %s: %w", ticket.TicketID, err)
		}
		var full map[string]any
		if err := json.Unmarshal(b, &full); err != nil {
			return nil, fmt.Errorf("failed to encode ticket %s: %w", ticket.TicketID, err)
		}

		if p == nil {
			out = append(out, full)
			continue
		}
		projected := make(map[string]any, len(p))
		for _, field := range p {
			projected[field] = full[field]
		}
		out = append(out, projected)
	}
	return out, nil
}
