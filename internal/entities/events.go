package entities

import (
	"github.com/google/uuid"
)

// BusEvent is implemented by everything published on the event bus.
type BusEvent interface {
	IsInternal() bool
}

type TicketsPurchased_v1 struct {
	Header EventHeader `json:"header"`

	AttendeeID string      `json:"attendee_id"`
	TicketIDs  []uuid.UUID `json:"ticket_ids"`
}

func (t TicketsPurchased_v1) IsInternal() bool {
	return false
}

type TicketConfirmation struct {
	TicketID uuid.UUID `json:"ticket_id"`
	// ScanCode is rendered as a QR code by the notification service.
	ScanCode string `json:"scan_code"`
}

// SendTicketConfirmation_v1 is consumed by the notification service.
type SendTicketConfirmation_v1 struct {
	Header EventHeader `json:"header"`

	Contact string               `json:"contact"`
	Tickets []TicketConfirmation `json:"tickets"`
}
