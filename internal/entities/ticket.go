package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusPurchased TicketStatus = "purchased"
	TicketStatusRedeemed  TicketStatus = "redeemed"
)

type Ticket struct {
	TicketID            uuid.UUID       `json:"ticket_id" db:"ticket_id"`
	EventID             uuid.UUID       `json:"event_id" db:"event_id"`
	Price               decimal.Decimal `json:"price" db:"price"`
	Status              TicketStatus    `json:"status" db:"status"`
	AttendeeID          *string         `json:"attendee_id" db:"attendee_id"`
	ReservationDeadline *time.Time      `json:"reservation_deadline,omitempty" db:"reservation_deadline"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

func NewAvailableTicket(eventID uuid.UUID, price decimal.Decimal, now time.Time) Ticket {
	return Ticket{
		TicketID:  uuid.New(),
		EventID:   eventID,
		Price:     price,
		Status:    TicketStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type Event struct {
	EventID  uuid.UUID `json:"event_id" db:"event_id"`
	Title    string    `json:"title" db:"title"`
	DateTime time.Time `json:"date_time" db:"date_time"`
}
