package inventory

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ticketmanager/internal/entities"
)

const maxBatchSize = 1000

var errRequired = errors.New("is required")

type CreateEventInput struct {
	Title    string
	DateTime time.Time
}

func (in CreateEventInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.DateTime, validation.Required),
	))
}

type CreateTicketsInput struct {
	EventID         uuid.UUID
	Price           decimal.Decimal
	NumberOfTickets int
}

func (in CreateTicketsInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.EventID, validation.By(notNilUUID)),
		validation.Field(&in.Price, validation.By(validPrice)),
		validation.Field(&in.NumberOfTickets, validation.Required, validation.Min(1), validation.Max(maxBatchSize)),
	))
}

type ReserveTicketsInput struct {
	EventID         uuid.UUID
	NumberOfTickets int
}

func (in ReserveTicketsInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.EventID, validation.By(notNilUUID)),
		validation.Field(&in.NumberOfTickets, validation.Required, validation.Min(1), validation.Max(maxBatchSize)),
	))
}

type PurchaseTicketsInput struct {
	AttendeeID string
	TicketIDs  []uuid.UUID
}

func (in PurchaseTicketsInput) Validate() error {
	if err := validateAttendeeID(in.AttendeeID); err != nil {
		return err
	}
	return validateTicketIDs(in.TicketIDs)
}

func validateAttendeeID(attendeeID string) error {
	err := validation.Validate(attendeeID, validation.Required, validation.Length(1, 255))
	if err != nil {
		return fmt.Errorf("attendee_id: %v: %w", err, entities.ErrValidation)
	}
	return nil
}

func validateTicketIDs(ticketIDs []uuid.UUID) error {
	if len(ticketIDs) == 0 {
		return fmt.Errorf("ticket_ids: cannot be blank: %w", entities.ErrValidation)
	}
	if len(ticketIDs) > maxBatchSize {
		return fmt.Errorf("ticket_ids: at most %d ids per request: %w", maxBatchSize, entities.ErrValidation)
	}

	seen := make(map[uuid.UUID]struct{}, len(ticketIDs))
	for _, id := range ticketIDs {
		if id == uuid.Nil {
			return fmt.Errorf("ticket_ids: nil id: %w", entities.ErrValidation)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("ticket_ids: duplicate id %s: %w", id, entities.ErrValidation)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func notNilUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errRequired
	}
	return nil
}

// maxPrice and priceDecimals follow the NUMERIC(10, 2) price column.
var maxPrice = decimal.RequireFromString("99999999.99")

const priceDecimals = 2

func validPrice(value interface{}) error {
	price, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal")
	}
	if price.IsNegative() {
		return errors.New("must not be negative")
	}
	if price.GreaterThan(maxPrice) {
		return fmt.Errorf("must be at most %s", maxPrice)
	}
	if !price.Equal(price.Truncate(priceDecimals)) {
		return fmt.Errorf("must have at most %d decimal places", priceDecimals)
	}
	return nil
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%v: %w", err, entities.ErrValidation)
}
