package domain

import (
	"fmt"

	"ticketmanager/internal/entities"
)

var transitions = map[entities.TicketStatus][]entities.TicketStatus{
	entities.TicketStatusAvailable: {entities.TicketStatusReserved, entities.TicketStatusPurchased},
	entities.TicketStatusReserved:  {entities.TicketStatusAvailable, entities.TicketStatusPurchased},
	entities.TicketStatusPurchased: {entities.TicketStatusRedeemed},
	entities.TicketStatusRedeemed:  nil,
}

func IsValidStatus(status entities.TicketStatus) bool {
	_, ok := transitions[status]
	return ok
}

func CanTransition(from, to entities.TicketStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a single status change. A repeated redemption is
// reported as ErrAlreadyRedeemed, every other illegal move as ErrConflict.
func Transition(from, to entities.TicketStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	if from == entities.TicketStatusRedeemed && to == entities.TicketStatusRedeemed {
		return entities.ErrAlreadyRedeemed
	}
	return fmt.Errorf("cannot move ticket from %s to %s: %w", from, to, entities.ErrConflict)
}

// PurchasePolicy decides which statuses may be bought.
type PurchasePolicy struct {
	// AllowWalkUp lets available tickets be bought without a prior hold.
	AllowWalkUp bool
}

func (p PurchasePolicy) EligibleStatuses() []entities.TicketStatus {
	if p.AllowWalkUp {
		return []entities.TicketStatus{entities.TicketStatusReserved, entities.TicketStatusAvailable}
	}
	return []entities.TicketStatus{entities.TicketStatusReserved}
}

func (p PurchasePolicy) IsEligible(status entities.TicketStatus) bool {
	for _, s := range p.EligibleStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
