package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "ticketmanager/internal/domain/tickets"
	"ticketmanager/internal/entities"
)

func TestTransition(t *testing.T) {
	testCases := []struct {
		name    string
		from    entities.TicketStatus
		to      entities.TicketStatus
		wantErr error
	}{
		{"reserve", entities.TicketStatusAvailable, entities.TicketStatusReserved, nil},
		{"release", entities.TicketStatusReserved, entities.TicketStatusAvailable, nil},
		{"purchase held", entities.TicketStatusReserved, entities.TicketStatusPurchased, nil},
		{"walk-up purchase", entities.TicketStatusAvailable, entities.TicketStatusPurchased, nil},
		{"redeem", entities.TicketStatusPurchased, entities.TicketStatusRedeemed, nil},
		{"redeem twice", entities.TicketStatusRedeemed, entities.TicketStatusRedeemed, entities.ErrAlreadyRedeemed},
		{"redeem available", entities.TicketStatusAvailable, entities.TicketStatusRedeemed, entities.ErrConflict},
		{"unpurchase", entities.TicketStatusPurchased, entities.TicketStatusAvailable, entities.ErrConflict},
		{"reserve purchased", entities.TicketStatusPurchased, entities.TicketStatusReserved, entities.ErrConflict},
		{"release redeemed", entities.TicketStatusRedeemed, entities.TicketStatusAvailable, entities.ErrConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := domain.Transition(tc.from, tc.to)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPurchasePolicy(t *testing.T) {
	held := domain.PurchasePolicy{}
	assert.True(t, held.IsEligible(entities.TicketStatusReserved))
	assert.False(t, held.IsEligible(entities.TicketStatusAvailable))
	assert.False(t, held.IsEligible(entities.TicketStatusPurchased))

	walkUp := domain.PurchasePolicy{AllowWalkUp: true}
	assert.True(t, walkUp.IsEligible(entities.TicketStatusReserved))
	assert.True(t, walkUp.IsEligible(entities.TicketStatusAvailable))
	assert.False(t, walkUp.IsEligible(entities.TicketStatusRedeemed))
}
