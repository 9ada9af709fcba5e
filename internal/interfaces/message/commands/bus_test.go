package commands_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketmanager/internal/entities"
	"ticketmanager/internal/interfaces/message/commands"
)

func TestBus_Send(t *testing.T) {
	logger := watermill.NopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)
	t.Cleanup(func() { _ = pubSub.Close() })

	bus, err := commands.NewBus(pubSub, logger)
	require.NoError(t, err)

	cmd := entities.SendTicketConfirmation_v1{
		Header:  entities.NewEventHeaderWithIdempotencyKey("key-1"),
		Contact: "att1",
		Tickets: []entities.TicketConfirmation{{TicketID: uuid.New(), ScanCode: "code"}},
	}
	require.NoError(t, bus.Send(context.Background(), cmd))

	messages, err := pubSub.Subscribe(context.Background(), commands.Topic("SendTicketConfirmation_v1"))
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()

		var received entities.SendTicketConfirmation_v1
		require.NoError(t, json.Unmarshal(msg.Payload, &received))
		assert.Equal(t, cmd.Contact, received.Contact)
		assert.Equal(t, "key-1", received.Header.IdempotencyKey)
		assert.Equal(t, cmd.Tickets, received.Tickets)
	case <-time.After(time.Second):
		t.Fatal("command was not published")
	}
}
