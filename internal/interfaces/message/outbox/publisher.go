package outbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"

	"ticketmanager/internal/infrastructure/event_publisher"
	"ticketmanager/internal/interfaces/message/events"
)

// Topic is the Postgres outbox topic read by the Forwarder.
const Topic = "tickets_outbox"

var ErrNoTransaction = errors.New("outbox publishing requires a transaction in context")

func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	return forwarder.NewPublisher(
		event_publisher.WithMetadata(publisher),
		forwarder.PublisherConfig{
			ForwarderTopic: Topic,
		},
	), nil
}

// EventPublisher stores events in the outbox table using the transaction
// carried by ctx, so they are committed or rolled back together with the
// state change that produced them.
type EventPublisher struct {
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func NewEventPublisher(getter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *EventPublisher {
	return &EventPublisher{
		getter: getter,
		logger: logger,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event any) error {
	tr := p.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return ErrNoTransaction
	}

	publisher, err := NewPublisher(tr, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}

	eb, err := events.NewEventBus(publisher, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}

	log.FromContext(ctx).WithField("event", fmt.Sprintf("%T", event)).Debug("Storing event in outbox")
	return eb.Publish(ctx, event)
}
