package event_publisher

import (
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const CorrelationIDKey = "correlation_id"

// MetadataDecorator copies the correlation id and the trace context of each
// message's context into its metadata before publishing. A correlation id
// already present in the metadata wins, so forwarded messages keep theirs.
type MetadataDecorator struct {
	message.Publisher
}

func WithMetadata(publisher message.Publisher) MetadataDecorator {
	return MetadataDecorator{Publisher: publisher}
}

func (d MetadataDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		ctx := msg.Context()

		if msg.Metadata.Get(CorrelationIDKey) == "" {
			if correlationID := log.CorrelationIDFromContext(ctx); correlationID != "" {
				msg.Metadata.Set(CorrelationIDKey, correlationID)
			}
		}

		otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
	}

	return d.Publisher.Publish(topic, messages...)
}
