package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"ticketmanager/internal/entities"
)

// AllEventsTopic receives every public event before it is split into
// per-event topics.
const AllEventsTopic = "events"

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				event, ok := params.Event.(entities.BusEvent)
				if !ok {
					return "", fmt.Errorf("invalid event type: %T doesn't implement entities.BusEvent", params.Event)
				}

				if event.IsInternal() {
					return InternalTopic(params.EventName), nil
				}
				return AllEventsTopic, nil
			},
			Marshaler: Marshaler,
			Logger:    logger,
		},
	)
}

func PublicTopic(eventName string) string {
	return "events." + eventName
}

func InternalTopic(eventName string) string {
	return "internal-events.svc-tickets." + eventName
}
