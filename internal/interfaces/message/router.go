package message

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"ticketmanager/internal/interfaces/message/events"
)

const PoisonQueueTopic = "poison-queue"

func NewRouter(
	watermillLogger watermill.LoggerAdapter,
	redisSubscriber message.Subscriber,
	redisPublisher message.Publisher,

	eventHandler *events.Handler,

	marshaller cqrs.CommandEventMarshaler,
	eventProcessorConfig cqrs.EventProcessorConfig,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	err = initMiddlewares(watermillLogger, router, redisPublisher)
	if err != nil {
		return nil, err
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, err
	}

	err = eventProcessor.AddHandlers(
		eventHandler.SendTicketConfirmationHandler(),
	)
	if err != nil {
		return nil, err
	}

	router.AddNoPublisherHandler(
		"events_splitter",
		events.AllEventsTopic,
		redisSubscriber,
		func(msg *message.Message) error {
			eventName := marshaller.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("cannot get event name from message: %w", events.ErrJsonUnmarshal)
			}

			return redisPublisher.Publish(events.PublicTopic(eventName), msg)
		},
	)

	return router, nil
}

func initMiddlewares(
	watermillLogger watermill.LoggerAdapter,
	router *message.Router,
	poisonQueuePublisher message.Publisher,
) error {
	poisonQueue, err := middleware.PoisonQueue(poisonQueuePublisher, PoisonQueueTopic)
	if err != nil {
		return fmt.Errorf("failed to create poison queue middleware: %w", err)
	}

	router.AddMiddleware(events.TracingMiddleware)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(events.MetricsMiddleware)

	// skip marshalling errors before they reach the poison queue
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)
	router.AddMiddleware(poisonQueue)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	return nil
}
