package commands

import (
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

const topicPrefix = "commands."

// Topic is where the consumer of a command, e.g. the notification service for
// SendTicketConfirmation_v1, subscribes.
func Topic(commandName string) string {
	return topicPrefix + commandName
}

func NewBus(
	publisher message.Publisher,
	watermillLogger watermill.LoggerAdapter,
) (*cqrs.CommandBus, error) {
	return cqrs.NewCommandBusWithConfig(
		publisher,
		cqrs.CommandBusConfig{
			GeneratePublishTopic: func(params cqrs.CommandBusGeneratePublishTopicParams) (string, error) {
				return Topic(params.CommandName), nil
			},
			OnSend: func(params cqrs.CommandBusOnSendParams) error {
				log.FromContext(params.Message.Context()).
					WithField("command", params.CommandName).
					WithField("message_uuid", params.Message.UUID).
					Debug("Sending command")
				return nil
			},
			Marshaler: cqrs.JSONMarshaler{
				GenerateName: cqrs.StructName,
			},
			Logger: watermillLogger,
		},
	)
}
