package events

import (
	"context"

	"github.com/lithammer/shortuuid/v3"
)

//go:generate mockgen -destination=mocks/command_sender_mock.go -package=mocks . CommandSender
type CommandSender interface {
	Send(ctx context.Context, cmd any) error
}

type Handler struct {
	commandBus CommandSender
	scanCode   func(ticketID string) string
}

func NewHandler(commandBus CommandSender) *Handler {
	return &Handler{
		commandBus: commandBus,
		scanCode:   shortuuid.NewWithNamespace,
	}
}
