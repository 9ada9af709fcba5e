package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"ticketmanager/internal/config"
	messageRouter "ticketmanager/internal/interfaces/message"
)

const scanTimeout = 10 * time.Second

type Message struct {
	ID     string
	Topic  string
	Reason string
}

type Handler struct {
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     watermill.LoggerAdapter
}

func NewHandler(redisAddr string) (*Handler, error) {
	logger := watermill.NewStdLogger(false, false)

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	sub, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        rdb,
			ConsumerGroup: "poison-queue-cli",
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: rdb,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		subscriber: sub,
		publisher:  pub,
		logger:     logger,
	}, nil
}

// walk passes every poisoned message to fn once. fn returns the messages to
// put back on the poison queue and whether the walk should stop.
func (h *Handler) walk(ctx context.Context, fn func(msg *message.Message) ([]*message.Message, bool, error)) error {
	router, err := message.NewRouter(message.RouterConfig{}, h.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	firstMessageID := ""
	done := false

	router.AddHandler(
		"walk_poison_queue",
		messageRouter.PoisonQueueTopic,
		h.subscriber,
		messageRouter.PoisonQueueTopic,
		h.publisher,
		func(msg *message.Message) ([]*message.Message, error) {
			if done || msg.UUID == firstMessageID {
				done = true
				cancel()
				return []*message.Message{msg}, nil
			}
			if firstMessageID == "" {
				firstMessageID = msg.UUID
			}

			out, stop, err := fn(msg)
			if err != nil {
				return nil, err
			}
			if stop {
				done = true
				cancel()
			}
			return out, nil
		},
	)

	return router.Run(ctx)
}

func (h *Handler) Preview(ctx context.Context) ([]Message, error) {
	res := make([]Message, 0)

	err := h.walk(ctx, func(msg *message.Message) ([]*message.Message, bool, error) {
		res = append(res, Message{
			ID:     msg.UUID,
			Topic:  msg.Metadata.Get(middleware.PoisonedTopicKey),
			Reason: msg.Metadata.Get(middleware.ReasonForPoisonedKey),
		})
		return []*message.Message{msg}, false, nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (h *Handler) Remove(ctx context.Context, id string) error {
	found := false

	err := h.walk(ctx, func(msg *message.Message) ([]*message.Message, bool, error) {
		if msg.UUID == id {
			found = true
			return nil, true, nil
		}
		return []*message.Message{msg}, false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("message %s not found", id)
	}

	return nil
}

// Requeue publishes the message back to the topic it was poisoned on.
func (h *Handler) Requeue(ctx context.Context, id string) error {
	found := false

	err := h.walk(ctx, func(msg *message.Message) ([]*message.Message, bool, error) {
		if msg.UUID != id {
			return []*message.Message{msg}, false, nil
		}

		topic := msg.Metadata.Get(middleware.PoisonedTopicKey)
		if topic == "" {
			return nil, false, fmt.Errorf("message %s has no original topic", id)
		}
		if err := h.publisher.Publish(topic, msg); err != nil {
			return nil, false, fmt.Errorf("failed to requeue message %s: %w", id, err)
		}

		found = true
		return nil, true, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("message %s not found", id)
	}

	return nil
}

func newHandler() (*Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewHandler(cfg.RedisAddr)
}

func main() {
	app := &cli.App{
		Name:  "poison-queue-cli",
		Usage: "Manage the ticket service poison queue",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "preview messages",
				Action: func(c *cli.Context) error {
					h, err := newHandler()
					if err != nil {
						return err
					}

					messages, err := h.Preview(c.Context)
					if err != nil {
						return err
					}

					for _, m := range messages {
						fmt.Printf("%v\t%v\t%v\n", m.ID, m.Topic, m.Reason)
					}

					return nil
				},
			},
			{
				Name:      "remove",
				ArgsUsage: "<message_id>",
				Usage:     "remove message",
				Action: func(c *cli.Context) error {
					h, err := newHandler()
					if err != nil {
						return err
					}

					return h.Remove(c.Context, c.Args().First())
				},
			},
			{
				Name:      "requeue",
				ArgsUsage: "<message_id>",
				Usage:     "publish message back to its original topic",
				Action: func(c *cli.Context) error {
					h, err := newHandler()
					if err != nil {
						return err
					}

					return h.Requeue(c.Context, c.Args().First())
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
