package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ticketmanager/internal/application/usecases/expiry"
	"ticketmanager/internal/application/usecases/inventory"
	"ticketmanager/internal/config"
	domain "ticketmanager/internal/domain/tickets"
	"ticketmanager/internal/infrastructure/event_publisher"
	"ticketmanager/internal/interfaces/http"
	messageRouter "ticketmanager/internal/interfaces/message"
	"ticketmanager/internal/interfaces/message/commands"
	"ticketmanager/internal/interfaces/message/events"
	"ticketmanager/internal/interfaces/message/outbox"
	"ticketmanager/internal/repository"
)

type App struct {
	cfg             config.Config
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger

	db        *sqlx.DB
	router    *message.Router
	forwarder *outbox.Forwarder
	srv       *http.Server
	sweeper   *expiry.Sweeper
}

func NewApp(
	cfg config.Config,
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
) (*App, error) {
	trGetter := trmsqlx.DefaultCtxGetter
	trManager := trmanager.Must(trmsqlx.NewDefaultFactory(db))

	ticketsRepo := repository.NewTicketsRepo(db, trGetter, trManager)
	eventsRepo := repository.NewEventsRepo(db, trGetter)

	redisPublisher, err := event_publisher.NewRedisPublisher(watermillLogger, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	redisSubscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "svc-tickets.events_splitter",
	}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis subscriber: %w", err)
	}

	commandBus, err := commands.NewBus(redisPublisher, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create command bus: %w", err)
	}

	router, err := messageRouter.NewRouter(
		watermillLogger,
		redisSubscriber,
		redisPublisher,
		events.NewHandler(commandBus),
		events.Marshaler,
		events.NewEventProcessorConfig(redisClient, watermillLogger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	forwarder, err := outbox.NewForwarder(db, redisPublisher, cfg.OutboxPollInterval, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox forwarder: %w", err)
	}

	inventoryUsecase := inventory.NewUsecase(
		ticketsRepo,
		eventsRepo,
		trManager,
		outbox.NewEventPublisher(trGetter, watermillLogger),
		inventory.WithPurchasePolicy(domain.PurchasePolicy{AllowWalkUp: cfg.PurchaseAllowWalkUp}),
	)
	expiryUsecase := expiry.NewDeleteExpiredTicketsUsecase(eventsRepo, ticketsRepo, nil)

	srv := http.NewServer(
		commonHTTP.NewEcho(),
		":"+cfg.Port,
		inventoryUsecase,
		expiryUsecase,
		cfg.ExpiryRetention,
		router.IsRunning,
	)

	return &App{
		cfg:             cfg,
		watermillLogger: watermillLogger,
		logger:          zerolog.New(os.Stdout).With().Timestamp().Str("service", "ticketmanager").Logger(),
		db:              db,
		router:          router,
		forwarder:       forwarder,
		srv:             srv,
		sweeper:         expiry.NewSweeper(expiryUsecase, cfg.ExpirySweepInterval, cfg.ExpiryRetention),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		a.logger.Info().Msg("starting outbox forwarder")
		return a.forwarder.Run(ctx)
	})

	g.Go(func() error {
		a.logger.Info().
			Dur("interval", a.cfg.ExpirySweepInterval).
			Dur("retention", a.cfg.ExpiryRetention).
			Msg("starting expiry sweeper")
		return a.sweeper.Run(ctx)
	})

	g.Go(func() error {
		for name, running := range map[string]chan struct{}{
			"router":           a.router.Running(),
			"outbox forwarder": a.forwarder.Running(),
		} {
			select {
			case <-running:
				a.logger.Info().Msgf("%s is running", name)
			case <-ctx.Done():
				return nil
			}
		}

		a.logger.Info().Str("port", a.cfg.Port).Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		err := a.srv.Stop(shutdownCtx)
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}
		if closeErr := a.forwarder.Close(); closeErr != nil {
			a.logger.Err(closeErr).Msg("error closing outbox forwarder")
			err = errors.Join(err, closeErr)
		}
		return err
	})

	err := g.Wait()
	if err != nil {
		a.logger.Err(err).Msg("app stopped with error")
		return err
	}

	a.logger.Info().Msg("app stopped")
	return nil
}

// InitializeDatabase creates the inventory tables before the app starts.
func InitializeDatabase(ctx context.Context, db *sqlx.DB) error {
	return repository.InitializeDBSchema(ctx, db)
}
