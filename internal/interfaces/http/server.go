package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticketmanager/internal/application/usecases/expiry"
	"ticketmanager/internal/application/usecases/inventory"
	"ticketmanager/internal/idempotency"
)

type Server struct {
	e    *echo.Echo
	addr string

	inventory        *inventory.Usecase
	expiry           *expiry.DeleteExpiredTicketsUsecase
	defaultRetention time.Duration
}

func NewServer(
	e *echo.Echo,
	addr string,
	inventoryUsecase *inventory.Usecase,
	expiryUsecase *expiry.DeleteExpiredTicketsUsecase,
	defaultRetention time.Duration,
	isReady func() bool,
) *Server {
	srv := &Server{
		e:                e,
		addr:             addr,
		inventory:        inventoryUsecase,
		expiry:           expiryUsecase,
		defaultRetention: defaultRetention,
	}

	// logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				Info("Handling a request")

			err := next(c)
			if err != nil {
				log.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})

	e.POST("/events", srv.CreateEventHandler)
	e.POST("/events/:event_id/tickets", srv.CreateTicketsHandler)
	e.POST("/events/:event_id/reservations", srv.ReserveTicketsHandler)

	e.POST("/tickets/release", srv.ReleaseTicketsHandler)
	e.POST("/tickets/purchase", srv.PurchaseTicketsHandler, idempotency.EchoMiddleware())
	e.POST("/tickets/info", srv.GetTicketsHandler)
	e.POST("/tickets/:ticket_id/redeem", srv.RedeemTicketHandler)
	e.POST("/tickets/expired", srv.DeleteExpiredTicketsHandler)

	e.GET("/attendees/:attendee_id/tickets", srv.GetAttendeeTicketsHandler)
	e.POST("/attendees/tickets", srv.GetTicketsForAttendeesHandler)

	e.GET("/health", func(c echo.Context) error {
		if !isReady() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
