package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"ticketmanager/internal/application/usecases/inventory"
	"ticketmanager/internal/entities"
)

type CreateEventRequest struct {
	Title    string    `json:"title"`
	DateTime time.Time `json:"date_time"`
}

type CreateEventResponse struct {
	Response
	Event entities.Event `json:"event"`
}

func (s *Server) CreateEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateEventRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}

	event, err := s.inventory.CreateEvent(ctx, inventory.CreateEventInput{
		Title:    request.Title,
		DateTime: request.DateTime,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, CreateEventResponse{
		Response: ok("event created"),
		Event:    event,
	})
}

type CreateTicketsRequest struct {
	Price    decimal.Decimal `json:"price"`
	NTickets int             `json:"n_tickets"`
}

type CreateTicketsResponse struct {
	Response
	TicketIDs []uuid.UUID `json:"ticket_ids"`
}

func (s *Server) CreateTicketsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	eventID, err := parseUUID("event_id", c.Param("event_id"))
	if err != nil {
		return respondError(c, err)
	}

	var request CreateTicketsRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}

	ids, err := s.inventory.CreateTickets(ctx, inventory.CreateTicketsInput{
		EventID:         eventID,
		Price:           request.Price,
		NumberOfTickets: request.NTickets,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, CreateTicketsResponse{
		Response:  ok(fmt.Sprintf("%d tickets created", len(ids))),
		TicketIDs: ids,
	})
}

type ReserveTicketsRequest struct {
	NTickets int `json:"n_tickets"`
}

type ReserveTicketsResponse struct {
	Response
	ReservedCount int         `json:"reserved_count"`
	TicketIDs     []uuid.UUID `json:"ticket_ids"`
}

func (s *Server) ReserveTicketsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	eventID, err := parseUUID("event_id", c.Param("event_id"))
	if err != nil {
		return respondError(c, err)
	}

	var request ReserveTicketsRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}

	ids, err := s.inventory.ReserveTickets(ctx, inventory.ReserveTicketsInput{
		EventID:         eventID,
		NumberOfTickets: request.NTickets,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ReserveTicketsResponse{
		Response:      ok(fmt.Sprintf("%d tickets reserved", len(ids))),
		ReservedCount: len(ids),
		TicketIDs:     ids,
	})
}
