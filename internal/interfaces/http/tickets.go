package http

import (
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketmanager/internal/application/usecases/inventory"
	"ticketmanager/internal/entities"
)

type TicketIDsRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

type ReleaseTicketsResponse struct {
	Response
	ReleasedCount int `json:"released_count"`
}

func (s *Server) ReleaseTicketsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request TicketIDsRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}
	ids, err := parseUUIDs("ticket_ids", request.TicketIDs)
	if err != nil {
		return respondError(c, err)
	}

	released, err := s.inventory.ReleaseTickets(ctx, ids)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ReleaseTicketsResponse{
		Response:      ok(fmt.Sprintf("%d tickets released", released)),
		ReleasedCount: released,
	})
}

type PurchaseTicketsRequest struct {
	AttendeeID string   `json:"attendee_id"`
	TicketIDs  []string `json:"ticket_ids"`
}

func (s *Server) PurchaseTicketsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request PurchaseTicketsRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}
	ids, err := parseUUIDs("ticket_ids", request.TicketIDs)
	if err != nil {
		return respondError(c, err)
	}

	log.FromContext(ctx).
		WithField("correlation_id", log.CorrelationIDFromContext(ctx)).
		WithField("attendee_id", request.AttendeeID).
		Info("Purchasing tickets")

	err = s.inventory.PurchaseTickets(ctx, inventory.PurchaseTicketsInput{
		AttendeeID: request.AttendeeID,
		TicketIDs:  ids,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ok(fmt.Sprintf("%d tickets purchased", len(ids))))
}

func (s *Server) RedeemTicketHandler(c echo.Context) error {
	ctx := c.Request().Context()

	ticketID, err := parseUUID("ticket_id", c.Param("ticket_id"))
	if err != nil {
		return respondError(c, err)
	}

	if err := s.inventory.RedeemTicket(ctx, ticketID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ok("ticket redeemed"))
}

type TicketsResponse struct {
	Response
	Tickets []entities.Ticket `json:"tickets"`
}

type TicketsInfoRequest struct {
	TicketIDs []string `json:"ticket_ids"`
	// RequestedAttributes selects the returned attributes; ticket_id is
	// always included. Empty means all attributes.
	RequestedAttributes map[string]bool `json:"requested_attributes"`
}

type TicketsInfoResponse struct {
	Response
	Tickets []map[string]any `json:"tickets"`
}

func (s *Server) GetTicketsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request TicketsInfoRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}
	ids, err := parseUUIDs("ticket_ids", request.TicketIDs)
	if err != nil {
		return respondError(c, err)
	}
	fields, err := newProjection(request.RequestedAttributes, "ticket_id")
	if err != nil {
		return respondError(c, err)
	}

	tickets, err := s.inventory.GetTickets(ctx, ids)
	if err != nil {
		return respondError(c, err)
	}
	projected, err := fields.apply(tickets)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, TicketsInfoResponse{
		Response: ok(fmt.Sprintf("%d tickets found", len(tickets))),
		Tickets:  projected,
	})
}
