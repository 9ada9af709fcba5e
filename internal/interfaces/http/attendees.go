package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketmanager/internal/entities"
)

func (s *Server) GetAttendeeTicketsHandler(c echo.Context) error {
	tickets, err := s.inventory.GetAttendeeTickets(c.Request().Context(), c.Param("attendee_id"))
	if err != nil {
		return respondError(c, err)
	}
	if tickets == nil {
		tickets = []entities.Ticket{}
	}

	return c.JSON(http.StatusOK, TicketsResponse{
		Response: ok(fmt.Sprintf("%d tickets found", len(tickets))),
		Tickets:  tickets,
	})
}

type AttendeesTicketsRequest struct {
	AttendeeIDs []string `json:"attendee_ids"`
	// RequestedAttributes works as for /tickets/info; ticket_id and
	// attendee_id are always included.
	RequestedAttributes map[string]bool `json:"requested_attributes"`
}

type AttendeesTicketsResponse struct {
	Response
	Tickets map[string][]map[string]any `json:"tickets"`
}

func (s *Server) GetTicketsForAttendeesHandler(c echo.Context) error {
	var request AttendeesTicketsRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}

	fields, err := newProjection(request.RequestedAttributes, "ticket_id", "attendee_id")
	if err != nil {
		return respondError(c, err)
	}

	byAttendee, err := s.inventory.GetTicketsForAttendees(c.Request().Context(), request.AttendeeIDs)
	if err != nil {
		return respondError(c, err)
	}

	projected := make(map[string][]map[string]any, len(byAttendee))
	for attendeeID, tickets := range byAttendee {
		projected[attendeeID], err = fields.apply(tickets)
		if err != nil {
			return respondError(c, err)
		}
	}

	return c.JSON(http.StatusOK, AttendeesTicketsResponse{
		Response: ok(fmt.Sprintf("tickets of %d attendees", len(byAttendee))),
		Tickets:  projected,
	})
}
