package http

import (
	"fmt"
	"math"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"ticketmanager/internal/entities"
)

const day = 24 * time.Hour

// maxDaysAgo is the largest day count that still fits in a time.Duration.
const maxDaysAgo = int(math.MaxInt64 / int64(day))

type DeleteExpiredTicketsRequest struct {
	// RetentionWindow is a Go duration string, e.g. "720h".
	RetentionWindow string `json:"retention_window"`
	DaysAgo         *int   `json:"days_ago"`
}

func (r DeleteExpiredTicketsRequest) retention(fallback time.Duration) (time.Duration, error) {
	switch {
	case r.RetentionWindow != "" && r.DaysAgo != nil:
		return 0, fmt.Errorf("only one of retention_window and days_ago may be set: %w", entities.ErrValidation)
	case r.RetentionWindow != "":
		d, err := time.ParseDuration(r.RetentionWindow)
		if err != nil {
			return 0, fmt.Errorf("retention_window: %v: %w", err, entities.ErrValidation)
		}
		return d, nil
	case r.DaysAgo != nil:
		err := validation.Validate(*r.DaysAgo, validation.Min(0), validation.Max(maxDaysAgo))
		if err != nil {
			return 0, fmt.Errorf("days_ago: %v: %w", err, entities.ErrValidation)
		}
		return time.Duration(*r.DaysAgo) * day, nil
	default:
		return fallback, nil
	}
}

type DeleteExpiredTicketsResponse struct {
	Response
	DeletedCount int `json:"deleted_count"`
}

func (s *Server) DeleteExpiredTicketsHandler(c echo.Context) error {
	var request DeleteExpiredTicketsRequest
	if err := bind(c, &request); err != nil {
		return respondError(c, err)
	}

	retention, err := request.retention(s.defaultRetention)
	if err != nil {
		return respondError(c, err)
	}

	deleted, err := s.expiry.DeleteExpired(c.Request().Context(), retention)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, DeleteExpiredTicketsResponse{
		Response:     ok(fmt.Sprintf("%d expired tickets deleted", deleted)),
		DeletedCount: deleted,
	})
}
