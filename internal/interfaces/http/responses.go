package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ticketmanager/internal/entities"
)

type Response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Response
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func ok(message string) Response {
	return Response{OK: true, Message: message}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrInsufficientInventory),
		errors.Is(err, entities.ErrAlreadyRedeemed),
		errors.Is(err, entities.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, entities.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON body. Internal errors are not exposed to
// the caller.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(c.Request().Context()).WithError(err).Error("Internal error")
		message = "internal error"
	}

	return c.JSON(status, ErrorResponse{
		Response:  Response{OK: false, Message: message},
		Kind:      entities.ErrorKind(err),
		Retryable: entities.IsRetryable(err),
	})
}

func bind(c echo.Context, request any) error {
	if err := c.Bind(request); err != nil {
		return fmt.Errorf("malformed request body: %w", entities.ErrValidation)
	}
	return nil
}

func parseUUID(field, value string) (uuid.UUID, error) {
	if err := validation.Validate(value, validation.Required, is.UUID); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %v: %w", field, err, entities.ErrValidation)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %v: %w", field, err, entities.ErrValidation)
	}
	return id, nil
}

func parseUUIDs(field string, values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for i, value := range values {
		id, err := parseUUID(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
