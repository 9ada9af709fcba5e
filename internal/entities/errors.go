package entities

import "errors"

var (
	ErrValidation            = errors.New("validation error")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrConflict              = errors.New("ticket state conflict")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyRedeemed       = errors.New("ticket already redeemed")
	ErrTransientStore        = errors.New("transient store error")
)

// IsRetryable reports whether retrying the same request may succeed.
// Every other kind is deterministic.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}

// ErrorKind returns a short label for the error taxonomy, used in metrics and
// responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransientStore):
		return "transient_store"
	default:
		return "internal"
	}
}
