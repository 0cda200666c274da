package teachback

import (
	"errors"
	"fmt"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/phasestore"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return apierr.BadRequest("validation", &ValidationError{Field: field, Message: msg})
}

func guardFailed(err error) error {
	return apierr.Conflict("phase_guard", err)
}

func retryable(err error) error {
	return apierr.Retryable("storage_unavailable", err)
}

func isPhaseNotFound(err error) bool {
	return errors.Is(err, phasestore.ErrNotFound)
}
