package feedback

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a feedback entry does not exist.
var ErrNotFound = errors.New("feedback entry not found")

// ValidationError describes a rejected field in a feedback request.
type ValidationError struct {
	Field string
	Issue string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Issue)
}
