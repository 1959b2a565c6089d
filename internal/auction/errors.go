package auction

import (
	"errors"
	"fmt"
)

// ErrNotFound marks operations that referenced an item nobody has.
// Handlers map it to 404; everything else storage-related stays a 500.
var ErrNotFound = errors.New("item not found")

// ValidationError reports bad or missing caller input. Handlers map it
// to 400 with the message verbatim.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
