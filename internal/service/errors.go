package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries every problem found in a request so callers can fix
// them in one pass. Err is the sentinel matched with errors.Is.
type ValidationError struct {
	Err     error
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var ErrInvalidInput = errors.New("invalid input")

// fromValidator flattens validator/v10 field errors into a ValidationError.
func fromValidator(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	details := make([]string, 0, len(ve))
	for _, fe := range ve {
		details = append(details, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Err: ErrInvalidInput, Details: details}
}
