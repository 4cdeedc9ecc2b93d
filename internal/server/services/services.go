// Package services holds the business logic behind the REST handlers: the
// account security state machine and event management. Services return
// sentinel errors from internal/common for client-facing failures and wrap
// everything else in common.ErrorInternal.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophevents/internal/common"
)

// ValidationError carries per-field messages for input that failed validation.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// clientErrors are passed to callers unchanged; the REST layer maps each of
// them to a status code.
var clientErrors = []error{
	common.ErrorNotFound,
	common.ErrConflict,
	common.ErrMissingFields,
	common.ErrInvalidFormat,
	common.ErrInvalidCredentials,
	common.ErrUnauthenticated,
	common.ErrAlreadyVerified,
	common.ErrInvalidOrExpired,
	common.ErrInvalidCurrentPassword,
	common.ErrForbidden,
	common.ErrInvalidDates,
	common.ErrInvalidDate,
	common.ErrAlreadyJoined,
	common.ErrEventFull,
	common.ErrNotAttending,
}

// classify returns err as is when it is a client error or a
// *ValidationError, and wraps it in common.ErrorInternal otherwise.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
