package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotAuthorized         = errors.New("not authorized")
	ErrEventCancelled        = errors.New("event is already cancelled")
	ErrEventFinished         = errors.New("event already happened")
	ErrEventNotStarted       = errors.New("event has not started yet")
	ErrMissingMeetingDetails = errors.New("event has no meeting details")
	ErrAlreadyRegistered     = errors.New("already registered to this event")
	ErrRegistrationPast      = errors.New("only registrations to future events can be cancelled")
	ErrNotVisited            = errors.New("tour has not been attended")
)

// ValidationErrors maps a field to a user-correctable message. The
// operation aborts with no partial state; resource exhaustion (no free
// license, guide double-booked) is reported here, not as a system fault.
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(v))
	for _, f := range fields {
		parts = append(parts, f+" "+v[f])
	}
	return strings.Join(parts, "; ")
}

// AsValidation extracts field-scoped validation errors from err.
func AsValidation(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
