// Package handlers implements the REST API endpoints on top of the
// service layer. Handlers do no business logic themselves: decode,
// delegate, encode.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/service"
)

// actorHeader carries the authenticated user's id. Session handling
// lives in the edge proxy; this service trusts the header.
const actorHeader = "X-User-ID"

func actorID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(actorHeader))
	return id, err == nil
}

func pathID(r *http.Request, vars map[string]string, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(vars[name])
	return id, err == nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	if verrs, ok := service.AsValidation(err); ok {
		middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrValidation, "Validation failed", verrs)
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Resource not found")
	case errors.Is(err, service.ErrNotAuthorized):
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrForbidden, "Not allowed to perform this action")
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrEventCancelled),
		errors.Is(err, service.ErrEventFinished),
		errors.Is(err, service.ErrEventNotStarted),
		errors.Is(err, service.ErrMissingMeetingDetails),
		errors.Is(err, service.ErrRegistrationPast),
		errors.Is(err, service.ErrNotVisited):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
	}
}
