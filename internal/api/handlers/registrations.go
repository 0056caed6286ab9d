package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/pagination"
	"github.com/globetrotter/tour-platform/internal/service"
)

// RegistrationResponse is the API shape of a registration.
type RegistrationResponse struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	UserID     string     `json:"user_id"`
	VisitedAt  *time.Time `json:"visited_at,omitempty"`
	EndVisitAt *time.Time `json:"end_visit_at,omitempty"`

	Event *EventResponse `json:"event,omitempty"`
}

func registrationResponse(reg *model.EventRegistration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:         reg.ID.String(),
		EventID:    reg.EventID.String(),
		UserID:     reg.UserID.String(),
		VisitedAt:  reg.VisitedAt,
		EndVisitAt: reg.EndVisitAt,
	}
	if reg.Event != nil {
		e := eventResponse(reg.Event)
		resp.Event = &e
	}
	return resp
}

type pageResponse struct {
	Items    []RegistrationResponse `json:"items"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	HasNext  bool                   `json:"has_next"`
	HasPrev  bool                   `json:"has_prev"`
	Total    int                    `json:"total"`
}

func toPageResponse(p pagination.Page[model.EventRegistration]) pageResponse {
	items := make([]RegistrationResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, registrationResponse(&p.Items[i]))
	}
	return pageResponse{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}

// Register books the calling user onto an event.
func Register(registrations *service.RegistrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		eventID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid event id")
			return
		}

		reg, err := registrations.Register(r.Context(), actor, eventID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, registrationResponse(reg))
	}
}

// CancelRegistration unregisters the calling user from a future event.
func CancelRegistration(registrations *service.RegistrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		regID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid registration id")
			return
		}

		if err := registrations.CancelRegistration(r.Context(), actor, regID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// Visit records that the calling user entered the event.
func Visit(registrations *service.RegistrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		eventID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid event id")
			return
		}

		reg, err := registrations.Visit(r.Context(), actor, eventID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, registrationResponse(reg))
	}
}

// CloseVisit records that the calling user left the post-event page.
func CloseVisit(registrations *service.RegistrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		regID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid registration id")
			return
		}

		if err := registrations.CloseVisit(r.Context(), actor, regID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// ListRegistrations returns the calling user's registrations split into
// upcoming and previous pages.
func ListRegistrations(registrations *service.RegistrationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

		upcoming, previous, err := registrations.ListForUser(r.Context(), actor, page, pageSize)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"upcoming": toPageResponse(upcoming),
			"previous": toPageResponse(previous),
		})
	}
}
