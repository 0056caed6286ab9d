package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/model"
	"github.com/globetrotter/tour-platform/internal/service"
)

// EventResponse is the API shape of an event.
type EventResponse struct {
	ID            string     `json:"id"`
	TourID        string     `json:"tour_id"`
	GuideID       string     `json:"guide_id"`
	LicenseID     *string    `json:"license_id,omitempty"`
	Date          time.Time  `json:"date"`
	CancelledDate *time.Time `json:"cancelled_date,omitempty"`
	Joinable      bool       `json:"joinable"`
}

func eventResponse(e *model.Event) EventResponse {
	resp := EventResponse{
		ID:            e.ID.String(),
		TourID:        e.TourID.String(),
		GuideID:       e.GuideID.String(),
		Date:          e.Date,
		CancelledDate: e.CancelledDate,
		Joinable:      !e.Cancelled() && e.HasMeetingDetails(),
	}
	if e.LicenseID != nil {
		id := e.LicenseID.String()
		resp.LicenseID = &id
	}
	return resp
}

// CreateEvent schedules a new event for a tour.
func CreateEvent(events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}

		var req struct {
			TourID string    `json:"tour_id"`
			Date   time.Time `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		tourID, err := uuid.Parse(req.TourID)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid tour_id")
			return
		}

		event, err := events.Create(r.Context(), actor, tourID, req.Date)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, eventResponse(event))
	}
}

// CancelEvent cancels a scheduled event and frees its license.
func CancelEvent(events *service.EventService) http.HandlerFunc {
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

		if err := events.Cancel(r.Context(), actor, eventID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// JoinEvent hands out the meeting credentials during the live window and
// marks the caller's registration visited.
func JoinEvent(events *service.EventService) http.HandlerFunc {
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

		details, err := events.Join(r.Context(), actor, eventID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"meeting_id":      details.MeetingID,
			"password":        details.Password,
			"join_url":        details.JoinURL,
			"registration_id": details.Registration.ID.String(),
		})
	}
}

// DeleteEvent soft-deletes a single event (cancelling it if needed). The
// caller must be the owning guide's user or an admin.
func DeleteEvent(deleter *service.SoftDeleteService) http.HandlerFunc {
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
		if err := deleter.DeleteEvent(r.Context(), actor, eventID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
