package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/service"
)

// NextEvent returns the tour's next upcoming event from the projection,
// 204 when the tour has none scheduled.
func NextEvent(nextEvents *service.NextEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tourID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid tour id")
			return
		}

		ne, err := nextEvents.ForTour(r.Context(), tourID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if ne == nil {
			writeJSON(w, http.StatusNoContent, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tour_id":      ne.TourID.String(),
			"event_id":     ne.EventID.String(),
			"date":         ne.Date,
			"refreshed_at": ne.RefreshedAt,
		})
	}
}

// ListTourEvents returns the tour's upcoming events, soonest first.
func ListTourEvents(events *service.EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tourID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid tour id")
			return
		}

		list, err := events.UpcomingForTour(r.Context(), tourID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]EventResponse, 0, len(list))
		for i := range list {
			resp = append(resp, eventResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// RebuildNextEvents forces an immediate projection rebuild. Admin-only
// escape hatch for when waiting out the refresh interval is not an option.
func RebuildNextEvents(nextEvents *service.NextEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := nextEvents.Rebuild(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rebuilt_at": time.Now().UTC()})
	}
}
