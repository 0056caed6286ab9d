package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/service"
)

// DeleteUser removes an account and everything it owns. The caller must be
// the account's owner or an admin.
func DeleteUser(deleter *service.SoftDeleteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		userID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid user id")
			return
		}
		if err := deleter.DeleteUser(r.Context(), actor, userID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// DeleteGuide deactivates a guide profile, its tours and events. The
// caller must be the guide's user or an admin.
func DeleteGuide(deleter *service.SoftDeleteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		guideID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid guide id")
			return
		}
		if err := deleter.DeleteGuide(r.Context(), actor, guideID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// DeleteTour deactivates a tour and cancels its events. The caller must be
// the owning guide's user or an admin.
func DeleteTour(deleter *service.SoftDeleteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(r)
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing or malformed "+actorHeader+" header")
			return
		}
		tourID, ok := pathID(r, mux.Vars(r), "id")
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid tour id")
			return
		}
		if err := deleter.DeleteTour(r.Context(), actor, tourID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
