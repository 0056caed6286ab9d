package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/service"
)

type commentRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// AddComment leaves feedback on a visited, finished registration.
func AddComment(registrations *service.RegistrationService) http.HandlerFunc {
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

		var req commentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		comment, err := registrations.AddComment(r.Context(), actor, regID, req.Comment, req.Rating)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":      comment.ID.String(),
			"comment": comment.Comment,
			"rating":  comment.Rating,
		})
	}
}

// UpdateComment replaces the feedback text and rating.
func UpdateComment(registrations *service.RegistrationService) http.HandlerFunc {
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

		var req commentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if err := registrations.UpdateComment(r.Context(), actor, regID, req.Comment, req.Rating); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

// DeleteComment removes the feedback.
func DeleteComment(registrations *service.RegistrationService) http.HandlerFunc {
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

		if err := registrations.DeleteComment(r.Context(), actor, regID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
