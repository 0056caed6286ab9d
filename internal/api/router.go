// Package api wires the service layer into an HTTP REST surface.
package api

import (
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/api/handlers"
	"github.com/globetrotter/tour-platform/internal/api/middleware"
	"github.com/globetrotter/tour-platform/internal/service"
)

// Services collects everything the router needs.
type Services struct {
	DB            *gorm.DB
	Events        *service.EventService
	Registrations *service.RegistrationService
	NextEvents    *service.NextEventService
	Deleter       *service.SoftDeleteService
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.Health(s.DB)).Methods("GET")

	// Event lifecycle.
	api.HandleFunc("/events", handlers.CreateEvent(s.Events)).Methods("POST")
	api.HandleFunc("/events/{id}/cancel", handlers.CancelEvent(s.Events)).Methods("POST")
	api.HandleFunc("/events/{id}/join", handlers.JoinEvent(s.Events)).Methods("POST")
	api.HandleFunc("/events/{id}", handlers.DeleteEvent(s.Deleter)).Methods("DELETE")

	// Registrations.
	api.HandleFunc("/events/{id}/registrations", handlers.Register(s.Registrations)).Methods("POST")
	api.HandleFunc("/events/{id}/visit", handlers.Visit(s.Registrations)).Methods("POST")
	api.HandleFunc("/registrations", handlers.ListRegistrations(s.Registrations)).Methods("GET")
	api.HandleFunc("/registrations/{id}", handlers.CancelRegistration(s.Registrations)).Methods("DELETE")
	api.HandleFunc("/registrations/{id}/close-visit", handlers.CloseVisit(s.Registrations)).Methods("POST")

	// Feedback.
	api.HandleFunc("/registrations/{id}/comment", handlers.AddComment(s.Registrations)).Methods("POST")
	api.HandleFunc("/registrations/{id}/comment", handlers.UpdateComment(s.Registrations)).Methods("PUT")
	api.HandleFunc("/registrations/{id}/comment", handlers.DeleteComment(s.Registrations)).Methods("DELETE")

	// Tour schedule and next-event projection.
	api.HandleFunc("/tours/{id}/events", handlers.ListTourEvents(s.Events)).Methods("GET")
	api.HandleFunc("/tours/{id}/next-event", handlers.NextEvent(s.NextEvents)).Methods("GET")
	api.HandleFunc("/next-events/rebuild", handlers.RebuildNextEvents(s.NextEvents)).Methods("POST")

	// Cascading removal.
	api.HandleFunc("/users/{id}", handlers.DeleteUser(s.Deleter)).Methods("DELETE")
	api.HandleFunc("/guides/{id}", handlers.DeleteGuide(s.Deleter)).Methods("DELETE")
	api.HandleFunc("/tours/{id}", handlers.DeleteTour(s.Deleter)).Methods("DELETE")

	return r
}
