package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/globetrotter/tour-platform/internal/api/middleware"
)

// Health pings the database and reports liveness.
func Health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Database unreachable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
