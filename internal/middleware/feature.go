package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/AnimalFacts/internal/models"
)

// RequireEnabled short-circuits every request with the 501 "not loaded"
// response when enabled is false. The body is never read, so requests
// are rejected before any key is checked.
func RequireEnabled(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(models.RespNotLoaded.Code)
			_ = json.NewEncoder(w).Encode(models.RespNotLoaded)
		})
	}
}
