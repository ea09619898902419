// Package http provides the HTTP handlers and routing of the fact API.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/atinyakov/AnimalFacts/internal/service"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// writeResult writes a service result. A nil body produces an empty response.
func writeResult(w http.ResponseWriter, res service.Result) {
	if res.Body == nil {
		w.WriteHeader(res.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	_ = json.NewEncoder(w).Encode(res.Body)
}

// decodeBody decodes the JSON request body into dst.
// It writes a 400 response and returns false when the body is not valid.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeResult(w, service.Result{Status: models.RespInvalidBody.Code, Body: models.RespInvalidBody})
		return false
	}
	return true
}
