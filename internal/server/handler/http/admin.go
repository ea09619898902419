package http

import (
	"net/http"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/atinyakov/AnimalFacts/internal/service"
)

// AdminHandler serves /admin/fact/* and /admin/flag/*.
// The action is taken from the last path segment.
type AdminHandler struct {
	FactService FactService
}

// Facts handles POST /admin/fact/{list,add,delete}.
func (h *AdminHandler) Facts(w http.ResponseWriter, r *http.Request) {
	var req models.AdminFactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, h.FactService.AdminFacts(r.Context(), service.ParseAction(r.URL.Path), req))
}

// Flags handles POST /admin/flag/{list,add,delete}.
func (h *AdminHandler) Flags(w http.ResponseWriter, r *http.Request) {
	var req models.AdminFlagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, h.FactService.AdminFlags(r.Context(), service.ParseAction(r.URL.Path), req))
}
