package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/atinyakov/AnimalFacts/internal/service"
	"github.com/go-chi/chi/v5"
)

// indexMessage is served at /.
const indexMessage = "Hello There! This is Gearbot's animal fact API. Head over to /cat/fact or /dog/fact to try it out!"

// FactService defines the operations required by the HTTP handlers.
type FactService interface {
	// RandomFact picks a random fact of the animal.
	RandomFact(animal models.Animal) service.Result
	// AdminFacts lists, adds or deletes facts.
	AdminFacts(ctx context.Context, action service.AdminAction, req models.AdminFactRequest) service.Result
	// AdminFlags lists, adds or deletes flags.
	AdminFlags(ctx context.Context, action service.AdminAction, req models.AdminFlagRequest) service.Result
	// SubmitFlag stores a flag raised by a flagger.
	SubmitFlag(ctx context.Context, req models.FactFlagRequest) service.Result
}

// FactHandler serves the public endpoints.
type FactHandler struct {
	FactService FactService
}

// Index handles GET /.
func (h *FactHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(indexMessage))
}

// RandomFact handles GET /{animal}/fact.
func (h *FactHandler) RandomFact(w http.ResponseWriter, r *http.Request) {
	animal, err := models.ParseAnimal(chi.URLParam(r, "animal"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeResult(w, h.FactService.RandomFact(animal))
}

// SubmitFlag handles POST /flag.
func (h *FactHandler) SubmitFlag(w http.ResponseWriter, r *http.Request) {
	var req models.FactFlagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, h.FactService.SubmitFlag(r.Context(), req))
}
