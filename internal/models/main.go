// Package models defines the core data structures for facts, flags,
// principals and the request/response payloads of the API.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Animal identifies the kind of animal a fact belongs to.
type Animal string

const (
	// Cat is the animal kind served under /cat/fact.
	Cat Animal = "Cat"
	// Dog is the animal kind served under /dog/fact.
	Dog Animal = "Dog"
)

// Animals lists every supported animal kind.
var Animals = []Animal{Cat, Dog}

// ParseAnimal resolves a case-insensitive animal name ("cat", "Dog", ...).
func ParseAnimal(s string) (Animal, error) {
	for _, a := range Animals {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown animal type %q", s)
}

// UnmarshalText rejects animal names outside of the closed set.
// It is used by both the JSON request decoder and the TOML config decoder.
func (a *Animal) UnmarshalText(text []byte) error {
	for _, known := range Animals {
		if string(known) == string(text) {
			*a = known
			return nil
		}
	}
	return fmt.Errorf("unknown animal type %q", string(text))
}

// Slug returns the lowercase name used in routes and file names.
func (a Animal) Slug() string {
	return strings.ToLower(string(a))
}

// FilePath returns the location of the facts file for this animal inside dir.
func (a Animal) FilePath(dir string) string {
	return filepath.Join(dir, a.Slug()+"_facts.json")
}

// Fact is a single piece of content about an animal.
type Fact struct {
	// ID is unique within the animal's fact list.
	ID uint64 `json:"id"`
	// Content is the fact text.
	Content string `json:"content"`
}

// FactFlag is a moderation record pointing at a fact.
type FactFlag struct {
	// ID is unique within the flag list.
	ID uint64 `json:"id"`
	// FactType is the animal list the flagged fact lives in.
	FactType Animal `json:"fact_type"`
	// FactID references Fact.ID. The fact may have been deleted since.
	FactID uint64 `json:"fact_id"`
	// Reason is an optional free-form explanation.
	Reason *string `json:"reason"`
	// Flagger names who raised the flag.
	Flagger string `json:"flagger"`
}

// Perms holds the granular permissions of an admin.
type Perms struct {
	ViewFacts  bool `json:"view_facts" toml:"view_facts"`
	AddFact    bool `json:"add_fact" toml:"add_fact"`
	DeleteFact bool `json:"delete_fact" toml:"delete_fact"`
	ViewFlags  bool `json:"view_flags" toml:"view_flags"`
	AddFlag    bool `json:"add_flag" toml:"add_flag"`
	DeleteFlag bool `json:"delete_flag" toml:"delete_flag"`
}

// Admin is a principal allowed to use the /admin endpoints.
type Admin struct {
	// Name is used for logging and as the flagger label of admin flags.
	Name string `json:"name" toml:"name" validate:"required"`
	// Key is the secret presented in requests.
	Key string `json:"key" toml:"key" validate:"required"`
	// Permissions decides which admin actions are allowed.
	Permissions Perms `json:"permissions" toml:"permissions"`
}

// Flagger is a principal allowed to submit flags through /flag.
type Flagger struct {
	// Location labels flags submitted without an explicit flagger name.
	Location string `json:"location" toml:"location" validate:"required"`
	// Key is the secret presented in requests.
	Key string `json:"key" toml:"key" validate:"required"`
}

// AdminFactRequest is the payload of /admin/fact/*.
type AdminFactRequest struct {
	// FactID is required for deletions.
	FactID *uint64 `json:"fact_id"`
	// FactContent is required for additions.
	FactContent *string `json:"fact_content"`
	// AnimalType selects the fact list.
	AnimalType *Animal `json:"animal_type"`
	// Key authenticates the admin.
	Key string `json:"key"`
}

// AdminFlagRequest is the payload of /admin/flag/*.
type AdminFlagRequest struct {
	Key      string  `json:"key"`
	FactID   *uint64 `json:"fact_id"`
	FlagID   *uint64 `json:"flag_id"`
	Reason   *string `json:"reason"`
	FactType *Animal `json:"fact_type"`
}

// FactFlagRequest is the payload of the public /flag endpoint.
type FactFlagRequest struct {
	FactType *Animal `json:"fact_type"`
	FactID   *uint64 `json:"fact_id"`
	Reason   *string `json:"reason"`
	Key      string  `json:"key"`
	// Flagger overrides the flagger's configured location when set.
	Flagger *string `json:"flagger"`
}

// Response is the JSON body returned for every non-list outcome.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// ID is set on creations and holds the id of the new resource.
	ID *uint64 `json:"id,omitempty"`
}

// Fixed responses shared by every endpoint.
var (
	RespNotLoaded       = Response{Code: 501, Message: "The requested feature is not currently loaded!"}
	RespMissingPerms    = Response{Code: 401, Message: "Missing Permission"}
	RespBadAuth         = Response{Code: 401, Message: "Invalid authorization"}
	RespNoContent       = Response{Code: 400, Message: "No content was specified"}
	RespIDNotFound      = Response{Code: 404, Message: "The requested ID doesn't exist"}
	RespNoTypeSupplied  = Response{Code: 400, Message: "The animal type was not specified"}
	RespNoIDSupplied    = Response{Code: 400, Message: "An ID was not specified"}
	RespInvalidBody     = Response{Code: 400, Message: "Invalid request body"}
	RespInternalFailure = Response{Code: 500, Message: "Internal server error"}
)

// FactAdded builds the 201 response for a new fact.
func FactAdded(animal Animal, id uint64) Response {
	return Response{Code: 201, Message: string(animal) + " fact added", ID: &id}
}

// FlagSet builds the 201 response for a new flag.
func FlagSet(id uint64) Response {
	return Response{Code: 201, Message: "Flag set", ID: &id}
}

// AuditEntry records a single admin or flagger mutation.
type AuditEntry struct {
	// ID is a random UUID.
	ID string
	// Actor is the admin name or flagger label.
	Actor string
	// Action is "add" or "delete".
	Action string
	// Resource is "fact" or "flag".
	Resource string
	// Animal is the fact list involved.
	Animal Animal
	// TargetID is the id of the created or removed resource.
	TargetID uint64
	// CreatedAt is when the mutation happened.
	CreatedAt time.Time
}
