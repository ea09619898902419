// Package service implements authentication, authorization and the request
// orchestration of the fact and flag stores.
package service

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/atinyakov/AnimalFacts/internal/models"
)

// Action is a single admin operation.
type Action int

const (
	ViewFacts Action = iota
	AddFact
	DeleteFact
	ViewFlags
	AddFlag
	DeleteFlag
)

func (a Action) String() string {
	switch a {
	case ViewFacts:
		return "view facts"
	case AddFact:
		return "add fact"
	case DeleteFact:
		return "delete fact"
	case ViewFlags:
		return "view flags"
	case AddFlag:
		return "add flag"
	case DeleteFlag:
		return "delete flag"
	default:
		return "unknown"
	}
}

// AuthzResult is the outcome of Authorize.
type AuthzResult int

const (
	// Allowed means the permission bit for the action is set.
	Allowed AuthzResult = iota
	// NoPermissionsAtAll means every bit of the action's domain (facts or flags) is unset.
	NoPermissionsAtAll
	// MissingSpecificPermission means other bits of the domain are set, but not this one.
	MissingSpecificPermission
)

// keyMatches compares two keys in constant time. Both sides are hashed
// first so that the comparison does not return early on a length mismatch.
func keyMatches(candidate, key string) bool {
	c := sha256.Sum256([]byte(candidate))
	k := sha256.Sum256([]byte(key))
	return subtle.ConstantTimeCompare(c[:], k[:]) == 1
}

// MatchAdmin returns the first admin whose key equals candidate.
func MatchAdmin(candidate string, admins []models.Admin) (*models.Admin, bool) {
	for i := range admins {
		if keyMatches(candidate, admins[i].Key) {
			return &admins[i], true
		}
	}
	return nil, false
}

// MatchFlagger returns the first flagger whose key equals candidate.
func MatchFlagger(candidate string, flaggers []models.Flagger) (*models.Flagger, bool) {
	for i := range flaggers {
		if keyMatches(candidate, flaggers[i].Key) {
			return &flaggers[i], true
		}
	}
	return nil, false
}

// Authorize decides whether perms allow action.
func Authorize(perms models.Perms, action Action) AuthzResult {
	var granted, anyInDomain bool

	switch action {
	case ViewFacts, AddFact, DeleteFact:
		anyInDomain = perms.ViewFacts || perms.AddFact || perms.DeleteFact
	case ViewFlags, AddFlag, DeleteFlag:
		anyInDomain = perms.ViewFlags || perms.AddFlag || perms.DeleteFlag
	}

	switch action {
	case ViewFacts:
		granted = perms.ViewFacts
	case AddFact:
		granted = perms.AddFact
	case DeleteFact:
		granted = perms.DeleteFact
	case ViewFlags:
		granted = perms.ViewFlags
	case AddFlag:
		granted = perms.AddFlag
	case DeleteFlag:
		granted = perms.DeleteFlag
	}

	switch {
	case granted:
		return Allowed
	case !anyInDomain:
		return NoPermissionsAtAll
	default:
		return MissingSpecificPermission
	}
}
