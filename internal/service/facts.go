package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/AnimalFacts/internal/config"
	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/atinyakov/AnimalFacts/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FactRepository defines the fact list operations required by the Service.
type FactRepository interface {
	// Loaded reports whether the animal has a fact list.
	Loaded(animal models.Animal) bool
	// Random returns a uniformly chosen fact.
	Random(animal models.Animal) (models.Fact, error)
	// List returns every fact of the animal.
	List(animal models.Animal) ([]models.Fact, error)
	// Count returns the number of facts of the animal.
	Count(animal models.Animal) int
	// Contains reports whether a fact with id exists.
	Contains(animal models.Animal, id uint64) bool
	// Insert adds a fact and persists the list.
	Insert(animal models.Animal, content string) (models.Fact, error)
	// Remove deletes a fact and persists the list.
	Remove(animal models.Animal, id uint64) (models.Fact, error)
}

// FlagRepository defines the flag list operations required by the Service.
type FlagRepository interface {
	Loaded() bool
	List() ([]models.FactFlag, error)
	Count() int
	Insert(animal models.Animal, factID uint64, reason *string, flagger string, exists repository.FactExists) (models.FactFlag, error)
	Remove(id uint64) (models.FactFlag, error)
}

// AuditRecorder stores moderation events.
type AuditRecorder interface {
	Record(ctx context.Context, e models.AuditEntry) error
}

// MetricsRecorder receives list sizes and served facts.
type MetricsRecorder interface {
	SetFactCount(animal models.Animal, n int)
	SetFlagCount(n int)
	FactServed(animal models.Animal)
}

// DefaultAuditTimeout is used when the config does not set audit.timeout.
const DefaultAuditTimeout = 2 * time.Second

// NopAudit discards audit entries. It is used when no audit database is configured.
type NopAudit struct{}

// Record implements AuditRecorder.
func (NopAudit) Record(context.Context, models.AuditEntry) error { return nil }

// AdminAction is the operation selected by the last path segment of an admin route.
type AdminAction int

const (
	ActionAdd AdminAction = iota
	ActionDelete
	ActionView
)

func (a AdminAction) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionView:
		return "view"
	default:
		return "add"
	}
}

// ParseAction maps ".../list" to view, ".../delete" to delete and anything else to add.
func ParseAction(path string) AdminAction {
	path = strings.TrimSuffix(path, "/")
	switch {
	case strings.HasSuffix(path, "list"):
		return ActionView
	case strings.HasSuffix(path, "delete"):
		return ActionDelete
	default:
		return ActionAdd
	}
}

// Result is the outcome of a Service operation, ready to be written by a handler.
type Result struct {
	// Status is the HTTP status code.
	Status int
	// Body is encoded as JSON. A nil Body means an empty response.
	Body any
}

func respond(r models.Response) Result {
	return Result{Status: r.Code, Body: r}
}

// Service authenticates and authorizes requests and dispatches them to the stores.
type Service struct {
	admins          []models.Admin
	flaggers        []models.Flagger
	flaggingEnabled bool

	facts   FactRepository
	flags   FlagRepository
	audit   AuditRecorder
	metrics MetricsRecorder
	log     *zap.Logger

	// auditTimeout bounds each audit write.
	auditTimeout time.Duration
}

// NewService constructs a Service. Principals and the flagging switch are
// taken from cfg; the stores, audit sink and metrics are injected.
func NewService(
	cfg *config.Config,
	facts FactRepository,
	flags FlagRepository,
	audit AuditRecorder,
	metrics MetricsRecorder,
	log *zap.Logger,
) *Service {
	if audit == nil {
		audit = NopAudit{}
	}
	auditTimeout := time.Duration(cfg.Audit.Timeout)
	if auditTimeout <= 0 {
		auditTimeout = DefaultAuditTimeout
	}
	s := &Service{
		admins:          cfg.Admins,
		flaggers:        cfg.Flaggers,
		flaggingEnabled: cfg.FlaggingEnabled,
		facts:           facts,
		flags:           flags,
		audit:           audit,
		metrics:         metrics,
		auditTimeout:    auditTimeout,
		log:             log,
	}

	for _, animal := range models.Animals {
		metrics.SetFactCount(animal, facts.Count(animal))
	}
	metrics.SetFlagCount(flags.Count())

	return s
}

// FlaggingEnabled reports whether /flag and /admin/flag/* are served.
func (s *Service) FlaggingEnabled() bool {
	return s.flaggingEnabled
}

// RandomFact returns a random fact of the animal.
func (s *Service) RandomFact(animal models.Animal) Result {
	if !s.facts.Loaded(animal) {
		s.log.Warn("request for an unloaded fact list", zap.String("animal", string(animal)))
		return respond(models.RespNotLoaded)
	}

	fact, err := s.facts.Random(animal)
	if err != nil {
		return s.storeFailure(err)
	}

	s.metrics.FactServed(animal)
	return Result{Status: http.StatusOK, Body: fact}
}

// AdminFacts lists, adds or deletes facts on behalf of an admin.
func (s *Service) AdminFacts(ctx context.Context, action AdminAction, req models.AdminFactRequest) Result {
	var needed Action
	switch action {
	case ActionView:
		needed = ViewFacts
	case ActionDelete:
		needed = DeleteFact
	default:
		needed = AddFact
	}

	admin, denied, ok := s.authorizeAdmin(req.Key, needed)
	if !ok {
		return denied
	}

	if req.AnimalType == nil {
		return respond(models.RespNoTypeSupplied)
	}
	animal := *req.AnimalType
	if !s.facts.Loaded(animal) {
		s.log.Warn("admin request for an unloaded fact list",
			zap.String("admin", admin.Name), zap.String("animal", string(animal)))
		return respond(models.RespNotLoaded)
	}

	switch action {
	case ActionView:
		facts, err := s.facts.List(animal)
		if err != nil {
			return s.storeFailure(err)
		}
		return Result{Status: http.StatusOK, Body: facts}

	case ActionDelete:
		if req.FactID == nil {
			return respond(models.RespNoIDSupplied)
		}
		removed, err := s.facts.Remove(animal, *req.FactID)
		if err != nil && !errors.Is(err, repository.ErrPersist) {
			return s.storeFailure(err)
		}
		s.metrics.SetFactCount(animal, s.facts.Count(animal))

		// A failed write still leaves the removal live in memory.
		s.log.Info("fact removed",
			zap.String("admin", admin.Name), zap.String("animal", string(animal)), zap.Uint64("id", removed.ID))
		s.record(ctx, admin.Name, "delete", "fact", animal, removed.ID)
		if err != nil {
			return s.storeFailure(err)
		}
		return Result{Status: http.StatusNoContent}

	default:
		if req.FactContent == nil || *req.FactContent == "" {
			return respond(models.RespNoContent)
		}
		fact, err := s.facts.Insert(animal, *req.FactContent)
		if err != nil && !errors.Is(err, repository.ErrPersist) {
			return s.storeFailure(err)
		}
		s.metrics.SetFactCount(animal, s.facts.Count(animal))

		s.log.Info("fact added",
			zap.String("admin", admin.Name), zap.String("animal", string(animal)), zap.Uint64("id", fact.ID))
		s.record(ctx, admin.Name, "add", "fact", animal, fact.ID)
		if err != nil {
			return s.storeFailure(err)
		}
		return respond(models.FactAdded(animal, fact.ID))
	}
}

// AdminFlags lists, adds or deletes flags on behalf of an admin.
func (s *Service) AdminFlags(ctx context.Context, action AdminAction, req models.AdminFlagRequest) Result {
	if !s.flaggingEnabled {
		return respond(models.RespNotLoaded)
	}

	var needed Action
	switch action {
	case ActionView:
		needed = ViewFlags
	case ActionDelete:
		needed = DeleteFlag
	default:
		needed = AddFlag
	}

	admin, denied, ok := s.authorizeAdmin(req.Key, needed)
	if !ok {
		return denied
	}

	if !s.flags.Loaded() {
		s.log.Warn("admin flag request while the flag list is not loaded", zap.String("admin", admin.Name))
		return respond(models.RespNotLoaded)
	}

	switch action {
	case ActionView:
		flags, err := s.flags.List()
		if err != nil {
			return s.storeFailure(err)
		}
		return Result{Status: http.StatusOK, Body: flags}

	case ActionDelete:
		if req.FlagID == nil {
			return respond(models.RespNoIDSupplied)
		}
		removed, err := s.flags.Remove(*req.FlagID)
		if err != nil && !errors.Is(err, repository.ErrPersist) {
			return s.storeFailure(err)
		}
		s.metrics.SetFlagCount(s.flags.Count())

		s.log.Info("flag removed", zap.String("admin", admin.Name), zap.Uint64("id", removed.ID))
		s.record(ctx, admin.Name, "delete", "flag", removed.FactType, removed.ID)
		if err != nil {
			return s.storeFailure(err)
		}
		return Result{Status: http.StatusNoContent}

	default:
		if req.FactType == nil {
			return respond(models.RespNoTypeSupplied)
		}
		if req.FactID == nil {
			return respond(models.RespNoIDSupplied)
		}
		return s.insertFlag(ctx, *req.FactType, *req.FactID, req.Reason, admin.Name)
	}
}

// SubmitFlag stores a flag raised through the public /flag endpoint.
// The flag is attributed to req.Flagger when present, even if empty,
// and to the flagger's location otherwise.
func (s *Service) SubmitFlag(ctx context.Context, req models.FactFlagRequest) Result {
	if !s.flaggingEnabled {
		return respond(models.RespNotLoaded)
	}

	flagger, ok := MatchFlagger(req.Key, s.flaggers)
	if !ok {
		s.log.Info("flag submitted with an invalid key")
		return respond(models.RespBadAuth)
	}

	if !s.flags.Loaded() {
		s.log.Warn("flag submitted while the flag list is not loaded", zap.String("flagger", flagger.Location))
		return respond(models.RespNotLoaded)
	}

	if req.FactType == nil {
		return respond(models.RespNoTypeSupplied)
	}
	if req.FactID == nil {
		return respond(models.RespNoIDSupplied)
	}

	label := flagger.Location
	if req.Flagger != nil {
		label = *req.Flagger
	}
	return s.insertFlag(ctx, *req.FactType, *req.FactID, req.Reason, label)
}

// insertFlag validates the target against the live fact list and stores the flag.
func (s *Service) insertFlag(ctx context.Context, animal models.Animal, factID uint64, reason *string, flagger string) Result {
	flag, err := s.flags.Insert(animal, factID, reason, flagger, s.facts.Contains)
	if err != nil && !errors.Is(err, repository.ErrPersist) {
		return s.storeFailure(err)
	}
	s.metrics.SetFlagCount(s.flags.Count())

	s.log.Info("flag added",
		zap.String("flagger", flagger),
		zap.Uint64("id", flag.ID),
		zap.String("animal", string(animal)),
		zap.Uint64("fact_id", factID),
	)
	s.record(ctx, flagger, "add", "flag", animal, flag.ID)
	if err != nil {
		return s.storeFailure(err)
	}
	return respond(models.FlagSet(flag.ID))
}

// authorizeAdmin resolves key to an admin allowed to perform action.
// Both kinds of denial produce the same response and are only told apart in the logs.
func (s *Service) authorizeAdmin(key string, action Action) (*models.Admin, Result, bool) {
	admin, ok := MatchAdmin(key, s.admins)
	if !ok {
		s.log.Info("admin request with an invalid key", zap.Stringer("action", action))
		return nil, respond(models.RespBadAuth), false
	}

	switch Authorize(admin.Permissions, action) {
	case Allowed:
		return admin, Result{}, true
	case NoPermissionsAtAll:
		s.log.Warn("admin attempted an action without any permissions",
			zap.String("admin", admin.Name), zap.Stringer("action", action))
	default:
		s.log.Warn("admin is missing the permission for an action",
			zap.String("admin", admin.Name), zap.Stringer("action", action))
	}
	return nil, respond(models.RespMissingPerms), false
}

// storeFailure maps store errors onto the response vocabulary.
func (s *Service) storeFailure(err error) Result {
	switch {
	case errors.Is(err, repository.ErrNotLoaded):
		return respond(models.RespNotLoaded)
	case errors.Is(err, repository.ErrNotFound):
		return respond(models.RespIDNotFound)
	default:
		s.log.Error("store operation failed", zap.Error(err))
		return respond(models.RespInternalFailure)
	}
}

func (s *Service) record(ctx context.Context, actor, action, resource string, animal models.Animal, id uint64) {
	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		Animal:    animal,
		TargetID:  id,
		CreatedAt: time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.auditTimeout)
	defer cancel()
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry", zap.Error(err), zap.String("actor", actor))
	}
}
