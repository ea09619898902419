package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"sync"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"go.uber.org/zap"
)

// FlagsFileName is the name of the flags file inside the facts directory.
const FlagsFileName = "fact_flags.json"

// FactExists reports whether a fact is currently stored.
type FactExists func(animal models.Animal, id uint64) bool

// FlagStore holds every fact flag behind a single lock.
type FlagStore struct {
	loaded bool
	path   string

	mu    sync.RWMutex
	flags []models.FactFlag
}

// LoadFlagStore reads <dir>/fact_flags.json when flagging is enabled.
//
// With flagging disabled, or when the file is missing, the returned store is
// not loaded and every operation fails with ErrNotLoaded.
func LoadFlagStore(dir string, enabled bool, log *zap.Logger) (*FlagStore, error) {
	path := filepath.Join(dir, FlagsFileName)
	s := &FlagStore{path: path}
	if !enabled {
		return s, nil
	}

	var flags []models.FactFlag
	if err := readJSONFile(path, &flags); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("flagging is enabled but the flags file couldn't be found", zap.String("path", path))
			return s, nil
		}
		return nil, fmt.Errorf("load flags: %w", err)
	}

	if flags == nil {
		flags = []models.FactFlag{}
	}
	s.flags = flags
	s.loaded = true
	log.Info("flags loaded", zap.Int("count", len(flags)))

	return s, nil
}

// Loaded reports whether flagging is available.
func (s *FlagStore) Loaded() bool {
	return s.loaded
}

// List returns a copy of every flag in storage order.
func (s *FlagStore) List() ([]models.FactFlag, error) {
	if !s.loaded {
		return nil, fmt.Errorf("flags: %w", ErrNotLoaded)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.flags), nil
}

// Count returns the number of stored flags.
func (s *FlagStore) Count() int {
	if !s.loaded {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags)
}

// Insert stores a new flag against (animal, factID) and rewrites the flags file.
//
// exists is consulted under the flag write lock; when it reports the fact as
// missing ErrNotFound is returned and nothing changes.
func (s *FlagStore) Insert(
	animal models.Animal,
	factID uint64,
	reason *string,
	flagger string,
	exists FactExists,
) (models.FactFlag, error) {
	if !s.loaded {
		return models.FactFlag{}, fmt.Errorf("flags: %w", ErrNotLoaded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !exists(animal, factID) {
		return models.FactFlag{}, fmt.Errorf("%s fact %d: %w", animal, factID, ErrNotFound)
	}

	flag := models.FactFlag{
		ID:       s.newID(),
		FactType: animal,
		FactID:   factID,
		Reason:   reason,
		Flagger:  flagger,
	}
	s.flags = append(s.flags, flag)

	return flag, writeJSONFile(s.path, s.flags)
}

// Remove deletes the flag with id and rewrites the flags file.
// When no flag matches, ErrNotFound is returned and nothing is written.
func (s *FlagStore) Remove(id uint64) (models.FactFlag, error) {
	if !s.loaded {
		return models.FactFlag{}, fmt.Errorf("flags: %w", ErrNotLoaded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.FactFlag{}, fmt.Errorf("flag %d: %w", id, ErrNotFound)
	}

	removed := s.flags[i]
	s.flags = slices.Delete(s.flags, i, i+1)

	return removed, writeJSONFile(s.path, s.flags)
}

func (s *FlagStore) index(id uint64) int {
	return slices.IndexFunc(s.flags, func(f models.FactFlag) bool { return f.ID == id })
}

func (s *FlagStore) newID() uint64 {
	for {
		id := rand.Uint64()
		if s.index(id) < 0 {
			return id
		}
	}
}
