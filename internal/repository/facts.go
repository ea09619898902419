package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"go.uber.org/zap"
)

// factList is the in-memory copy of one animal's facts file.
type factList struct {
	mu    sync.RWMutex
	path  string
	facts []models.Fact
}

// FactStore keeps one independently locked fact list per loaded animal kind.
// Kinds without a list are "not loaded" for the lifetime of the process.
type FactStore struct {
	lists map[models.Animal]*factList
}

// LoadFactStore reads <dir>/<animal>_facts.json for every requested animal.
//
// A missing or empty file leaves that animal unloaded and is logged as a warning.
// A file that cannot be decoded is returned as an error.
func LoadFactStore(dir string, animals []models.Animal, log *zap.Logger) (*FactStore, error) {
	s := &FactStore{lists: make(map[models.Animal]*factList, len(animals))}

	for _, animal := range animals {
		path := animal.FilePath(dir)

		var facts []models.Fact
		if err := readJSONFile(path, &facts); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn("facts file not found", zap.String("animal", string(animal)), zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("load %s facts: %w", animal, err)
		}

		if len(facts) == 0 {
			log.Warn("facts file is empty", zap.String("animal", string(animal)), zap.String("path", path))
			continue
		}

		s.lists[animal] = &factList{path: path, facts: facts}
		log.Info("facts loaded", zap.String("animal", string(animal)), zap.Int("count", len(facts)))
	}

	return s, nil
}

func (s *FactStore) list(animal models.Animal) (*factList, error) {
	l, ok := s.lists[animal]
	if !ok {
		return nil, fmt.Errorf("%s facts: %w", animal, ErrNotLoaded)
	}
	return l, nil
}

// Loaded reports whether the animal has a fact list.
func (s *FactStore) Loaded(animal models.Animal) bool {
	_, ok := s.lists[animal]
	return ok
}

// Animals returns the loaded animal kinds in their canonical order.
func (s *FactStore) Animals() []models.Animal {
	loaded := make([]models.Animal, 0, len(s.lists))
	for _, a := range models.Animals {
		if s.Loaded(a) {
			loaded = append(loaded, a)
		}
	}
	return loaded
}

// Random returns a uniformly chosen fact of the animal.
func (s *FactStore) Random(animal models.Animal) (models.Fact, error) {
	l, err := s.list(animal)
	if err != nil {
		return models.Fact{}, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	// Empty files are rejected at load, but admins may delete every fact.
	if len(l.facts) == 0 {
		return models.Fact{}, fmt.Errorf("%s facts are empty: %w", animal, ErrNotLoaded)
	}
	return l.facts[rand.IntN(len(l.facts))], nil
}

// List returns a copy of the animal's facts in storage order.
func (s *FactStore) List(animal models.Animal) ([]models.Fact, error) {
	l, err := s.list(animal)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.facts), nil
}

// Count returns the number of facts of the animal, or 0 if it is not loaded.
func (s *FactStore) Count(animal models.Animal) int {
	l, err := s.list(animal)
	if err != nil {
		return 0
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.facts)
}

// Contains reports whether the animal's list currently holds a fact with id.
func (s *FactStore) Contains(animal models.Animal, id uint64) bool {
	l, err := s.list(animal)
	if err != nil {
		return false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index(id) >= 0
}

// Insert appends a fact with a fresh random id and rewrites the facts file.
//
// On ErrPersist the fact is still part of the in-memory list and is returned.
func (s *FactStore) Insert(animal models.Animal, content string) (models.Fact, error) {
	l, err := s.list(animal)
	if err != nil {
		return models.Fact{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fact := models.Fact{ID: l.newID(), Content: content}
	l.facts = append(l.facts, fact)

	return fact, writeJSONFile(l.path, l.facts)
}

// Remove deletes the fact with id and rewrites the facts file.
// When no fact matches, ErrNotFound is returned and nothing is written.
func (s *FactStore) Remove(animal models.Animal, id uint64) (models.Fact, error) {
	l, err := s.list(animal)
	if err != nil {
		return models.Fact{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return models.Fact{}, fmt.Errorf("%s fact %d: %w", animal, id, ErrNotFound)
	}

	removed := l.facts[i]
	l.facts = slices.Delete(l.facts, i, i+1)

	return removed, writeJSONFile(l.path, l.facts)
}

func (l *factList) index(id uint64) int {
	return slices.IndexFunc(l.facts, func(f models.Fact) bool { return f.ID == id })
}

// newID must be called with the write lock held.
func (l *factList) newID() uint64 {
	for {
		id := rand.Uint64()
		if l.index(id) < 0 {
			return id
		}
	}
}
