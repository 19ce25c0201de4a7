package cache

import (
	"fmt"
	"slices"
	"sync"
)

var ErrUnknownWorkout = &UnknownWorkoutError{}

// UnknownWorkoutError is returned when selecting an id the cache does not hold.
type UnknownWorkoutError struct {
	ID int64
}

func (e *UnknownWorkoutError) Error() string {
	return fmt.Sprintf("workout %d is not in the cache", e.ID)
}

func (e *UnknownWorkoutError) Is(target error) bool {
	_, ok := target.(*UnknownWorkoutError)
	return ok
}

// Selection is the set of workouts picked for the routine being composed.
// It keeps ids in the order they were picked.
type Selection struct {
	cache *Cache
	mu    sync.Mutex
	ids   []int64
}

func NewSelection(c *Cache) *Selection {
	return &Selection{cache: c}
}

// Toggle adds id if absent and removes it if present. It reports whether
// id is selected afterwards.
func (s *Selection) Toggle(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false, nil
	}
	if !s.cache.HasWorkout(id) {
		return false, &UnknownWorkoutError{ID: id}
	}
	s.ids = append(s.ids, id)
	return true, nil
}

// Select adds id. Selecting twice is a no-op.
func (s *Selection) Select(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.ids, id) {
		return nil
	}
	if !s.cache.HasWorkout(id) {
		return &UnknownWorkoutError{ID: id}
	}
	s.ids = append(s.ids, id)
	return nil
}

func (s *Selection) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, id)
}

// IDs returns the selected ids in pick order.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}

// Prune drops ids whose workout has left the cache.
func (s *Selection) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = slices.DeleteFunc(s.ids, func(id int64) bool { return !s.cache.HasWorkout(id) })
}
