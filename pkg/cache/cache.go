// Package cache holds the authenticated user's Workouts and Routines.
//
// The cache only changes after the backend confirms a mutation; a failed
// request leaves it exactly as it was. Workouts and routines sit behind
// separate locks so a slow routine fetch never blocks a workout read.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Backend is the part of the REST client the cache uses.
type Backend interface {
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	CreateWorkout(ctx context.Context, params models.CreateWorkoutParams) (models.Workout, error)
	DeleteWorkout(ctx context.Context, id int64) error
	ListRoutines(ctx context.Context) ([]models.Routine, error)
	CreateRoutine(ctx context.Context, params models.CreateRoutineParams) (models.Routine, error)
	DeleteRoutine(ctx context.Context, id int64) error
}

type Cache struct {
	log     *slog.Logger
	backend Backend

	wmu      sync.RWMutex
	workouts []models.Workout

	rmu      sync.RWMutex
	routines []models.Routine

	pmu       sync.Mutex
	populated bool
	// set once a collection has been fetched at least once
	workoutsLoaded bool
	routinesLoaded bool
}

func New(backend Backend, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logutil.Discard()
	}
	c := &Cache{
		log:      logger.With("component", "cache"),
		backend:  backend,
		workouts: []models.Workout{},
		routines: []models.Routine{},
	}
	c.report()
	return c
}

// ListAll fetches both collections concurrently. Each result is applied on
// its own, so one failing fetch does not discard the other. The returned
// error joins one error per failed fetch.
func (c *Cache) ListAll(ctx context.Context) error {
	defer logutil.NewTimingLoggerContext(ctx, c.log, time.Now(), "fetched all entities")()

	var (
		g           errgroup.Group
		workouts    []models.Workout
		routines    []models.Routine
		workoutsErr error
		routinesErr error
	)
	g.Go(func() error {
		workouts, workoutsErr = c.backend.ListWorkouts(ctx)
		return nil
	})
	g.Go(func() error {
		routines, routinesErr = c.backend.ListRoutines(ctx)
		return nil
	})
	_ = g.Wait()

	if workoutsErr == nil {
		c.wmu.Lock()
		c.workouts = workouts
		c.wmu.Unlock()
	} else {
		workoutsErr = logutil.LogAndWrapErr(c.log, "failed to load workouts", workoutsErr)
	}
	if routinesErr == nil {
		c.rmu.Lock()
		c.routines = routines
		c.rmu.Unlock()
	} else {
		routinesErr = logutil.LogAndWrapErr(c.log, "failed to load routines", routinesErr)
	}

	c.pmu.Lock()
	c.populated = workoutsErr == nil && routinesErr == nil
	c.workoutsLoaded = c.workoutsLoaded || workoutsErr == nil
	c.routinesLoaded = c.routinesLoaded || routinesErr == nil
	c.pmu.Unlock()
	c.report()

	return errors.Join(workoutsErr, routinesErr)
}

// Loaded reports which collections have been fetched successfully at least once.
func (c *Cache) Loaded() (workouts, routines bool) {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return c.workoutsLoaded, c.routinesLoaded
}

// Populated reports whether the last ListAll loaded both collections.
func (c *Cache) Populated() bool {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return c.populated
}

// CreateWorkout validates locally, then appends the backend's record.
func (c *Cache) CreateWorkout(ctx context.Context, name, description string) (models.Workout, error) {
	name, err := models.ValidateEntity("Workout", name, description)
	if err != nil {
		return models.Workout{}, err
	}

	w, err := c.backend.CreateWorkout(ctx, models.CreateWorkoutParams{Name: name, Description: description})
	if err != nil {
		return models.Workout{}, logutil.LogAndWrapErr(c.log, "failed to create workout", err, "name", name)
	}

	c.wmu.Lock()
	c.workouts = append(c.workouts, w)
	c.wmu.Unlock()
	c.report()

	c.log.Debug("created workout", "id", w.ID)
	return w, nil
}

// DeleteWorkout removes the workout once the backend confirms. Routines that
// reference it are left as the backend last described them.
func (c *Cache) DeleteWorkout(ctx context.Context, id int64) error {
	if err := c.backend.DeleteWorkout(ctx, id); err != nil {
		return logutil.LogAndWrapErr(c.log, "failed to delete workout", err, "id", id)
	}

	c.wmu.Lock()
	c.workouts = slices.DeleteFunc(c.workouts, func(w models.Workout) bool { return w.ID == id })
	c.wmu.Unlock()
	c.report()

	c.log.Debug("deleted workout", "id", id)
	return nil
}

// CreateRoutine validates locally, drops repeated workout ids (first
// occurrence wins) and appends the backend's record.
func (c *Cache) CreateRoutine(ctx context.Context, name, description string, workoutIDs []int64) (models.Routine, error) {
	name, err := models.ValidateEntity("Routine", name, description)
	if err != nil {
		return models.Routine{}, err
	}

	r, err := c.backend.CreateRoutine(ctx, models.CreateRoutineParams{
		Name:        name,
		Description: description,
		Workouts:    dedupe(workoutIDs),
	})
	if err != nil {
		return models.Routine{}, logutil.LogAndWrapErr(c.log, "failed to create routine", err, "name", name)
	}

	c.rmu.Lock()
	c.routines = append(c.routines, r)
	c.rmu.Unlock()
	c.report()

	c.log.Debug("created routine", "id", r.ID, "workouts", len(r.Workouts))
	return r, nil
}

func (c *Cache) DeleteRoutine(ctx context.Context, id int64) error {
	if err := c.backend.DeleteRoutine(ctx, id); err != nil {
		return logutil.LogAndWrapErr(c.log, "failed to delete routine", err, "id", id)
	}

	c.rmu.Lock()
	c.routines = slices.DeleteFunc(c.routines, func(r models.Routine) bool { return r.ID == id })
	c.rmu.Unlock()
	c.report()

	c.log.Debug("deleted routine", "id", id)
	return nil
}

// Workouts returns a copy of the workouts in order.
func (c *Cache) Workouts() []models.Workout {
	c.wmu.RLock()
	defer c.wmu.RUnlock()
	return slices.Clone(c.workouts)
}

// Routines returns a deep copy of the routines in order.
func (c *Cache) Routines() []models.Routine {
	c.rmu.RLock()
	defer c.rmu.RUnlock()
	out := make([]models.Routine, len(c.routines))
	for i, r := range c.routines {
		r.Workouts = slices.Clone(r.Workouts)
		out[i] = r
	}
	return out
}

func (c *Cache) Workout(id int64) (models.Workout, bool) {
	c.wmu.RLock()
	defer c.wmu.RUnlock()
	for _, w := range c.workouts {
		if w.ID == id {
			return w, true
		}
	}
	return models.Workout{}, false
}

func (c *Cache) Routine(id int64) (models.Routine, bool) {
	c.rmu.RLock()
	defer c.rmu.RUnlock()
	for _, r := range c.routines {
		if r.ID == id {
			r.Workouts = slices.Clone(r.Workouts)
			return r, true
		}
	}
	return models.Routine{}, false
}

// HasWorkout reports whether id names a cached workout.
func (c *Cache) HasWorkout(id int64) bool {
	_, ok := c.Workout(id)
	return ok
}

func (c *Cache) report() {
	c.wmu.RLock()
	nw := len(c.workouts)
	c.wmu.RUnlock()
	c.rmu.RLock()
	nr := len(c.routines)
	c.rmu.RUnlock()
	metrics.CachedEntities.WithLabelValues("workouts").Set(float64(nw))
	metrics.CachedEntities.WithLabelValues("routines").Set(float64(nr))
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
