// Package controller coordinates the session and the entity cache.
//
// It owns one cache per authenticated session, runs every backend operation
// under a single in-flight flag, and keeps the message of the last failure
// for whatever is rendering the state.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/internal/metrics"
	"github.com/Ryan-Har/gymsync/pkg/cache"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/Ryan-Har/gymsync/pkg/session"
	"golang.org/x/sync/singleflight"
)

// SessionSource is the part of the session store the controller watches.
type SessionSource interface {
	Subscribe(fn session.Observer) (unsubscribe func())
	Identity() (models.Identity, bool)
}

// Snapshot is a consistent copy of everything a renderer needs.
type Snapshot struct {
	Identity      models.Identity
	Authenticated bool
	InFlight      bool
	LastError     string
	Workouts      []models.Workout
	Routines      []models.Routine
	Selection     []int64
	Populated     bool

	WorkoutsLoaded bool
	RoutinesLoaded bool
}

type Controller struct {
	log     *slog.Logger
	sess    SessionSource
	backend cache.Backend

	mu       sync.Mutex
	baseCtx  context.Context
	gen      uint64
	identity models.Identity
	cache    *cache.Cache
	sel      *cache.Selection
	inFlight bool
	lastErr  string

	bg          sync.WaitGroup
	refresh     singleflight.Group
	unsubscribe func()
}

// New creates a controller. backend must already carry the session's
// credentials (see apiclient.Client.WithCredentials).
func New(sess SessionSource, backend cache.Backend, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &Controller{
		log:     logger.With("component", "controller"),
		sess:    sess,
		backend: backend,
		baseCtx: context.Background(),
	}
}

// Start subscribes to the session and, if a session is already held
// (restored from disk), begins its initial fetch. Background fetches use ctx.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	c.unsubscribe = c.sess.Subscribe(c.onTransition)

	if identity, ok := c.sess.Identity(); ok {
		c.mu.Lock()
		started := c.cache != nil
		c.mu.Unlock()
		if !started {
			c.beginSession(identity)
		}
	}
}

// Close stops following the session. In-flight fetches are not cancelled.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Wait blocks until background fetches started by session changes finish.
func (c *Controller) Wait() {
	c.bg.Wait()
}

func (c *Controller) onTransition(t session.Transition) {
	switch t.To {
	case session.Authenticated:
		c.beginSession(t.Identity)
	case session.Unauthenticated:
		c.endSession(t.Reason)
	}
}

// beginSession installs a fresh cache and starts the initial fetch.
func (c *Controller) beginSession(identity models.Identity) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	cc := cache.New(c.backend, c.log)
	c.cache = cc
	c.sel = cache.NewSelection(cc)
	c.identity = identity
	c.inFlight = true
	c.lastErr = ""
	ctx := c.baseCtx
	c.mu.Unlock()

	c.log.Info("session started, loading data", "username", identity.Username)

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer logutil.NewTimingLogger(c.log, time.Now(), "initial fetch", "username", identity.Username)()
		err := cc.ListAll(ctx)
		c.finish(gen, "initial_fetch", err, MsgLoadFailed)
	}()
}

// endSession drops everything owned by the session.
func (c *Controller) endSession(reason session.Reason) {
	c.mu.Lock()
	c.gen++
	c.cache = nil
	c.sel = nil
	c.identity = models.Identity{}
	c.inFlight = false
	if reason == session.ReasonRejected {
		c.lastErr = MsgSessionEnded
	} else {
		c.lastErr = ""
	}
	c.mu.Unlock()

	c.log.Info("session ended, cache dropped", "reason", reason)
}

// begin claims the in-flight flag for op. A busy controller returns
// ErrBusy without touching the last error.
func (c *Controller) begin(op string) (*cache.Cache, *cache.Selection, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		err := &models.BusyError{Op: op}
		metrics.ObserveSync(op, err)
		return nil, nil, 0, err
	}
	c.lastErr = ""
	if c.cache == nil {
		err := &models.NotAuthenticatedError{}
		c.lastErr = Describe(err, "")
		metrics.ObserveSync(op, err)
		return nil, nil, 0, err
	}
	c.inFlight = true
	return c.cache, c.sel, c.gen, nil
}

// finish releases the flag and records err, unless the session that started
// the operation is already gone.
func (c *Controller) finish(gen uint64, op string, err error, fallback string) {
	metrics.ObserveSync(op, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Debug("discarding result from ended session", "op", op)
		return
	}
	c.inFlight = false
	if err != nil {
		c.lastErr = Describe(err, fallback)
	}
}

// run executes fn under the in-flight flag.
func (c *Controller) run(op, fallback string, fn func(*cache.Cache, *cache.Selection) error) error {
	cc, sel, gen, err := c.begin(op)
	if err != nil {
		return err
	}
	err = fn(cc, sel)
	c.finish(gen, op, err, fallback)
	return err
}

// Refresh reloads both collections. Concurrent calls share one fetch.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		return nil, c.run("refresh", MsgLoadFailed, func(cc *cache.Cache, _ *cache.Selection) error {
			return cc.ListAll(ctx)
		})
	})
	return err
}

func (c *Controller) CreateWorkout(ctx context.Context, name, description string) (models.Workout, error) {
	var w models.Workout
	err := c.run("create_workout", MsgCreateWorkoutFailed, func(cc *cache.Cache, _ *cache.Selection) error {
		var err error
		w, err = cc.CreateWorkout(ctx, name, description)
		return err
	})
	return w, err
}

// DeleteWorkout also unselects the workout.
func (c *Controller) DeleteWorkout(ctx context.Context, id int64) error {
	return c.run("delete_workout", MsgDeleteWorkoutFailed, func(cc *cache.Cache, sel *cache.Selection) error {
		if err := cc.DeleteWorkout(ctx, id); err != nil {
			return err
		}
		sel.Prune()
		return nil
	})
}

// CreateRoutine creates a routine from explicit workout ids.
func (c *Controller) CreateRoutine(ctx context.Context, name, description string, workoutIDs []int64) (models.Routine, error) {
	var r models.Routine
	err := c.run("create_routine", MsgCreateRoutineFailed, func(cc *cache.Cache, _ *cache.Selection) error {
		var err error
		r, err = cc.CreateRoutine(ctx, name, description, workoutIDs)
		return err
	})
	return r, err
}

// ComposeRoutine creates a routine from the current selection and clears
// the selection once the backend accepts it.
func (c *Controller) ComposeRoutine(ctx context.Context, name, description string) (models.Routine, error) {
	var r models.Routine
	err := c.run("create_routine", MsgCreateRoutineFailed, func(cc *cache.Cache, sel *cache.Selection) error {
		var err error
		r, err = cc.CreateRoutine(ctx, name, description, sel.IDs())
		if err != nil {
			return err
		}
		sel.Clear()
		return nil
	})
	return r, err
}

func (c *Controller) DeleteRoutine(ctx context.Context, id int64) error {
	return c.run("delete_routine", MsgDeleteRoutineFailed, func(cc *cache.Cache, _ *cache.Selection) error {
		return cc.DeleteRoutine(ctx, id)
	})
}

// ToggleSelection flips id in the selection. It does not talk to the
// backend and so ignores the in-flight flag.
func (c *Controller) ToggleSelection(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastErr = ""
	if c.sel == nil {
		err := &models.NotAuthenticatedError{}
		c.lastErr = Describe(err, MsgSelectFailed)
		return false, err
	}
	on, err := c.sel.Toggle(id)
	if err != nil {
		c.lastErr = Describe(err, MsgSelectFailed)
	}
	return on, err
}

// LastError returns the message of the most recent failure, or "".
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Identity:      c.identity,
		Authenticated: c.cache != nil,
		InFlight:      c.inFlight,
		LastError:     c.lastErr,
	}
	cc, sel := c.cache, c.sel
	c.mu.Unlock()

	if cc == nil {
		return snap
	}
	snap.Workouts = cc.Workouts()
	snap.Routines = cc.Routines()
	snap.Populated = cc.Populated()
	snap.WorkoutsLoaded, snap.RoutinesLoaded = cc.Loaded()
	snap.Selection = sel.IDs()
	return snap
}
