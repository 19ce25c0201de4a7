package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ryan-Har/gymsync/pkg/models"
)

// ListWorkouts returns the caller's workouts in backend order.
func (c *Client) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	var workouts []models.Workout
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/workouts/all",
		route:  "/workouts/all",
		authed: true,
	}, &workouts)
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []models.Workout{}
	}
	return workouts, nil
}

// GetWorkout fetches a single workout.
func (c *Client) GetWorkout(ctx context.Context, id int64) (models.Workout, error) {
	var w models.Workout
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/workouts/",
		route:  "/workouts/",
		query:  url.Values{"workout_id": {strconv.FormatInt(id, 10)}},
		authed: true,
	}, &w)
	return w, err
}

// CreateWorkout returns the canonical record the backend stored.
func (c *Client) CreateWorkout(ctx context.Context, params models.CreateWorkoutParams) (models.Workout, error) {
	var w models.Workout
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/workouts/",
		route:  "/workouts/",
		body:   params,
		authed: true,
	}, &w)
	return w, err
}

// DeleteWorkout removes a workout. A workout that is already gone is not an error.
func (c *Client) DeleteWorkout(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/workouts/",
		route:      "/workouts/",
		query:      url.Values{"workout_id": {strconv.FormatInt(id, 10)}},
		authed:     true,
		notFoundOK: true,
	}, nil)
}
