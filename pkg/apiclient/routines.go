package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ryan-Har/gymsync/pkg/models"
)

// ListRoutines returns the caller's routines with their workout summaries.
func (c *Client) ListRoutines(ctx context.Context) ([]models.Routine, error) {
	var routines []models.Routine
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/routines/",
		route:  "/routines/",
		authed: true,
	}, &routines)
	if err != nil {
		return nil, err
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	return routines, nil
}

func (c *Client) CreateRoutine(ctx context.Context, params models.CreateRoutineParams) (models.Routine, error) {
	if params.Workouts == nil {
		params.Workouts = []int64{}
	}
	var r models.Routine
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/routines/",
		route:  "/routines/",
		body:   params,
		authed: true,
	}, &r)
	return r, err
}

// DeleteRoutine removes a routine. A routine that is already gone is not an error.
func (c *Client) DeleteRoutine(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/routines/",
		route:      "/routines/",
		query:      url.Values{"routine_id": {strconv.FormatInt(id, 10)}},
		authed:     true,
		notFoundOK: true,
	}, nil)
}
