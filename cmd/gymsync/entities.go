package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Ryan-Har/gymsync"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/spf13/cobra"
)

// loaded returns the snapshot once the initial fetch is done. A collection
// that never loaded is an error; a failure of the other one is printed as a
// warning so what did load is still shown.
func loaded(cmd *cobra.Command, app *gymsync.App, workouts bool) (controller.Snapshot, error) {
	snap := app.Controller.Snapshot()
	ok := snap.RoutinesLoaded
	if workouts {
		ok = snap.WorkoutsLoaded
	}
	if !ok {
		if snap.LastError != "" {
			return snap, errors.New(snap.LastError)
		}
		return snap, errors.New(controller.MsgLoadFailed)
	}
	if snap.LastError != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", snap.LastError)
	}
	return snap, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newWorkoutsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workouts",
		Aliases: []string{"workout", "w"},
		Short:   "List, show, add and remove workouts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.protected(cmd, func(_ context.Context, app *gymsync.App, _ models.Identity) error {
				snap, err := loaded(cmd, app, true)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
				for _, w := range snap.Workouts {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", w.ID, w.Name, w.Description)
				}
				return tw.Flush()
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a workout as the backend stores it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.protected(cmd, func(ctx context.Context, app *gymsync.App, _ models.Identity) error {
				w, err := app.Backend.GetWorkout(ctx, id)
				var be *models.BackendError
				if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
					return fmt.Errorf("workout %d not found", id)
				}
				if err != nil {
					return userError(err, controller.MsgLoadFailed)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "id:          %d\n", w.ID)
				fmt.Fprintf(out, "name:        %s\n", w.Name)
				fmt.Fprintf(out, "description: %s\n", w.Description)
				return nil
			})
		},
	}

	var description string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a workout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.protected(cmd, func(ctx context.Context, app *gymsync.App, _ models.Identity) error {
				w, err := app.Controller.CreateWorkout(ctx, strings.Join(args, " "), description)
				if err != nil {
					return userError(err, controller.MsgCreateWorkoutFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created workout %d %q\n", w.ID, w.Name)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "workout description")

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a workout",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.protected(cmd, func(ctx context.Context, app *gymsync.App, _ models.Identity) error {
				if err := app.Controller.DeleteWorkout(ctx, id); err != nil {
					return userError(err, controller.MsgDeleteWorkoutFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted workout %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(list, show, add, rm)
	return cmd
}

func newRoutinesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routines",
		Aliases: []string{"routine", "r"},
		Short:   "List, add and remove routines",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your routines with their workouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.protected(cmd, func(_ context.Context, app *gymsync.App, _ models.Identity) error {
				snap, err := loaded(cmd, app, false)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tWORKOUTS")
				for _, r := range snap.Routines {
					names := make([]string, 0, len(r.Workouts))
					for _, w := range r.Workouts {
						names = append(names, w.Name)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", r.ID, r.Name, strings.Join(names, ", "))
				}
				return tw.Flush()
			})
		},
	}

	var (
		description string
		workoutIDs  []int64
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a routine from existing workouts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.protected(cmd, func(ctx context.Context, app *gymsync.App, _ models.Identity) error {
				// select first so unknown ids are refused before anything is sent
				seen := make(map[int64]bool, len(workoutIDs))
				for _, id := range workoutIDs {
					if seen[id] {
						continue
					}
					seen[id] = true
					if _, err := app.Controller.ToggleSelection(id); err != nil {
						return userError(err, controller.MsgSelectFailed)
					}
				}
				r, err := app.Controller.ComposeRoutine(ctx, strings.Join(args, " "), description)
				if err != nil {
					return userError(err, controller.MsgCreateRoutineFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created routine %d %q with %d workout(s)\n", r.ID, r.Name, len(r.Workouts))
				return nil
			})
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "routine description")
	add.Flags().Int64SliceVarP(&workoutIDs, "workout", "w", nil, "workout id to include (repeatable)")

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a routine",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.protected(cmd, func(ctx context.Context, app *gymsync.App, _ models.Identity) error {
				if err := app.Controller.DeleteRoutine(ctx, id); err != nil {
					return userError(err, controller.MsgDeleteRoutineFailed)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted routine %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}
