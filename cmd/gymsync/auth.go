package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Ryan-Har/gymsync"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/spf13/cobra"
)

func newRegisterCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := password(cmd, "password", "Password: ")
			if err != nil {
				return err
			}
			confirm, _ := cmd.Flags().GetString("confirm")
			if confirm == "" {
				confirm = pass
			}

			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Session.Register(cmd.Context(), args[0], pass, confirm)
			if err != nil {
				return userError(err, controller.MsgRegisterFailed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringP("password", "p", "", "password (read from stdin when empty)")
	cmd.Flags().String("confirm", "", "password confirmation (defaults to --password)")
	return cmd
}

func newLoginCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := password(cmd, "password", "Password: ")
			if err != nil {
				return err
			}

			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Session.Login(cmd.Context(), args[0], pass); err != nil {
				return userError(err, controller.MsgLoginFailed)
			}
			id, _ := app.Session.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", id.Username)
			if c.cfg.InMemory() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no token database configured, the session ends with this command")
			}
			return nil
		},
	}
	cmd.Flags().StringP("password", "p", "", "password (read from stdin when empty)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			app.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.protected(cmd, func(_ context.Context, app *gymsync.App, id models.Identity) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", id.Username, id.UserID)
				if exp := app.Session.ExpiresAt(); !exp.IsZero() {
					fmt.Fprintf(cmd.OutOrStdout(), "token expires %s\n", exp.Local().Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the backend and the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			health, err := app.Client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "backend: %s unreachable\n", app.Client.BaseURL())
			} else {
				fmt.Fprintf(out, "backend: %s %s (%s)\n", app.Client.BaseURL(), health.Status, health.Message)
			}

			if id, ok := app.Session.Identity(); ok {
				fmt.Fprintf(out, "session: %s as %s\n", app.Session.State(), id.Username)
			} else {
				fmt.Fprintf(out, "session: %s\n", app.Session.State())
			}
			return userError(err, "backend unreachable")
		},
	}
}
