package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Ryan-Har/gymsync"
	"github.com/Ryan-Har/gymsync/internal/config"
	"github.com/Ryan-Har/gymsync/internal/logutil"
	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/enforcer"
	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries what every command needs once flags and config are resolved.
type cli struct {
	v      *viper.Viper
	cfg    *config.Config
	logger logr.Logger
}

var errNotLoggedIn = errors.New("not logged in, run `gymsync login` first")

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:           "gymsync",
		Short:         "Client for the workout and routine backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ./gymsync.yaml or <user config dir>/gymsync/gymsync.yaml)")
	flags.String("backend-url", "", "workout backend base URL")
	flags.String("token-db", "", "SQLite file holding the session token")
	flags.Bool("in-memory", false, "do not persist the session token")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	for key, flag := range map[string]string{
		"config":          "config",
		"backend_url":     "backend-url",
		"token_db":        "token-db",
		"request_timeout": "timeout",
		"log_level":       "log-level",
		"log_format":      "log-format",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newServeCmd(c),
		newRegisterCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newStatusCmd(c),
		newWorkoutsCmd(c),
		newRoutinesCmd(c),
		newMockBackendCmd(c),
	)
	return root
}

// load resolves configuration and builds the logger.
func (c *cli) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	if inMemory, _ := cmd.Flags().GetBool("in-memory"); inMemory {
		cfg.TokenDB = ""
	}
	c.cfg = cfg

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	handler, err := logutil.NewHandler(cmd.ErrOrStderr(), cfg.LogFormat, level)
	if err != nil {
		return err
	}
	c.logger = logr.FromSlogHandler(handler)
	return nil
}

func (c *cli) slogLogger() *slog.Logger {
	return slog.New(logr.ToSlogHandler(c.logger))
}

// open builds the app and restores any persisted session.
func (c *cli) open(ctx context.Context, opts ...gymsync.Option) (*gymsync.App, error) {
	base := []gymsync.Option{
		gymsync.WithLogger(c.logger),
		gymsync.WithBackendURL(c.cfg.BackendURL),
		gymsync.WithRequestTimeout(c.cfg.RequestTimeout),
		gymsync.WithTokenDB(c.cfg.TokenDB),
	}
	app, err := gymsync.New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	app.Start(ctx)
	return app, nil
}

// protected runs fn only for a logged in session, after the initial fetch
// has finished.
func (c *cli) protected(cmd *cobra.Command, fn func(ctx context.Context, app *gymsync.App, id models.Identity) error) error {
	ctx := cmd.Context()
	app, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	_, err = enforcer.Guard(app.Session, func(ctx context.Context, id models.Identity) (struct{}, error) {
		app.Controller.Wait()
		return struct{}{}, fn(ctx, app, id)
	})(ctx)
	if errors.Is(err, models.ErrNotAuthenticated) {
		return errNotLoggedIn
	}
	return err
}

// userError turns err into the message the UI would show.
func userError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	return errors.New(controller.Describe(err, fallback))
}

// password returns the flag value or reads a line from stdin.
func password(cmd *cobra.Command, flag, prompt string) (string, error) {
	if p, _ := cmd.Flags().GetString(flag); p != "" {
		return p, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
