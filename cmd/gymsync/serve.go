package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Ryan-Har/gymsync"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r := chi.NewRouter()
			r.Use(chimiddleware.RealIP)
			r.Use(chimiddleware.Recoverer)

			app, err := c.open(ctx, gymsync.WithRouter(r))
			if err != nil {
				return err
			}
			defer app.Close()

			ln, err := net.Listen("tcp", c.cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", c.cfg.ListenAddr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gymsync UI on http://%s (backend %s)\n", ln.Addr(), c.cfg.BackendURL)
			return serveUntilDone(ctx, &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}, ln)
		},
	}
	cmd.Flags().String("listen", "", "address for the web UI")
	_ = c.v.BindPFlag("listen_addr", cmd.Flags().Lookup("listen"))
	return cmd
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
