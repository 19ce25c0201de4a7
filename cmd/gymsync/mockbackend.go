package main

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Ryan-Har/gymsync/internal/fakeapi"
	"github.com/spf13/cobra"
)

func newMockBackendCmd(c *cli) *cobra.Command {
	var (
		addr  string
		seeds []string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run an in-process workout backend for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := fakeapi.New(
				fakeapi.WithLogger(c.slogLogger()),
				fakeapi.WithTokenTTL(ttl),
			)
			for _, seed := range seeds {
				username, pass, ok := strings.Cut(seed, ":")
				if !ok {
					return fmt.Errorf("seed user %q must be username:password", seed)
				}
				if _, err := srv.AddUser(username, pass); err != nil {
					return fmt.Errorf("seed user %s: %w", username, err)
				}
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mock backend on http://%s\n", ln.Addr())
			return serveUntilDone(cmd.Context(), &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringSliceVar(&seeds, "user", nil, "seed a user as username:password (repeatable)")
	cmd.Flags().DurationVar(&ttl, "token-ttl", fakeapi.DefaultTokenTTL, "lifetime of issued tokens")
	return cmd
}
