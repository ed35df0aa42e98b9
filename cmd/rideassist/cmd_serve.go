// README: serve runs the HTTP API until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httptransport "rideassist/internal/http"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			router := httptransport.NewRouter(httptransport.RouterDeps{
				Profiles:      a.profiles,
				Bookings:      a.bookings,
				Cancellations: a.cancellations,
				Assistant:     a.assistant,
				Interpreter:   a.interpreter(nil),
			})
			server := httptransport.NewServer(c.cfg.HTTP.Addr, router)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(server.ListenAndServe)
			g.Go(func() error {
				<-gctx.Done()
				return server.Shutdown(context.Background())
			})
			return g.Wait()
		},
	}
}
