// README: Entry point; cobra root command loads .env, config and logging for every subcommand.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"rideassist/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

type cli struct {
	cfg config.Config
	// logOut receives slog output; stderr unless a test swaps it.
	logOut io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{logOut: os.Stderr}
	root := &cobra.Command{
		Use:          "rideassist",
		Short:        "Ride booking assistant with cancellation fee adjudication",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine; real environment variables win.
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			slog.SetDefault(slog.New(slog.NewTextHandler(c.logOut, &slog.HandlerOptions{Level: cfg.LogLevel})))
			return nil
		},
	}
	root.Version = version
	root.AddCommand(c.chatCmd(), c.serveCmd(), c.registerCmd(), c.cancellationsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
