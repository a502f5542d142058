package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/residency-counter/internal/app"
)

func (c *cli) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serves the trip API. Mutating routes require Basic Auth when an auth
file exists (see hash-password). With the file driver, external edits to
the data file are picked up while running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx, c.cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", app.DefaultPort, "Port to listen on")
	return cmd
}
