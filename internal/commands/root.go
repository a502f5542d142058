// Package commands implements the residency-counter command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/residency-counter/internal/app"
	"github.com/klabast/wb-services/residency-counter/internal/log"
	"github.com/klabast/wb-services/residency-counter/internal/residency"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

// cli holds the state shared by all subcommands of one invocation
type cli struct {
	configFile string
	debug      bool
	cfg        app.Config
	today      func() residency.Date
}

// Execute runs the command line
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	c := &cli{today: residency.Today}

	root := &cobra.Command{
		Use:   "residency-counter",
		Short: "Track days spent in France against the 183-day rule",
		Long: `Records trips (France, US, other) and reports how many days fall
inside the rolling 183-day window ending today.

Configuration is read from an optional YAML file (--config) and the
environment (RC_PORT, RC_DEBUG, RC_WATCH, AUTH_FILE, RC_STORAGE_DRIVER,
RC_DATA_DIR, RC_DB_PATH).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(c.configFile)
			if err != nil {
				return err
			}
			if c.debug {
				cfg.Debug = true
			}
			c.cfg = cfg
			return log.Init(cfg.Debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		c.serveCmd(),
		c.addCmd(),
		c.listCmd(),
		c.removeCmd(),
		c.clearCmd(),
		c.statsCmd(),
		c.statusCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.hashPasswordCmd(),
	)

	return root
}

// withStore opens the configured store for the duration of fn
func (c *cli) withStore(fn func(s *store.TripStore) error) error {
	s, backend, err := app.OpenStore(c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warnw("failed to close storage", "error", err)
		}
	}()
	return fn(s)
}

// parseDateFlag parses an optional YYYY-MM-DD flag value, defaulting to today
func (c *cli) parseDateFlag(value string) (residency.Date, error) {
	if value == "" {
		return c.today(), nil
	}
	d, err := residency.ParseDate(value)
	if err != nil {
		return residency.Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return d, nil
}
