package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/residency-counter/internal/residency"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

func (c *cli) statsCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-location day counts for a year and the rolling window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := c.today()
			if !cmd.Flags().Changed("year") {
				year = today.Year()
			}
			return c.withStore(func(s *store.TripStore) error {
				trips := s.Trips()
				printYearStats(cmd.OutOrStdout(), residency.YearStatsFor(trips, year, today))
				printRolling(cmd.OutOrStdout(), residency.RollingStats(trips, today))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Calendar year (default current year)")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the rolling window status and the next eligible entry date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := c.parseDateFlag(date)
			if err != nil {
				return err
			}
			return c.withStore(func(s *store.TripStore) error {
				banner := residency.BuildStatusBanner(s.Trips(), ref)
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", banner.Status, banner.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Reference date YYYY-MM-DD (default today)")
	return cmd
}

func printYearStats(w io.Writer, st residency.YearStats) {
	fmt.Fprintf(w, "Year %d (%d days counted)\n", st.Year, st.Days)
	fmt.Fprintf(w, "  %-10s %d\n", residency.France.Label(), st.France)
	fmt.Fprintf(w, "  %-10s %d\n", residency.US.Label(), st.US)
	fmt.Fprintf(w, "  %-10s %d\n", residency.Other.Label(), st.Other)
	fmt.Fprintf(w, "  %-10s %d\n", "Untracked", st.Untracked)
}

func printRolling(w io.Writer, r residency.RollingWindowStats) {
	fmt.Fprintf(w, "Rolling window %s to %s\n", r.WindowStart, r.WindowEnd)
	fmt.Fprintf(w, "  France days: %d\n", r.FranceDaysInWindow)
	fmt.Fprintf(w, "  Remaining:   %d\n", r.RemainingDays)
	fmt.Fprintf(w, "  Status:      %s\n", r.Status)
}
