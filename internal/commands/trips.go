package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/residency-counter/internal/residency"
	"github.com/klabast/wb-services/residency-counter/internal/store"
)

func (c *cli) addCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "add START END LOCATION",
		Short: "Record a trip",
		Long: `Records a trip from START to END (inclusive, YYYY-MM-DD) at LOCATION
(france, us or other).`,
		Example: "  residency-counter add 2025-01-01 2025-01-10 france --notes Paris",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := residency.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", args[0])
			}
			end, err := residency.ParseDate(args[1])
			if err != nil {
				return fmt.Errorf("invalid end date %q (expected YYYY-MM-DD)", args[1])
			}
			loc, err := residency.ParseLocation(args[2])
			if err != nil {
				return err
			}

			return c.withStore(func(s *store.TripStore) error {
				trip, err := s.Add(residency.Trip{StartDate: start, EndDate: end, Location: loc, Notes: notes})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added trip %d: %s to %s, %s (%d days)\n",
					trip.ID, trip.StartDate, trip.EndDate, trip.Location.Label(), trip.Days())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trips sorted by start date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(func(s *store.TripStore) error {
				trips := s.Trips()
				if len(trips) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No trips recorded")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTART\tEND\tLOCATION\tDAYS\tNOTES")
				for _, t := range trips {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", t.ID, t.StartDate, t.EndDate, t.Location, t.Days(), t.Notes)
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a trip by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid trip id %q", args[0])
			}
			return c.withStore(func(s *store.TripStore) error {
				if !s.Remove(id) {
					return fmt.Errorf("trip %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed trip %d\n", id)
				return nil
			})
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all trips without --yes")
			}
			return c.withStore(func(s *store.TripStore) error {
				n := s.Len()
				s.Clear()
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d trips\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting every trip")
	return cmd
}
