// README: cancellations lists adjudicated records and corrects a decision label.
package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rideassist/internal/modules/cancellation"
	"rideassist/internal/types"
)

func (c *cli) cancellationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancellations",
		Short: "Inspect and correct cancellation records",
	}

	var rider, driver string
	list := &cobra.Command{
		Use:   "list",
		Short: "List cancellations for a rider or a driver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (rider == "") == (driver == "") {
				return errors.New("exactly one of --rider or --driver is required")
			}
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var records []cancellation.Record
			if rider != "" {
				records, err = a.cancellations.ListByRider(cmd.Context(), types.ID(rider))
			} else {
				records, err = a.cancellations.ListByDriver(cmd.Context(), types.ID(driver))
			}
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	list.Flags().StringVar(&rider, "rider", "", "rider id")
	list.Flags().StringVar(&driver, "driver", "", "driver id")

	setDecision := &cobra.Command{
		Use:   "set-decision <cancellation-id> <decision>",
		Short: `Correct a decision ("fee waived", "base fee" or "base + variable fee")`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			rec, err := a.cancellations.UpdateDecision(cmd.Context(), types.ID(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: decision is now %s\n", rec.ID, rec.Decision)
			return nil
		},
	}

	cmd.AddCommand(list, setDecision)
	return cmd
}

func printRecords(w io.Writer, records []cancellation.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no cancellations")
		return
	}
	for _, r := range records {
		how := r.Rule
		if how == "" {
			how = "model " + string(r.Model)
		}
		fmt.Fprintf(w, "%s  booking=%s  by=%s  decision=%q  via=%s  at=%s\n",
			r.ID, r.BookingID, r.CancelledBy, r.Decision, how, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}
