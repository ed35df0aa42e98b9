// README: register rider|driver creates profiles from flags.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

type registerFlags struct {
	id            string
	password      string
	rating        float64
	rides         int
	cancellations int
}

func (f *registerFlags) bind(cmd *cobra.Command, withPassword bool) {
	cmd.Flags().StringVar(&f.id, "id", "", "profile id (up to 10 characters)")
	cmd.Flags().Float64Var(&f.rating, "rating", profile.DefaultRating, "rating between 0 and 5")
	cmd.Flags().IntVar(&f.rides, "rides", 0, "rides booked (rider) or accepted (driver) so far")
	cmd.Flags().IntVar(&f.cancellations, "cancellations", 0, "prior cancellations")
	_ = cmd.MarkFlagRequired("id")
	if withPassword {
		cmd.Flags().StringVar(&f.password, "password", "", "login password (at least 8 characters)")
		_ = cmd.MarkFlagRequired("password")
	}
}

func (c *cli) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a rider or driver",
	}

	var rf registerFlags
	rider := &cobra.Command{
		Use:   "rider",
		Short: "Register a rider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			r, err := a.profiles.RegisterRider(cmd.Context(), profile.RegisterRiderCommand{
				ID:                 types.ID(rf.id),
				Password:           rf.password,
				Rating:             &rf.rating,
				TotalRidesBooked:   rf.rides,
				PriorCancellations: rf.cancellations,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rider %s registered (cancellation rate %.1f%%)\n", r.ID, r.CancellationRate)
			return nil
		},
	}
	rf.bind(rider, true)

	var df registerFlags
	driver := &cobra.Command{
		Use:   "driver",
		Short: "Register a driver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			d, err := a.profiles.RegisterDriver(cmd.Context(), profile.RegisterDriverCommand{
				ID:                 types.ID(df.id),
				Rating:             &df.rating,
				TotalRidesAccepted: df.rides,
				PriorCancellations: df.cancellations,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "driver %s registered (cancellation rate %.1f%%)\n", d.ID, d.CancellationRate)
			return nil
		},
	}
	df.bind(driver, false)

	cmd.AddCommand(rider, driver)
	return cmd
}
