package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"health-monitor/entities"
	"health-monitor/repositories"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every user and every stored reading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			users, err := repositories.NewUserSQLRepository(database).GetAll(ctx)
			if err != nil {
				return err
			}
			readings, err := repositories.NewHealthDataSQLRepository(database).GetAll(ctx)
			if err != nil {
				return err
			}
			return writeDump(cmd.OutOrStdout(), users, readings)
		},
	}
}

func writeDump(out io.Writer, users []entities.User, readings []entities.HealthData) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Users")
	fmt.Fprintln(tw, "ID\tUSERNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\n", u.ID, u.Username)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Health data")
	fmt.Fprintln(tw, "ID\tUSER\tPULSE\tBLOOD PRESSURE\tWEIGHT\tACTIVITY\tRECOMMENDATION")
	for _, r := range readings {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%.1f\t%s\t%s\n", r.ID, r.UserID, r.Pulse, r.BloodPressure, r.Weight, r.ActivityLevel, r.Recommendation)
	}
	return tw.Flush()
}
