package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/checkins"
	"github.com/example/seatsniper/internal/migrate"
)

func newCheckinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Manage scheduled check-ins",
	}
	cmd.AddCommand(newCheckinScheduleCmd())
	cmd.AddCommand(newCheckinListCmd())
	cmd.AddCommand(newCheckinCancelCmd())
	return cmd
}

func newCheckinScheduleCmd() *cobra.Command {
	var (
		date  string
		clock string
		code  string
	)

	c := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule an automatic check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}

			id, err := checkins.NewRepo(d, cfg.FacilityTZ).Schedule(ctx, date, clock, code)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "scheduled checkin id=%d (runs %s after the chosen moment)\n", id, checkins.GraceOffset)
			return nil
		},
	}

	c.Flags().StringVar(&date, "date", "", "check-in date YYYY-MM-DD")
	c.Flags().StringVar(&clock, "time", "", "check-in start HH:MM (facility local)")
	c.Flags().StringVar(&code, "code", "", "check-in code")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	_ = c.MarkFlagRequired("code")
	return c
}

func newCheckinListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List scheduled check-ins",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			list, err := checkins.NewRepo(d, cfg.FacilityTZ).List(ctx, status, limit)
			if err != nil {
				return err
			}
			for _, ci := range list {
				line := fmt.Sprintf("id=%d run_at=%s status=%s", ci.ID, ci.RunAt.Format(time.RFC3339), ci.Status)
				if ci.Error != nil {
					line += fmt.Sprintf(" error=%q", *ci.Error)
				}
				fmt.Fprintln(os.Stdout, line)
			}
			return nil
		},
	}

	c.Flags().StringVar(&status, "status", "", "filter by status (pending|running|done|failed|cancelled)")
	c.Flags().IntVar(&limit, "limit", 50, "max rows")
	return c
}

func newCheckinCancelCmd() *cobra.Command {
	var id int64

	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a still-pending check-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			ok, err := checkins.NewRepo(d, cfg.FacilityTZ).Cancel(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(os.Stdout, "checkin %d was not pending; nothing cancelled\n", id)
				return nil
			}
			fmt.Fprintf(os.Stdout, "cancelled checkin %d\n", id)
			return nil
		},
	}

	c.Flags().Int64Var(&id, "id", 0, "checkin id")
	_ = c.MarkFlagRequired("id")
	return c
}
