package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/migrate"
	"github.com/example/seatsniper/internal/slots"
)

func newFetchCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
	)

	c := &cobra.Command{
		Use:   "fetch",
		Short: "Pull current slot availability into the store",
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

			if startDate == "" {
				startDate = time.Now().In(cfg.FacilityTZ).Format("2006-01-02")
			}
			if endDate == "" {
				endDate = time.Now().In(cfg.FacilityTZ).AddDate(0, 0, 1).Format("2006-01-02")
			}

			pipeline := newPipeline(cfg, d, newClient(cfg))
			processed, failed, err := pipeline.Run(ctx, startDate, endDate,
				func(processed, total int, seatID int64, failed int) {
					fmt.Fprintf(os.Stdout, "[%d/%d] seat %d (failed so far: %d)\n", processed, total, seatID, failed)
				})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "done: processed=%d failed=%d\n", processed, failed)
			return nil
		},
	}

	c.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD (default today)")
	c.Flags().StringVar(&endDate, "end", "", "end date YYYY-MM-DD, exclusive (default tomorrow)")
	return c
}

func newSweepCmd() *cobra.Command {
	var before string

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Drop all timeslots starting before a cutoff date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if before == "" {
				before = time.Now().In(cfg.FacilityTZ).Format("2006-01-02")
			}
			cutoff, err := time.ParseInLocation("2006-01-02", before, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --before (want YYYY-MM-DD)")
			}

			deleted, err := slots.NewRepo(d).PurgeBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "deleted %d timeslot(s) before %s\n", deleted, before)
			return nil
		},
	}

	c.Flags().StringVar(&before, "before", "", "cutoff date YYYY-MM-DD (default today)")
	return c
}
