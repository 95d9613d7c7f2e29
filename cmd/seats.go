package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/availability"
)

func newSeatsCmd() *cobra.Command {
	var (
		start string
		end   string
	)

	c := &cobra.Command{
		Use:   "seats",
		Short: "List seats fully available across an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			startAt, err := time.ParseInLocation("2006-01-02 15:04", start, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --start (want \"YYYY-MM-DD HH:MM\")")
			}
			endAt, err := time.ParseInLocation("2006-01-02 15:04", end, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --end (want \"YYYY-MM-DD HH:MM\")")
			}

			seats, err := availability.NewEngine(d).FullyAvailable(ctx, startAt, endAt)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "%d seat(s) fully available from %s to %s\n", len(seats), start, end)
			for _, s := range seats {
				name := "(unnamed)"
				if s.Name != nil {
					name = *s.Name
				}
				fmt.Fprintf(os.Stdout, "seat=%d name=%q url=%s\n", s.ID, name, s.URL)
			}
			return nil
		},
	}

	c.Flags().StringVar(&start, "start", "", "interval start, facility wall clock \"YYYY-MM-DD HH:MM\"")
	c.Flags().StringVar(&end, "end", "", "interval end, facility wall clock \"YYYY-MM-DD HH:MM\"")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}
