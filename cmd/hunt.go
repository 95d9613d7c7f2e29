package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/hunting"
	"github.com/example/seatsniper/internal/migrate"
	"github.com/example/seatsniper/internal/snipe"
)

func newHuntCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Control the hunting session",
	}
	cmd.AddCommand(newHuntStartCmd())
	cmd.AddCommand(newHuntStopCmd())
	cmd.AddCommand(newHuntStatusCmd())
	return cmd
}

func newHuntStartCmd() *cobra.Command {
	var (
		start     string
		end       string
		withPower bool
		noPower   bool
		areas     string
	)

	c := &cobra.Command{
		Use:   "start",
		Short: "Start hunting for a seat across an interval",
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

			startAt, err := time.ParseInLocation("2006-01-02 15:04", start, cfg.FacilityTZ)
			if err != nil {
				return fmt.Errorf("invalid --start (want \"YYYY-MM-DD HH:MM\")")
			}
			endAt, err := time.ParseInLocation("2006-01-02 15:04", end, cfg.FacilityTZ)
			if err != nil {
				return fmt.Errorf("invalid --end (want \"YYYY-MM-DD HH:MM\")")
			}

			if err := cfg.Profile.Validate(); err != nil {
				return err
			}

			p := hunting.Payload{
				Start: startAt,
				End:   endAt,
				Filter: snipe.Filter{
					Power: snipe.PowerChoice{WithPower: withPower, WithoutPower: noPower},
					Areas: splitCSV(areas),
				},
				Profile: cfg.Profile,
			}

			if err := hunting.NewRepo(d).Activate(ctx, p, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "hunting started: %s .. %s\n", start, end)
			return nil
		},
	}

	c.Flags().StringVar(&start, "start", "", "target interval start, facility local \"YYYY-MM-DD HH:MM\"")
	c.Flags().StringVar(&end, "end", "", "target interval end, facility local \"YYYY-MM-DD HH:MM\"")
	c.Flags().BoolVar(&withPower, "power", true, "accept seats with power")
	c.Flags().BoolVar(&noPower, "no-power", true, "accept seats without (or with unknown) power")
	c.Flags().StringVar(&areas, "areas", "", "comma-separated seat-name prefixes (empty = all areas)")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}

func newHuntStopCmd() *cobra.Command {
	var reason string

	c := &cobra.Command{
		Use:   "stop",
		Short: "Stop the hunting session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := hunting.NewRepo(d).Deactivate(ctx, time.Now(), reason); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "hunting stopped")
			return nil
		},
	}

	c.Flags().StringVar(&reason, "reason", "stopped by operator", "stop reason recorded on the session")
	return c
}

func newHuntStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the hunting session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			st, err := hunting.NewRepo(d).Get(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "active=%v\n", st.Active)
			if st.Active || st.CreatedAt != nil {
				fmt.Fprintf(os.Stdout, "interval=%s .. %s\n",
					st.Payload.Start.Format(time.RFC3339), st.Payload.End.Format(time.RFC3339))
			}
			if st.LastRunAt != nil {
				fmt.Fprintf(os.Stdout, "last_run_at=%s\n", st.LastRunAt.Format(time.RFC3339))
			}
			if st.StoppedAt != nil {
				fmt.Fprintf(os.Stdout, "stopped_at=%s\n", st.StoppedAt.Format(time.RFC3339))
			}
			if st.Booked != nil {
				fmt.Fprintf(os.Stdout, "booked seat=%d message=%q\n", st.Booked.SeatID, st.Booked.Message)
			}
			if st.Error != nil {
				fmt.Fprintf(os.Stdout, "error=%q\n", *st.Error)
			}
			return nil
		},
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
