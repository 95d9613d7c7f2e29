package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/migrate"
)

// tick is the external-cron entrypoint: one dispatcher pass, then exit.
// Safe to run while the server's own loop is active; claims keep every
// check-in at-most-once.
func newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single dispatcher tick (for external cron)",
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

			sum := newDispatcher(cfg, d, newClient(cfg)).OnTick(ctx)
			fmt.Fprintf(os.Stdout, "checkins_run=%d hunt_ran=%v\n", sum.CheckinsRun, sum.HuntRan)
			return nil
		},
	}
}
