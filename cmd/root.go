package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/config"
	"github.com/example/seatsniper/internal/db"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seatsniper",
		Short: "Library seat availability tracker, check-in scheduler and snipe hunter",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServerCmd())
	root.AddCommand(newTickCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newSeatsCmd())
	root.AddCommand(newCheckinCmd())
	root.AddCommand(newHuntCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config and opens the database; every subcommand starts here.
func setup(ctx context.Context) (config.Config, *db.DB, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, d, nil
}
