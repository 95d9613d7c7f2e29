package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/example/seatsniper/internal/availability"
	"github.com/example/seatsniper/internal/checkins"
	"github.com/example/seatsniper/internal/hunting"
	"github.com/example/seatsniper/internal/migrate"
	"github.com/example/seatsniper/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the control API + tick loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, d, err := setup(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			client := newClient(cfg)
			dispatcher := newDispatcher(cfg, d, client)

			go func() { _ = dispatcher.Run(ctx, cfg.TickInterval) }()

			srv := &web.Server{
				Availability: availability.NewEngine(d),
				Updater:      newPipeline(cfg, d, client),
				Checkins:     checkins.NewRepo(d, cfg.FacilityTZ),
				Hunting:      hunting.NewRepo(d),
				Ticker:       dispatcher,
			}

			e := echo.New()
			e.HideBanner = true
			if cfg.RedisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
				e.Use(web.RateLimit(rdb, 60, time.Minute))
			}
			srv.Routes(e)

			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = e.Shutdown(shutdownCtx)
			}()

			log.Printf("server: listening on %s", cfg.ListenAddr)
			if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
