package cmd

import (
	"context"

	"github.com/example/seatsniper/internal/checkins"
	"github.com/example/seatsniper/internal/config"
	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/dispatch"
	"github.com/example/seatsniper/internal/hunting"
	"github.com/example/seatsniper/internal/ingest"
	"github.com/example/seatsniper/internal/libcal"
	"github.com/example/seatsniper/internal/seats"
	"github.com/example/seatsniper/internal/slots"
	"github.com/example/seatsniper/internal/snipe"
)

func newClient(cfg config.Config) *libcal.Client {
	c := libcal.New(cfg.LibCalBaseURL)
	c.LocationID = cfg.LocationID
	c.GroupID = cfg.GroupID
	c.EquipmentID = cfg.EquipmentID
	c.Zone = cfg.Zone
	c.MaxAttempts = cfg.FetchMaxAttempts
	return c
}

func newPipeline(cfg config.Config, d *db.DB, client *libcal.Client) *ingest.Pipeline {
	return &ingest.Pipeline{
		Source:    client,
		Sink:      ingest.PGSink{DB: d},
		Seats:     seats.NewRepo(d),
		BatchSize: cfg.IngestBatchSize,
		Sleep:     cfg.IngestSleep,
	}
}

// newDispatcher wires the full tick path: check-in dispatch against the
// LibCal check-in form, and the hunting cycle (historical screen, live
// confirmation, booking) with payload timestamps translated to facility
// wall clock for the slot grid.
func newDispatcher(cfg config.Config, d *db.DB, client *libcal.Client) *dispatch.Dispatcher {
	cycle := &snipe.Cycle{
		Detector: snipe.NewDetector(d),
		Live:     client,
		Booker:   client,
	}

	hunter := &hunting.Hunter{
		Store: hunting.NewRepo(d),
		Run: func(ctx context.Context, p hunting.Payload) (snipe.Result, error) {
			start := slots.WallClock(p.Start, cfg.FacilityTZ)
			end := slots.WallClock(p.End, cfg.FacilityTZ)
			profile := libcal.BookingProfile{
				FirstName:     p.Profile.FirstName,
				LastName:      p.Profile.LastName,
				Email:         p.Profile.Email,
				Phone:         p.Profile.Phone,
				StudentNumber: p.Profile.StudentNumber,
			}
			return cycle.Run(ctx, start, end, p.Filter, profile)
		},
	}

	return &dispatch.Dispatcher{
		Checkins: &checkins.Dispatcher{
			Store: checkins.NewRepo(d, cfg.FacilityTZ),
			Exec:  client,
		},
		Hunter: hunter,
	}
}
