package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/seatsniper/internal/availability"
	"github.com/example/seatsniper/internal/checkins"
	"github.com/example/seatsniper/internal/dispatch"
	"github.com/example/seatsniper/internal/hunting"
	"github.com/example/seatsniper/internal/ingest"
)

// wallLayout is how API clients spell facility wall-clock times.
const wallLayout = "2006-01-02 15:04"

type AvailabilityEngine interface {
	FullyAvailable(ctx context.Context, start, end time.Time) ([]availability.Seat, error)
}

type Updater interface {
	Run(ctx context.Context, startDate, endDate string, progress ingest.ProgressFunc) (int, int, error)
}

type CheckinService interface {
	Schedule(ctx context.Context, date, clock, code string) (int64, error)
	List(ctx context.Context, status string, limit int) ([]checkins.Checkin, error)
	Cancel(ctx context.Context, id int64) (bool, error)
}

type Ticker interface {
	OnTick(ctx context.Context) dispatch.Summary
}

// Server is the operator-facing control API. Control operations validate
// eagerly and reject with 400; asynchronous failures surface only through
// the status endpoints.
type Server struct {
	Availability AvailabilityEngine
	Updater      Updater
	Checkins     CheckinService
	Hunting      hunting.Store
	Ticker       Ticker
}

func (s *Server) Routes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")
	api.GET("/seats/available", s.handleAvailableSeats)
	api.POST("/availability/update", s.handleUpdateAvailability)
	api.POST("/checkins", s.handleScheduleCheckin)
	api.GET("/checkins", s.handleListCheckins)
	api.DELETE("/checkins/:id", s.handleCancelCheckin)
	api.POST("/hunting/start", s.handleStartHunting)
	api.POST("/hunting/stop", s.handleStopHunting)
	api.GET("/hunting", s.handleHuntingStatus)
	api.POST("/tick", s.handleTick)
}

type seatJSON struct {
	SeatID   int64   `json:"seat_id"`
	SeatName *string `json:"seat_name"`
	SeatURL  string  `json:"seat_url"`
	Power    *bool   `json:"power_available"`
}

func (s *Server) handleAvailableSeats(c echo.Context) error {
	start, err := time.ParseInLocation(wallLayout, c.QueryParam("start"), time.UTC)
	if err != nil {
		return badRequest(c, "invalid start (want YYYY-MM-DD HH:MM)")
	}
	end, err := time.ParseInLocation(wallLayout, c.QueryParam("end"), time.UTC)
	if err != nil {
		return badRequest(c, "invalid end (want YYYY-MM-DD HH:MM)")
	}

	seats, err := s.Availability.FullyAvailable(c.Request().Context(), start, end)
	if err != nil {
		return internalError(c, err)
	}

	out := make([]seatJSON, 0, len(seats))
	for _, st := range seats {
		out = append(out, seatJSON{SeatID: st.ID, SeatName: st.Name, SeatURL: st.URL, Power: st.Power})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpdateAvailability(c echo.Context) error {
	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	for _, d := range []string{req.StartDate, req.EndDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return badRequest(c, "invalid date range (want YYYY-MM-DD)")
		}
	}

	processed, failed, err := s.Updater.Run(c.Request().Context(), req.StartDate, req.EndDate, nil)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"processed": processed, "failed": failed})
}

func (s *Server) handleScheduleCheckin(c echo.Context) error {
	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	id, err := s.Checkins.Schedule(c.Request().Context(), req.Date, req.Time, req.Code)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

type checkinJSON struct {
	ID         int64      `json:"id"`
	RunAt      time.Time  `json:"run_at"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      *string    `json:"error,omitempty"`
}

func (s *Server) handleListCheckins(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return badRequest(c, "invalid limit")
		}
		limit = n
	}

	list, err := s.Checkins.List(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		return internalError(c, err)
	}

	out := make([]checkinJSON, 0, len(list))
	for _, ci := range list {
		out = append(out, checkinJSON{
			ID:         ci.ID,
			RunAt:      ci.RunAt,
			Status:     string(ci.Status),
			CreatedAt:  ci.CreatedAt,
			StartedAt:  ci.StartedAt,
			FinishedAt: ci.FinishedAt,
			Error:      ci.Error,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCancelCheckin(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid checkin id")
	}

	ok, err := s.Checkins.Cancel(c.Request().Context(), id)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"cancelled": ok})
}

func (s *Server) handleStartHunting(c echo.Context) error {
	var p hunting.Payload
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := p.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := s.Hunting.Activate(c.Request().Context(), p, time.Now()); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"active": true})
}

func (s *Server) handleStopHunting(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	reason := req.Reason
	if reason == "" {
		reason = "stopped by operator"
	}

	if err := s.Hunting.Deactivate(c.Request().Context(), time.Now(), reason); err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"active": false})
}

func (s *Server) handleHuntingStatus(c echo.Context) error {
	st, err := s.Hunting.Get(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"active":      st.Active,
		"payload":     st.Payload,
		"created_at":  st.CreatedAt,
		"last_run_at": st.LastRunAt,
		"stopped_at":  st.StoppedAt,
		"booked":      st.Booked,
		"error":       st.Error,
	})
}

func (s *Server) handleTick(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Ticker.OnTick(c.Request().Context()))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func internalError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
