package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cbc-energia/fieldops-backend/api/middleware"
	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/api/validators"
	"github.com/cbc-energia/fieldops-backend/internal/routelog"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type routeSamplePayload struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type routeSampleResponse struct {
	Kept bool   `json:"kept"`
	Day  string `json:"day"`
}

type routeDayResponse struct {
	Day     string           `json:"day"`
	Points  []routelog.Point `json:"points"`
	PrevDay string           `json:"prevDay,omitempty"`
	NextDay string           `json:"nextDay,omitempty"`
}

// RouteSample ingests one GPS fix into today's archive. Jittery fixes are
// acknowledged but not stored.
func RouteSample(svc routelog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route service unavailable"))
			return
		}

		var body routeSamplePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		now := time.Now()

		// Desk roles are acknowledged but leave no trace, same as the
		// on-device tracker.
		if role := enums.Role(middleware.RoleFromContext(ctx)); !role.Tracked() {
			responses.WriteSuccessStatus(w, http.StatusAccepted, routeSampleResponse{Kept: false, Day: routelog.DayKey(now)})
			return
		}

		kept, err := svc.RecordSample(ctx, routelog.Point{Lat: body.Lat, Lng: body.Lng}, now)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, routeSampleResponse{Kept: kept, Day: routelog.DayKey(now)})
	}
}

// RouteDays lists the archived day keys in chronological order.
func RouteDays(svc routelog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route service unavailable"))
			return
		}

		responses.WriteSuccess(w, svc.DateKeys())
	}
}

// RouteByDay returns one day's route with its navigation neighbours. Day
// keys are dd-mm-yyyy in the path and translated to the archive's native
// dd/mm/yyyy form.
func RouteByDay(svc routelog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route service unavailable"))
			return
		}

		day := dayFromPath(chi.URLParam(r, "day"))
		if day == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "day is required"))
			return
		}
		if _, err := time.Parse(routelog.DayKeyLayout, day); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid day key"))
			return
		}

		resp := routeDayResponse{
			Day:    day,
			Points: svc.ActiveRoute(day),
		}
		if prev, ok := svc.PrevDay(day); ok {
			resp.PrevDay = prev
		}
		if next, ok := svc.NextDay(day); ok {
			resp.NextDay = next
		}

		responses.WriteSuccess(w, resp)
	}
}

// RouteToday returns the active route for the current day.
func RouteToday(svc routelog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "route service unavailable"))
			return
		}

		day := routelog.DayKey(time.Now())
		resp := routeDayResponse{
			Day:    day,
			Points: svc.ActiveRoute(day),
		}
		if prev, ok := svc.PrevDay(day); ok {
			resp.PrevDay = prev
		}

		responses.WriteSuccess(w, resp)
	}
}

func dayFromPath(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "/")
}
