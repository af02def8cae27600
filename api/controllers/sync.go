package controllers

import (
	"net/http"

	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/api/validators"
	"github.com/cbc-energia/fieldops-backend/internal/connectivity"
	"github.com/cbc-energia/fieldops-backend/internal/syncengine"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type setOnlinePayload struct {
	Online *bool `json:"online" validate:"required"`
}

// SyncStatus reports connectivity and pending-record state.
func SyncStatus(engine *syncengine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync engine unavailable"))
			return
		}

		responses.WriteSuccess(w, engine.Status())
	}
}

// SyncSetOnline overrides the connectivity state. Flipping online kicks a
// sync pass through the monitor subscription; flipping offline cancels
// any pass in flight.
func SyncSetOnline(monitor *connectivity.Monitor, engine *syncengine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if monitor == nil || engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync engine unavailable"))
			return
		}

		var body setOnlinePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		monitor.SetOnline(*body.Online)
		responses.WriteSuccess(w, engine.Status())
	}
}

// SyncTrigger asks the engine to re-evaluate pending work immediately.
func SyncTrigger(engine *syncengine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync engine unavailable"))
			return
		}

		engine.Notify()
		responses.WriteSuccessStatus(w, http.StatusAccepted, engine.Status())
	}
}
