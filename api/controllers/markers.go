package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/api/validators"
	"github.com/cbc-energia/fieldops-backend/internal/markers"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type updateMarkerPayload struct {
	Color string `json:"color" validate:"required"`
	Label string `json:"label" validate:"required"`
}

// MarkerConfigGet returns the full marker style table.
func MarkerConfigGet(svc markers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marker service unavailable"))
			return
		}

		responses.WriteSuccess(w, svc.Get())
	}
}

// MarkerConfigUpdate replaces one marker style keyed by {TYPE}_{STATUS}.
func MarkerConfigUpdate(svc markers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marker service unavailable"))
			return
		}

		key := strings.TrimSpace(chi.URLParam(r, "key"))
		if key == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "marker key is required"))
			return
		}

		var body updateMarkerPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Update(ctx, key, markers.Style{Color: body.Color, Label: body.Label}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Get())
	}
}

// MarkerConfigReset restores the default style table.
func MarkerConfigReset(svc markers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marker service unavailable"))
			return
		}

		if err := svc.Reset(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, svc.Get())
	}
}

// MarkerColors lists the palette accepted by config updates.
func MarkerColors(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, markers.AvailableColors())
	}
}
