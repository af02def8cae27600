package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/cbc-energia/fieldops-backend/api/middleware"
	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/api/validators"
	"github.com/cbc-energia/fieldops-backend/internal/markers"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type createVisitPayload struct {
	Type            string             `json:"type" validate:"required"`
	Status          string             `json:"status"`
	Notes           string             `json:"notes"`
	Photos          []string           `json:"photos"`
	Location        visits.GeoLocation `json:"location"`
	Draft           visits.Metadata    `json:"draft"`
	Metadata        visits.Metadata    `json:"metadata"`
	LeadTemperature string             `json:"leadTemperature"`
}

// VisitCreate appends a new field record for the acting identity.
func VisitCreate(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visit service unavailable"))
			return
		}

		var body createVisitPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		visitType, err := enums.ParseVisitType(body.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid visit type"))
			return
		}

		input := visits.AppendInput{
			Type:     visitType,
			Notes:    body.Notes,
			Photos:   body.Photos,
			Location: body.Location,
			Draft:    body.Draft,
			Metadata: body.Metadata,
		}

		if raw := strings.TrimSpace(body.Status); raw != "" {
			status, err := enums.ParseVisitStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid visit status"))
				return
			}
			input.Status = status
		}

		if raw := strings.TrimSpace(body.LeadTemperature); raw != "" {
			temp, err := enums.ParseLeadTemperature(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lead temperature"))
				return
			}
			input.LeadTemperature = &temp
		}

		record, err := svc.Append(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// VisitList returns the full newest-first collection, or the caller's own
// records when scope=mine, or today's records when scope=today.
func VisitList(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visit service unavailable"))
			return
		}

		scope := strings.TrimSpace(r.URL.Query().Get("scope"))
		switch scope {
		case "", "all":
			responses.WriteSuccess(w, svc.List())
		case "mine":
			responses.WriteSuccess(w, svc.ListByUser(middleware.UserIDFromContext(ctx)))
		case "today":
			responses.WriteSuccess(w, svc.TodayByUser(middleware.UserIDFromContext(ctx), time.Now()))
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown list scope").WithDetails(map[string]any{"scope": scope}))
		}
	}
}

// VisitMarkers projects the record collection into styled map markers.
func VisitMarkers(visitSvc visits.Service, markerSvc markers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if visitSvc == nil || markerSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "marker service unavailable"))
			return
		}

		responses.WriteSuccess(w, markerSvc.BuildMarkers(visitSvc.List()))
	}
}
