package controllers

import (
	"net/http"

	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/api/validators"
	"github.com/cbc-energia/fieldops-backend/internal/ai"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

type aiTextResponse struct {
	Text string `json:"text"`
}

// AIAnalyze answers a free-form question about a map location.
func AIAnalyze(svc ai.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ai service unavailable"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		query, err := validators.ParseQueryString(r, "q")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		text, err := svc.Analyze(ctx, lat, lng, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, aiTextResponse{Text: text})
	}
}

// AIReport generates the narrative field report over the full collection.
func AIReport(aiSvc ai.Service, visitSvc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if aiSvc == nil || visitSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ai service unavailable"))
			return
		}

		text, err := aiSvc.Report(ctx, visitSvc.List())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, aiTextResponse{Text: text})
	}
}
