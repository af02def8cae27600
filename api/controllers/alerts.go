package controllers

import (
	"net/http"

	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/internal/alerts"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// AlertsPeek lists undelivered user alerts without consuming them.
func AlertsPeek(sink *alerts.Sink, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sink == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert sink unavailable"))
			return
		}

		responses.WriteSuccess(w, sink.Peek())
	}
}

// AlertsDrain delivers and clears pending user alerts.
func AlertsDrain(sink *alerts.Sink, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sink == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert sink unavailable"))
			return
		}

		responses.WriteSuccess(w, sink.Drain())
	}
}
