package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cbc-energia/fieldops-backend/api/responses"
	"github.com/cbc-energia/fieldops-backend/internal/reports"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
	"github.com/cbc-energia/fieldops-backend/pkg/logger"
)

// ReportSummary aggregates the record collection into dashboard counters.
func ReportSummary(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visit service unavailable"))
			return
		}

		responses.WriteSuccess(w, reports.Summarize(svc.List()))
	}
}

// ReportExport streams the record collection as an XLSX workbook.
func ReportExport(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visit service unavailable"))
			return
		}

		payload, err := reports.ExportXLSX(svc.List())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build workbook"))
			return
		}

		filename := fmt.Sprintf("registros-%s.xlsx", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload); err != nil && logg != nil {
			logg.Error(ctx, "report.export.write", err)
		}
	}
}
