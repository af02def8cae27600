package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/cbc-energia/fieldops-backend/internal/reports"
	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
)

func TestReportSummaryCountsRecords(t *testing.T) {
	svc := &stubVisitService{records: []visits.VisitRecord{
		{ID: "rec-1", Type: enums.VisitProspection, SyncStatus: enums.SyncPending},
		{ID: "rec-2", Type: enums.VisitSaleAttempt, Status: enums.VisitStatusSuccess, SyncStatus: enums.SyncSynced},
	}}
	handler := ReportSummary(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data reports.Summary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalRecords != 2 {
		t.Fatalf("total = %d, want 2", envelope.Data.TotalRecords)
	}
	if envelope.Data.ClosedSales != 1 {
		t.Fatalf("closed sales = %d, want 1", envelope.Data.ClosedSales)
	}
	if envelope.Data.PendingSync != 1 {
		t.Fatalf("pending sync = %d, want 1", envelope.Data.PendingSync)
	}
}

func TestReportExportReturnsWorkbook(t *testing.T) {
	svc := &stubVisitService{records: []visits.VisitRecord{
		{ID: "rec-1", Type: enums.VisitProspection, UserName: "Carlos"},
	}}
	handler := ReportExport(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.xlsx", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Registros de Campo", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "rec-1" {
		t.Fatalf("A2 = %q, want rec-1", got)
	}
}
