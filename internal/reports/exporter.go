package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cbc-energia/fieldops-backend/internal/visits"
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

const sheetName = "Registros de Campo"

var exportHeaders = []string{
	"ID",
	"Tipo",
	"Status",
	"Responsável",
	"Função",
	"Data/Hora",
	"Latitude",
	"Longitude",
	"Sincronizado",
	"Pontos",
	"Observações",
}

// Summary aggregates the fleet numbers shown on the manager dashboard.
type Summary struct {
	TotalRecords  int `json:"totalRecords"`
	ClosedSales   int `json:"closedSales"`
	Prospections  int `json:"prospections"`
	Installations int `json:"installations"`
	Inspections   int `json:"inspections"`
	PendingSync   int `json:"pendingSync"`
	TotalPoints   int `json:"totalPoints"`
}

// Summarize computes the dashboard aggregates from the record collection.
func Summarize(records []visits.VisitRecord) Summary {
	var s Summary
	s.TotalRecords = len(records)
	for _, rec := range records {
		switch rec.Type {
		case enums.VisitProspection:
			s.Prospections++
		case enums.VisitSaleAttempt:
			if rec.Status == enums.VisitStatusSuccess {
				s.ClosedSales++
			}
		case enums.VisitInstallation:
			s.Installations++
		case enums.VisitInspection:
			s.Inspections++
		}
		if rec.SyncStatus == enums.SyncPending {
			s.PendingSync++
		}
		if rec.Gamification != nil {
			s.TotalPoints += rec.Gamification.Points
		}
	}
	return s
}

// ExportXLSX renders the record collection as a spreadsheet for the
// back office.
func ExportXLSX(records []visits.VisitRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create export sheet")
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF3CC"}, Pattern: 1},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create header style")
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "convert header coordinates")
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write header cell "+cell)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "style header cell "+cell)
		}
	}

	for i, rec := range records {
		points := 0
		if rec.Gamification != nil {
			points = rec.Gamification.Points
		}
		row := []any{
			rec.ID,
			rec.Type.String(),
			rec.Status.String(),
			rec.UserName,
			rec.Role.String(),
			rec.Timestamp.Format(time.RFC3339),
			rec.Location.Lat,
			rec.Location.Lng,
			rec.SyncStatus.String(),
			points,
			rec.Notes,
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "convert row coordinates")
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("write cell %s", cell))
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize workbook")
	}
	return buf.Bytes(), nil
}
