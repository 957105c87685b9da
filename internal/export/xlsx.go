// Package export renders reservation listings as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type sent with generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Reservations"

// ReservationRow is one spreadsheet row. Fields the caller may not see
// are left empty and render as blank cells.
type ReservationRow struct {
	ID           uint64
	Unit         string
	Resource     string
	Begin        time.Time
	End          time.Time
	State        string
	UserEmail    string
	ReserverName string
	EventDesc    string
	Participants string
	Comments     string
}

var headers = []string{
	"Id", "Unit", "Resource", "Begin time", "End time", "State",
	"User", "Reserver name", "Event description", "Number of participants", "Comments",
}

// ReservationsXLSX builds a workbook with one header row followed by
// one row per reservation and returns the serialized file.
func ReservationsXLSX(rows []ReservationRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	for col, title := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		values := []any{
			row.ID, row.Unit, row.Resource,
			row.Begin.Format(time.RFC3339), row.End.Format(time.RFC3339),
			row.State, row.UserEmail, row.ReserverName,
			row.EventDesc, row.Participants, row.Comments,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "K", 22); err != nil {
		return nil, fmt.Errorf("set column widths: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
