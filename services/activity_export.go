package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"procurement_flow_go/models"

	"github.com/xuri/excelize/v2"
)

// ExportActivityXLSX renders the case timeline as a spreadsheet
func ExportActivityXLSX(c *models.ProcurementCase, logs []models.ActivityLog, loc *time.Location) (*bytes.Buffer, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Timeline"
	f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	stateStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s  %s", c.ReferenceNo, c.Title))
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Method: %s  State: %s", c.Method, c.CurrentState))

	headers := []string{"#", "Timestamp", "Action", "Change", "From", "To", "Legal basis", "Actor role", "Override", "Changes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(sheet, cell, header)
	}
	f.SetCellStyle(sheet, "A4", "J4", headerStyle)

	for i, entry := range logs {
		row := i + 5
		values := []interface{}{
			entry.ID,
			entry.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			entry.Action,
			string(entry.ChangeType),
			stateCell(entry.FromState),
			stateCell(entry.ToState),
			entry.LegalBasis,
			entry.ActorRole,
			entry.IsOverride,
			describeChanges(entry.Changes()),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		if entry.IsStateChange() {
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), stateStyle)
		}
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 20)
	f.SetColWidth(sheet, "C", "F", 24)
	f.SetColWidth(sheet, "G", "G", 40)
	f.SetColWidth(sheet, "H", "I", 14)
	f.SetColWidth(sheet, "J", "J", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func stateCell(s *models.CaseState) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func describeChanges(changes []models.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, fmt.Sprintf("%s: %v -> %v", ch.Field, ch.Old, ch.New))
	}
	return strings.Join(parts, "; ")
}
