// Package report renders alarm histories as spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"appliance-alarm-backend/internal/store"
)

const (
	summarySheet = "summary"
	alarmsSheet  = "alarms"
)

// BuildAlarmsXLSX renders a user's alarm view, in the order given.
func BuildAlarmsXLSX(userID string, views []store.AlarmView, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(alarmsSheet); err != nil {
		return nil, err
	}

	unread := 0
	for _, v := range views {
		if !v.Read {
			unread++
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Alarm History")
	_ = f.SetCellValue(summarySheet, "A3", "User")
	_ = f.SetCellValue(summarySheet, "B3", userID)
	_ = f.SetCellValue(summarySheet, "A4", "Generated")
	_ = f.SetCellValue(summarySheet, "B4", generatedAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "Alarms")
	_ = f.SetCellValue(summarySheet, "B5", len(views))
	_ = f.SetCellValue(summarySheet, "A6", "Unread")
	_ = f.SetCellValue(summarySheet, "B6", unread)

	for i, h := range []string{"Created", "Device", "Type", "Threshold", "Value", "Read"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(alarmsSheet, cell, h)
	}
	for i, v := range views {
		row := i + 2
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("A%d", row), v.CreatedAt.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("B%d", row), v.Device)
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("C%d", row), v.Type)
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("D%d", row), v.Threshold)
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("E%d", row), v.Value)
		_ = f.SetCellValue(alarmsSheet, fmt.Sprintf("F%d", row), v.Read)
	}
	_ = f.SetColWidth(alarmsSheet, "A", "A", 22)
	_ = f.SetColWidth(alarmsSheet, "B", "C", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
