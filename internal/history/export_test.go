package history

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"
)

func TestExportCSV(t *testing.T) {
	records := []Record{
		{
			DurationSeconds:   1500,
			AvgFlowScore:      72,
			PeakFlowScore:     91,
			TabSwitches:       3,
			AvgTypingRate:     58,
			ProductivityIndex: 1.84,
			Timestamp:         time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
			HourOfDay:         9,
		},
	}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, records); err != nil {
		t.Fatalf("ExportCSV returned error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}

	wantHeader := []string{
		"Date", "Time", "Duration (min)", "Avg Flow %", "Peak Flow %",
		"Tab Switches", "Typing Speed", "Productivity",
	}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}

	wantRow := []string{"2025-06-15", "09:30:00", "25", "72", "91", "3", "58", "1.8x"}
	if !reflect.DeepEqual(rows[1], wantRow) {
		t.Errorf("row = %v, want %v", rows[1], wantRow)
	}
}

func TestExportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, nil); err != nil {
		t.Fatalf("ExportCSV with no records: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected header only, got %v (err %v)", rows, err)
	}
}
