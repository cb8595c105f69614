package spreadsheet

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildTestWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"Quarter", "Revenue", "EBITDA"},
		{"Q1", 100, 20},
		{"Q2", 120, 25},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	// A second sheet that must be ignored by the conversion.
	if _, err := f.NewSheet("Hidden"); err != nil {
		t.Fatalf("NewSheet failed: %v", err)
	}
	if err := f.SetCellValue("Hidden", "A1", "should not appear"); err != nil {
		t.Fatalf("SetCellValue failed: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func TestFirstSheetCSV(t *testing.T) {
	data := buildTestWorkbook(t)

	csvText, err := FirstSheetCSV(data)
	if err != nil {
		t.Fatalf("FirstSheetCSV failed: %v", err)
	}
	if !strings.HasPrefix(csvText, "Quarter,Revenue,EBITDA\n") {
		t.Errorf("unexpected header line: %q", csvText)
	}
	if !strings.Contains(csvText, "Q2,120,25") {
		t.Errorf("missing data row: %q", csvText)
	}
	if strings.Contains(csvText, "should not appear") {
		t.Error("conversion leaked content from a non-first sheet")
	}
}

func TestFirstSheetCSVIsIdempotent(t *testing.T) {
	data := buildTestWorkbook(t)

	first, err := FirstSheetCSV(data)
	if err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}
	second, err := FirstSheetCSV(data)
	if err != nil {
		t.Fatalf("second conversion failed: %v", err)
	}
	if first != second {
		t.Errorf("conversions differ:\n%q\n%q", first, second)
	}
}

func TestFirstSheetCSVRoutesCompoundFilesToLegacyReader(t *testing.T) {
	// Compound-file magic followed by a truncated body. Such bytes must
	// reach the BIFF reader rather than fail excelize's OOXML open, and a
	// corrupt container still reports an error.
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 16)...)

	_, err := FirstSheetCSV(data)
	if err == nil {
		t.Fatal("expected an error for a truncated compound-file container")
	}
	if !strings.Contains(err.Error(), "legacy workbook") {
		t.Errorf("error = %v, want it from the legacy workbook path", err)
	}
}

func TestFirstSheetCSVRejectsGarbage(t *testing.T) {
	if _, err := FirstSheetCSV([]byte("definitely not a workbook")); err == nil {
		t.Error("expected an error for corrupt workbook bytes")
	}
}

func TestBuildWorkbookRoundTrip(t *testing.T) {
	headers := []string{"Year", "EBITDA"}
	rows := []map[string]any{
		{"Year": "FY23", "EBITDA": 100},
		{"Year": "FY24", "EBITDA": "N/A"},
	}

	data, err := BuildWorkbook(headers, rows)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}

	csvText, err := FirstSheetCSV(data)
	if err != nil {
		t.Fatalf("reading built workbook failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), csvText)
	}
	if lines[0] != "Year,EBITDA" {
		t.Errorf("header line = %q", lines[0])
	}
	if lines[1] != "FY23,100" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "FY24,N/A" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestBuildWorkbookRejectsEmptyHeaders(t *testing.T) {
	if _, err := BuildWorkbook(nil, nil); err == nil {
		t.Error("expected an error for empty headers")
	}
}
