// Package spreadsheet converts workbook bytes to CSV text for the LLM
// context and builds single-sheet XLSX downloads for extracted data.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook with no sheets at all.
var ErrNoSheets = errors.New("workbook contains no sheets")

// oleSignature is the compound-file magic every legacy .xls starts
// with; OOXML workbooks are zip containers and never match it.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// FirstSheetCSV parses workbook bytes (xlsx or legacy xls) and renders
// the first sheet only as CSV text. Gemini cannot take spreadsheet
// binaries inline, so this text form is what goes into the context. The
// output is deterministic for a fixed input workbook.
func FirstSheetCSV(data []byte) (string, error) {
	if bytes.HasPrefix(data, oleSignature) {
		return legacyFirstSheetCSV(data)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return rowsToCSV(rows)
}

// legacyFirstSheetCSV reads BIFF workbooks (.xls), which excelize does
// not parse.
func legacyFirstSheetCSV(data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open legacy workbook: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return "", ErrNoSheets
	}

	sh, err := wb.GetSheet(0)
	if err != nil {
		return "", fmt.Errorf("failed to read first sheet: %w", err)
	}

	rows := make([][]string, 0, sh.GetNumberRows())
	for i := 0; i < sh.GetNumberRows(); i++ {
		r, err := sh.GetRow(i)
		if err != nil {
			continue
		}
		cells := r.GetCols()
		record := make([]string, len(cells))
		for j, c := range cells {
			record[j] = c.GetString()
		}
		rows = append(rows, record)
	}
	return rowsToCSV(rows)
}

func rowsToCSV(rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to encode CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return sb.String(), nil
}

// BuildWorkbook materializes extracted rows as a single-sheet XLSX:
// one header row, then one row per element. Column order follows the
// headers slice; missing cells stay empty.
func BuildWorkbook(headers []string, rows []map[string]any) ([]byte, error) {
	if len(headers) == 0 {
		return nil, errors.New("no headers to write")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range rows {
		cells := make([]interface{}, len(headers))
		for j, h := range headers {
			cells[j] = row[h]
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
