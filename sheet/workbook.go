package sheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/warp/timesheet/timesheet"
)

// Format is an export/import file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Heures"

// ExportBaseName is the download name without extension.
const ExportBaseName = "releve_heures"

// maxImportRows bounds how many rows are read from a legacy workbook.
const maxImportRows = 100000

// ParseFormat accepts "csv", "xlsx" or "xls", case-insensitively. Empty is CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatXLS:
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", timesheet.ErrUnsupportedFormat, s)
	}
}

// FormatOf picks a format from a file name extension.
func FormatOf(filename string) (Format, error) {
	return ParseFormat(filepath.Ext(filename))
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatXLS:
		return "application/vnd.ms-excel"
	default:
		return "text/csv"
	}
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return ExportBaseName + "." + string(f)
}

// Export writes entries in format. XLS is import only.
func Export(w io.Writer, format Format, entries timesheet.Entries) error {
	switch format {
	case FormatCSV:
		return EncodeCSV(w, entries)
	case FormatXLSX:
		return WriteXLSX(w, entries)
	default:
		return fmt.Errorf("%w: cannot export %s", timesheet.ErrUnsupportedFormat, format)
	}
}

// =============================================================================
// XLSX
// =============================================================================

// WriteXLSX writes entries to a single worksheet with the v2 header.
// Hours are numeric cells so the sheet can be summed in a spreadsheet.
func WriteXLSX(w io.Writer, entries timesheet.Entries) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rec := record(e)
		row := []interface{}{rec[0], rec[1], e.Hours.InexactFloat64(), rec[3]}
		if err := f.SetSheetRow(SheetName, addr, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "D", 16); err != nil {
		return err
	}
	return f.Write(w)
}

// =============================================================================
// IMPORT
// =============================================================================

// ReadWorkbook decodes an uploaded file, choosing the reader from the
// file name: .csv, .xlsx or legacy .xls. Only the first worksheet is read.
// An import replaces the whole store, so a file without a single readable
// row returns an error wrapping ErrEmpty.
func ReadWorkbook(filename string, r io.Reader) (Decoded, error) {
	decoded, err := readWorkbook(filename, r)
	if err != nil {
		return Decoded{}, err
	}
	if len(decoded.Entries) == 0 {
		return decoded, fmt.Errorf("%w: no readable rows (%d skipped)", ErrEmpty, len(decoded.Skipped))
	}
	return decoded, nil
}

func readWorkbook(filename string, r io.Reader) (Decoded, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return Decoded{}, err
	}

	if format == FormatCSV {
		return DecodeCSV(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Decoded{}, err
	}

	var rows [][]string
	switch format {
	case FormatXLS:
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return Decoded{}, fmt.Errorf("open xls: %w", err)
		}
		if workbook.NumSheets() == 0 {
			return Decoded{}, ErrEmpty
		}
		rows = workbook.ReadAllCells(maxImportRows)
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return Decoded{}, fmt.Errorf("open xlsx: %w", err)
		}
		defer func() { _ = file.Close() }()

		name := file.GetSheetName(0)
		if name == "" {
			return Decoded{}, ErrEmpty
		}
		rows, err = file.GetRows(name)
		if err != nil {
			return Decoded{}, fmt.Errorf("read sheet %s: %w", name, err)
		}
	}

	return decodeRows(rows, true)
}
