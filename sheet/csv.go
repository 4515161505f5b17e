/*
Package sheet encodes and decodes the tabular entry format.

FORMAT:
  UTF-8, comma separated, one header row.

    Date,Nom,Heures,Type
    2025-03-10,Daniel SIMON,7.5,Normal
    2025-03-16,Daniel SIMON,4,Astreinte

SCHEMA VERSIONS:
  v1 (legacy): Date,Nom,Heures            no category, every row is Normal
  v2:          Date,Nom,Heures,Type       Type is Normal or Astreinte

  Decoding detects the version from the header and migrates v1 rows to
  Type=Normal. Encoding always writes v2.

  Person names are kept byte for byte, blanks included; every other cell
  ignores surrounding blanks. Header matching ignores case. English names
  (date, person, hours, category) are accepted too, so hand-edited exports
  load back.

USED BY:
  - store/csvfile: persistence
  - api, cmd/timesheet: export and import (CSV, XLSX, XLS)
*/
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/warp/timesheet/timesheet"
)

// Schema is the version of the tabular layout.
type Schema int

const (
	SchemaLegacy      Schema = 1
	SchemaCategorized Schema = 2
)

// Current is the schema written by every encoder.
const Current = SchemaCategorized

// Header is the v2 header row.
var Header = []string{"Date", "Nom", "Heures", "Type"}

// ErrEmpty is returned when the input holds no header at all.
var ErrEmpty = errors.New("no data")

// ParseError locates a structural failure. Line counts from 1 and
// includes the header.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decoded is the result of reading a table.
type Decoded struct {
	Entries timesheet.Entries
	Schema  Schema

	// Skipped lists rows that could not be read. They are not in Entries.
	Skipped []ParseError
}

// Migrated reports whether rows were upgraded from the legacy schema.
func (d Decoded) Migrated() bool { return d.Schema < Current && len(d.Entries) > 0 }

// =============================================================================
// CSV
// =============================================================================

// DecodeCSV reads a table. A blank input returns ErrEmpty; a broken CSV
// stream or a header missing required columns returns *ParseError.
func DecodeCSV(r io.Reader) (Decoded, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return Decoded{}, &ParseError{Line: perr.Line, Err: perr.Err}
			}
			return Decoded{}, err
		}
		rows = append(rows, record)
	}
	return decodeRows(rows, false)
}

// EncodeCSV writes entries with the v2 header.
func EncodeCSV(w io.Writer, entries timesheet.Entries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(record(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(e timesheet.Entry) []string {
	category := e.Category
	if category == "" {
		category = timesheet.CategoryNormal
	}
	return []string{e.Date.String(), e.Person, e.Hours.String(), category.String()}
}

// =============================================================================
// ROW DECODING - shared by CSV and workbooks
// =============================================================================

type columns struct {
	date, person, hours, category int
}

var headerAliases = map[string]string{
	"date":      "date",
	"nom":       "person",
	"person":    "person",
	"name":      "person",
	"heures":    "hours",
	"hours":     "hours",
	"type":      "category",
	"category":  "category",
	"catégorie": "category",
}

func parseHeader(header []string) (columns, Schema, error) {
	cols := columns{date: -1, person: -1, hours: -1, category: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch headerAliases[name] {
		case "date":
			cols.date = i
		case "person":
			cols.person = i
		case "hours":
			cols.hours = i
		case "category":
			cols.category = i
		}
	}

	var missing []string
	if cols.date < 0 {
		missing = append(missing, "Date")
	}
	if cols.person < 0 {
		missing = append(missing, "Nom")
	}
	if cols.hours < 0 {
		missing = append(missing, "Heures")
	}
	if len(missing) > 0 {
		return cols, 0, fmt.Errorf("header missing column(s) %s", strings.Join(missing, ", "))
	}

	if cols.category < 0 {
		return cols, SchemaLegacy, nil
	}
	return cols, SchemaCategorized, nil
}

func decodeRows(rows [][]string, serialDates bool) (Decoded, error) {
	first := -1
	for i, row := range rows {
		if !blank(row) {
			first = i
			break
		}
	}
	if first < 0 {
		return Decoded{}, ErrEmpty
	}

	cols, schema, err := parseHeader(rows[first])
	if err != nil {
		return Decoded{}, &ParseError{Line: first + 1, Err: err}
	}

	out := Decoded{Entries: timesheet.Entries{}, Schema: schema}
	for i := first + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		e, err := decodeRow(row, cols, serialDates)
		if err != nil {
			out.Skipped = append(out.Skipped, ParseError{Line: i + 1, Err: err})
			continue
		}
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

func decodeRow(row []string, cols columns, serialDates bool) (timesheet.Entry, error) {
	date, err := parseDateCell(cell(row, cols.date), serialDates)
	if err != nil {
		return timesheet.Entry{}, err
	}

	person := cell(row, cols.person)
	if strings.TrimSpace(person) == "" {
		return timesheet.Entry{}, timesheet.ErrEmptyPerson
	}

	raw := cell(row, cols.hours)
	if strings.EqualFold(strings.TrimSpace(raw), "nan") {
		raw = ""
	}
	hours, err := timesheet.ParseHours(raw)
	if err != nil {
		return timesheet.Entry{}, err
	}

	category := timesheet.CategoryNormal
	if cols.category >= 0 {
		category, err = timesheet.ParseCategory(cell(row, cols.category))
		if err != nil {
			return timesheet.Entry{}, err
		}
	}

	return timesheet.Entry{Date: date, Person: person, Hours: hours, Category: category}, nil
}

func parseDateCell(raw string, serialDates bool) (timesheet.Date, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(timesheet.DateLayout) && (raw[10] == ' ' || raw[10] == 'T') {
		raw = raw[:len(timesheet.DateLayout)]
	}
	if d, err := timesheet.ParseDate(raw); err == nil {
		return d, nil
	}
	if serialDates {
		if serial, err := strconv.ParseFloat(raw, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return timesheet.DateOf(t), nil
			}
		}
		for _, layout := range []string{"02/01/2006", "01-02-06"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return timesheet.DateOf(t), nil
			}
		}
	}
	return timesheet.ParseDate(raw)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
