// Package normalize turns a Scopus-style CSV export into a validated
// publication dataset.
package normalize

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matsen/bix/internal/publication"
	"golang.org/x/text/encoding/charmap"
)

// Source column names. Matching is case-sensitive.
const (
	ColumnEID          = "EID"
	ColumnYear         = "Year"
	ColumnCitedBy      = "Cited by"
	ColumnDocumentType = "Document Type"
	ColumnFunding      = "Funding Details"
)

// RequiredColumns lists the columns every export must carry.
var RequiredColumns = []string{ColumnEID, ColumnYear, ColumnCitedBy, ColumnDocumentType, ColumnFunding}

var (
	// ErrEmpty is returned for an input with no data rows.
	ErrEmpty = errors.New("file is empty")
	// ErrMissingColumns is returned when a required column is absent.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrNoValidRows is returned when every row was dropped.
	ErrNoValidRows = errors.New("no valid data found")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DroppedRow describes a row that was excluded from the dataset.
type DroppedRow struct {
	Line   int    `json:"line"`
	EID    string `json:"eid,omitempty"`
	Reason string `json:"reason"`
}

// Result is the outcome of normalizing one export.
type Result struct {
	Dataset *publication.Dataset
	Dropped []DroppedRow
}

// ParseFile reads and normalizes the CSV file at path.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Parse(data)
}

// ParseReader reads r fully and normalizes it.
func ParseReader(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return Parse(data)
}

// Parse normalizes CSV data. Rows with a missing or non-numeric Year or
// Cited by value, or without an EID, are dropped and reported in
// Result.Dropped. Duplicate EIDs among the kept rows are an error.
func Parse(data []byte) (*Result, error) {
	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []publication.Record
	var dropped []DroppedRow
	rows := 0

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing CSV: %w", err)
		}
		if isBlank(fields) {
			continue
		}
		rows++

		line, _ := reader.FieldPos(0)
		rec, reason := toRecord(fields, cols)
		if reason != "" {
			dropped = append(dropped, DroppedRow{Line: line, EID: rec.ID, Reason: reason})
			continue
		}
		records = append(records, rec)
	}

	if rows == 0 {
		return nil, ErrEmpty
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w (%d rows dropped)", ErrNoValidRows, len(dropped))
	}

	ds, err := publication.NewDataset(records)
	if err != nil {
		return nil, err
	}
	return &Result{Dataset: ds, Dropped: dropped}, nil
}

// decode strips a UTF-8 byte order mark and falls back to Windows-1252 for
// input that is not valid UTF-8.
func decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding input: %w", err)
	}
	return out, nil
}

type columns map[string]int

func columnIndex(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) get(fields []string, name string) string {
	i := c[name]
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// toRecord converts a CSV row. A non-empty reason means the row is dropped.
func toRecord(fields []string, cols columns) (publication.Record, string) {
	rec := publication.Record{
		ID:           cols.get(fields, ColumnEID),
		DocumentType: cols.get(fields, ColumnDocumentType),
		HasFunding:   cols.get(fields, ColumnFunding) != "",
	}
	if rec.ID == "" {
		return rec, "missing EID"
	}

	year, err := parseWhole(cols.get(fields, ColumnYear))
	if err != nil {
		return rec, fmt.Sprintf("invalid Year: %v", err)
	}
	rec.Year = year

	cited, err := parseWhole(cols.get(fields, ColumnCitedBy))
	if err != nil {
		return rec, fmt.Sprintf("invalid Cited by: %v", err)
	}
	if cited < 0 {
		return rec, "invalid Cited by: negative"
	}
	if cited > publication.MaxCitationCount {
		return rec, "invalid Cited by: out of range"
	}
	rec.CitationCount = cited

	return rec, ""
}

// maxWhole bounds float-formatted values before conversion to int.
const maxWhole = 1 << 53

// parseWhole parses an integral number, accepting forms such as "2019.0".
func parseWhole(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number (%q)", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number (%q)", s)
	}
	if math.Abs(f) > maxWhole {
		return 0, fmt.Errorf("out of range (%q)", s)
	}
	return int(f), nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
