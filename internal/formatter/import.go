package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
)

// CSVRow is one data line of a container CSV file.
//
// Err is set when the line could not be turned into fields; the other lines are still returned.
type CSVRow struct {
	Line   int
	Fields models.ContainerFields
	Err    error
}

var csvColumns = []string{"number", "origin", "destination", "row", "column", "owner"}

// ParseCSV reads container rows in the layout written by [ExportToCSV].
//
// Columns are matched by header name, case-insensitively; "col" is accepted for "column" and unknown columns such as
// "Created" are ignored.
func ParseCSV(r io.Reader) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV file", shared.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "col" {
			name = "column"
		}
		index[name] = i
	}

	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: CSV header is missing %q", shared.ErrInvalidArgument, col)
		}
	}

	var rows []CSVRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, CSVRow{Line: parseErr.Line, Err: fmt.Errorf("%w: %v", shared.ErrValidation, parseErr.Err)})
				continue
			}
			return rows, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, parseRecord(line, record, index))
	}

	return rows, nil
}

func parseRecord(line int, record []string, index map[string]int) CSVRow {
	get := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	row := CSVRow{Line: line}

	rowPos, err := strconv.Atoi(strings.TrimSpace(get("row")))
	if err != nil {
		row.Err = fmt.Errorf("%w: row %q is not a whole number", shared.ErrValidation, get("row"))
		return row
	}
	colPos, err := strconv.Atoi(strings.TrimSpace(get("column")))
	if err != nil {
		row.Err = fmt.Errorf("%w: column %q is not a whole number", shared.ErrValidation, get("column"))
		return row
	}

	row.Fields = models.ContainerFields{
		Number:      get("number"),
		Origin:      get("origin"),
		Destination: get("destination"),
		RowPos:      rowPos,
		ColPos:      colPos,
		Owner:       get("owner"),
	}
	return row
}
