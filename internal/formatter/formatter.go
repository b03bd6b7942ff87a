// package formatter provides functions to export container records to various formats (CSV, JSON, Markdown, plain
// text) and to draw the yard grid
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat resolves a format name; "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text", "txt":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Export renders containers in format. Pretty only affects JSON.
func Export(format Format, containers []models.ContainerView, pretty bool) ([]byte, error) {
	switch format {
	case FormatTable:
		return ExportToText(containers)
	case FormatJSON:
		return shared.MarshalJSON(containers, pretty)
	case FormatCSV:
		return ExportToCSV(containers)
	case FormatMarkdown:
		return ExportToMarkdown(containers)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToCSV converts containers to CSV with columns: Number, Origin, Destination, Row, Column, Owner, Created
func ExportToCSV(containers []models.ContainerView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Number", "Origin", "Destination", "Row", "Column", "Owner", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range containers {
		record := []string{
			c.Number,
			c.Origin,
			c.Destination,
			strconv.Itoa(c.RowPos),
			strconv.Itoa(c.ColPos),
			c.Owner,
			formatTime(c.CreatedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts containers to a Markdown table
func ExportToMarkdown(containers []models.ContainerView) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Containers\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(containers)))

	if len(containers) == 0 {
		buf.WriteString("_No containers in the yard._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Number | Origin | Destination | Position | Owner |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, c := range containers {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %d,%d | %s |\n",
			escapeCell(c.Number), escapeCell(c.Origin), escapeCell(c.Destination), c.RowPos, c.ColPos, escapeCell(c.Owner)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts containers to an aligned plain text table
func ExportToText(containers []models.ContainerView) ([]byte, error) {
	headers := []string{"NUMBER", "ORIGIN", "DESTINATION", "ROW", "COL", "OWNER"}
	rows := make([][]string, 0, len(containers))
	for _, c := range containers {
		rows = append(rows, []string{
			c.Number, c.Origin, c.Destination, strconv.Itoa(c.RowPos), strconv.Itoa(c.ColPos), c.Owner,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var buf bytes.Buffer
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				buf.WriteString(cell)
				break
			}
			buf.WriteString(cell)
			buf.WriteString(strings.Repeat(" ", widths[i]-len(cell)+2))
		}
		buf.WriteString("\n")
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	buf.WriteString(fmt.Sprintf("\n%d container(s)\n", len(containers)))

	return buf.Bytes(), nil
}

// RenderGrid draws the yard as an ASCII table. Empty cells show "·", occupied cells the container label.
func RenderGrid(cells [][]models.Cell) string {
	if len(cells) == 0 {
		return ""
	}

	width := 5
	for _, row := range cells {
		for _, cell := range row {
			width = max(width, len(cell.Label()))
		}
	}

	cols := len(cells[0])
	var b strings.Builder

	border := "    +" + strings.Repeat(strings.Repeat("-", width+2)+"+", cols) + "\n"

	b.WriteString("    ")
	for c := 1; c <= cols; c++ {
		b.WriteString(fmt.Sprintf(" %-*d ", width+1, c))
	}
	b.WriteString("\n")
	b.WriteString(border)

	for r, row := range cells {
		b.WriteString(fmt.Sprintf("%3d |", r+1))
		for _, cell := range row {
			label := "·"
			pad := width - 1
			if cell.Occupied() {
				label = cell.Label()
				pad = width - len(label)
			}
			b.WriteString(" " + label + strings.Repeat(" ", pad) + " |")
		}
		b.WriteString("\n")
		b.WriteString(border)
	}

	return b.String()
}

// WriteExport writes containers in format to path, creating parent directories as needed.
func WriteExport(path string, format Format, containers []models.ContainerView) error {
	data, err := Export(format, containers, true)
	if err != nil {
		return fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
