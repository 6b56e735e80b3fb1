package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/sirseerhq/sirseer-licenses/internal/document"
)

// Header is the column header of the tabular formats.
var Header = []string{"License Name", "Term Name", "Responsibility", "Description"}

// SheetName is the worksheet that holds the XLSX table.
const SheetName = "Licenses"

// Rows flattens the licenses of a document into one row per (license, term)
// pair, in document order. Licenses without terms contribute no rows.
func Rows(doc document.Snapshot) [][]string {
	var rows [][]string
	for _, l := range doc.Licenses {
		for _, t := range l.Terms {
			rows = append(rows, []string{l.Name, t.Name, t.Responsibility, t.Description})
		}
	}
	return rows
}

// NewExporter returns the exporter for a format. FormatNone has no exporter.
func NewExporter(f Format) (Exporter, error) {
	switch f {
	case FormatJSON, "":
		return JSONExporter{}, nil
	case FormatCSV:
		return CSVExporter{}, nil
	case FormatXLSX:
		return XLSXExporter{}, nil
	default:
		return nil, fmt.Errorf("no exporter for format %q", f)
	}
}

// JSONExporter writes the whole document, logs included.
type JSONExporter struct{}

// Format implements Exporter.
func (JSONExporter) Format() Format { return FormatJSON }

// Export implements Exporter.
func (JSONExporter) Export(w io.Writer, doc document.Snapshot) (int, error) {
	data, err := document.Marshal(doc)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return 0, fmt.Errorf("failed to write JSON export: %w", err)
	}
	return len(doc.Licenses), nil
}

// CSVExporter writes one comma-separated row per license term.
type CSVExporter struct{}

// Format implements Exporter.
func (CSVExporter) Format() Format { return FormatCSV }

// Export implements Exporter.
func (CSVExporter) Export(w io.Writer, doc document.Snapshot) (int, error) {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	count := 0
	for _, row := range Rows(doc) {
		if err := cw.Write(row); err != nil {
			return count, fmt.Errorf("failed to write CSV row: %w", err)
		}
		count++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("failed to flush CSV export: %w", err)
	}
	return count, nil
}

// XLSXExporter writes the license table to the Licenses sheet of a workbook.
type XLSXExporter struct{}

// Format implements Exporter.
func (XLSXExporter) Format() Format { return FormatXLSX }

// Export implements Exporter.
func (XLSXExporter) Export(w io.Writer, doc document.Snapshot) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return 0, fmt.Errorf("failed to name worksheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to open worksheet: %w", err)
	}

	if err := sw.SetRow("A1", toCells(Header)); err != nil {
		return 0, fmt.Errorf("failed to write XLSX header: %w", err)
	}

	count := 0
	for i, row := range Rows(doc) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return count, err
		}
		if err := sw.SetRow(cell, toCells(row)); err != nil {
			return count, fmt.Errorf("failed to write XLSX row %d: %w", i+2, err)
		}
		count++
	}

	if err := sw.Flush(); err != nil {
		return count, fmt.Errorf("failed to flush worksheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return count, fmt.Errorf("failed to write XLSX export: %w", err)
	}
	return count, nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// Result describes a completed export.
type Result struct {
	Format  Format
	Path    string
	Records int
}

// ExportFile writes the document to dir in the given format using the
// format's standard file name. FormatNone writes nothing and returns an empty
// Result.
func ExportFile(dir string, f Format, doc document.Snapshot) (Result, error) {
	if f == FormatNone {
		return Result{Format: FormatNone}, nil
	}

	exporter, err := NewExporter(f)
	if err != nil {
		return Result{}, err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, exporter.Format().FileName())
	file, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create output file: %w", err)
	}

	count, err := exporter.Export(file, doc)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{Format: exporter.Format(), Path: path, Records: count}, nil
}
