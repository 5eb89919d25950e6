package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders timetable grids into a printable PDF, one page per
// cohort.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a landscape PDF with one timetable grid per page.
func (e *PDFExporter) Render(grids []Grid, title string) ([]byte, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("pdf requires at least one timetable")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for _, grid := range grids {
		if len(grid.Days) == 0 {
			return nil, fmt.Errorf("timetable %q has no days", grid.Title)
		}
		pdf.AddPage()

		if title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		}
		if grid.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, grid.Title, "", 1, "C", false, 0, "")
		}
		pdf.Ln(3)

		periodWidth := 18.0
		colWidth := (277.0 - periodWidth) / float64(len(grid.Days))

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(periodWidth, 8, "PERIOD", "1", 0, "C", false, 0, "")
		for _, day := range grid.Days {
			pdf.CellFormat(colWidth, 8, day, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, period := range grid.Periods {
			pdf.CellFormat(periodWidth, 10, strconv.Itoa(period), "1", 0, "C", false, 0, "")
			for _, day := range grid.Days {
				value := grid.Cells[CellKey{Day: day, Period: period}]
				pdf.CellFormat(colWidth, 10, value, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
