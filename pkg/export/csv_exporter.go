package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// Grid is a rendered weekly timetable for one cohort: one row per period,
// one column per day. Cells hold display text and may be empty.
type Grid struct {
	Title   string
	Days    []string
	Periods []int
	Cells   map[CellKey]string
}

// CellKey addresses one timetable cell.
type CellKey struct {
	Day    string
	Period int
}

// CSVExporter renders timetable grids into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes. Multiple grids are separated by a blank
// line, each preceded by its title row.
func (e *CSVExporter) Render(grids []Grid) ([]byte, error) {
	if len(grids) == 0 {
		return nil, fmt.Errorf("csv requires at least one timetable")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	for i, grid := range grids {
		if len(grid.Days) == 0 {
			return nil, fmt.Errorf("timetable %q has no days", grid.Title)
		}
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if grid.Title != "" {
			if err := writer.Write([]string{grid.Title}); err != nil {
				return nil, fmt.Errorf("write csv title: %w", err)
			}
		}
		header := append([]string{"PERIOD"}, grid.Days...)
		if err := writer.Write(header); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, period := range grid.Periods {
			record := make([]string, 0, len(grid.Days)+1)
			record = append(record, strconv.Itoa(period))
			for _, day := range grid.Days {
				record = append(record, grid.Cells[CellKey{Day: day, Period: period}])
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
