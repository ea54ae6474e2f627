package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxMinWidth = 12.0
	xlsxMaxWidth = 40.0
)

// XLSXExporter renders tables into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes a bold, filterable header row followed by the data rows.
func (e *XLSXExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := sheetName(table.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for c, h := range table.Headers {
		ref, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellStr(sheet, ref, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", ref, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(table.Headers), 1)
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	_ = f.SetCellStyle(sheet, "A1", last, bold)
	_ = f.AutoFilter(sheet, "A1:"+last, nil)

	for r, row := range table.Rows {
		for c := range table.Headers {
			ref, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, ref, cell(row, c)); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", ref, err)
			}
		}
	}

	// Width follows the header and the first rows.
	for c, h := range table.Headers {
		longest := len(h)
		for r := 0; r < len(table.Rows) && r < 50; r++ {
			if l := len(cell(table.Rows[r], c)); l > longest {
				longest = l
			}
		}
		w := float64(longest) * 0.9
		if w < xlsxMinWidth {
			w = xlsxMinWidth
		}
		if w > xlsxMaxWidth {
			w = xlsxMaxWidth
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName trims the title to Excel's 31 character limit.
func sheetName(title string) string {
	if title == "" {
		return "Export"
	}
	runes := []rune(title)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
