// Package export renders tabular data as CSV, PDF, XLSX or printable HTML.
package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Format identifies an export output type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// ErrUnsupportedFormat is returned for unknown format flags.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Table is the input to every exporter. Cells are already formatted for display.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a Table into file bytes.
type Renderer interface {
	Render(table Table) ([]byte, error)
}

// ParseFormat normalises a format flag. An empty flag means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
}

// ContentType returns the MIME type sent with the rendered file.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Attachment reports whether the browser should download rather than display the file.
func (f Format) Attachment() bool {
	return f != FormatHTML
}

// RendererFor returns the renderer for f.
func RendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatXLSX:
		return NewXLSXExporter(), nil
	case FormatHTML:
		return NewHTMLExporter(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// Render renders table in the given format.
func Render(f Format, table Table) ([]byte, error) {
	renderer, err := RendererFor(f)
	if err != nil {
		return nil, err
	}
	return renderer.Render(table)
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds a download name such as "students_20260115.csv".
func Filename(title string, f Format, at time.Time) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.%s", base, at.Format("20060102"), f)
}

func (t Table) validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("export requires at least one header")
	}
	return nil
}

// cell returns the value at column i, tolerating short rows.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
