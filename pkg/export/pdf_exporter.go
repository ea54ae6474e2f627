package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin      = 10.0
	pdfRowHeight   = 7.0
	pdfMinColWidth = 14.0
)

// PDFExporter renders tables into a paginated A4 document.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates a PDF document with a title, a repeated header row and the table body.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	orientation := "P"
	if len(table.Headers) > 6 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 15, pdfMargin)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	widths := columnWidths(pdf, tr, table, pageWidth-2*pdfMargin)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range table.Headers {
			pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	generated := e.now().Format("02 Jan 2006 15:04")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s - page %d", generated, pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(table.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range table.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom-5 {
			pdf.AddPage()
			header()
		}
		for i := range table.Headers {
			text := fitText(pdf, tr, cell(row, i), widths[i]-2)
			pdf.CellFormat(widths[i], pdfRowHeight, text, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(table.Rows) == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 10, "No records", "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths sizes columns by their widest sampled text, scaled to fill the page.
// Text is measured in the encoding it is drawn in.
func columnWidths(pdf *gofpdf.Fpdf, tr func(string) string, table Table, usable float64) []float64 {
	pdf.SetFont("Arial", "", 8)
	widths := make([]float64, len(table.Headers))
	var total float64
	for i, h := range table.Headers {
		w := pdf.GetStringWidth(tr(h)) + 4
		for r := 0; r < len(table.Rows) && r < 50; r++ {
			if cw := pdf.GetStringWidth(tr(cell(table.Rows[r], i))) + 4; cw > w {
				w = cw
			}
		}
		if w < pdfMinColWidth {
			w = pdfMinColWidth
		}
		widths[i] = w
		total += w
	}
	scale := usable / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}

// fitText shortens UTF-8 text to width and returns it translated for the core fonts.
// Truncation happens on runes before translation so multi-byte characters stay whole.
func fitText(pdf *gofpdf.Fpdf, tr func(string) string, text string, width float64) string {
	if out := tr(text); pdf.GetStringWidth(out) <= width {
		return out
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes))+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes)) + "..."
}
