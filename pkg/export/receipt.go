package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is a printable fee receipt. All values are display strings.
type Receipt struct {
	SchoolName  string
	ReceiptNo   string
	Date        string
	StudentName string
	AdmissionNo string
	ClassName   string
	FeeType     string
	Method      string
	Amount      string
	CollectedBy string
	Remarks     string
}

// ReceiptPDF renders a half-page A5 receipt.
func ReceiptPDF(r Receipt) ([]byte, error) {
	if r.ReceiptNo == "" {
		return nil, fmt.Errorf("receipt number required")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(r.SchoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "OFFICIAL FEE RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	lines := [][2]string{
		{"Receipt No", r.ReceiptNo},
		{"Date", r.Date},
		{"Student", r.StudentName},
		{"Admission No", r.AdmissionNo},
		{"Class", r.ClassName},
		{"Fee Type", r.FeeType},
		{"Payment Method", r.Method},
		{"Amount", r.Amount},
		{"Collected By", r.CollectedBy},
	}
	if r.Remarks != "" {
		lines = append(lines, [2]string{"Remarks", r.Remarks})
	}
	for _, line := range lines {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, line[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, tr(line[1]), "1", 1, "", false, 0, "")
	}
	pdf.Ln(12)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Signature / Stamp", "T", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
