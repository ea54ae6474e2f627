package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; font-size: 11px; margin: 16px; }
h1 { font-size: 16px; text-align: center; text-transform: uppercase; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #444; padding: 3px 5px; text-align: left; }
th { background: #e6e6e6; }
tfoot td { border: none; font-style: italic; text-align: right; }
@media print { .no-print { display: none; } }
</style>
</head>
<body onload="window.print()">
<h1>{{.Title}}</h1>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- else}}
<tr><td colspan="{{len .Headers}}">No records</td></tr>
{{- end}}
</tbody>
<tfoot><tr><td colspan="{{len .Headers}}">Generated {{.Generated}}</td></tr></tfoot>
</table>
<p class="no-print"><button onclick="window.print()">Print</button></p>
</body>
</html>
`))

// HTMLExporter renders a print-friendly page that opens the browser print dialog.
type HTMLExporter struct {
	now func() time.Time
}

// NewHTMLExporter constructs an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{now: time.Now}
}

// Render produces the HTML document. Cell values are escaped by html/template.
func (e *HTMLExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		padded := make([]string, len(table.Headers))
		for c := range table.Headers {
			padded[c] = cell(row, c)
		}
		rows[i] = padded
	}
	buf := &bytes.Buffer{}
	err := printTemplate.Execute(buf, map[string]interface{}{
		"Title":     table.Title,
		"Headers":   table.Headers,
		"Rows":      rows,
		"Generated": e.now().Format("02 Jan 2006 15:04"),
	})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
