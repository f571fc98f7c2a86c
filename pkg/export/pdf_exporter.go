package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	// Widths optionally fixes column widths in millimetres, keyed by header.
	Widths map[string]float64
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType is the MIME type of rendered output.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Extension is the file extension of rendered output.
func (e *PDFExporter) Extension() string {
	return "pdf"
}

// Render creates a PDF document with an optional title and table body. The header row
// repeats on every page.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	widths := e.columnWidths(data.Headers, 277.0)
	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	pdf.SetHeaderFunc(func() {
		if title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
			pdf.Ln(2)
		}
		writeHeader()
	})
	pdf.AddPage()

	for _, row := range data.Rows {
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) columnWidths(headers []string, total float64) []float64 {
	widths := make([]float64, len(headers))
	remaining := total
	flexible := 0
	for i, header := range headers {
		if w, ok := e.Widths[header]; ok {
			widths[i] = w
			remaining -= w
			continue
		}
		flexible++
	}
	if flexible == 0 {
		return widths
	}
	share := remaining / float64(flexible)
	for i, header := range headers {
		if _, ok := e.Widths[header]; !ok {
			widths[i] = share
		}
	}
	return widths
}
