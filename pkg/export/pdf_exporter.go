package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Worksheet is the printable form of an activity.
type Worksheet struct {
	Title      string
	Objective  string
	Materials  string
	EstMinutes int
	Tags       []string
	Sections   []WorksheetSection
}

// WorksheetSection is one numbered step of a worksheet.
type WorksheetSection struct {
	Name  string
	Text  string
	Links []string
}

// PDFExporter renders worksheets as A4 PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays out the worksheet header followed by each section with a blank answer box.
func (e *PDFExporter) Render(ws Worksheet) ([]byte, error) {
	if strings.TrimSpace(ws.Title) == "" {
		return nil, fmt.Errorf("worksheet requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(ws.Title), "", "C", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 9)
	meta := fmt.Sprintf("Tiempo estimado: %d min", ws.EstMinutes)
	if len(ws.Tags) > 0 {
		meta += "   |   " + strings.Join(ws.Tags, ", ")
	}
	pdf.CellFormat(0, 6, tr(meta), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeBlock(pdf, tr, "Objetivo", ws.Objective)
	writeBlock(pdf, tr, "Materiales", ws.Materials)

	for i, section := range ws.Sections {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%d. %s", i+1, section.Name)), "B", 1, "", false, 0, "")
		pdf.Ln(1)
		if section.Text != "" {
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, tr(section.Text), "", "", false)
		}
		for _, link := range section.Links {
			pdf.SetFont("Arial", "U", 8)
			pdf.SetTextColor(30, 80, 160)
			pdf.CellFormat(0, 5, link, "", 1, "", false, 0, link)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(2)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, tr("Notas y evidencias:"), "", 1, "", false, 0, "")
		pdf.CellFormat(0, 25, "", "1", 1, "", false, 0, "")
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBlock(pdf *gofpdf.Fpdf, tr func(string) string, label, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, tr(label), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(body), "", "", false)
	pdf.Ln(3)
}
