// Package render produces downloadable files: pitch deck PDFs and
// financial projection workbooks.
package render

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
)

// DeckPDF renders a cover page followed by one landscape page per slide.
func DeckPDF(d *pitchdeck.Deck) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetMargins(20, 20, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Cover.
	pdf.AddPage()
	pdf.Ln(50)
	pdf.SetFont("Helvetica", "B", 32)
	name := d.CompanyName
	if strings.TrimSpace(name) == "" {
		name = "Pitch Deck"
	}
	pdf.MultiCell(0, 14, tr(name), "", "C", false)
	if d.Tagline != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 16)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 8, tr(d.Tagline), "", "C", false)
		pdf.SetTextColor(0, 0, 0)
	}

	for i, s := range d.Slides {
		pdf.AddPage()
		title := s.Title
		if title == "" {
			title = pitchdeck.DefaultTitle(s.Kind)
		}
		pdf.SetFont("Helvetica", "B", 24)
		pdf.MultiCell(0, 12, tr(title), "", "L", false)
		pdf.SetDrawColor(40, 90, 200)
		pdf.SetLineWidth(0.8)
		y := pdf.GetY() + 2
		pdf.Line(20, y, 80, y)
		pdf.Ln(8)

		renderBody(pdf, tr, s.Content)

		// page number, below the break trigger
		pdf.SetAutoPageBreak(false, 0)
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, tr(strings.TrimSpace(name)+"  |  "+strconv.Itoa(i+1)), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetAutoPageBreak(true, 15)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderBody treats "- " and "* " lines as bullets and blank lines as spacing.
func renderBody(pdf *gofpdf.Fpdf, tr func(string) string, content string) {
	pdf.SetFont("Helvetica", "", 14)
	if strings.TrimSpace(content) == "" {
		pdf.SetTextColor(150, 150, 150)
		pdf.MultiCell(0, 7, tr("(da completare)"), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		return
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			pdf.MultiCell(0, 7, tr("• "+strings.TrimSpace(trimmed[2:])), "", "L", false)
		default:
			pdf.MultiCell(0, 7, tr(trimmed), "", "L", false)
		}
	}
}
