package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/council/internal/core"
)

// PDFExporter exports sessions to PDF format.
type PDFExporter struct{}

// Export writes the session as PDF.
func (e *PDFExporter) Export(session *Session, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, "Council Session", "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Session Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "Exported:", session.ExportedAt.Format("January 2, 2006 at 3:04 PM"))
	e.addMetadataRow(pdf, "Turns:", fmt.Sprintf("%d", len(session.Turns)))
	if len(session.Turns) > 0 {
		first := session.Turns[0].CreatedAt
		last := session.Turns[len(session.Turns)-1].CreatedAt
		e.addMetadataRow(pdf, "Duration:", formatDuration(first, last))
	}
	pdf.Ln(5)

	// Roster section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Personas")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for _, p := range session.Personas {
		status := "inactive"
		if p.IsActive {
			status = "active"
		}
		pdf.Cell(0, 5, fmt.Sprintf("%s (%s) - %s", p.Name, p.Role, status))
		pdf.Ln(5)
	}
	pdf.Ln(5)

	// Conversation
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Conversation")
	pdf.Ln(8)

	if len(session.Turns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No turns recorded.")
		pdf.Ln(6)
	} else {
		for i, turn := range session.Turns {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			if turn.Kind == core.KindAuto {
				pdf.SetFillColor(255, 235, 205) // Light orange
			} else {
				pdf.SetFillColor(200, 230, 255) // Light blue
			}

			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("Turn %d - %s (%s)", i+1, TurnLabel(turn), turn.CreatedAt.Format("3:04 PM"))
			pdf.CellFormat(0, 7, header, "", 1, "", true, 0, "")

			pdf.SetFillColor(255, 255, 255)
			if turn.Kind == core.KindUser {
				pdf.SetFont("Arial", "I", 9)
				pdf.MultiCell(0, 5, e.sanitizeText(turn.DisplayText), "", "", false)
				pdf.Ln(2)
			}

			pdf.SetFont("Arial", "", 9)
			for _, line := range responseLines(session, turn) {
				pdf.MultiCell(0, 5, e.sanitizeText(line), "", "", false)
				pdf.Ln(2)
			}
			pdf.Ln(3)
		}
	}

	// Footer
	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from council", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// Sanitize text for PDF (remove problematic characters)
func (e *PDFExporter) sanitizeText(text string) string {
	// gofpdf uses Windows-1252 encoding by default
	replacer := strings.NewReplacer(
		"\u2018", "'", // Left single quote
		"\u2019", "'", // Right single quote
		"\u201C", "\"", // Left double quote
		"\u201D", "\"", // Right double quote
		"\u2013", "-", // En dash
		"\u2014", "--", // Em dash
		"\u2026", "...", // Ellipsis
		"\u2022", "*", // Bullet
		"\u00A0", " ", // Non-breaking space
	)
	return replacer.Replace(text)
}
