// Package export handles exporting chat sessions to various formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alienxp03/council/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Session is a point-in-time snapshot of the conversation: the turn log,
// the recorded responses, and the roster used to resolve persona names.
type Session struct {
	ExportedAt time.Time                    `json:"exported_at"`
	Personas   []core.Persona               `json:"personas"`
	Turns      []*core.Turn                 `json:"turns"`
	Responses  map[string]map[string]string `json:"responses"`
}

// Exporter defines the interface for exporting sessions.
type Exporter interface {
	Export(session *Session, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(session *Session, ext string) string {
	timestamp := session.ExportedAt.Format("20060102_150405")
	return fmt.Sprintf("council_session_%s.%s", timestamp, ext)
}

// PersonaName resolves a persona's display name from the session roster,
// tolerating deleted personas.
func (s *Session) PersonaName(id string) string {
	for _, p := range s.Personas {
		if p.ID == id {
			return p.Name
		}
	}
	return "(removed)"
}

// TurnLabel returns a human label for a turn's origin.
func TurnLabel(turn *core.Turn) string {
	if turn.Kind == core.KindAuto {
		return "Debate Round"
	}
	return "User"
}

// Helper to format duration
func formatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}

// responseLines returns a turn's responses in responder order as labeled
// lines, skipping absent cells.
func responseLines(session *Session, turn *core.Turn) []string {
	var lines []string
	cells := session.Responses[turn.ID]
	for _, pid := range turn.RespondingPersonaIDs {
		text, ok := cells[pid]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", session.PersonaName(pid), strings.TrimSpace(text)))
	}
	return lines
}
