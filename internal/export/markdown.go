package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/council/internal/core"
)

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct{}

// Export writes the session as Markdown.
func (e *MarkdownExporter) Export(session *Session, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# Council Session\n\n")

	// Metadata
	sb.WriteString("## Session Information\n\n")
	sb.WriteString(fmt.Sprintf("- **Exported:** %s\n", session.ExportedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString(fmt.Sprintf("- **Turns:** %d\n", len(session.Turns)))
	if len(session.Turns) > 0 {
		first := session.Turns[0].CreatedAt
		last := session.Turns[len(session.Turns)-1].CreatedAt
		sb.WriteString(fmt.Sprintf("- **Duration:** %s\n", formatDuration(first, last)))
	}
	sb.WriteString("\n")

	// Roster
	sb.WriteString("## Personas\n\n")
	if len(session.Personas) == 0 {
		sb.WriteString("*No personas configured.*\n\n")
	}
	for _, p := range session.Personas {
		status := "inactive"
		if p.IsActive {
			status = "active"
		}
		sb.WriteString(fmt.Sprintf("- **%s** (%s) - %s\n", p.Name, p.Role, status))
	}
	sb.WriteString("\n")

	// Conversation
	sb.WriteString("## Conversation\n\n")
	if len(session.Turns) == 0 {
		sb.WriteString("*No turns recorded.*\n\n")
	}

	for i, turn := range session.Turns {
		sb.WriteString(fmt.Sprintf("### Turn %d - %s\n\n", i+1, TurnLabel(turn)))
		sb.WriteString(fmt.Sprintf("*%s*\n\n", turn.CreatedAt.Format("3:04 PM")))
		if turn.Kind == core.KindUser {
			sb.WriteString(fmt.Sprintf("> %s\n\n", turn.DisplayText))
		}

		cells := session.Responses[turn.ID]
		for _, pid := range turn.RespondingPersonaIDs {
			text, ok := cells[pid]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("#### %s\n\n", session.PersonaName(pid)))
			sb.WriteString(strings.TrimSpace(text))
			sb.WriteString("\n\n")
		}
		sb.WriteString("---\n\n")
	}

	// Footer
	sb.WriteString("*Exported from council*\n")

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
