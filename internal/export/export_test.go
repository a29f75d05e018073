package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alienxp03/council/internal/core"
)

func testSession() *Session {
	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	return &Session{
		ExportedAt: base.Add(10 * time.Minute),
		Personas: []core.Persona{
			{ID: "1", Name: "Marcus", Role: "CFO", IsActive: true},
			{ID: "2", Name: "Sarah", Role: "CEO", IsActive: true},
		},
		Turns: []*core.Turn{
			{
				ID:                   "t1",
				Kind:                 core.KindUser,
				DisplayText:          "Should we launch?",
				PromptText:           "Should we launch?",
				RespondingPersonaIDs: []string{"1", "2", "gone"},
				CreatedAt:            base,
			},
			{
				ID:                   "t2",
				Kind:                 core.KindAuto,
				DisplayText:          "Debate round initiated",
				PromptText:           "[User]: Should we launch?\n...",
				RespondingPersonaIDs: []string{"2"},
				CreatedAt:            base.Add(2 * time.Minute),
			},
		},
		Responses: map[string]map[string]string{
			"t1": {"1": "No, too risky.", "2": "Yes, ship it!", "gone": "ghost words"},
			"t2": {"2": "I still say yes."},
		},
	}
}

func TestGetExporter(t *testing.T) {
	for _, format := range []Format{FormatMarkdown, FormatPDF, FormatJSON} {
		if _, err := GetExporter(format); err != nil {
			t.Errorf("%s: unexpected error: %v", format, err)
		}
	}
	if _, err := GetExporter(Format("docx")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGenerateFilename(t *testing.T) {
	s := testSession()
	got := GenerateFilename(s, "md")
	want := "council_session_20260830_141000.md"
	if got != want {
		t.Errorf("wrong filename: got %q, want %q", got, want)
	}
}

func TestPersonaName(t *testing.T) {
	s := testSession()
	if got := s.PersonaName("1"); got != "Marcus" {
		t.Errorf("got %q, want Marcus", got)
	}
	if got := s.PersonaName("gone"); got != "(removed)" {
		t.Errorf("got %q, want (removed)", got)
	}
}

func TestMarkdownExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Council Session",
		"**Turns:** 2",
		"- **Marcus** (CFO) - active",
		"### Turn 1 - User",
		"> Should we launch?",
		"#### Marcus",
		"No, too risky.",
		"#### (removed)",
		"### Turn 2 - Debate Round",
		"I still say yes.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// The debate digest is internal plumbing and must not leak into exports.
	if strings.Contains(out, "[User]:") {
		t.Error("auto turn prompt text leaked into export")
	}
}

func TestMarkdownExportEmptySession(t *testing.T) {
	var buf bytes.Buffer
	session := &Session{ExportedAt: time.Now()}
	if err := (&MarkdownExporter{}).Export(session, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "*No turns recorded.*") || !strings.Contains(out, "*No personas configured.*") {
		t.Errorf("empty-session placeholders missing:\n%s", out)
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var decoded Session
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Turns) != 2 {
		t.Errorf("wrong turn count: got %d, want 2", len(decoded.Turns))
	}
	if decoded.Responses["t1"]["2"] != "Yes, ship it!" {
		t.Errorf("responses not preserved: %v", decoded.Responses)
	}
}

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&PDFExporter{}).Export(testSession(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
	if buf.Len() < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", buf.Len())
	}
}

func TestFormatDuration(t *testing.T) {
	base := time.Now()
	tests := []struct {
		delta time.Duration
		want  string
	}{
		{30 * time.Second, "30 seconds"},
		{5 * time.Minute, "5 minutes"},
		{90 * time.Minute, "1.5 hours"},
	}
	for _, tt := range tests {
		if got := formatDuration(base, base.Add(tt.delta)); got != tt.want {
			t.Errorf("%v: got %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestFileExtensions(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatMarkdown, "md"},
		{FormatPDF, "pdf"},
		{FormatJSON, "json"},
	}
	for _, tt := range tests {
		e, err := GetExporter(tt.format)
		if err != nil {
			t.Fatalf("%s: %v", tt.format, err)
		}
		if got := e.FileExtension(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.format, got, tt.want)
		}
	}
}
