package reports

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderPDFProducesReadableDocument(t *testing.T) {
	f := newFixture(t)
	seedFindings(f)
	f.addPhoto("6f1c2a8e-0000-4000-8000-0000000000b1", findingA, "panel.png", "")

	doc := f.compile(AudienceCustomer)
	out, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:8])
	}
	pages, err := InspectPDF(out)
	if err != nil {
		t.Fatalf("InspectPDF: %v", err)
	}
	if pages < len(doc.Pages) {
		t.Fatalf("pages = %d, want at least %d", pages, len(doc.Pages))
	}
}

func TestRenderPDFWrapsLongText(t *testing.T) {
	doc := Document{Title: "Insurer Report", VisitID: "v", RenderedDate: "March 1, 2026", Author: "CEC"}
	doc.Pages = []Page{{Instructions: []Instruction{
		Text{Content: strings.Repeat("Loose lugs on the main breaker. ", 400), Size: 12, Align: AlignLeft},
	}}}
	out, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	pages, err := InspectPDF(out)
	if err != nil {
		t.Fatalf("InspectPDF: %v", err)
	}
	if pages < 2 {
		t.Fatalf("expected overflow onto a second page, got %d", pages)
	}
}

func TestRenderPDFReplacesUnembeddablePhoto(t *testing.T) {
	doc := Document{Title: "Customer Report", VisitID: "v", RenderedDate: "March 1, 2026", Author: "CEC"}
	doc.Pages = []Page{
		{Instructions: []Instruction{Text{Content: "Findings", Size: 12, Align: AlignLeft}}},
		{Instructions: []Instruction{Photo{
			FileName: "broken.png",
			Image:    Image{Data: truncatedPNG(t), Format: "png", Width: 40, Height: 20},
			Rect:     Rect{X: Margin, Y: Margin, W: 200, H: 100},
			Caption:  "broken.png",
			CaptionY: Margin + 110,
		}}},
	}
	out, err := RenderPDF(doc)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	pages, err := InspectPDF(out)
	if err != nil {
		t.Fatalf("InspectPDF: %v", err)
	}
	if pages < 2 {
		t.Fatalf("pages = %d, want at least 2", pages)
	}
}

func TestInspectPDFRejectsGarbage(t *testing.T) {
	if _, err := InspectPDF([]byte("definitely not a pdf")); err == nil {
		t.Fatalf("expected error")
	}
}
