package reports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inspection-backend/internal/findings"
)

const (
	findingA = "6f1c2a8e-0000-4000-8000-0000000000f1"
	findingB = "6f1c2a8e-0000-4000-8000-0000000000f2"
	findingN = "6f1c2a8e-0000-4000-8000-0000000000f3"
	findingX = "6f1c2a8e-0000-4000-8000-0000000000f4"
)

func seedFindings(f *fixture) {
	f.addFinding(findingB, "HND-TIE", findings.DecisionYes, 2, "call for quote", "Two shared neutrals, quoted $400")
	f.addFinding(findingA, "AO-ALCU", findings.DecisionYes, 4, "12.5", "")
	f.addFinding(findingN, "SVC-UPG", findings.DecisionNo, 0, "", "")
	f.addFinding(findingX, "ZZ-UNKNOWN", findings.DecisionYes, 1, "1", "")
}

func TestCompileCustomerLayout(t *testing.T) {
	f := newFixture(t)
	seedFindings(f)
	f.addPhoto("6f1c2a8e-0000-4000-8000-0000000000b1", findingA, "panel.png", "")

	doc := f.compile(AudienceCustomer)
	all := lines(doc)

	for _, want := range []string{
		"Customer Bill",
		"Site: Plant 7",
		"Technician: tech-42",
		"Deficiencies found: 2",
		"• AO-ALCU — Antioxidant on Al/Cu terminations",
		"AO-ALCU — " + customerBlurbs["AO-ALCU"],
		"Qty: 4 terminations    Unit: $12.50    Line: $50.00",
		"Qty: 2 ties    Unit: —    Line: $0.00",
		"AO-ALCU Antioxidant on Al/Cu terminations · Photo 1/1",
		"Item | Quantity | Pricing | Ext. Pricing",
		"AO-ALCU — Antioxidant on Al/Cu terminations | 4 | $12.50 | $50.00",
		"HND-TIE — Handle ties on MWBC | 2 | TBD | TBD",
		"Subtotal: $50.00",
		"Total: $50.00",
		"Items marked No",
		"SVC-UPG — Service upgrade: No",
	} {
		if !hasLine(all, want) {
			t.Fatalf("customer report missing %q:\n%s", want, strings.Join(all, "\n"))
		}
	}
	for _, l := range all {
		if strings.Contains(l, "ZZ-UNKNOWN") {
			t.Fatalf("finding without catalog item was rendered: %q", l)
		}
	}
	if doc.Title != "Customer Bill" || doc.RenderedDate != "March 1, 2026" {
		t.Fatalf("unexpected header data: %q %q", doc.Title, doc.RenderedDate)
	}
}

func TestCompilePhotoGetsOwnPage(t *testing.T) {
	f := newFixture(t)
	seedFindings(f)
	f.addPhoto("6f1c2a8e-0000-4000-8000-0000000000b1", findingA, "panel.png", "")

	doc := f.compile(AudienceInsurer)
	for i, p := range doc.Pages {
		for _, in := range p.Instructions {
			photo, ok := in.(Photo)
			if !ok {
				continue
			}
			if len(p.Instructions) != 1 {
				t.Fatalf("photo page %d shares the page with %d instructions", i, len(p.Instructions)-1)
			}
			if photo.Image.Format != "png" || photo.Image.Width != 40 || photo.Image.Height != 20 {
				t.Fatalf("unexpected image: %+v", photo.Image)
			}
			if i+1 >= len(doc.Pages) {
				t.Fatalf("expected the next finding on a page after the photo")
			}
			next, ok := doc.Pages[i+1].Instructions[0].(Text)
			if !ok || next.Content != "HND-TIE — Handle ties on MWBC" {
				t.Fatalf("expected next finding heading after photo, got %#v", doc.Pages[i+1].Instructions[0])
			}
			return
		}
	}
	t.Fatalf("no photo page compiled")
}

func TestCompileInsurerLayoutRedactsAndOmitsPricing(t *testing.T) {
	f := newFixture(t)
	seedFindings(f)

	doc := f.compile(AudienceInsurer)
	all := lines(doc)

	for _, want := range []string{
		"Insurer Report",
		"Deficiencies: 2",
		"HND-TIE — Handle ties on MWBC",
		"Qty: 2 ties",
		"Notes: Two shared neutrals, quoted 400",
		"Underwriting Rationale: Disconnects shared circuits together.",
	} {
		if !hasLine(all, want) {
			t.Fatalf("insurer report missing %q:\n%s", want, strings.Join(all, "\n"))
		}
	}
	for _, l := range all {
		if strings.Contains(l, "$") || strings.Contains(l, "Needs Quote") || strings.Contains(l, "marked No") {
			t.Fatalf("insurer report leaked customer content: %q", l)
		}
	}
}

func TestCompileImageFailureBecomesPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	f := newFixture(t)
	seedFindings(f)
	f.addPhoto("6f1c2a8e-0000-4000-8000-0000000000b2", findingA, "missing.jpg", srv.URL+"/missing.jpg")

	doc := f.compile(AudienceCustomer)
	if doc.ImageFallbacks != 1 {
		t.Fatalf("ImageFallbacks = %d, want 1", doc.ImageFallbacks)
	}
	if !hasLine(lines(doc), "Image unavailable: missing.jpg") {
		t.Fatalf("placeholder not rendered:\n%s", strings.Join(lines(doc), "\n"))
	}
}

func TestAssembleHonorsIncludedFindings(t *testing.T) {
	f := newFixture(t)
	seedFindings(f)

	data, err := f.svc.Assembler.Assemble(context.Background(), f.visit.ID, AudienceCustomer, []string{findingB})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if ids := data.FindingIDs(); len(ids) != 1 || ids[0] != findingB {
		t.Fatalf("FindingIDs = %v", ids)
	}
	if len(data.NoFindings) != 1 {
		t.Fatalf("expected the No finding in the appendix, got %d", len(data.NoFindings))
	}

	insurer, err := f.svc.Assembler.Assemble(context.Background(), f.visit.ID, AudienceInsurer, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(insurer.NoFindings) != 0 {
		t.Fatalf("insurer data should not carry No findings")
	}
	if ids := insurer.FindingIDs(); len(ids) != 2 || ids[0] != findingA || ids[1] != findingB {
		t.Fatalf("findings not ordered by item code: %v", ids)
	}
}

func TestAssembleUnknownVisit(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assembler.Assemble(context.Background(), "6f1c2a8e-0000-4000-8000-0000000000ff", AudienceCustomer, nil)
	if !errors.Is(err, ErrVisitNotFound) {
		t.Fatalf("expected ErrVisitNotFound, got %v", err)
	}
}
