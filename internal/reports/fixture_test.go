package reports

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/catalog"
	"inspection-backend/internal/events"
	"inspection-backend/internal/findings"
	"inspection-backend/internal/shared/storage/object/local"
	"inspection-backend/internal/visits"
)

const filesBaseURL = "http://files.test/api/v1/files"

var generatedAt = time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []events.Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fixture struct {
	t           *testing.T
	visits      *visits.MemoryRepo
	findings    *findings.MemoryRepo
	attachments *attachments.MemoryRepo
	reports     *MemoryRepo
	store       *local.Store
	events      *recordingPublisher
	visit       visits.Visit
	svc         *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:           t,
		visits:      visits.NewMemoryRepo(),
		attachments: attachments.NewMemoryRepo(),
		reports:     NewMemoryRepo(),
		store:       local.New(t.TempDir(), filesBaseURL),
		events:      &recordingPublisher{},
	}
	f.findings = findings.NewMemoryRepo(f.visits)

	f.visit = visits.Visit{
		ID:         "6f1c2a8e-0000-4000-8000-0000000000a1",
		SiteName:   "Plant 7",
		Address:    "1 Main St",
		Verticals:  []string{"All Sites"},
		TechUserID: "tech-42",
		CreatedAt:  generatedAt.Add(-time.Hour),
		UpdatedAt:  generatedAt.Add(-time.Hour),
	}
	if err := f.visits.Create(context.Background(), f.visit); err != nil {
		t.Fatalf("create visit: %v", err)
	}

	cat := catalog.NewMemoryRepo(
		catalog.Item{Code: "AO-ALCU", Name: "Antioxidant on Al/Cu terminations", Unit: "terminations", WhyItMatters: "Prevents hot joints."},
		catalog.Item{Code: "HND-TIE", Name: "Handle ties on MWBC", Unit: "ties", WhyItMatters: "Disconnects shared circuits together."},
		catalog.Item{Code: "LBL-PNL", Name: "Panel labeling", Unit: "panels", WhyItMatters: "Speeds up safe isolation."},
		catalog.Item{Code: "SVC-UPG", Name: "Service upgrade", Unit: "services"},
	)

	fetcher := &StoreFetcher{BaseURL: filesBaseURL, Store: f.store, Next: NewHTTPFetcher(2 * time.Second)}
	f.svc = &Service{
		Assembler: &Assembler{
			Visits:      f.visits,
			Findings:    f.findings,
			Attachments: f.attachments,
			Catalog:     cat,
			Now:         func() time.Time { return generatedAt },
		},
		Compiler:  &Compiler{Images: &ImageNormalizer{Fetcher: fetcher}},
		Persister: &Persister{Store: f.store, Repo: f.reports, Suffix: func() string { return "abcdef0123" }},
		Repo:      f.reports,
		Events:    f.events,
	}
	return f
}

func (f *fixture) addFinding(id, code string, decision findings.Decision, qty float64, price string, notes string) findings.Finding {
	f.t.Helper()
	fd := findings.Finding{
		ID:        id,
		VisitID:   f.visit.ID,
		ItemCode:  code,
		Decision:  decision,
		Notes:     notes,
		CreatedAt: generatedAt.Add(-time.Minute),
	}
	if qty != 0 {
		fd.Quantity = &qty
	}
	if price != "" {
		fd.UnitPrice = &price
	}
	if err := f.findings.Create(context.Background(), fd); err != nil {
		f.t.Fatalf("create finding: %v", err)
	}
	return fd
}

func (f *fixture) addPhoto(id, findingID, fileName, blobURL string) {
	f.t.Helper()
	if blobURL == "" {
		blobURL = f.putImage(fileName, testPNG(f.t, 40, 20))
	}
	fid := findingID
	a := attachments.Attachment{
		ID:        id,
		VisitID:   f.visit.ID,
		FindingID: &fid,
		BlobURL:   blobURL,
		FileName:  fileName,
		MimeType:  "image/png",
		Tags:      []string{"Photo"},
	}
	if err := f.attachments.Create(context.Background(), a); err != nil {
		f.t.Fatalf("create attachment: %v", err)
	}
}

func (f *fixture) putImage(fileName string, data []byte) string {
	f.t.Helper()
	url, err := f.store.Put(context.Background(), "attachments/"+f.visit.ID+"/"+fileName, "image/png", bytes.NewReader(data))
	if err != nil {
		f.t.Fatalf("put image: %v", err)
	}
	return url
}

// truncatedPNG keeps a valid header but cuts the pixel data short.
func truncatedPNG(t *testing.T) []byte {
	t.Helper()
	raw := testPNG(t, 40, 20)
	return raw[:len(raw)-30]
}

func (f *fixture) compile(audience Audience, included ...string) Document {
	f.t.Helper()
	layout, err := LayoutFor(audience)
	if err != nil {
		f.t.Fatalf("LayoutFor: %v", err)
	}
	data, err := f.svc.Assembler.Assemble(context.Background(), f.visit.ID, audience, included)
	if err != nil {
		f.t.Fatalf("Assemble: %v", err)
	}
	doc, err := f.svc.Compiler.Compile(context.Background(), data, layout)
	if err != nil {
		f.t.Fatalf("Compile: %v", err)
	}
	return doc
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 5), G: 80, B: uint8(y * 9), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// lines flattens every text-bearing instruction of doc.
func lines(doc Document) []string {
	var out []string
	for _, p := range doc.Pages {
		for _, in := range p.Instructions {
			switch v := in.(type) {
			case Text:
				out = append(out, v.Content)
			case TableRow:
				cells := make([]string, 0, len(v.Cells))
				for _, c := range v.Cells {
					cells = append(cells, c.Text)
				}
				out = append(out, strings.Join(cells, " | "))
			case Photo:
				out = append(out, v.Caption)
			case Placeholder:
				out = append(out, v.Message())
			}
		}
	}
	return out
}

func hasLine(all []string, want string) bool {
	for _, l := range all {
		if l == want {
			return true
		}
	}
	return false
}
