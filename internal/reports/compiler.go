package reports

import (
	"context"
	"errors"
	"fmt"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/shared/telemetry"
)

// ImageSource yields embeddable images for attachments.
type ImageSource interface {
	Normalize(ctx context.Context, a attachments.Attachment) (Image, error)
}

// Layout lays out one audience's report on a Builder.
type Layout interface {
	Audience() Audience
	Title() string
	Compose(ctx context.Context, b *Builder, data ReportData) error
}

// LayoutFor returns the layout for an audience.
func LayoutFor(a Audience) (Layout, error) {
	switch a {
	case AudienceCustomer:
		return CustomerLayout{}, nil
	case AudienceInsurer:
		return InsurerLayout{}, nil
	}
	return nil, fmt.Errorf("%w: unknown report type %q", ErrInvalidInput, a)
}

// Compiler turns ReportData into a Document using a Layout.
type Compiler struct {
	Images     ImageSource
	DateFormat string
}

// Compile runs layout over data. Image failures become placeholder pages and
// never abort compilation.
func (c *Compiler) Compile(ctx context.Context, data ReportData, layout Layout) (Document, error) {
	dateFormat := c.DateFormat
	if dateFormat == "" {
		dateFormat = "January 2, 2006"
	}
	b := &Builder{
		images: c.Images,
		data:   data,
		doc: Document{
			Title:        layout.Title(),
			SiteName:     data.Visit.SiteName,
			VisitID:      data.Visit.ID,
			RenderedDate: data.GeneratedAt.Format(dateFormat),
			Author:       "CEC",
			GeneratedAt:  data.GeneratedAt,
		},
	}
	b.doc.Pages = []Page{{}}
	if err := layout.Compose(ctx, b, data); err != nil {
		return Document{}, err
	}
	return b.doc, nil
}

// Builder accumulates pages for a layout.
type Builder struct {
	images    ImageSource
	data      ReportData
	doc       Document
	photoPage bool
}

func (b *Builder) current() *Page {
	return &b.doc.Pages[len(b.doc.Pages)-1]
}

func (b *Builder) add(in Instruction) {
	if b.photoPage {
		b.startPage()
	}
	p := b.current()
	p.Instructions = append(p.Instructions, in)
}

func (b *Builder) startPage() {
	b.doc.Pages = append(b.doc.Pages, Page{})
	b.photoPage = false
}

// NewPage starts a fresh page unless the current one is still empty.
func (b *Builder) NewPage() {
	if len(b.current().Instructions) == 0 {
		b.photoPage = false
		return
	}
	b.startPage()
}

// Text appends a left-aligned paragraph.
func (b *Builder) Text(content string, size float64) {
	b.add(Text{Content: content, Size: size, Align: AlignLeft})
}

// TextAligned appends a paragraph with explicit alignment.
func (b *Builder) TextAligned(content string, size float64, align Align) {
	b.add(Text{Content: content, Size: size, Align: align})
}

// Space advances by a fraction of a line.
func (b *Builder) Space(lines float64) {
	b.add(Spacer{Lines: lines})
}

// Rule draws a separator.
func (b *Builder) Rule() {
	b.add(Rule{})
}

// Row appends a table row.
func (b *Builder) Row(size float64, cells ...Cell) {
	b.add(TableRow{Cells: cells, Size: size})
}

// Photos emits one page per image linked to row, captioned
// "<code> <name> · Photo <n>/<total>". Images that cannot be normalized get
// a placeholder page instead. Text added afterwards starts a new page.
func (b *Builder) Photos(ctx context.Context, row FindingRow) error {
	photos := b.data.Photos(row.ID)
	for i, a := range photos {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.NewPage()
		img, err := b.images.Normalize(ctx, a)
		if err != nil {
			if !errors.Is(err, ErrImageUnavailable) {
				err = fmt.Errorf("%w: %v", ErrImageUnavailable, err)
			}
			telemetry.Warn("report.image_fallback", map[string]any{
				"visit_id":      b.data.Visit.ID,
				"attachment_id": a.ID,
				"file_name":     a.FileName,
				"error":         err.Error(),
			})
			b.doc.ImageFallbacks++
			p := b.current()
			p.Instructions = append(p.Instructions, Placeholder{FileName: a.FileName})
			b.photoPage = true
			continue
		}
		p := b.current()
		p.Instructions = append(p.Instructions, Photo{
			FileName: a.FileName,
			Image:    img,
			Rect:     FitRect(img.Width, img.Height),
			Caption:  fmt.Sprintf("%s %s · Photo %d/%d", row.ItemCode, row.ItemName, i+1, len(photos)),
			CaptionY: CaptionY,
		})
		b.photoPage = true
	}
	return nil
}
