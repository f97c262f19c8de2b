package reports

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"

	"inspection-backend/internal/shared/telemetry"
)

const (
	fontFamily   = "Helvetica"
	lineSpacing  = 1.2
	defaultSize  = 12.0
	headerSize   = 9.0
	captionSize  = 9.0
	ruleGray     = 221
	textGray     = 17
	captionGray  = 85
	pdfKeywords  = "CEC, Electrical, PM, Report"
	headerOffset = 14.0
)

// RenderPDF draws doc with the core Helvetica font and verifies the result
// parses back with at least one physical page per logical page.
func RenderPDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(true, Margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetSubject(doc.SiteName, true)
	pdf.SetKeywords(pdfKeywords, true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}

	// Core fonts are cp1252; this maps the em dash, bullet and middle dot.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	colW := PrintableWidth / 3

	pdf.SetHeaderFuncMode(func() {
		y := math.Max(4, Margin-headerOffset)
		pdf.SetFont(fontFamily, "", headerSize)
		pdf.SetTextColor(textGray, textGray, textGray)
		pdf.SetXY(Margin, y)
		pdf.CellFormat(colW, headerSize, tr(doc.SiteName), "", 0, "L", false, 0, "")
		pdf.SetXY(PageWidth/2-colW/2, y)
		pdf.CellFormat(colW, headerSize, tr(doc.Title), "", 0, "C", false, 0, "")
		pdf.SetXY(PageWidth-Margin-colW, y)
		pdf.CellFormat(colW, headerSize, tr(doc.RenderedDate), "", 0, "R", false, 0, "")
		pdf.SetDrawColor(ruleGray, ruleGray, ruleGray)
		pdf.Line(Margin, Margin-6, PageWidth-Margin, Margin-6)
	}, true)

	pdf.SetFooterFunc(func() {
		y := math.Min(PageHeight-8, PageHeight-Margin+4)
		pdf.SetDrawColor(ruleGray, ruleGray, ruleGray)
		pdf.Line(Margin, PageHeight-Margin+2, PageWidth-Margin, PageHeight-Margin+2)
		pdf.SetFont(fontFamily, "", headerSize)
		pdf.SetTextColor(textGray, textGray, textGray)
		pdf.SetXY(Margin, y)
		pdf.CellFormat(colW, headerSize, tr("Visit "+doc.VisitID), "", 0, "L", false, 0, "")
		pdf.SetXY(PageWidth/2-colW/2, y)
		pdf.CellFormat(colW, headerSize, "CEC", "", 0, "C", false, 0, "")
		pdf.SetXY(PageWidth-Margin-colW, y)
		pdf.CellFormat(colW, headerSize, "Page "+strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	r := &pdfRenderer{pdf: pdf, tr: tr, size: defaultSize}
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, in := range page.Instructions {
			r.draw(in)
		}
		if pdf.Err() {
			break
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %v", ErrGenerationFailed, err)
	}
	pages, err := InspectPDF(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: verify pdf: %v", ErrGenerationFailed, err)
	}
	if pages < len(doc.Pages) {
		return nil, fmt.Errorf("%w: expected at least %d pages, got %d", ErrGenerationFailed, len(doc.Pages), pages)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	size   float64
	images int
}

func (r *pdfRenderer) lineHeight() float64 {
	return r.size * lineSpacing
}

func (r *pdfRenderer) setFont(size float64, gray int) {
	if size <= 0 {
		size = defaultSize
	}
	r.size = size
	r.pdf.SetFont(fontFamily, "", size)
	r.pdf.SetTextColor(gray, gray, gray)
}

func (r *pdfRenderer) draw(in Instruction) {
	pdf := r.pdf
	switch v := in.(type) {
	case Text:
		gray := textGray
		if v.Gray {
			gray = captionGray
		}
		r.setFont(v.Size, gray)
		pdf.SetX(Margin)
		pdf.MultiCell(PrintableWidth, r.lineHeight(), r.tr(v.Content), "", string(v.Align), false)
	case Spacer:
		pdf.Ln(v.Lines * r.lineHeight())
	case Rule:
		y := pdf.GetY()
		pdf.SetDrawColor(ruleGray, ruleGray, ruleGray)
		pdf.Line(Margin, y, PageWidth-Margin, y)
	case TableRow:
		r.setFont(v.Size, textGray)
		top := pdf.GetY()
		x := Margin
		bottom := top
		for _, cell := range v.Cells {
			w := math.Round(PrintableWidth * cell.Width)
			pdf.SetXY(x, top)
			pdf.MultiCell(w, r.lineHeight(), r.tr(cell.Text), "", "L", false)
			if y := pdf.GetY(); y > bottom {
				bottom = y
			}
			x += w
		}
		pdf.SetXY(Margin, bottom)
	case Photo:
		if err := r.registerImage(v); err != nil {
			telemetry.Warn("report.image_embed_failed", map[string]any{
				"file_name": v.FileName,
				"error":     err.Error(),
			})
			r.placeholder(Placeholder{FileName: v.FileName})
			return
		}
		opts := fpdf.ImageOptions{ImageType: imageType(v.Image.Format)}
		pdf.ImageOptions(r.imageName(), v.Rect.X, v.Rect.Y, v.Rect.W, v.Rect.H, false, opts, 0, "")
		r.setFont(captionSize, captionGray)
		pdf.SetXY(Margin, v.CaptionY)
		pdf.CellFormat(PrintableWidth, captionSize, r.tr(v.Caption), "", 0, "C", false, 0, "")
	case Placeholder:
		r.placeholder(v)
	}
}

func (r *pdfRenderer) imageName() string {
	return "photo-" + strconv.Itoa(r.images)
}

// registerImage adds one photo to the document. A failure is confined to
// that photo and clears the writer's error state.
func (r *pdfRenderer) registerImage(v Photo) (err error) {
	r.images++
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("register image: %v", rec)
		}
		if err == nil && r.pdf.Err() {
			err = r.pdf.Error()
		}
		if err != nil {
			r.pdf.ClearError()
		}
	}()
	opts := fpdf.ImageOptions{ImageType: imageType(v.Image.Format)}
	r.pdf.RegisterImageOptionsReader(r.imageName(), opts, bytes.NewReader(v.Image.Data))
	return nil
}

func (r *pdfRenderer) placeholder(v Placeholder) {
	r.setFont(defaultSize, textGray)
	r.pdf.SetXY(Margin, Margin)
	r.pdf.MultiCell(PrintableWidth, r.lineHeight(), r.tr(v.Message()), "", "C", false)
}

func imageType(format string) string {
	if format == "jpeg" || format == "jpg" {
		return "JPG"
	}
	return "PNG"
}
