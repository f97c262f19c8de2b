package reports

import "time"

// US Letter in points with half-inch margins.
const (
	PageWidth    = 612.0
	PageHeight   = 792.0
	Margin       = 36.0
	CaptionSpace = 24.0

	PrintableWidth = PageWidth - 2*Margin
	photoAvailH    = PageHeight - 2*Margin - CaptionSpace
)

// Align is a horizontal text alignment.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Document is a compiled report: header data plus ordered pages of drawing
// instructions. It carries no PDF state; RenderPDF turns it into bytes.
type Document struct {
	Title        string
	SiteName     string
	VisitID      string
	RenderedDate string
	Author       string
	GeneratedAt  time.Time
	Pages        []Page
	// ImageFallbacks counts photos replaced by a placeholder.
	ImageFallbacks int
}

// Page is one logical page. Flowing text that overflows is continued on
// additional physical pages by the renderer.
type Page struct {
	Instructions []Instruction
}

// Instruction is a single drawing step.
type Instruction interface {
	instruction()
}

// Text is a flowing, wrapped paragraph.
type Text struct {
	Content string
	Size    float64
	Align   Align
	Gray    bool
}

// Spacer advances the cursor by Lines times the current line height.
type Spacer struct {
	Lines float64
}

// Rule is a light horizontal line across the printable width.
type Rule struct{}

// Cell is one column of a TableRow; Width is a fraction of the printable width.
type Cell struct {
	Text  string
	Width float64
}

// TableRow draws cells side by side on one line.
type TableRow struct {
	Cells []Cell
	Size  float64
}

// Rect is an absolute placement in points from the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Photo places a normalized image inside Rect with a centered caption at CaptionY.
type Photo struct {
	FileName string
	Image    Image
	Rect     Rect
	Caption  string
	CaptionY float64
}

// Placeholder stands in for an image that could not be embedded.
type Placeholder struct {
	FileName string
}

// Message is the text drawn for the placeholder.
func (p Placeholder) Message() string {
	name := p.FileName
	if name == "" {
		name = "file"
	}
	return "Image unavailable: " + name
}

func (Text) instruction()        {}
func (Spacer) instruction()      {}
func (Rule) instruction()        {}
func (TableRow) instruction()    {}
func (Photo) instruction()       {}
func (Placeholder) instruction() {}

// FitRect scales a w×h image to fit the photo area, preserving aspect ratio
// and centering it on both axes.
func FitRect(w, h int) Rect {
	if w <= 0 || h <= 0 {
		return Rect{X: Margin, Y: Margin, W: PrintableWidth, H: photoAvailH}
	}
	scale := PrintableWidth / float64(w)
	if s := photoAvailH / float64(h); s < scale {
		scale = s
	}
	drawW := float64(w) * scale
	drawH := float64(h) * scale
	return Rect{
		X: Margin + (PrintableWidth-drawW)/2,
		Y: Margin + (photoAvailH-drawH)/2,
		W: drawW,
		H: drawH,
	}
}

// CaptionY is where photo captions are drawn.
const CaptionY = Margin + photoAvailH + 6
