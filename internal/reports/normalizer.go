package reports

import (
	"bytes"
	"context"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/shared/storage/object"
)

const maxImageBytes = 50 << 20

// Image is an embeddable raster: JPEG or PNG bytes plus pixel dimensions.
type Image struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Fetcher retrieves the raw bytes behind a blob URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads blobs over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher builds a fetcher with a per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch GETs url; any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// StoreFetcher reads URLs under BaseURL straight from the object store and
// hands everything else to Next.
type StoreFetcher struct {
	BaseURL string
	Store   object.ObjectStore
	Next    Fetcher
}

// Fetch resolves url against the store when it carries the public prefix.
func (f *StoreFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	prefix := strings.TrimRight(f.BaseURL, "/") + "/"
	if f.Store != nil && f.BaseURL != "" && strings.HasPrefix(url, prefix) {
		rc, err := f.Store.Open(ctx, strings.TrimPrefix(url, prefix))
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxImageBytes))
	}
	if f.Next == nil {
		return nil, fmt.Errorf("no fetcher for %s", url)
	}
	return f.Next.Fetch(ctx, url)
}

// ImageNormalizer turns attachment blobs into images the PDF writer accepts.
type ImageNormalizer struct {
	Fetcher Fetcher
}

// Normalize fetches the attachment and returns JPEG or PNG bytes. Every
// failure wraps ErrImageUnavailable.
func (n *ImageNormalizer) Normalize(ctx context.Context, a attachments.Attachment) (Image, error) {
	raw, err := n.Fetcher.Fetch(ctx, a.BlobURL)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, a.FileName, err)
	}
	img, err := NormalizeBytes(raw)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, a.FileName, err)
	}
	return img, nil
}

// NormalizeBytes sniffs the real encoding of raw. Baseline JPEG and 8-bit
// non-interlaced PNG pass through; any other decodable raster is re-encoded
// as PNG. The result has been fully decoded and accepted by the PDF writer.
func NormalizeBytes(raw []byte) (Image, error) {
	img, err := normalize(raw)
	if err != nil {
		return Image{}, err
	}
	if err := checkEmbeddable(img); err != nil {
		return Image{}, err
	}
	return img, nil
}

func normalize(raw []byte) (Image, error) {
	if len(raw) == 0 {
		return Image{}, fmt.Errorf("empty image")
	}
	mt := mimetype.Detect(raw)
	switch {
	case mt.Is("image/jpeg"):
		return passThrough(raw, "jpeg")
	case mt.Is("image/png") && embeddablePNG(raw):
		return passThrough(raw, "png")
	}

	decoded, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(decoded), imaging.PNG); err != nil {
		return Image{}, fmt.Errorf("encode png: %w", err)
	}
	b := decoded.Bounds()
	return Image{Data: buf.Bytes(), Format: "png", Width: b.Dx(), Height: b.Dy()}, nil
}

// passThrough decodes every pixel so truncated or corrupt data is rejected
// here rather than inside the PDF writer.
func passThrough(raw []byte, format string) (Image, error) {
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("decode %s: %w", format, err)
	}
	b := decoded.Bounds()
	return Image{Data: raw, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// checkEmbeddable registers img with a scratch PDF. The writer panics on
// some malformed streams.
func checkEmbeddable(img Image) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("embed %s: %v", img.Format, rec)
		}
	}()
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.RegisterImageOptionsReader("check", fpdf.ImageOptions{ImageType: imageType(img.Format)}, bytes.NewReader(img.Data))
	if doc.Err() {
		return fmt.Errorf("embed %s: %w", img.Format, doc.Error())
	}
	return nil
}

// The PDF writer embeds only 8-bit, non-interlaced PNGs. IHDR holds the bit
// depth at byte 24 and the interlace method at byte 28.
func embeddablePNG(raw []byte) bool {
	if len(raw) < 29 {
		return false
	}
	return raw[24] <= 8 && raw[28] == 0
}
