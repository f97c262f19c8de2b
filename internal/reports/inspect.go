package reports

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// InspectPDF parses a rendered PDF and returns its page count.
func InspectPDF(data []byte) (pages int, err error) {
	if len(data) == 0 {
		return 0, errors.New("empty pdf")
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
