package reports

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrVisitNotFound    = errors.New("visit not found")
	ErrNotFound         = errors.New("report not found")
	ErrGenerationFailed = errors.New("report generation failed")
	ErrImageUnavailable = errors.New("image unavailable")
)
