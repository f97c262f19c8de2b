package attachments

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"inspection-backend/internal/shared/storage/object"
	"inspection-backend/internal/shared/telemetry"
	"inspection-backend/internal/shared/util"
)

// Service stores uploaded files and links them to findings.
type Service struct {
	Store    object.ObjectStore
	Repo     Repo
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo, validate: validator.New()}
}

func (s *Service) checker() *validator.Validate {
	if s.validate == nil {
		s.validate = validator.New()
	}
	return s.validate
}

// Upload decodes the base64 payload, stores it and records the attachment unlinked
// unless a finding id was supplied.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Attachment, error) {
	if err := s.checker().Struct(in); err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	data, err := base64.StdEncoding.DecodeString(in.DataBase64)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: dataBase64 is not valid base64", ErrInvalidInput)
	}
	if len(data) > MaxSizeBytes {
		return Attachment{}, ErrTooLarge
	}
	if !allowedMimeTypes[in.MimeType] {
		return Attachment{}, ErrUnsupported
	}
	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if sniffed := mimetype.Detect(data); !sniffed.Is(in.MimeType) {
		telemetry.Warn("attachment.mime_mismatch", map[string]any{
			"visit_id":  in.VisitID,
			"declared":  in.MimeType,
			"detected":  sniffed.String(),
			"file_name": fileName,
		})
	}

	id := uuid.NewString()
	key := fmt.Sprintf("attachments/%s/%s-%s", in.VisitID, id, fileName)
	url, err := s.Store.Put(ctx, key, in.MimeType, bytes.NewReader(data))
	if err != nil {
		return Attachment{}, fmt.Errorf("store attachment: %w", err)
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	a := Attachment{
		ID:        id,
		VisitID:   in.VisitID,
		FindingID: in.FindingID,
		BlobURL:   url,
		FileName:  fileName,
		MimeType:  in.MimeType,
		SizeBytes: int64(len(data)),
		Tags:      tags,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return Attachment{}, err
	}
	return a, nil
}

// ListByVisit returns a visit's attachments ordered by file name.
func (s *Service) ListByVisit(ctx context.Context, visitID string) ([]Attachment, error) {
	if _, err := uuid.Parse(strings.TrimSpace(visitID)); err != nil {
		return nil, fmt.Errorf("%w: visitId must be a uuid", ErrInvalidInput)
	}
	return s.Repo.ListByVisit(ctx, visitID)
}

// Link associates attachments with a finding.
func (s *Service) Link(ctx context.Context, in LinkInput) (int64, error) {
	if err := s.checker().Struct(in); err != nil {
		return 0, fmt.Errorf("%w: findingId and attachmentIds[] required", ErrInvalidInput)
	}
	return s.Repo.LinkToFinding(ctx, in.FindingID, in.AttachmentIDs)
}
