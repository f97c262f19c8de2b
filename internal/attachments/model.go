package attachments

import "strings"

// MaxSizeBytes caps a decoded upload.
const MaxSizeBytes = 25 << 20

// Attachment is a file captured during a visit, optionally linked to a finding.
type Attachment struct {
	ID        string   `json:"id"`
	VisitID   string   `json:"visitId"`
	FindingID *string  `json:"findingId"`
	BlobURL   string   `json:"blobUrl"`
	FileName  string   `json:"fileName"`
	MimeType  string   `json:"mimeType"`
	SizeBytes int64    `json:"sizeBytes"`
	Tags      []string `json:"tags"`
}

// IsImage reports whether the attachment is a raster image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

// LinkedTo reports whether the attachment belongs to findingID.
func (a Attachment) LinkedTo(findingID string) bool {
	return a.FindingID != nil && *a.FindingID == findingID
}

// UploadInput is the body accepted by POST /attachments.
type UploadInput struct {
	VisitID    string   `json:"visitId" validate:"required,uuid"`
	FindingID  *string  `json:"findingId" validate:"omitempty,uuid"`
	FileName   string   `json:"fileName" validate:"required"`
	MimeType   string   `json:"mimeType" validate:"required"`
	DataBase64 string   `json:"dataBase64" validate:"required"`
	Tags       []string `json:"tags" validate:"omitempty,dive,oneof=Photo IR Torque Nameplate Doc Other"`
}

// LinkInput is the body accepted by POST /attachments/link.
type LinkInput struct {
	FindingID     string   `json:"findingId" validate:"required,uuid"`
	AttachmentIDs []string `json:"attachmentIds" validate:"required,min=1,dive,uuid"`
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}
