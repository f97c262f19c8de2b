package visits

import "time"

// Visit is one technician's inspection of a site.
type Visit struct {
	ID         string    `json:"id"`
	SiteName   string    `json:"siteName"`
	Address    string    `json:"address"`
	Verticals  []string  `json:"verticals"`
	TechUserID string    `json:"techUserId"`
	VisitNotes string    `json:"visitNotes"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateInput is the body accepted by POST /visits.
type CreateInput struct {
	SiteName   string   `json:"siteName" binding:"required"`
	Address    string   `json:"address" binding:"required"`
	Verticals  []string `json:"verticals" binding:"required,min=1"`
	TechUserID string   `json:"techUserId" binding:"required"`
	VisitNotes string   `json:"visitNotes"`
}

// Patch carries the mutable fields of a visit. Nil fields are left unchanged.
type Patch struct {
	VisitNotes *string   `json:"visitNotes"`
	Verticals  *[]string `json:"verticals"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.VisitNotes == nil && p.Verticals == nil
}
