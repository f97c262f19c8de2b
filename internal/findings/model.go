package findings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision is the technician's verdict on a catalog item.
type Decision string

const (
	DecisionYes   Decision = "Yes"
	DecisionNo    Decision = "No"
	DecisionOther Decision = "Other"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionYes, DecisionNo, DecisionOther:
		return true
	}
	return false
}

// Finding records a decision on one catalog item during a visit.
type Finding struct {
	ID            string           `json:"id"`
	VisitID       string           `json:"visitId"`
	ItemCode      string           `json:"itemCode"`
	Decision      Decision         `json:"decision"`
	OtherReason   *string          `json:"otherReason"`
	Quantity      *float64         `json:"quantity"`
	UnitPrice     *string          `json:"unitPrice"`
	LineTotal     *decimal.Decimal `json:"lineTotal"`
	SendToQuote   bool             `json:"sendToQuote"`
	Notes         string           `json:"notes"`
	AttachmentIDs []string         `json:"attachments"`
	ExtraFields   map[string]any   `json:"extraPromptFields"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Clone returns a deep copy so callers can mutate freely.
func (f Finding) Clone() Finding {
	out := f
	if f.OtherReason != nil {
		v := *f.OtherReason
		out.OtherReason = &v
	}
	if f.Quantity != nil {
		v := *f.Quantity
		out.Quantity = &v
	}
	if f.UnitPrice != nil {
		v := *f.UnitPrice
		out.UnitPrice = &v
	}
	if f.LineTotal != nil {
		v := *f.LineTotal
		out.LineTotal = &v
	}
	out.AttachmentIDs = append([]string(nil), f.AttachmentIDs...)
	if f.ExtraFields != nil {
		out.ExtraFields = make(map[string]any, len(f.ExtraFields))
		for k, v := range f.ExtraFields {
			out.ExtraFields[k] = v
		}
	}
	return out
}

// CreateInput is the body accepted by POST /findings.
type CreateInput struct {
	VisitID       string         `json:"visitId" binding:"required,uuid"`
	ItemCode      string         `json:"itemCode" binding:"required"`
	Decision      Decision       `json:"decision" binding:"required,oneof=Yes No Other"`
	OtherReason   *string        `json:"otherReason"`
	Quantity      *float64       `json:"quantity"`
	UnitPrice     *Price         `json:"unitPrice"`
	SendToQuote   bool           `json:"sendToQuote"`
	Notes         string         `json:"notes"`
	AttachmentIDs []string       `json:"attachments" binding:"omitempty,dive,uuid"`
	ExtraFields   map[string]any `json:"extraPromptFields"`
}

// Patch amends a finding. Only fields present in the JSON body are applied;
// an explicit null clears a nullable field.
type Patch struct {
	Decision      Optional[Decision]       `json:"decision"`
	OtherReason   Optional[string]         `json:"otherReason"`
	Quantity      Optional[float64]        `json:"quantity"`
	UnitPrice     Optional[Price]          `json:"unitPrice"`
	SendToQuote   Optional[bool]           `json:"sendToQuote"`
	Notes         Optional[string]         `json:"notes"`
	AttachmentIDs Optional[[]string]       `json:"attachments"`
	ExtraFields   Optional[map[string]any] `json:"extraPromptFields"`
}

// TouchesPricing reports whether the patch changes quantity or unit price.
func (p Patch) TouchesPricing() bool {
	return p.Quantity.Set || p.UnitPrice.Set
}

// Apply returns f with the patch applied. LineTotal is recomputed when
// quantity or unit price changed.
func (p Patch) Apply(f Finding) Finding {
	out := f.Clone()
	if p.Decision.Set && p.Decision.Value != nil {
		out.Decision = *p.Decision.Value
	}
	if p.OtherReason.Set {
		out.OtherReason = p.OtherReason.Value
	}
	if p.Quantity.Set {
		out.Quantity = p.Quantity.Value
	}
	if p.UnitPrice.Set {
		out.UnitPrice = p.UnitPrice.Value.Text()
	}
	if p.SendToQuote.Set && p.SendToQuote.Value != nil {
		out.SendToQuote = *p.SendToQuote.Value
	}
	if p.Notes.Set && p.Notes.Value != nil {
		out.Notes = *p.Notes.Value
	}
	if p.AttachmentIDs.Set && p.AttachmentIDs.Value != nil {
		out.AttachmentIDs = append([]string(nil), (*p.AttachmentIDs.Value)...)
	}
	if p.ExtraFields.Set && p.ExtraFields.Value != nil {
		out.ExtraFields = *p.ExtraFields.Value
	}
	if p.TouchesPricing() {
		out.LineTotal = LineTotal(out.Quantity, out.UnitPrice)
	}
	return out
}
