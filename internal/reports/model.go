package reports

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"inspection-backend/internal/attachments"
	"inspection-backend/internal/findings"
	"inspection-backend/internal/visits"
)

// Audience selects the report layout.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceInsurer  Audience = "insurer"
)

// ParseAudience validates a report type string.
func ParseAudience(s string) (Audience, error) {
	switch a := Audience(strings.ToLower(strings.TrimSpace(s))); a {
	case AudienceCustomer, AudienceInsurer:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown report type %q", ErrInvalidInput, s)
}

// Report is an immutable record of one generated PDF.
type Report struct {
	ID                 string          `json:"id"`
	VisitID            string          `json:"visitId"`
	Type               Audience        `json:"type"`
	GeneratedBy        string          `json:"generatedBy"`
	GeneratedAt        time.Time       `json:"generatedAt"`
	PDFURL             string          `json:"pdfUrl"`
	IncludedFindingIDs []string        `json:"includedFindingIds"`
	Snapshot           json.RawMessage `json:"snapshot"`
}

// FindingRow is a finding joined with its catalog item.
type FindingRow struct {
	findings.Finding
	ItemName     string `json:"itemName"`
	Unit         string `json:"unit"`
	WhyItMatters string `json:"whyItMatters"`
}

// Heading joins code and name with an em dash and appends the quote marker when requested.
func (r FindingRow) Heading(withQuote bool) string {
	h := r.ItemCode + " " + emDash + " " + r.ItemName
	if withQuote && r.SendToQuote {
		h += "  (Needs Quote)"
	}
	return h
}

// Qty returns the quantity, treating absent as zero.
func (r FindingRow) Qty() float64 {
	if r.Quantity == nil {
		return 0
	}
	return *r.Quantity
}

// ReportData is everything a layout needs, loaded once per generation.
type ReportData struct {
	Audience    Audience
	Visit       visits.Visit
	Findings    []FindingRow
	NoFindings  []FindingRow
	Attachments []attachments.Attachment
	GeneratedAt time.Time
}

// Photos returns the image attachments linked to findingID in file-name order.
func (d ReportData) Photos(findingID string) []attachments.Attachment {
	var out []attachments.Attachment
	for _, a := range d.Attachments {
		if a.LinkedTo(findingID) && a.IsImage() {
			out = append(out, a)
		}
	}
	return out
}

// FindingIDs lists the ids of the Yes findings in report order.
func (d ReportData) FindingIDs() []string {
	ids := make([]string, 0, len(d.Findings))
	for _, f := range d.Findings {
		ids = append(ids, f.ID)
	}
	return ids
}

// Snapshot is the self-contained copy of the data a report was built from.
type Snapshot struct {
	Visit               visits.Visit `json:"visit"`
	Findings            []FindingRow `json:"findings"`
	NoFindings          []FindingRow `json:"noFindings,omitempty"`
	AttachmentsIncluded []string     `json:"attachmentsIncluded"`
}

// NewSnapshot copies data into a Snapshot.
func NewSnapshot(d ReportData) Snapshot {
	s := Snapshot{
		Visit:               d.Visit,
		Findings:            make([]FindingRow, 0, len(d.Findings)),
		AttachmentsIncluded: make([]string, 0),
	}
	for _, f := range d.Findings {
		s.Findings = append(s.Findings, FindingRow{Finding: f.Finding.Clone(), ItemName: f.ItemName, Unit: f.Unit, WhyItMatters: f.WhyItMatters})
	}
	if d.Audience == AudienceCustomer {
		s.NoFindings = make([]FindingRow, 0, len(d.NoFindings))
		for _, f := range d.NoFindings {
			s.NoFindings = append(s.NoFindings, FindingRow{Finding: f.Finding.Clone(), ItemName: f.ItemName, Unit: f.Unit, WhyItMatters: f.WhyItMatters})
		}
	}
	for _, a := range d.Attachments {
		if a.FindingID != nil {
			s.AttachmentsIncluded = append(s.AttachmentsIncluded, *a.FindingID)
		}
	}
	return s
}

// BillLine is one row of the customer Final Bill.
type BillLine struct {
	Row      FindingRow
	Quantity string
	Pricing  string
	Extended string
	Amount   decimal.Decimal
}

// BillLines prices every Yes finding. A row contributes to the subtotal only
// when its unit price is numeric and its quantity is positive.
func BillLines(rows []FindingRow) ([]BillLine, decimal.Decimal) {
	subtotal := decimal.Zero
	lines := make([]BillLine, 0, len(rows))
	for _, r := range rows {
		qty := r.Qty()
		line := BillLine{Row: r, Quantity: emDash, Pricing: "TBD", Extended: "TBD"}
		if qty != 0 {
			line.Quantity = FormatQuantity(qty)
		}
		if price, ok := findings.ParsePrice(r.UnitPrice); ok {
			line.Pricing = FormatMoney(price)
			if qty > 0 {
				line.Amount = decimal.NewFromFloat(qty).Mul(price)
				line.Extended = FormatMoney(line.Amount)
				subtotal = subtotal.Add(line.Amount)
			}
		}
		lines = append(lines, line)
	}
	return lines, subtotal
}

// DetailLine renders "Qty: q unit    Unit: $u    Line: $l" for the customer
// detail section. An absent price counts as zero; a non-numeric one shows
// an em dash and contributes nothing.
func DetailLine(r FindingRow) string {
	qty := r.Qty()
	unit := FormatMoney(decimal.Zero)
	price := decimal.Zero
	numeric := true
	if r.UnitPrice != nil && strings.TrimSpace(*r.UnitPrice) != "" {
		price, numeric = findings.ParsePrice(r.UnitPrice)
		if numeric {
			unit = FormatMoney(price)
		} else {
			unit = emDash
		}
	}

	line := decimal.Zero
	switch {
	case r.LineTotal != nil:
		line = *r.LineTotal
	case numeric:
		line = decimal.NewFromFloat(qty).Mul(price)
	}
	return fmt.Sprintf("Qty: %s %s    Unit: %s    Line: %s", FormatQuantity(qty), r.Unit, unit, FormatMoney(line))
}
