package reports

import (
	"context"
	"fmt"
)

// InsurerLayout renders the underwriting report. It never shows prices and
// redacts currency from technician notes.
type InsurerLayout struct{}

func (InsurerLayout) Audience() Audience { return AudienceInsurer }
func (InsurerLayout) Title() string      { return "Insurer Report" }

func (l InsurerLayout) Compose(ctx context.Context, b *Builder, data ReportData) error {
	v := data.Visit
	b.TextAligned(l.Title(), 14, AlignCenter)
	b.Space(0.5)
	b.Text("Site: "+v.SiteName, 10)
	b.Text("Address: "+v.Address, 10)
	b.Text("Technician: "+v.TechUserID, 10)
	b.Space(0.5)
	b.Text(fmt.Sprintf("Deficiencies: %d", len(data.Findings)), 10)
	b.Space(0.25)

	for _, f := range data.Findings {
		b.Text(f.Heading(false), 10)
		b.Text(fmt.Sprintf("Qty: %s %s", FormatQuantity(f.Qty()), f.Unit), 10)
		if f.Notes != "" {
			b.Text("Notes: "+RedactCurrency(f.Notes), 10)
		}
		if f.WhyItMatters != "" {
			b.Text("Underwriting Rationale: "+f.WhyItMatters, 10)
		}
		b.Space(0.5)
		if err := b.Photos(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
