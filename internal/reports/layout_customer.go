package reports

import (
	"context"
	"fmt"
)

// CustomerLayout renders the customer bill: summary, priced details with
// photos, the Final Bill table and an appendix of items marked No.
type CustomerLayout struct{}

func (CustomerLayout) Audience() Audience { return AudienceCustomer }
func (CustomerLayout) Title() string      { return "Customer Bill" }

func (l CustomerLayout) Compose(ctx context.Context, b *Builder, data ReportData) error {
	v := data.Visit
	b.TextAligned(l.Title(), 22, AlignCenter)
	b.Space(0.75)
	b.TextAligned("Site: "+v.SiteName, 14, AlignCenter)
	b.TextAligned("Address: "+v.Address, 14, AlignCenter)
	b.TextAligned("Technician: "+v.TechUserID, 14, AlignCenter)
	b.Space(0.75)

	b.Text(fmt.Sprintf("Deficiencies found: %d", len(data.Findings)), 16)
	for _, f := range data.Findings {
		b.Text("• "+f.Heading(true), 14)
		b.Space(0.25)
	}
	b.Space(0.8)

	b.Text("Summary of findings", 16)
	b.Space(0.4)
	for _, f := range data.Findings {
		if summary := SummaryFor(f); summary != "" {
			b.Text(f.ItemCode+" "+emDash+" "+summary, 12)
			b.Space(0.4)
		}
	}
	b.Space(0.75)

	b.NewPage()
	for _, f := range data.Findings {
		b.Text(f.Heading(true), 12)
		b.Space(0.15)
		b.Text(DetailLine(f), 11)
		if f.Notes != "" {
			b.Space(0.15)
			b.Text("Notes: "+f.Notes, 11)
		}
		b.Space(0.75)
		if err := b.Photos(ctx, f); err != nil {
			return err
		}
	}

	b.NewPage()
	b.Text("Final Bill", 14)
	b.Space(0.25)
	b.Row(11,
		Cell{Text: "Item", Width: 0.55},
		Cell{Text: "Quantity", Width: 0.15},
		Cell{Text: "Pricing", Width: 0.15},
		Cell{Text: "Ext. Pricing", Width: 0.15},
	)
	b.Space(0.25)
	b.Rule()
	b.Space(0.25)
	lines, subtotal := BillLines(data.Findings)
	for _, line := range lines {
		b.Row(10,
			Cell{Text: line.Row.Heading(true), Width: 0.55},
			Cell{Text: line.Quantity, Width: 0.15},
			Cell{Text: line.Pricing, Width: 0.15},
			Cell{Text: line.Extended, Width: 0.15},
		)
		b.Space(0.35)
	}
	b.Space(0.5)
	b.TextAligned("Subtotal: "+FormatMoney(subtotal), 12, AlignRight)
	b.TextAligned("Total: "+FormatMoney(subtotal), 12, AlignRight)

	if len(data.NoFindings) > 0 {
		b.NewPage()
		b.Text("Items marked No", 12)
		b.Space(0.5)
		for _, n := range data.NoFindings {
			b.Text(n.Heading(false)+": No", 10)
		}
	}
	return nil
}
