package reports

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const emDash = "—"

// FormatMoney renders a decimal amount as $X.YY, rounding half away from
// zero. Amounts are always decimals parsed from text, so they are finite;
// a missing or non-numeric price is rendered by the caller, never here.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// RedactCurrency strips every dollar sign from free text.
func RedactCurrency(s string) string {
	return strings.ReplaceAll(s, "$", "")
}

// Plain-language blurbs used in the customer summary instead of the catalog text.
var customerBlurbs = map[string]string{
	"AO-ALCU": "Aluminum-to-copper terminations are prone to oxide build-up and loosening over time. Applying antioxidant compound and properly re-torquing helps prevent hot joints that can lead to nuisance trips, equipment damage, or fire risk.",
	"HND-TIE": "Handle ties or common-trip breakers ensure two circuits that share a neutral (MWBC) or are otherwise paired will disconnect together. Without this, parts of the circuit can remain energized unexpectedly, increasing shock and backfeed hazards.",
	"SVC-UPG": "Legacy service gear can lack modern safety features or capacity and can be difficult to maintain. Upgrading increases capacity, reliability, and safety while retiring obsolete components that pose operational and compliance risks.",
}

// SummaryFor returns the customer-facing summary of a finding, or "".
func SummaryFor(row FindingRow) string {
	if blurb, ok := customerBlurbs[row.ItemCode]; ok {
		return blurb
	}
	return row.WhyItMatters
}
