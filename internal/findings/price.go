package findings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a unit price as sent by clients: a JSON number or a string.
// The original text is kept verbatim; it is not required to be numeric.
type Price string

// UnmarshalJSON accepts a JSON number or string.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("unitPrice must be a number or string: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Text returns the stored text form, or nil for a nil price.
func (p *Price) Text() *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

// ParsePrice parses a stored unit price. ok is false for absent, empty or
// non-numeric text.
func ParsePrice(s *string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// LineTotal derives quantity * unitPrice, or nil when either is absent or
// the price is not numeric.
func LineTotal(qty *float64, unitPrice *string) *decimal.Decimal {
	if qty == nil {
		return nil
	}
	price, ok := ParsePrice(unitPrice)
	if !ok {
		return nil
	}
	total := decimal.NewFromFloat(*qty).Mul(price)
	return &total
}
