/*
# Module: amount/normalize.go
Donation amount normalization, strict parsing and base-unit conversion.

## Linked Modules
(None - amount is a leaf package)

## Tags
payments, amount, decimal, validation

## Exports
Amount, Normalize, Resolve, Parse, ToBaseUnits, Zero

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "amount/normalize.go" ;
    code:description "Donation amount normalization, strict parsing and base-unit conversion" ;
    code:exports :Amount, :Normalize, :Resolve, :Parse, :ToBaseUnits, :Zero ;
    code:tags "payments", "amount", "decimal", "validation" .
<!-- End LinkedDoc RDF -->
*/
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is returned by Parse for text that is not a positive decimal amount
var ErrInvalid = errors.New("invalid amount")

// Zero is the amount every invalid submission resolves to
var Zero = Amount{Text: "0.00", Value: decimal.Zero}

// Amount is a donation amount with exactly two fractional digits
type Amount struct {
	Text  string
	Value decimal.Decimal
}

// String returns the two-decimal text form
func (a Amount) String() string {
	return a.Text
}

// IsPositive reports whether the amount is greater than zero
func (a Amount) IsPositive() bool {
	return a.Value.IsPositive()
}

// Exceeds reports whether the amount is strictly greater than limit
func (a Amount) Exceeds(limit decimal.Decimal) bool {
	return a.Value.GreaterThan(limit)
}

// Normalize turns free-form text into a two-decimal amount string.
//
// Everything except digits and '.' is dropped. With more than one point the first
// one separates the integer part and the remaining digit groups are joined into
// the fraction. Unparsable input, and input that is not positive after rounding to
// cents, returns fallback unchanged, so amount entry never produces a parse error.
func Normalize(raw, fallback string) string {
	n, ok := clean(raw)
	if !ok || !n.Round(2).IsPositive() {
		return fallback
	}
	return n.StringFixed(2)
}

// Resolve normalizes raw for submission. Invalid, non-positive and negative
// input (a '-' anywhere before the first digit, which Normalize would otherwise
// strip) resolves to Zero so that validation rejects it.
func Resolve(raw string) Amount {
	if negative(raw) {
		return Zero
	}
	n, ok := clean(raw)
	if !ok {
		return Zero
	}
	rounded := n.Round(2)
	return Amount{Text: rounded.StringFixed(2), Value: rounded}
}

// Parse strictly parses an amount that is already in decimal form
func Parse(text string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalid, text)
	}
	if !d.IsPositive() {
		return Zero, fmt.Errorf("%w: %q is not positive", ErrInvalid, text)
	}
	rounded := d.Round(2)
	return Amount{Text: rounded.StringFixed(2), Value: rounded}, nil
}

// ToBaseUnits converts an amount to the integer count of the token's smallest unit
// (USDC has 6 decimals, so 0.50 becomes 500000)
func ToBaseUnits(a Amount, decimals int32) string {
	return a.Value.Shift(decimals).Truncate(0).String()
}

// negative reports a minus sign ahead of the first digit, as in "-5", "$-5" or "USD -5"
func negative(raw string) bool {
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			return false
		case r == '-':
			return true
		}
	}
	return false
}

func clean(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if parts := strings.SplitN(cleaned, ".", 2); len(parts) == 2 {
		cleaned = parts[0] + "." + strings.ReplaceAll(parts[1], ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
