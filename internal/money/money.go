package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat GST rate applied to cart subtotals.
const DefaultTaxRate = "0.18"

var ErrInvalidPrice = errors.New("invalid price")

// Amount is a monetary value in the storefront's single currency.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{d: decimal.Zero}

func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// MustParse is meant for constants in code and tests.
func MustParse(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("money: parse %q: %v", s, err))
	}
	return Amount{d: d}
}

// ParsePrice converts a display price such as "$2.49" into an Amount.
// Everything except digits and the decimal point is dropped before parsing.
func ParsePrice(s string) (Amount, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return Amount{d: d}, nil
}

// ParseRate parses a fractional rate such as "0.18".
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("rate %q must not be negative", s)
	}
	return d, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Mul(rate decimal.Decimal) Amount { return Amount{d: a.d.Mul(rate)} }

func (a Amount) MulInt(n int) Amount { return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))} }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String returns the exact value without rounding.
func (a Amount) String() string { return a.d.String() }

// StringFixed2 rounds half away from zero to two decimal places.
func (a Amount) StringFixed2() string { return a.d.StringFixed(2) }

// Display renders the amount the way the storefront shows prices.
func (a Amount) Display() string { return "$" + a.StringFixed2() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.d.UnmarshalJSON(data)
}
