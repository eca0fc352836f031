package domain

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional TRX digits the ledger keeps.
const Scale = 6

// Amount is a TRX value stored as an integer count of micro-TRX (1 TRX = 1_000_000).
// Keeping balances integral avoids float drift in commission and refund arithmetic.
type Amount int64

var maxAmount = decimal.NewFromInt(math.MaxInt64).Shift(-Scale)

// ParseAmount parses a decimal string such as "3.5". More than six fractional
// digits is rejected rather than rounded, so "3.4999999" cannot sneak past a minimum.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts an exact decimal into micro units.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(Scale)) || d.Abs().GreaterThan(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return Amount(d.Shift(Scale).IntPart()), nil
}

// MustAmount is ParseAmount for constants and defaults.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("invalid amount %q", s))
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -Scale) }

// String formats with the full six fractional digits, e.g. "3.500000".
func (a Amount) String() string { return a.Decimal().StringFixed(Scale) }

func (a Amount) IsPositive() bool { return a > 0 }

func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// MulRate multiplies by a rate, rounding half away from zero to the nearest micro-TRX.
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return Amount(a.Decimal().Mul(rate).Shift(Scale).Round(0).IntPart())
}

// MarshalJSON writes a plain JSON number ("3.5"), which is what clients already expect.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal().String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	parsed, err := ParseAmount(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
