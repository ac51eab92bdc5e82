package money

import (
	"errors"
	"fmt"
	"math"
)

// Money is a currency amount in minor units (cents). All arithmetic in the
// pricing and settlement engines happens on this type; floating point only
// exists transiently at the conversion boundary.
type Money int64

var (
	// ErrInvalidAmount is returned for NaN, infinite, negative-where-disallowed
	// or out-of-bound inputs. It is fatal to the calculation that produced it.
	ErrInvalidAmount = errors.New("money: invalid amount")
)

// DefaultCeiling bounds any single amount accepted from upstream data.
// Configurable per deployment via Guard.
const DefaultCeiling Money = 100_000_000_00 // $100M

// Guard validates raw numeric inputs before they enter a calculation.
type Guard struct {
	Ceiling Money
}

func (g Guard) ceiling() Money {
	if g.Ceiling > 0 {
		return g.Ceiling
	}
	return DefaultCeiling
}

// FromFloat converts a major-unit decimal (e.g. dollars) into Money, rounding
// half away from zero to the nearest minor unit.
func (g Guard) FromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	m := Money(math.Round(v * 100))
	if m > g.ceiling() || m < -g.ceiling() {
		return 0, fmt.Errorf("%w: %.2f exceeds ceiling", ErrInvalidAmount, v)
	}
	return m, nil
}

// NonNegative validates an amount that must not be negative (unit prices,
// quantities priced into a subtotal).
func (g Guard) NonNegative(m Money) (Money, error) {
	if m < 0 {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, m)
	}
	if m > g.ceiling() {
		return 0, fmt.Errorf("%w: %s exceeds ceiling", ErrInvalidAmount, m)
	}
	return m, nil
}

// ApplyBps applies a basis-point rate (100bps == 1%) to an amount, rounding
// half up exactly once. Callers apply this at the point a component is added
// to a total, never on intermediate values, so rounding error cannot compound.
func ApplyBps(m Money, bps int64) Money {
	v := int64(m) * bps
	if v >= 0 {
		return Money((v + 5_000) / 10_000)
	}
	return Money((v - 5_000) / 10_000)
}

// PercentToBps converts a percentage expressed as a float (e.g. 5.0 for 5%)
// into basis points.
func PercentToBps(pct float64) int64 {
	return int64(math.Round(pct * 100))
}

// Mul multiplies an amount by an integer quantity.
func Mul(m Money, qty int64) Money {
	return m * Money(qty)
}

// Max returns the larger of two amounts.
func Max(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}

// String renders the amount as a major-unit decimal, e.g. "25.00" or "-10.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Float64 converts to major units for display layers. Never feed the result
// back into a calculation.
func (m Money) Float64() float64 {
	return float64(m) / 100
}
