package money

import (
	"errors"
	"math"
	"testing"
)

func TestApplyBpsRoundsOnce(t *testing.T) {
	cases := []struct {
		name   string
		amount Money
		bps    int64
		want   Money
	}{
		{"five percent of 500 dollars", 50_000, 500, 2_500},
		{"rounds half up", 333, 500, 17},       // 16.65 -> 17
		{"rounds down below half", 10, 333, 0}, // 0.333 -> 0
		{"negative amount rounds away from zero", -333, 500, -17},
		{"zero rate", 50_000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyBps(tc.amount, tc.bps); got != tc.want {
				t.Fatalf("ApplyBps(%d, %d) = %d, want %d", tc.amount, tc.bps, got, tc.want)
			}
		})
	}
}

func TestGuardRejectsNonFinite(t *testing.T) {
	g := Guard{}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := g.FromFloat(v); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("FromFloat(%v) error = %v, want ErrInvalidAmount", v, err)
		}
	}
}

func TestGuardCeiling(t *testing.T) {
	g := Guard{Ceiling: 1_000_00}
	if _, err := g.FromFloat(2000); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("expected ceiling violation")
	}
	got, err := g.FromFloat(999.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 99_999 {
		t.Fatalf("got %d, want 99999", got)
	}
}

func TestGuardNonNegative(t *testing.T) {
	g := Guard{}
	if _, err := g.NonNegative(-1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount for negative input")
	}
	if v, err := g.NonNegative(42); err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestString(t *testing.T) {
	if s := Money(2_500).String(); s != "25.00" {
		t.Fatalf("got %q", s)
	}
	if s := Money(-1_050).String(); s != "-10.50" {
		t.Fatalf("got %q", s)
	}
	if s := Money(5).String(); s != "0.05" {
		t.Fatalf("got %q", s)
	}
}

func TestPercentToBps(t *testing.T) {
	if got := PercentToBps(5.0); got != 500 {
		t.Fatalf("got %d", got)
	}
	if got := PercentToBps(7.25); got != 725 {
		t.Fatalf("got %d", got)
	}
}
