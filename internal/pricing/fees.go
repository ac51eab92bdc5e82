package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/noah-isme/backend-acara/internal/money"
)

// ErrBadBrackets indicates an overlapping or discontiguous delivery bracket
// configuration. It is raised at configuration load, never during a live
// quote.
var ErrBadBrackets = errors.New("pricing: invalid delivery brackets")

// Delivery ineligibility reasons surfaced to the UI.
const (
	ReasonNoDelivery      = "no delivery offered"
	ReasonDistanceUnknown = "distance unknown"
	ReasonBelowMinimum    = "below delivery minimum"
	ReasonOutOfRange      = "outside delivery range"
)

// DeliveryBracket charges a flat fee for distances in [MinMiles, MaxMiles).
type DeliveryBracket struct {
	MinMiles float64     `json:"minMiles"`
	MaxMiles float64     `json:"maxMiles"`
	Label    string      `json:"label"`
	Fee      money.Money `json:"feeCents"`
}

// Contains reports whether the distance falls inside the bracket.
func (b DeliveryBracket) Contains(miles float64) bool {
	return miles >= b.MinMiles && miles < b.MaxMiles
}

// FeeConfig is the admin-controlled fee portion of the pricing configuration.
// It is threaded explicitly through every calculator call; nothing reads
// ambient settings at compute time.
type FeeConfig struct {
	ServiceFeeBps    int64
	ServiceFeeWaived bool
	Brackets         []DeliveryBracket
	DeliveryMinimum  money.Money
}

// ValidateBrackets rejects overlapping or non-contiguous bracket sets. Sorted
// by MinMiles, each bracket must start exactly where the previous one ended.
func ValidateBrackets(brackets []DeliveryBracket) error {
	if len(brackets) == 0 {
		return nil
	}
	sorted := make([]DeliveryBracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinMiles < sorted[j].MinMiles })

	for i, b := range sorted {
		if b.MinMiles < 0 {
			return fmt.Errorf("%w: bracket %q starts below zero", ErrBadBrackets, b.Label)
		}
		if b.MaxMiles <= b.MinMiles {
			return fmt.Errorf("%w: bracket %q is empty or inverted", ErrBadBrackets, b.Label)
		}
		if b.Fee < 0 {
			return fmt.Errorf("%w: bracket %q has a negative fee", ErrBadBrackets, b.Label)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if b.MinMiles < prev.MaxMiles {
			return fmt.Errorf("%w: brackets %q and %q overlap", ErrBadBrackets, prev.Label, b.Label)
		}
		if b.MinMiles > prev.MaxMiles {
			return fmt.Errorf("%w: gap between brackets %q and %q", ErrBadBrackets, prev.Label, b.Label)
		}
	}
	return nil
}

// ParseBrackets loads and validates a bracket set from its JSON
// representation.
func ParseBrackets(raw []byte) ([]DeliveryBracket, error) {
	var brackets []DeliveryBracket
	if err := json.Unmarshal(raw, &brackets); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBrackets, err)
	}
	if err := ValidateBrackets(brackets); err != nil {
		return nil, err
	}
	return brackets, nil
}

// ComputeServiceFee returns the platform service fee on a subtotal. Pure and
// independent of everything but the two inputs.
func ComputeServiceFee(subtotal money.Money, cfg FeeConfig) money.Money {
	if cfg.ServiceFeeWaived || cfg.ServiceFeeBps <= 0 || subtotal <= 0 {
		return 0
	}
	return money.ApplyBps(subtotal, cfg.ServiceFeeBps)
}

// DeliveryDetails is the result of delivery fee evaluation. An ineligible
// result always carries a human-readable reason; a silent zero fee is the bug
// class this shape exists to prevent.
type DeliveryDetails struct {
	Eligible bool        `json:"eligible"`
	Range    string      `json:"range,omitempty"`
	Fee      money.Money `json:"fee"`
	Reason   string      `json:"reason,omitempty"`
}

// ComputeDeliveryFee evaluates delivery eligibility and fee. A nil distance
// means the geocoding service could not resolve one; that degrades to
// ineligible rather than charging $0. vendorMinimum overrides the configured
// platform minimum when stricter.
func ComputeDeliveryFee(distanceMiles *float64, subtotal money.Money, offered bool, vendorMinimum money.Money, cfg FeeConfig) DeliveryDetails {
	if !offered {
		return DeliveryDetails{Eligible: false, Reason: ReasonNoDelivery}
	}
	if distanceMiles == nil || *distanceMiles < 0 {
		return DeliveryDetails{Eligible: false, Reason: ReasonDistanceUnknown}
	}
	minimum := cfg.DeliveryMinimum
	if vendorMinimum > minimum {
		minimum = vendorMinimum
	}
	var matched *DeliveryBracket
	for i := range cfg.Brackets {
		if cfg.Brackets[i].Contains(*distanceMiles) {
			matched = &cfg.Brackets[i]
			break
		}
	}
	if matched == nil {
		return DeliveryDetails{Eligible: false, Reason: ReasonOutOfRange}
	}
	if subtotal < minimum {
		return DeliveryDetails{Eligible: false, Range: matched.Label, Reason: ReasonBelowMinimum}
	}
	return DeliveryDetails{Eligible: true, Range: matched.Label, Fee: matched.Fee}
}
