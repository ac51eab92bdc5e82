package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownServiceKind is returned when raw service details carry a kind the
// engine does not price.
var ErrUnknownServiceKind = errors.New("catalog: unknown service kind")

// rawDetails mirrors the two historical nestings of service details records:
// the current shape nests vertical-specific fields under the kind key
// ("catering": {"menuItems": ...}) while legacy rows keep them at the top
// level ("menuItems": ...). Normalization resolves both once, at cart entry.
type rawDetails struct {
	Catering    *CateringDetails    `json:"catering"`
	Venue       *VenueDetails       `json:"venue"`
	PartyRental *PartyRentalDetails `json:"partyRental"`
	Staff       *StaffDetails       `json:"staff"`

	// legacy top-level fields
	MenuItems []MenuItem       `json:"menuItems"`
	Items     []MenuItem       `json:"items"`
	Delivery  *DeliveryOptions `json:"delivery"`
	Capacity  int              `json:"capacity"`
	Role      string           `json:"role"`
}

// NormalizeDetails parses raw service_details JSON into the tagged variant for
// the given kind. Downstream read sites never sniff the raw shape again.
func NormalizeDetails(kind ServiceKind, raw json.RawMessage) (ServiceDetails, error) {
	if !kind.Valid() {
		return ServiceDetails{}, fmt.Errorf("%w: %q", ErrUnknownServiceKind, kind)
	}
	out := ServiceDetails{Kind: kind}
	if len(raw) == 0 {
		return withDefaults(out), nil
	}
	var r rawDetails
	if err := json.Unmarshal(raw, &r); err != nil {
		return ServiceDetails{}, fmt.Errorf("catalog: parse service details: %w", err)
	}
	switch kind {
	case KindCatering:
		if r.Catering != nil {
			out.Catering = r.Catering
		} else {
			out.Catering = &CateringDetails{MenuItems: r.MenuItems}
			if r.Delivery != nil {
				out.Catering.Delivery = *r.Delivery
			}
		}
	case KindVenue:
		if r.Venue != nil {
			out.Venue = r.Venue
		} else {
			out.Venue = &VenueDetails{Capacity: r.Capacity}
		}
	case KindPartyRental:
		if r.PartyRental != nil {
			out.PartyRental = r.PartyRental
		} else {
			out.PartyRental = &PartyRentalDetails{Items: r.Items}
			if r.Delivery != nil {
				out.PartyRental.Delivery = *r.Delivery
			}
		}
	case KindStaff:
		if r.Staff != nil {
			out.Staff = r.Staff
		} else {
			out.Staff = &StaffDetails{Role: r.Role}
		}
	}
	return out, nil
}

func withDefaults(d ServiceDetails) ServiceDetails {
	switch d.Kind {
	case KindCatering:
		d.Catering = &CateringDetails{}
	case KindVenue:
		d.Venue = &VenueDetails{}
	case KindPartyRental:
		d.PartyRental = &PartyRentalDetails{}
	case KindStaff:
		d.Staff = &StaffDetails{}
	}
	return d
}
