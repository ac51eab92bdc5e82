package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-acara/internal/money"
)

// ServiceKind tags the vendor vertical a service belongs to.
type ServiceKind string

const (
	KindCatering    ServiceKind = "catering"
	KindVenue       ServiceKind = "venue"
	KindPartyRental ServiceKind = "party_rental"
	KindStaff       ServiceKind = "staff"
)

// Valid reports whether the kind is one of the supported verticals.
func (k ServiceKind) Valid() bool {
	switch k {
	case KindCatering, KindVenue, KindPartyRental, KindStaff:
		return true
	}
	return false
}

// Address identifies a physical location for distance and tax purposes.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// IsZero reports whether no address component is set.
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == ""
}

// SubOption is a selectable option inside a combo category of a menu item.
type SubOption struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unitPrice"`
}

// ComboCategory groups sub-options under a menu item (e.g. "sides", "drinks").
type ComboCategory struct {
	Name    string      `json:"name"`
	Options []SubOption `json:"options"`
}

// MenuItem is an orderable line within a catering service.
type MenuItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	UnitPrice       money.Money     `json:"unitPrice"`
	ComboCategories []ComboCategory `json:"comboCategories,omitempty"`
}

// DeliveryOptions captures whether a service offers delivery and the minimum
// order value the vendor requires before delivering.
type DeliveryOptions struct {
	Offered bool        `json:"offered"`
	Minimum money.Money `json:"minimum"`
}

// CateringDetails is the normalized shape for catering services.
type CateringDetails struct {
	MenuItems []MenuItem      `json:"menuItems"`
	Delivery  DeliveryOptions `json:"delivery"`
}

// VenueDetails is the normalized shape for venue services.
type VenueDetails struct {
	Capacity int `json:"capacity"`
}

// PartyRentalDetails is the normalized shape for rental services.
type PartyRentalDetails struct {
	Items    []MenuItem      `json:"items"`
	Delivery DeliveryOptions `json:"delivery"`
}

// StaffDetails is the normalized shape for staffing services.
type StaffDetails struct {
	Role string `json:"role"`
}

// ServiceDetails is a tagged variant resolved once at cart-entry time.
// Exactly one of the pointers matching Kind is non-nil; read sites switch on
// Kind instead of re-sniffing raw JSON.
type ServiceDetails struct {
	Kind        ServiceKind         `json:"kind"`
	Catering    *CateringDetails    `json:"catering,omitempty"`
	Venue       *VenueDetails       `json:"venue,omitempty"`
	PartyRental *PartyRentalDetails `json:"partyRental,omitempty"`
	Staff       *StaffDetails       `json:"staff,omitempty"`
}

// DeliveryOptions returns the delivery options for kinds that can deliver.
func (d ServiceDetails) DeliveryOptions() (DeliveryOptions, bool) {
	switch d.Kind {
	case KindCatering:
		if d.Catering != nil {
			return d.Catering.Delivery, true
		}
	case KindPartyRental:
		if d.PartyRental != nil {
			return d.PartyRental.Delivery, true
		}
	}
	return DeliveryOptions{}, false
}

// menuItems returns the orderable sub-items for kinds that have them.
func (d ServiceDetails) menuItems() []MenuItem {
	switch d.Kind {
	case KindCatering:
		if d.Catering != nil {
			return d.Catering.MenuItems
		}
	case KindPartyRental:
		if d.PartyRental != nil {
			return d.PartyRental.Items
		}
	}
	return nil
}

// SelectedService is one vendor service chosen for an order. It is owned by
// the cart until order submission and treated as immutable afterwards.
type SelectedService struct {
	ID            uuid.UUID      `json:"id"`
	VendorID      uuid.UUID      `json:"vendorId"`
	Name          string         `json:"name"`
	Kind          ServiceKind    `json:"kind"`
	UnitPrice     money.Money    `json:"unitPrice"`
	Quantity      int            `json:"quantity"`
	DurationHours int            `json:"durationHours"`
	Details       ServiceDetails `json:"details"`
	Origin        *Address       `json:"origin,omitempty"`
}

// ItemKey is the composite key of a selected sub-item: menu item crossed with
// the combo category and the chosen sub-option.
type ItemKey struct {
	MenuItemID    string `json:"menuItemId"`
	ComboCategory string `json:"comboCategory"`
	SubOptionID   string `json:"subOptionId"`
}

// String renders a stable representation usable as a map or JSON object key.
func (k ItemKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.MenuItemID, k.ComboCategory, k.SubOptionID)
}

// SelectedItemMap maps a composite sub-item key to an ordered quantity.
// Insertion order is irrelevant; keys are unique per cart.
type SelectedItemMap map[ItemKey]int

// Cart is the priced input snapshot for a quote. The prices captured here are
// the ones the host saw; the calculator never re-fetches live catalog prices
// mid-checkout.
type Cart struct {
	Services       []SelectedService `json:"services"`
	Items          SelectedItemMap   `json:"items"`
	EventAddress   *Address          `json:"eventAddress,omitempty"`
	BillingAddress *Address          `json:"billingAddress,omitempty"`
}

// SubItemPrice resolves the unit price of a selected sub-item by walking the
// normalized details of every service in the cart. Sub-options price over the
// menu item when selected through a combo category.
func (c Cart) SubItemPrice(key ItemKey) (money.Money, bool) {
	for _, svc := range c.Services {
		for _, item := range svc.Details.menuItems() {
			if item.ID != key.MenuItemID {
				continue
			}
			if key.ComboCategory == "" && key.SubOptionID == "" {
				return item.UnitPrice, true
			}
			for _, cat := range item.ComboCategories {
				if cat.Name != key.ComboCategory {
					continue
				}
				for _, opt := range cat.Options {
					if opt.ID == key.SubOptionID {
						return opt.UnitPrice, true
					}
				}
			}
		}
	}
	return 0, false
}

// TaxAddress picks the address used for tax resolution: service businesses are
// taxed at the place of performance, so the event address wins over billing.
func (c Cart) TaxAddress() *Address {
	if c.EventAddress != nil && !c.EventAddress.IsZero() {
		return c.EventAddress
	}
	if c.BillingAddress != nil && !c.BillingAddress.IsZero() {
		return c.BillingAddress
	}
	return nil
}

// DeliveryOrigin returns the origin address of the first service offering
// delivery. Multi-origin carts quote delivery from the primary vendor.
func (c Cart) DeliveryOrigin() *Address {
	for _, svc := range c.Services {
		if opts, ok := svc.Details.DeliveryOptions(); ok && opts.Offered && svc.Origin != nil {
			return svc.Origin
		}
	}
	return nil
}

// OffersDelivery reports whether any service in the cart offers delivery and
// the strictest vendor delivery minimum among those that do.
func (c Cart) OffersDelivery() (bool, money.Money) {
	offered := false
	var minimum money.Money
	for _, svc := range c.Services {
		opts, ok := svc.Details.DeliveryOptions()
		if !ok || !opts.Offered {
			continue
		}
		offered = true
		if opts.Minimum > minimum {
			minimum = opts.Minimum
		}
	}
	return offered, minimum
}
