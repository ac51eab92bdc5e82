package tax

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/money"
)

// TableEntry maps a jurisdiction to a rate. PostalPrefix matches the leading
// digits of a postal code; State entries act as a coarser fallback. Rates are
// configured either in basis points or as a percentage (8.25 for 8.25%);
// percentages are converted once at parse time.
type TableEntry struct {
	Jurisdiction string  `json:"jurisdiction"`
	PostalPrefix string  `json:"postalPrefix,omitempty"`
	State        string  `json:"state,omitempty"`
	RateBps      int64   `json:"rateBps,omitempty"`
	RatePercent  float64 `json:"ratePercent,omitempty"`
}

// Table is the static local jurisdiction rate table used by the manual
// strategy and as the fallback when the remote service fails or returns a
// suspect zero.
type Table struct {
	entries []TableEntry
}

// NewTable builds a lookup table. Longer postal prefixes win over shorter
// ones; postal matches win over state matches.
func NewTable(entries []TableEntry) *Table {
	sorted := make([]TableEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].PostalPrefix) > len(sorted[j].PostalPrefix)
	})
	return &Table{entries: sorted}
}

// ParseTable loads table entries from their JSON representation.
func ParseTable(raw []byte) (*Table, error) {
	if len(raw) == 0 {
		return NewTable(nil), nil
	}
	var entries []TableEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("tax: parse rate table: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		if e.RateBps == 0 && e.RatePercent != 0 {
			e.RateBps = money.PercentToBps(e.RatePercent)
			e.RatePercent = 0
		}
		if e.RateBps < 0 {
			return nil, fmt.Errorf("tax: negative rate for %q", e.Jurisdiction)
		}
		if e.PostalPrefix == "" && e.State == "" {
			return nil, fmt.Errorf("tax: entry %q has no postal prefix or state", e.Jurisdiction)
		}
	}
	return NewTable(entries), nil
}

// Lookup resolves the jurisdiction entry for an address.
func (t *Table) Lookup(addr *catalog.Address) (TableEntry, bool) {
	if t == nil || addr == nil {
		return TableEntry{}, false
	}
	postal := strings.TrimSpace(addr.PostalCode)
	for _, e := range t.entries {
		if e.PostalPrefix != "" && postal != "" && strings.HasPrefix(postal, e.PostalPrefix) {
			return e, true
		}
	}
	state := strings.TrimSpace(strings.ToUpper(addr.State))
	for _, e := range t.entries {
		if e.PostalPrefix == "" && e.State != "" && strings.EqualFold(e.State, state) {
			return e, true
		}
	}
	return TableEntry{}, false
}

// Compute applies the entry's rate to the tax base, rounding once.
func (e TableEntry) Compute(base money.Money) money.Money {
	return money.ApplyBps(base, e.RateBps)
}

// Rate returns the entry's rate as a decimal fraction.
func (e TableEntry) Rate() float64 {
	return float64(e.RateBps) / 10_000
}
