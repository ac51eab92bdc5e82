package tax

import (
	"testing"

	"github.com/noah-isme/backend-acara/internal/catalog"
)

func TestParseTableValidation(t *testing.T) {
	if _, err := ParseTable([]byte(`[{"jurisdiction":"TX","state":"TX","rateBps":-1}]`)); err == nil {
		t.Fatal("negative rate accepted")
	}
	if _, err := ParseTable([]byte(`[{"jurisdiction":"nowhere","rateBps":100}]`)); err == nil {
		t.Fatal("entry without postal prefix or state accepted")
	}
	if _, err := ParseTable([]byte(`{`)); err == nil {
		t.Fatal("malformed JSON accepted")
	}
	tbl, err := ParseTable(nil)
	if err != nil {
		t.Fatalf("empty table: %v", err)
	}
	if _, ok := tbl.Lookup(&catalog.Address{State: "TX"}); ok {
		t.Fatal("empty table produced a match")
	}
}

func TestTableLookupPrecedence(t *testing.T) {
	tbl := NewTable([]TableEntry{
		{Jurisdiction: "Texas", State: "TX", RateBps: 625},
		{Jurisdiction: "Austin", PostalPrefix: "787", RateBps: 825},
		{Jurisdiction: "Downtown Austin", PostalPrefix: "78701", RateBps: 850},
	})

	cases := []struct {
		name string
		addr catalog.Address
		want string
	}{
		{"longest prefix wins", catalog.Address{PostalCode: "78701", State: "TX"}, "Downtown Austin"},
		{"shorter prefix", catalog.Address{PostalCode: "78745", State: "TX"}, "Austin"},
		{"state fallback", catalog.Address{PostalCode: "75001", State: "TX"}, "Texas"},
		{"state case insensitive", catalog.Address{State: "tx"}, "Texas"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, ok := tbl.Lookup(&tc.addr)
			if !ok {
				t.Fatal("no match")
			}
			if entry.Jurisdiction != tc.want {
				t.Fatalf("jurisdiction = %q, want %q", entry.Jurisdiction, tc.want)
			}
		})
	}

	if _, ok := tbl.Lookup(&catalog.Address{State: "CA"}); ok {
		t.Fatal("unknown state matched")
	}
	if _, ok := tbl.Lookup(nil); ok {
		t.Fatal("nil address matched")
	}
}

func TestTableEntryCompute(t *testing.T) {
	entry := TableEntry{Jurisdiction: "Austin", RateBps: 825}
	// $570.00 base at 8.25% -> $47.03 (half-up, rounded once)
	if got := entry.Compute(57_000); got != 4_703 {
		t.Fatalf("tax = %s, want 47.03", got)
	}
	if entry.Rate() != 0.0825 {
		t.Fatalf("rate = %v, want 0.0825", entry.Rate())
	}
}

func TestParseTableAcceptsPercentRates(t *testing.T) {
	tbl, err := ParseTable([]byte(`[{"jurisdiction":"Austin, TX","postalPrefix":"787","ratePercent":8.25}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entry, ok := tbl.Lookup(&catalog.Address{PostalCode: "78704", State: "TX"})
	if !ok {
		t.Fatal("no match for configured prefix")
	}
	if entry.RateBps != 825 {
		t.Fatalf("RateBps = %d, want 825", entry.RateBps)
	}
	if got := entry.Compute(57_000); got != 4_703 {
		t.Fatalf("tax on 570.00 = %s, want 47.03", got)
	}

	if _, err := ParseTable([]byte(`[{"jurisdiction":"TX","state":"TX","ratePercent":-1}]`)); err == nil {
		t.Fatal("negative percent rate accepted")
	}
}
