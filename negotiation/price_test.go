package negotiation_test

import (
	"testing"

	"github.com/tailored-agentic-units/procure/negotiation"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"dollar sign", "we can do $1,250.50 per unit", "1250.5", true},
		{"euro sign", "final price is €900", "900", true},
		{"bare number", "how about 85.25 for the lot", "85.25", true},
		{"thousands separators", "list price is 12,500", "12500", true},
		{"first of several", "down from $200 to $180", "200", true},
		{"integer", "offering 42", "42", true},
		{"no number", "let me check with my manager", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := negotiation.ExtractPrice(tt.text)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("price = %s, want %s", got, tt.want)
			}
		})
	}
}
