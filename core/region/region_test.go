package region

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
		ok       bool
	}{
		{name: "ISO3 United States", token: "USA", expected: "US", ok: true},
		{name: "ISO3 France", token: "FRA", expected: "FR", ok: true},
		{name: "ISO3 Ivory Coast", token: "CIV", expected: "CI", ok: true},
		{name: "lowercase tolerated", token: "usa", expected: "US", ok: true},
		{name: "surrounding whitespace", token: " DEU ", expected: "DE", ok: true},
		{name: "Kosovo override", token: "XKS", expected: "XK", ok: true},
		{name: "Kosovo already short", token: "XK", expected: "XK", ok: true},
		{name: "already ISO2", token: "GB", expected: "GB", ok: true},
		{name: "empty", token: "", ok: false},
		{name: "garbage", token: "unknown-region", ok: false},
		{name: "numeric", token: "123", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToISO2(tt.token)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (code %q)", tt.ok, ok, got)
			}
			if ok && got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// TestToISO2Deterministic verifies repeated translation never disagrees
// with itself.
func TestToISO2Deterministic(t *testing.T) {
	for _, token := range []string{"USA", "XKS", "nope"} {
		first, firstOK := ToISO2(token)
		for i := 0; i < 5; i++ {
			got, ok := ToISO2(token)
			if got != first || ok != firstOK {
				t.Fatalf("%s: translation not stable: (%q,%v) then (%q,%v)", token, first, firstOK, got, ok)
			}
		}
	}
}
