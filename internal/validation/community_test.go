package validation

import "testing"

func TestValidateCommunityName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "short with digit", in: "c1", ok: true},
		{name: "mixed case", in: "GoLang", ok: true},
		{name: "underscore", in: "pc_gaming", ok: true},
		{name: "hyphen inside", in: "pc-gaming", ok: true},
		{name: "too short", in: "c", ok: false},
		{name: "maximum length", in: "abcdefghijklmnopqrstuvwxyzabcdef", ok: true},
		{name: "too long", in: "abcdefghijklmnopqrstuvwxyzabcdefg", ok: false},
		{name: "all digits", in: "1234", ok: false},
		{name: "space", in: "pc gaming", ok: false},
		{name: "symbol", in: "pc!gaming", ok: false},
		{name: "leading hyphen", in: "-linux", ok: false},
		{name: "trailing hyphen", in: "linux-", ok: false},
		{name: "reserved", in: "posts", ok: false},
		{name: "reserved any case", in: "Admin", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCommunityName(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("expected valid name, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid name, got nil error")
			}
		})
	}
}
