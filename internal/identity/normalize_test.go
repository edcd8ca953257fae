package identity

import "testing"

func TestNormalizeBaseID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare id", "66a1b2c3d4e5f60718293a4b", "66a1b2c3d4e5f60718293a4b"},
		{"composite id", "66a1b2c3d4e5f60718293a4b|inst|v:Drill|D-100|250|Bosch|img.png", "66a1b2c3d4e5f60718293a4b"},
		{"whitespace", "  p-77  ", "p-77"},
		{"whitespace before delimiter", " p-77 |v:a|b|1||", "p-77"},
		{"empty", "", ""},
		{"undefined literal", "undefined", ""},
		{"null literal", "null", ""},
		{"undefined inside composite", "undefined|v:x", ""},
		{"numeric id", "1042", "1042"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeBaseID(tc.in); got != tc.want {
				t.Fatalf("NormalizeBaseID(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeBaseIDIsIdempotentUnderSuffixing(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"66a1b2c3d4e5f60718293a4b", "1042", "p-77"} {
		normalized := NormalizeBaseID(base)
		if got := NormalizeBaseID(normalized + "|anything|else"); got != normalized {
			t.Fatalf("suffixing broke normalization: %q -> %q", base, got)
		}
	}
}
