package followers

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"thousands suffix", "2.1K", "2100"},
		{"millions suffix", "3.4M", "3400000"},
		{"billions suffix", "1.2B", "1200000000"},
		{"comma separated", "12,540", "12540"},
		{"comma separated small", "1,204", "1204"},
		{"lowercase suffix", "5k", "5000"},
		{"inner whitespace", " 7 . 5 K ", "7500"},
		{"comma before suffix", "1,500K", "1500000"},
		{"fraction floors", "1.9", "1"},
		{"trailing garbage", "12abc", "12"},
		{"exponent", "1E5", "100000"},
		{"exponent before suffix", "1.5e3K", "1500000"},
		{"negative exponent", "25e-1", "2"},
		{"dangling exponent", "7e", "7"},
		{"exponent overflow", "1e400", "unknown"},
		{"nil", nil, "unknown"},
		{"empty", "", "unknown"},
		{"blank", "   ", "unknown"},
		{"not a number", "not a number", "unknown"},
		{"suffix only", "K", "unknown"},
		{"int", 1204, "1204"},
		{"int64", int64(97000000), "97000000"},
		{"uint", uint(3), "3"},
		{"float floors", 1204.9, "1204"},
		{"json number", json.Number("97000000"), "97000000"},
		{"zero", 0, "0"},
		{"negative int", -5, "unknown"},
		{"negative string", "-5", "unknown"},
		{"nan", math.NaN(), "unknown"},
		{"inf", math.Inf(1), "unknown"},
		{"bool", true, "unknown"},
		{"map", map[string]any{"count": 1}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_OnlyDigitsOrUnknown(t *testing.T) {
	inputs := []any{
		"", "0", "00012", "1.", ".5K", "9,9,9", "1e5", "++1", "B", "M1", "12 540",
		"١٢٣", " 2K", 3.7, float32(2.5), int8(4), uint64(math.MaxUint64),
	}
	for _, in := range inputs {
		got := Normalize(in)
		if got == "unknown" {
			continue
		}
		for _, r := range got {
			if r < '0' || r > '9' {
				t.Fatalf("Normalize(%#v) = %q, want digits or unknown", in, got)
			}
		}
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"97M Followers, 80 Following, 4,000 Posts", "97M"},
		{"12,540 followers · 3 following", "12,540"},
		{"2.1K followers", "2.1K"},
		{"no counts here", ""},
		{"1234followers", "1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Find(tt.text), tt.text)
	}
}
