package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-42.5", "-42.5", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		if assert.NoError(t, err, "input %q", tc.in) {
			assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	d, _ := ParseAmount("236")
	assert.Equal(t, "236.00", FormatAmount(d))
	d, _ = ParseAmount("12.345")
	assert.Equal(t, "12.35", FormatAmount(d))
}
