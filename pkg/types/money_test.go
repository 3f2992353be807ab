package types

import "testing"

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:      "$0.00",
		5:      "$0.05",
		123450: "$1234.50",
		-250:   "-$2.50",
	}
	for cents, want := range cases {
		if got := FormatCents(cents); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", cents, got, want)
		}
	}
}
