package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0.005", "0.01"},
		{"-0.005", "-0.01"},
		{"2.675", "2.68"},
		{"1.004", "1"},
		{"25", "25"},
		{"12.345", "12.35"},
	}
	for _, tc := range cases {
		got := Round(dec(t, tc.in))
		if !got.Equal(dec(t, tc.want)) {
			t.Fatalf("Round(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMul(t *testing.T) {
	got := Mul(dec(t, "25.00"), 2)
	if !got.Equal(dec(t, "50.00")) {
		t.Fatalf("Mul = %s, want 50.00", got)
	}
	// rounding happens on the product, not the inputs
	got = Mul(dec(t, "0.333"), 3)
	if !got.Equal(dec(t, "1.00")) {
		t.Fatalf("Mul = %s, want 1.00", got)
	}
}

func TestSum(t *testing.T) {
	got := Sum(dec(t, "1.10"), dec(t, "2.20"), dec(t, "3.30"))
	if !got.Equal(dec(t, "6.60")) {
		t.Fatalf("Sum = %s, want 6.60", got)
	}
}
