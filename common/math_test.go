package common

import "testing"

func TestDecimalToFixed(t *testing.T) {
	cases := []struct {
		num       float64
		precision int
		want      float64
	}{
		{0.12345, 2, 0.12},
		{0.125, 2, 0.13},
		{-0.125, 2, -0.13},
		{1.0 / 3, 4, 0.3333},
		{42.5, 0, 43},
	}
	for _, c := range cases {
		if got := DecimalToFixed(c.num, c.precision); got != c.want {
			t.Errorf("DecimalToFixed(%v, %d) = %v, want %v", c.num, c.precision, got, c.want)
		}
	}
}
