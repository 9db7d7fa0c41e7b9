package common

import "math"

// Round rounds half away from zero.
func Round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

// DecimalToFixed rounds num to precision decimal places, for compact output.
// https://stackoverflow.com/questions/18390266/how-can-we-truncate-float64-type-to-a-particular-precision
func DecimalToFixed(num float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return float64(Round(num*scale)) / scale
}
