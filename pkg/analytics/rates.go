package analytics

import (
	"math"
)

// round rounds v half away from zero to the given number of decimals.
func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// Rate converts numerator/denominator into a percentage rounded to two
// decimals and clamped to [0,100]. A zero denominator gives 100 when the
// numerator is positive and 0 otherwise. The boolean reports a clamp from
// above.
func Rate(numerator, denominator int) (float64, bool) {
	if numerator <= 0 {
		return 0, false
	}
	if denominator <= 0 {
		return 100, false
	}
	r := round(float64(numerator)/float64(denominator)*100, 2)
	if r > 100 {
		return 100, true
	}
	return r, false
}

// Share is the percentage of part in whole rounded to one decimal, and 0
// when whole is empty.
func Share(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, 1)
}

// PercentChange compares the current value of a metric with the previous
// period: 0 when both are zero, 100 when only the previous one is zero,
// otherwise the relative change in percent rounded to one decimal.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round((current-previous)/previous*100, 1)
}
