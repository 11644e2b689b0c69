package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// rawPercent is part/whole*100 clamped to [0,100]; 0 when whole is 0.
func rawPercent(part, whole int64) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return clampPercent(float64(part) / float64(whole) * 100)
}

// percent is rawPercent rounded for display.
func percent(part, whole int64) float64 {
	return round2(rawPercent(part, whole))
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// mean returns sum/n rounded, 0 when n is 0.
func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}
