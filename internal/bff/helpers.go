// Package bff provides Backend-For-Frontend functionality: pure projections
// and formatting helpers that turn stored records into display values.
package bff

import (
	"fmt"
	"math"
	"strconv"

	"baristalog/internal/preferences"
)

// GramsPerOunce is the fixed conversion factor for weight display.
const GramsPerOunce = 28.349523125

// FormatTime formats seconds into a human-readable time string (e.g., "3m 5s").
// Fractional seconds are truncated. Returns "N/A" if seconds is absent.
func FormatTime(seconds *float64) string {
	if seconds == nil {
		return "N/A"
	}
	total := int(*seconds)
	minutes := total / 60
	remaining := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, remaining)
	}
	return fmt.Sprintf("%ds", remaining)
}

// FormatRating formats a rating as "X/5".
// Returns "N/A" if rating is absent.
func FormatRating(rating *int) string {
	if rating == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d/5", *rating)
}

// FormatRatio formats yield/dose as "1:<ratio>" with the given number of
// fraction digits. The ratio is undefined unless both values are present
// and dose is positive.
func FormatRatio(dose, yield *float64, precision int) (string, bool) {
	if dose == nil || yield == nil || *dose <= 0 {
		return "", false
	}
	return "1:" + strconv.FormatFloat(*yield / *dose, 'f', clampPrecision(precision), 64), true
}

// FormatMeasure renders v with at most one fraction digit, dropping a
// trailing ".0" (18 -> "18", 18.25 -> "18.2").
func FormatMeasure(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}

// GramsToOunces converts a stored gram value for display.
func GramsToOunces(grams float64) float64 {
	return grams / GramsPerOunce
}

// FormatWeight renders a gram value in the preferred unit, e.g. "18.0 g"
// or "0.63 oz". Stored values are always grams.
func FormatWeight(grams float64, unit preferences.WeightUnit, precision int) string {
	precision = clampPrecision(precision)
	if unit == preferences.UnitOunces {
		return strconv.FormatFloat(GramsToOunces(grams), 'f', precision, 64) + " oz"
	}
	return strconv.FormatFloat(grams, 'f', precision, 64) + " g"
}

// FormatOptionalWeight is FormatWeight for optional values; absent is "N/A".
func FormatOptionalWeight(grams *float64, unit preferences.WeightUnit, precision int) string {
	if grams == nil || math.IsNaN(*grams) {
		return "N/A"
	}
	return FormatWeight(*grams, unit, precision)
}

func clampPrecision(p int) int {
	if p < 0 || p > preferences.MaxWeightPrecision {
		return preferences.DefaultWeightPrecision
	}
	return p
}

// PtrValue returns the dereferenced value of a pointer, or zero value if nil.
func PtrValue[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
