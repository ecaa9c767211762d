package bff

import (
	"time"

	"baristalog/internal/models"
)

// DaysSince counts calendar days in the local zone from date to now. A date
// earlier today is 0, any time yesterday is 1. Dates after now are negative.
func DaysSince(date, now time.Time) int {
	from := civilDay(date)
	to := civilDay(now)
	return int(to.Sub(from).Hours() / 24)
}

// civilDay maps t's local calendar day onto UTC midnight so that day
// arithmetic is unaffected by DST transitions.
func civilDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BeanDetailView is a bean with its freshness counters.
type BeanDetailView struct {
	*models.Bean
	DaysSinceRoast  *int `json:"days_since_roast,omitempty"`
	DaysSinceOpened *int `json:"days_since_opened,omitempty"`
}

func BuildBeanDetailView(b *models.Bean, now time.Time) BeanDetailView {
	v := BeanDetailView{Bean: b}
	if b.RoastDate != nil {
		v.DaysSinceRoast = models.Ptr(DaysSince(*b.RoastDate, now))
	}
	if b.OpenedDate != nil {
		v.DaysSinceOpened = models.Ptr(DaysSince(*b.OpenedDate, now))
	}
	return v
}

// Measurements are the detail-page values of a shot. Weights are always in
// grams with at most one fraction digit; absent values are empty.
type Measurements struct {
	Dose  string `json:"dose,omitempty"`
	Yield string `json:"yield,omitempty"`
	Time  string `json:"time,omitempty"`
	Ratio string `json:"ratio,omitempty"`
}

// ExtractionDetailView is an extraction with its formatted measurements.
type ExtractionDetailView struct {
	*models.Extraction
	Measurements Measurements `json:"measurements"`
}

func BuildExtractionDetailView(e *models.Extraction) ExtractionDetailView {
	var m Measurements
	if e.DoseIn != nil {
		m.Dose = FormatMeasure(*e.DoseIn) + " g"
	}
	if e.YieldOut != nil {
		m.Yield = FormatMeasure(*e.YieldOut) + " g"
	}
	if e.TimeSeconds != nil {
		m.Time = FormatTime(e.TimeSeconds)
	}
	if ratio, ok := e.Ratio(); ok {
		m.Ratio = "1:" + FormatMeasure(ratio)
	}
	return ExtractionDetailView{Extraction: e, Measurements: m}
}
