package bff

import (
	"time"

	"baristalog/internal/models"
	"baristalog/internal/preferences"
)

// ExtractionView is a flattened, display-ready extraction row.
type ExtractionView struct {
	RKey         string    `json:"rkey"`
	Date         time.Time `json:"date"`
	BeanName     string    `json:"bean_name"`
	GrinderName  string    `json:"grinder_name"`
	BrewerName   string    `json:"brewer_name"`
	GrindSetting string    `json:"grind_setting"`
	Dose         string    `json:"dose"`
	Yield        string    `json:"yield"`
	Ratio        string    `json:"ratio,omitempty"`
	Time         string    `json:"time"`
	Rating       string    `json:"rating"`
	Notes        string    `json:"notes,omitempty"`
}

// DayView is a DayGroup rendered with ExtractionViews.
type DayView struct {
	Day         time.Time        `json:"day"`
	Label       string           `json:"label"`
	Extractions []ExtractionView `json:"extractions"`
}

// HistoryView is a History rendered with ExtractionViews.
type HistoryView struct {
	Recent    []ExtractionView `json:"recent"`
	Total     int              `json:"total"`
	MoreLabel string           `json:"more_label,omitempty"`
}

func refName(ref *models.EquipmentRef) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}

// BuildExtractionView formats e with the user's weight settings.
func BuildExtractionView(e *models.Extraction, settings preferences.Settings) ExtractionView {
	v := ExtractionView{
		RKey:         e.RKey,
		Date:         e.Date,
		BeanName:     refName(e.Bean),
		GrinderName:  refName(e.Grinder),
		BrewerName:   refName(e.Brewer),
		GrindSetting: e.GrindSetting,
		Dose:         FormatOptionalWeight(e.DoseIn, settings.WeightUnit, settings.WeightPrecision),
		Yield:        FormatOptionalWeight(e.YieldOut, settings.WeightUnit, settings.WeightPrecision),
		Time:         FormatTime(e.TimeSeconds),
		Rating:       FormatRating(e.Rating),
		Notes:        PtrValue(e.Notes),
	}
	if ratio, ok := FormatRatio(e.DoseIn, e.YieldOut, settings.WeightPrecision); ok {
		v.Ratio = ratio
	}
	return v
}

func buildViews(extractions []*models.Extraction, settings preferences.Settings) []ExtractionView {
	views := make([]ExtractionView, len(extractions))
	for i, e := range extractions {
		views[i] = BuildExtractionView(e, settings)
	}
	return views
}

// BuildDayViews groups extractions by day and formats every entry.
func BuildDayViews(extractions []*models.Extraction, now time.Time, settings preferences.Settings) []DayView {
	groups := GroupByDay(extractions, now)
	views := make([]DayView, len(groups))
	for i, g := range groups {
		views[i] = DayView{
			Day:         g.Day,
			Label:       g.Label,
			Extractions: buildViews(g.Extractions, settings),
		}
	}
	return views
}

// BuildHistoryView formats the equipment history of extractions.
func BuildHistoryView(extractions []*models.Extraction, settings preferences.Settings) HistoryView {
	h := EquipmentHistory(extractions)
	return HistoryView{
		Recent:    buildViews(h.Recent, settings),
		Total:     h.Total,
		MoreLabel: h.MoreLabel(),
	}
}
