package bff

import (
	"fmt"
	"sort"
	"time"

	"baristalog/internal/models"
)

// HistoryLimit is how many related extractions an equipment page shows.
const HistoryLimit = 5

// DayGroup is one section of the extraction history.
type DayGroup struct {
	Day         time.Time            `json:"day"`
	Label       string               `json:"label"`
	Extractions []*models.Extraction `json:"extractions"`
}

// startOfDay returns local midnight of t's calendar day.
func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// sortedByDateDesc returns a copy of extractions ordered newest first.
func sortedByDateDesc(extractions []*models.Extraction) []*models.Extraction {
	sorted := make([]*models.Extraction, len(extractions))
	copy(sorted, extractions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted
}

// GroupByDay groups extractions by the local calendar day of their date.
// Groups are ordered most recent day first and entries within a group by
// date descending. The input slice is not modified.
func GroupByDay(extractions []*models.Extraction, now time.Time) []DayGroup {
	if len(extractions) == 0 {
		return nil
	}

	var groups []DayGroup
	for _, e := range sortedByDateDesc(extractions) {
		day := startOfDay(e.Date)
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Extractions = append(groups[n-1].Extractions, e)
			continue
		}
		groups = append(groups, DayGroup{
			Day:         day,
			Label:       SectionLabel(day, now),
			Extractions: []*models.Extraction{e},
		})
	}
	return groups
}

// SectionLabel names a day relative to now: "Today", "Yesterday", or the
// weekday with month and day ("Monday, October 13").
func SectionLabel(day, now time.Time) string {
	d := startOfDay(day)
	today := startOfDay(now)
	switch {
	case d.Equal(today):
		return "Today"
	case d.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return d.Format("Monday, January 2")
	}
}

// History is the equipment detail view of related extractions.
type History struct {
	Recent []*models.Extraction `json:"recent"`
	Total  int                  `json:"total"`
	More   int                  `json:"more"`
}

// EquipmentHistory keeps the newest HistoryLimit extractions and counts the rest.
func EquipmentHistory(extractions []*models.Extraction) History {
	sorted := sortedByDateDesc(extractions)
	h := History{Total: len(sorted)}
	if len(sorted) > HistoryLimit {
		h.More = len(sorted) - HistoryLimit
		sorted = sorted[:HistoryLimit]
	}
	h.Recent = sorted
	return h
}

// MoreLabel returns "+N more" when extractions were cut, otherwise "".
func (h History) MoreLabel() string {
	if h.More <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", h.More)
}
