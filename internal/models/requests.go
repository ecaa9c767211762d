package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type CreateBeanRequest struct {
	Name       string     `json:"name"`
	Roaster    *string    `json:"roaster,omitempty"`
	Origin     *string    `json:"origin,omitempty"`
	RoastDate  *time.Time `json:"roast_date,omitempty"`
	OpenedDate *time.Time `json:"opened_date,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	ImageData  []byte     `json:"image,omitempty"`
}

type CreateGrinderRequest struct {
	Name            string  `json:"name"`
	Brand           *string `json:"brand,omitempty"`
	BurrType        *string `json:"burr_type,omitempty"`
	BurrSize        *string `json:"burr_size,omitempty"`
	AdjustmentNotes *string `json:"adjustment_notes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ImageData       []byte  `json:"image,omitempty"`
}

type CreateBrewerRequest struct {
	Name            string  `json:"name"`
	Brand           *string `json:"brand,omitempty"`
	BrewType        *string `json:"brew_type,omitempty"`
	PortafilterSize *string `json:"portafilter_size,omitempty"`
	BasketSize      *string `json:"basket_size,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ImageData       []byte  `json:"image,omitempty"`
}

type CreateExtractionRequest struct {
	Date         *time.Time `json:"date,omitempty"`
	GrindSetting string     `json:"grind_setting"`
	DoseIn       *float64   `json:"dose_in,omitempty"`
	YieldOut     *float64   `json:"yield_out,omitempty"`
	TimeSeconds  *float64   `json:"time_seconds,omitempty"`
	Rating       *int       `json:"rating,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	BeanRKey     string     `json:"bean_rkey,omitempty"`
	GrinderRKey  string     `json:"grinder_rkey,omitempty"`
	BrewerRKey   string     `json:"brewer_rkey,omitempty"`
}

// Update requests replace every field; images are only replaced when given.
type (
	UpdateBeanRequest       = CreateBeanRequest
	UpdateGrinderRequest    = CreateGrinderRequest
	UpdateBrewerRequest     = CreateBrewerRequest
	UpdateExtractionRequest = CreateExtractionRequest
)

// ========== Bean ==========

func (r *CreateBeanRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Roaster = normalizeOptional(r.Roaster)
	r.Origin = normalizeOptional(r.Origin)
	r.Notes = normalizeOptional(r.Notes)
}

// Bean builds a new, unsaved bean from the request.
func (r *CreateBeanRequest) Bean() *Bean {
	b := &Bean{}
	r.Apply(b)
	return b
}

// Apply copies the request onto b. It has the shape of a store mutator.
func (r *CreateBeanRequest) Apply(b *Bean) {
	r.Normalize()
	b.Name = r.Name
	b.Roaster = clonePtr(r.Roaster)
	b.Origin = clonePtr(r.Origin)
	b.RoastDate = clonePtr(r.RoastDate)
	b.OpenedDate = clonePtr(r.OpenedDate)
	b.Notes = clonePtr(r.Notes)
	if len(r.ImageData) > 0 {
		b.ImageData = cloneBytes(r.ImageData)
	}
}

func (b *Bean) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return validateImage(b.ImageData)
}

// ========== Grinder ==========

func (r *CreateGrinderRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Brand = normalizeOptional(r.Brand)
	r.BurrType = normalizeOptional(r.BurrType)
	r.BurrSize = normalizeOptional(r.BurrSize)
	r.AdjustmentNotes = normalizeOptional(r.AdjustmentNotes)
	r.Notes = normalizeOptional(r.Notes)
}

func (r *CreateGrinderRequest) Grinder() *Grinder {
	g := &Grinder{}
	r.Apply(g)
	return g
}

func (r *CreateGrinderRequest) Apply(g *Grinder) {
	r.Normalize()
	g.Name = r.Name
	g.Brand = clonePtr(r.Brand)
	g.BurrType = clonePtr(r.BurrType)
	g.BurrSize = clonePtr(r.BurrSize)
	g.AdjustmentNotes = clonePtr(r.AdjustmentNotes)
	g.Notes = clonePtr(r.Notes)
	if len(r.ImageData) > 0 {
		g.ImageData = cloneBytes(r.ImageData)
	}
}

func (g *Grinder) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return validateImage(g.ImageData)
}

// ========== Brewer ==========

func (r *CreateBrewerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Brand = normalizeOptional(r.Brand)
	r.BrewType = normalizeOptional(r.BrewType)
	r.PortafilterSize = normalizeOptional(r.PortafilterSize)
	r.BasketSize = normalizeOptional(r.BasketSize)
	r.Notes = normalizeOptional(r.Notes)
}

func (r *CreateBrewerRequest) Brewer() *Brewer {
	b := &Brewer{}
	r.Apply(b)
	return b
}

func (r *CreateBrewerRequest) Apply(b *Brewer) {
	r.Normalize()
	b.Name = r.Name
	b.Brand = clonePtr(r.Brand)
	b.BrewType = clonePtr(r.BrewType)
	b.PortafilterSize = clonePtr(r.PortafilterSize)
	b.BasketSize = clonePtr(r.BasketSize)
	b.Notes = clonePtr(r.Notes)
	if len(r.ImageData) > 0 {
		b.ImageData = cloneBytes(r.ImageData)
	}
}

func (b *Brewer) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return validateImage(b.ImageData)
}

// ========== Extraction ==========

func (r *CreateExtractionRequest) Normalize() {
	r.GrindSetting = strings.TrimSpace(r.GrindSetting)
	r.Notes = normalizeOptional(r.Notes)
	r.BeanRKey = strings.TrimSpace(r.BeanRKey)
	r.GrinderRKey = strings.TrimSpace(r.GrinderRKey)
	r.BrewerRKey = strings.TrimSpace(r.BrewerRKey)
}

// Extraction builds a new, unsaved extraction. Date defaults to now.
func (r *CreateExtractionRequest) Extraction(now time.Time) *Extraction {
	e := &Extraction{Date: now}
	r.Apply(e)
	return e
}

// Apply copies the request onto e. A nil Date leaves e.Date untouched.
func (r *CreateExtractionRequest) Apply(e *Extraction) {
	r.Normalize()
	if r.Date != nil {
		e.Date = *r.Date
	}
	e.GrindSetting = r.GrindSetting
	e.DoseIn = clonePtr(r.DoseIn)
	e.YieldOut = clonePtr(r.YieldOut)
	e.TimeSeconds = clonePtr(r.TimeSeconds)
	e.Rating = clonePtr(r.Rating)
	e.Notes = clonePtr(r.Notes)
	e.BeanRKey = r.BeanRKey
	e.GrinderRKey = r.GrinderRKey
	e.BrewerRKey = r.BrewerRKey
}

// ValidateDraftEquipment fails on the first missing equipment selection.
// Updates skip it: their references may have been cleared by a delete.
func (r *CreateExtractionRequest) ValidateDraftEquipment() error {
	switch {
	case strings.TrimSpace(r.BeanRKey) == "":
		return &ValidationError{Field: "bean_rkey", Message: "select a bean"}
	case strings.TrimSpace(r.GrinderRKey) == "":
		return &ValidationError{Field: "grinder_rkey", Message: "select a grinder"}
	case strings.TrimSpace(r.BrewerRKey) == "":
		return &ValidationError{Field: "brewer_rkey", Message: "select a brewer"}
	}
	return nil
}

func (e *Extraction) Validate() error {
	if strings.TrimSpace(e.GrindSetting) == "" {
		return &ValidationError{Field: "grind_setting", Message: "grind setting is required"}
	}
	if e.Rating != nil && (*e.Rating < MinRating || *e.Rating > MaxRating) {
		return &ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	measures := []struct {
		field string
		value *float64
		max   float64
	}{
		{"dose_in", e.DoseIn, MaxWeight},
		{"yield_out", e.YieldOut, MaxWeight},
		{"time_seconds", e.TimeSeconds, MaxTimeSeconds},
	}
	for _, m := range measures {
		if m.value == nil {
			continue
		}
		v := *m.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ValidationError{Field: m.field, Message: m.field + " must be a non-negative number"}
		}
		if v > m.max {
			return &ValidationError{Field: m.field, Message: fmt.Sprintf("%s must be at most %g", m.field, m.max)}
		}
	}
	return nil
}
