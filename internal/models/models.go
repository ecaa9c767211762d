package models

import (
	"strings"
	"time"
)

// Rating bounds for an extraction
const (
	MinRating = 1
	MaxRating = 5
)

// Upper bounds for measured values. Weights are grams.
const (
	MaxWeight      = 1000.0
	MaxTimeSeconds = 3600.0
)

type Bean struct {
	RKey       string     `json:"rkey" yaml:"rkey"`
	Name       string     `json:"name" yaml:"name"`
	Roaster    *string    `json:"roaster,omitempty" yaml:"roaster,omitempty"`
	Origin     *string    `json:"origin,omitempty" yaml:"origin,omitempty"`
	RoastDate  *time.Time `json:"roast_date,omitempty" yaml:"roast_date,omitempty"`
	OpenedDate *time.Time `json:"opened_date,omitempty" yaml:"opened_date,omitempty"`
	Notes      *string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`

	// ImageData is stored out of line and only loaded for single-entity reads.
	ImageData []byte `json:"-" yaml:"-"`
	HasImage  bool   `json:"has_image" yaml:"has_image"`
}

type Grinder struct {
	RKey            string    `json:"rkey" yaml:"rkey"`
	Name            string    `json:"name" yaml:"name"`
	Brand           *string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	BurrType        *string   `json:"burr_type,omitempty" yaml:"burr_type,omitempty"`
	BurrSize        *string   `json:"burr_size,omitempty" yaml:"burr_size,omitempty"`
	AdjustmentNotes *string   `json:"adjustment_notes,omitempty" yaml:"adjustment_notes,omitempty"`
	Notes           *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`

	ImageData []byte `json:"-" yaml:"-"`
	HasImage  bool   `json:"has_image" yaml:"has_image"`
}

type Brewer struct {
	RKey            string    `json:"rkey" yaml:"rkey"`
	Name            string    `json:"name" yaml:"name"`
	Brand           *string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	BrewType        *string   `json:"brew_type,omitempty" yaml:"brew_type,omitempty"`
	PortafilterSize *string   `json:"portafilter_size,omitempty" yaml:"portafilter_size,omitempty"`
	BasketSize      *string   `json:"basket_size,omitempty" yaml:"basket_size,omitempty"`
	Notes           *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`

	ImageData []byte `json:"-" yaml:"-"`
	HasImage  bool   `json:"has_image" yaml:"has_image"`
}

// EquipmentRef is the joined summary of a bean, grinder or brewer attached
// to an extraction on read.
type EquipmentRef struct {
	RKey string `json:"rkey" yaml:"rkey"`
	Name string `json:"name" yaml:"name"`
}

type Extraction struct {
	RKey         string    `json:"rkey" yaml:"rkey"`
	Date         time.Time `json:"date" yaml:"date"`
	GrindSetting string    `json:"grind_setting" yaml:"grind_setting"`
	DoseIn       *float64  `json:"dose_in,omitempty" yaml:"dose_in,omitempty"`
	YieldOut     *float64  `json:"yield_out,omitempty" yaml:"yield_out,omitempty"`
	TimeSeconds  *float64  `json:"time_seconds,omitempty" yaml:"time_seconds,omitempty"`
	Rating       *int      `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes        *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`

	// References are "" once the referenced equipment has been deleted.
	BeanRKey    string `json:"bean_rkey,omitempty" yaml:"bean_rkey,omitempty"`
	GrinderRKey string `json:"grinder_rkey,omitempty" yaml:"grinder_rkey,omitempty"`
	BrewerRKey  string `json:"brewer_rkey,omitempty" yaml:"brewer_rkey,omitempty"`

	// Joined data for display
	Bean    *EquipmentRef `json:"bean,omitempty" yaml:"-"`
	Grinder *EquipmentRef `json:"grinder,omitempty" yaml:"-"`
	Brewer  *EquipmentRef `json:"brewer,omitempty" yaml:"-"`
}

// BeanName returns the joined bean name, or "" when the bean is absent.
func (e *Extraction) BeanName() string {
	if e == nil || e.Bean == nil {
		return ""
	}
	return e.Bean.Name
}

// Ratio returns yield/dose when both are present and dose is positive.
func (e *Extraction) Ratio() (float64, bool) {
	if e.DoseIn == nil || e.YieldOut == nil || *e.DoseIn <= 0 {
		return 0, false
	}
	return *e.YieldOut / *e.DoseIn, true
}

// Clone returns a copy whose optional fields do not alias the original.
func (e *Extraction) Clone() *Extraction {
	c := *e
	c.DoseIn = clonePtr(e.DoseIn)
	c.YieldOut = clonePtr(e.YieldOut)
	c.TimeSeconds = clonePtr(e.TimeSeconds)
	c.Rating = clonePtr(e.Rating)
	c.Notes = clonePtr(e.Notes)
	c.Bean = clonePtr(e.Bean)
	c.Grinder = clonePtr(e.Grinder)
	c.Brewer = clonePtr(e.Brewer)
	return &c
}

func (b *Bean) Clone() *Bean {
	c := *b
	c.Roaster = clonePtr(b.Roaster)
	c.Origin = clonePtr(b.Origin)
	c.RoastDate = clonePtr(b.RoastDate)
	c.OpenedDate = clonePtr(b.OpenedDate)
	c.Notes = clonePtr(b.Notes)
	c.ImageData = cloneBytes(b.ImageData)
	return &c
}

func (g *Grinder) Clone() *Grinder {
	c := *g
	c.Brand = clonePtr(g.Brand)
	c.BurrType = clonePtr(g.BurrType)
	c.BurrSize = clonePtr(g.BurrSize)
	c.AdjustmentNotes = clonePtr(g.AdjustmentNotes)
	c.Notes = clonePtr(g.Notes)
	c.ImageData = cloneBytes(g.ImageData)
	return &c
}

func (b *Brewer) Clone() *Brewer {
	c := *b
	c.Brand = clonePtr(b.Brand)
	c.BrewType = clonePtr(b.BrewType)
	c.PortafilterSize = clonePtr(b.PortafilterSize)
	c.BasketSize = clonePtr(b.BasketSize)
	c.Notes = clonePtr(b.Notes)
	c.ImageData = cloneBytes(b.ImageData)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeOptional(p *string) *string {
	if p == nil {
		return nil
	}
	return OptionalString(*p)
}
