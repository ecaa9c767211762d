// Package preferences provides typed access to user settings stored as
// string key/value pairs.
package preferences

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"baristalog/internal/database"

	"github.com/rs/zerolog/log"
)

// Preference keys
const (
	KeyWeightUnit            = "weightUnit"
	KeyWeightPrecision       = "weightPrecision"
	KeyAppTheme              = "appTheme"
	KeyDefaultGrinderName    = "defaultGrinderName"
	KeyDefaultBrewerName     = "defaultBrewerName"
	KeyAICoachingEnabled     = "aiCoachingEnabled"
	KeyHasOnboarded          = "hasOnboarded"
	KeyStartGuidedExtraction = "startGuidedExtraction"
)

type WeightUnit string

const (
	UnitGrams  WeightUnit = "grams"
	UnitOunces WeightUnit = "ounces"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Defaults
const (
	DefaultWeightUnit      = UnitGrams
	DefaultWeightPrecision = 1
	DefaultTheme           = ThemeSystem
	MaxWeightPrecision     = 2
)

// Service caches the stored preferences and writes changes straight
// through to the backing store. A nil snapshot means "not loaded yet".
// generation counts invalidations; a load that raced one is not cached.
type Service struct {
	store database.PreferenceStore

	mu         sync.RWMutex
	snapshot   map[string]string
	generation uint64
}

func NewService(store database.PreferenceStore) *Service {
	return &Service{store: store}
}

// Invalidate drops the cached snapshot. Subscribe it to the entity store so
// a reset brings back the defaults.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.generation++
	s.mu.Unlock()
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	s.mu.RLock()
	if s.snapshot != nil {
		value, ok := s.snapshot[key]
		s.mu.RUnlock()
		return value, ok
	}
	generation := s.generation
	s.mu.RUnlock()

	values, err := s.store.ListPreferences(ctx)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to load preferences, using defaults")
		return "", false
	}

	s.mu.Lock()
	if s.generation == generation && s.snapshot == nil {
		s.snapshot = values
	}
	s.mu.Unlock()

	value, ok := values[key]
	return value, ok
}

// Get returns the stored string for key, or def when unset.
func (s *Service) Get(ctx context.Context, key, def string) string {
	if value, ok := s.lookup(ctx, key); ok {
		return value
	}
	return def
}

// GetBool returns def when the stored value is missing or not a boolean.
func (s *Service) GetBool(ctx context.Context, key string, def bool) bool {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return b
}

func (s *Service) GetInt(ctx context.Context, key string, def int) int {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return i
}

func (s *Service) GetFloat(ctx context.Context, key string, def float64) float64 {
	value, ok := s.lookup(ctx, key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return f
}

// Set persists value immediately and then updates the cached snapshot.
func (s *Service) Set(ctx context.Context, key, value string) error {
	// The store notifies subscribers on commit, which may call Invalidate,
	// so the lock must not be held here.
	if err := s.store.SetPreference(ctx, key, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to save preference")
		return err
	}

	s.mu.Lock()
	if s.snapshot != nil {
		s.snapshot[key] = value
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) SetBool(ctx context.Context, key string, value bool) error {
	return s.Set(ctx, key, strconv.FormatBool(value))
}

func (s *Service) SetInt(ctx context.Context, key string, value int) error {
	return s.Set(ctx, key, strconv.Itoa(value))
}

func (s *Service) SetFloat(ctx context.Context, key string, value float64) error {
	return s.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64))
}

// ========== Typed Accessors ==========

func (s *Service) WeightUnit(ctx context.Context) WeightUnit {
	switch unit := WeightUnit(s.Get(ctx, KeyWeightUnit, string(DefaultWeightUnit))); unit {
	case UnitGrams, UnitOunces:
		return unit
	}
	return DefaultWeightUnit
}

// WeightPrecision is the number of fraction digits for weights (0-2).
func (s *Service) WeightPrecision(ctx context.Context) int {
	p := s.GetInt(ctx, KeyWeightPrecision, DefaultWeightPrecision)
	if p < 0 || p > MaxWeightPrecision {
		return DefaultWeightPrecision
	}
	return p
}

func (s *Service) Theme(ctx context.Context) Theme {
	switch theme := Theme(s.Get(ctx, KeyAppTheme, string(DefaultTheme))); theme {
	case ThemeSystem, ThemeLight, ThemeDark:
		return theme
	}
	return DefaultTheme
}

func (s *Service) DefaultGrinderName(ctx context.Context) string {
	return s.Get(ctx, KeyDefaultGrinderName, "")
}

func (s *Service) DefaultBrewerName(ctx context.Context) string {
	return s.Get(ctx, KeyDefaultBrewerName, "")
}

func (s *Service) AICoachingEnabled(ctx context.Context) bool {
	return s.GetBool(ctx, KeyAICoachingEnabled, true)
}

func (s *Service) HasOnboarded(ctx context.Context) bool {
	return s.GetBool(ctx, KeyHasOnboarded, false)
}

func (s *Service) StartGuidedExtraction(ctx context.Context) bool {
	return s.GetBool(ctx, KeyStartGuidedExtraction, false)
}

// ========== Settings ==========

// Settings is the resolved view of every preference, defaults applied.
type Settings struct {
	WeightUnit            WeightUnit `json:"weightUnit" yaml:"weightUnit"`
	WeightPrecision       int        `json:"weightPrecision" yaml:"weightPrecision"`
	AppTheme              Theme      `json:"appTheme" yaml:"appTheme"`
	DefaultGrinderName    string     `json:"defaultGrinderName" yaml:"defaultGrinderName"`
	DefaultBrewerName     string     `json:"defaultBrewerName" yaml:"defaultBrewerName"`
	AICoachingEnabled     bool       `json:"aiCoachingEnabled" yaml:"aiCoachingEnabled"`
	HasOnboarded          bool       `json:"hasOnboarded" yaml:"hasOnboarded"`
	StartGuidedExtraction bool       `json:"startGuidedExtraction" yaml:"startGuidedExtraction"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		WeightUnit:        DefaultWeightUnit,
		WeightPrecision:   DefaultWeightPrecision,
		AppTheme:          DefaultTheme,
		AICoachingEnabled: true,
	}
}

func (s *Service) Snapshot(ctx context.Context) Settings {
	return Settings{
		WeightUnit:            s.WeightUnit(ctx),
		WeightPrecision:       s.WeightPrecision(ctx),
		AppTheme:              s.Theme(ctx),
		DefaultGrinderName:    s.DefaultGrinderName(ctx),
		DefaultBrewerName:     s.DefaultBrewerName(ctx),
		AICoachingEnabled:     s.AICoachingEnabled(ctx),
		HasOnboarded:          s.HasOnboarded(ctx),
		StartGuidedExtraction: s.StartGuidedExtraction(ctx),
	}
}

// SettingsUpdate carries a partial change; nil fields are left alone.
type SettingsUpdate struct {
	WeightUnit            *WeightUnit `json:"weightUnit,omitempty"`
	WeightPrecision       *int        `json:"weightPrecision,omitempty"`
	AppTheme              *Theme      `json:"appTheme,omitempty"`
	DefaultGrinderName    *string     `json:"defaultGrinderName,omitempty"`
	DefaultBrewerName     *string     `json:"defaultBrewerName,omitempty"`
	AICoachingEnabled     *bool       `json:"aiCoachingEnabled,omitempty"`
	HasOnboarded          *bool       `json:"hasOnboarded,omitempty"`
	StartGuidedExtraction *bool       `json:"startGuidedExtraction,omitempty"`
}

func (u *SettingsUpdate) Validate() error {
	if u.WeightUnit != nil && *u.WeightUnit != UnitGrams && *u.WeightUnit != UnitOunces {
		return &database.ValidationError{Field: KeyWeightUnit, Message: fmt.Sprintf("unknown weight unit %q", *u.WeightUnit)}
	}
	if u.WeightPrecision != nil && (*u.WeightPrecision < 0 || *u.WeightPrecision > MaxWeightPrecision) {
		return &database.ValidationError{Field: KeyWeightPrecision, Message: "precision must be 0, 1 or 2"}
	}
	if u.AppTheme != nil {
		switch *u.AppTheme {
		case ThemeSystem, ThemeLight, ThemeDark:
		default:
			return &database.ValidationError{Field: KeyAppTheme, Message: fmt.Sprintf("unknown theme %q", *u.AppTheme)}
		}
	}
	return nil
}

// Update validates u and writes every field it sets.
func (s *Service) Update(ctx context.Context, u *SettingsUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	writes := []struct {
		key string
		set func() error
	}{
		{KeyWeightUnit, func() error { return s.Set(ctx, KeyWeightUnit, string(*u.WeightUnit)) }},
		{KeyWeightPrecision, func() error { return s.SetInt(ctx, KeyWeightPrecision, *u.WeightPrecision) }},
		{KeyAppTheme, func() error { return s.Set(ctx, KeyAppTheme, string(*u.AppTheme)) }},
		{KeyDefaultGrinderName, func() error { return s.Set(ctx, KeyDefaultGrinderName, *u.DefaultGrinderName) }},
		{KeyDefaultBrewerName, func() error { return s.Set(ctx, KeyDefaultBrewerName, *u.DefaultBrewerName) }},
		{KeyAICoachingEnabled, func() error { return s.SetBool(ctx, KeyAICoachingEnabled, *u.AICoachingEnabled) }},
		{KeyHasOnboarded, func() error { return s.SetBool(ctx, KeyHasOnboarded, *u.HasOnboarded) }},
		{KeyStartGuidedExtraction, func() error { return s.SetBool(ctx, KeyStartGuidedExtraction, *u.StartGuidedExtraction) }},
	}
	present := map[string]bool{
		KeyWeightUnit:            u.WeightUnit != nil,
		KeyWeightPrecision:       u.WeightPrecision != nil,
		KeyAppTheme:              u.AppTheme != nil,
		KeyDefaultGrinderName:    u.DefaultGrinderName != nil,
		KeyDefaultBrewerName:     u.DefaultBrewerName != nil,
		KeyAICoachingEnabled:     u.AICoachingEnabled != nil,
		KeyHasOnboarded:          u.HasOnboarded != nil,
		KeyStartGuidedExtraction: u.StartGuidedExtraction != nil,
	}

	for _, w := range writes {
		if !present[w.key] {
			continue
		}
		if err := w.set(); err != nil {
			return err
		}
	}
	return nil
}
