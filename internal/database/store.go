package database

import (
	"context"

	"baristalog/internal/models"
)

// Store defines the interface for all entity operations.
// All mutators validate before writing, run as a single unit of work and
// notify subscribers after a successful commit.
type Store interface {
	// Bean operations
	CreateBean(ctx context.Context, req *models.CreateBeanRequest) (*models.Bean, error)
	GetBeanByRKey(ctx context.Context, rkey string) (*models.Bean, error)
	ListBeans(ctx context.Context, sort SortKey) ([]*models.Bean, error)
	UpdateBean(ctx context.Context, rkey string, mutate func(*models.Bean)) (*models.Bean, error)
	DeleteBeanByRKey(ctx context.Context, rkey string) error

	// Grinder operations
	CreateGrinder(ctx context.Context, req *models.CreateGrinderRequest) (*models.Grinder, error)
	GetGrinderByRKey(ctx context.Context, rkey string) (*models.Grinder, error)
	ListGrinders(ctx context.Context, sort SortKey) ([]*models.Grinder, error)
	UpdateGrinder(ctx context.Context, rkey string, mutate func(*models.Grinder)) (*models.Grinder, error)
	DeleteGrinderByRKey(ctx context.Context, rkey string) error

	// Brewer operations
	CreateBrewer(ctx context.Context, req *models.CreateBrewerRequest) (*models.Brewer, error)
	GetBrewerByRKey(ctx context.Context, rkey string) (*models.Brewer, error)
	ListBrewers(ctx context.Context, sort SortKey) ([]*models.Brewer, error)
	UpdateBrewer(ctx context.Context, rkey string, mutate func(*models.Brewer)) (*models.Brewer, error)
	DeleteBrewerByRKey(ctx context.Context, rkey string) error

	// Extraction operations
	CreateExtraction(ctx context.Context, req *models.CreateExtractionRequest) (*models.Extraction, error)
	GetExtractionByRKey(ctx context.Context, rkey string) (*models.Extraction, error)
	ListExtractions(ctx context.Context, sort SortKey) ([]*models.Extraction, error)
	UpdateExtraction(ctx context.Context, rkey string, mutate func(*models.Extraction)) (*models.Extraction, error)
	DeleteExtractionByRKey(ctx context.Context, rkey string) error

	// ListRelatedExtractions returns the extractions whose rel reference
	// equals rkey, newest first.
	ListRelatedExtractions(ctx context.Context, rel Relation, rkey string) ([]*models.Extraction, error)

	// ResetAll removes every entity and every stored preference atomically.
	ResetAll(ctx context.Context) error

	// Subscribe registers fn to run after every successful mutation.
	Subscribe(fn func()) (unsubscribe func())

	// Close the database connection
	Close() error
}

// PreferenceStore is the key/value boundary behind the preference service.
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) (value string, ok bool, err error)
	SetPreference(ctx context.Context, key, value string) error
	ListPreferences(ctx context.Context) (map[string]string, error)
}

// SortKey selects the ordering of a List call.
type SortKey string

const (
	SortNameAsc     SortKey = "name"
	SortCreatedDesc SortKey = "-created"
	SortDateDesc    SortKey = "-date"
	SortDateAsc     SortKey = "date"
)

// Relation names one of the three equipment references on an extraction.
type Relation string

const (
	RelationBean    Relation = "bean"
	RelationGrinder Relation = "grinder"
	RelationBrewer  Relation = "brewer"
)

// Valid reports whether r is one of the known relations.
func (r Relation) Valid() bool {
	switch r {
	case RelationBean, RelationGrinder, RelationBrewer:
		return true
	}
	return false
}

// Column is the extraction column holding this reference.
func (r Relation) Column() string {
	return string(r) + "_rkey"
}
