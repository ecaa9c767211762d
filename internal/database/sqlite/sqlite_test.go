package sqlite

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"baristalog/internal/database"
	"baristalog/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// newTestStore creates an in-memory SQLite store for testing
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// createEquipment creates one bean, grinder and brewer.
func createEquipment(t *testing.T, store *SQLiteStore) (*models.Bean, *models.Grinder, *models.Brewer) {
	t.Helper()
	ctx := context.Background()

	bean, err := store.CreateBean(ctx, &models.CreateBeanRequest{Name: "Ethiopia Guji", Roaster: models.Ptr("Onyx")})
	if err != nil {
		t.Fatalf("CreateBean() error = %v", err)
	}
	grinder, err := store.CreateGrinder(ctx, &models.CreateGrinderRequest{Name: "Niche Zero"})
	if err != nil {
		t.Fatalf("CreateGrinder() error = %v", err)
	}
	brewer, err := store.CreateBrewer(ctx, &models.CreateBrewerRequest{Name: "Gaggia Classic"})
	if err != nil {
		t.Fatalf("CreateBrewer() error = %v", err)
	}
	return bean, grinder, brewer
}

func shotRequest(bean *models.Bean, grinder *models.Grinder, brewer *models.Brewer, date time.Time) *models.CreateExtractionRequest {
	return &models.CreateExtractionRequest{
		Date:         &date,
		GrindSetting: "15",
		DoseIn:       models.Ptr(18.0),
		YieldOut:     models.Ptr(36.0),
		TimeSeconds:  models.Ptr(28.0),
		Rating:       models.Ptr(4),
		BeanRKey:     bean.RKey,
		GrinderRKey:  grinder.RKey,
		BrewerRKey:   brewer.RKey,
	}
}

// ========== Migration Tests ==========

func TestMigrationsAreIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.runMigrations(); err != nil {
		t.Fatalf("second runMigrations() error = %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("schema_migrations has %d rows, want %d", count, len(migrations))
	}
}

// ========== Bean Tests ==========

func TestBeanCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	roast := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	bean, err := store.CreateBean(ctx, &models.CreateBeanRequest{
		Name:      "  Kenya AA ",
		Origin:    models.Ptr("Nyeri"),
		Notes:     models.Ptr("   "),
		RoastDate: &roast,
	})
	if err != nil {
		t.Fatalf("CreateBean() error = %v", err)
	}
	if bean.Name != "Kenya AA" {
		t.Errorf("Name = %q, want trimmed", bean.Name)
	}
	if bean.Notes != nil {
		t.Errorf("Notes = %q, want nil for blank input", *bean.Notes)
	}
	if bean.RoastDate == nil || !bean.RoastDate.Equal(roast) {
		t.Errorf("RoastDate = %v, want %v", bean.RoastDate, roast)
	}
	if err := database.ValidateRKey(bean.RKey); err != nil {
		t.Errorf("RKey %q is not a TID: %v", bean.RKey, err)
	}

	got, err := store.GetBeanByRKey(ctx, bean.RKey)
	if err != nil {
		t.Fatalf("GetBeanByRKey() error = %v", err)
	}
	if got.Origin == nil || *got.Origin != "Nyeri" {
		t.Errorf("Origin = %v, want Nyeri", got.Origin)
	}

	updated, err := store.UpdateBean(ctx, bean.RKey, func(b *models.Bean) {
		b.Name = "Kenya AA Peaberry"
		b.Origin = nil
	})
	if err != nil {
		t.Fatalf("UpdateBean() error = %v", err)
	}
	if updated.Name != "Kenya AA Peaberry" || updated.Origin != nil {
		t.Errorf("UpdateBean() = %+v", updated)
	}
	if !updated.CreatedAt.Equal(bean.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", bean.CreatedAt, updated.CreatedAt)
	}

	if err := store.DeleteBeanByRKey(ctx, bean.RKey); err != nil {
		t.Fatalf("DeleteBeanByRKey() error = %v", err)
	}
	if _, err := store.GetBeanByRKey(ctx, bean.RKey); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("GetBeanByRKey() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateBeanRejectsBlankName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateBean(ctx, &models.CreateBeanRequest{Name: "   "})
	if !database.IsValidation(err) {
		t.Fatalf("CreateBean() error = %v, want ValidationError", err)
	}

	beans, err := store.ListBeans(ctx, database.SortNameAsc)
	if err != nil {
		t.Fatalf("ListBeans() error = %v", err)
	}
	if len(beans) != 0 {
		t.Errorf("ListBeans() = %d beans, want none persisted", len(beans))
	}
}

func TestListBeansSort(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Colombia", "brazil", "Ethiopia"} {
		if _, err := store.CreateBean(ctx, &models.CreateBeanRequest{Name: name}); err != nil {
			t.Fatalf("CreateBean(%s) error = %v", name, err)
		}
	}

	tests := []struct {
		sort database.SortKey
		want []string
	}{
		{database.SortNameAsc, []string{"brazil", "Colombia", "Ethiopia"}},
		{database.SortCreatedDesc, []string{"Ethiopia", "brazil", "Colombia"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			beans, err := store.ListBeans(ctx, tt.sort)
			if err != nil {
				t.Fatalf("ListBeans() error = %v", err)
			}
			if len(beans) != len(tt.want) {
				t.Fatalf("ListBeans() = %d beans, want %d", len(beans), len(tt.want))
			}
			for i, b := range beans {
				if b.Name != tt.want[i] {
					t.Errorf("beans[%d] = %q, want %q", i, b.Name, tt.want[i])
				}
			}
		})
	}
}

func TestBeanImage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bean, err := store.CreateBean(ctx, &models.CreateBeanRequest{Name: "Yirgacheffe", ImageData: pngHeader})
	if err != nil {
		t.Fatalf("CreateBean() error = %v", err)
	}
	if !bean.HasImage || !bytes.Equal(bean.ImageData, pngHeader) {
		t.Fatalf("image not stored: HasImage=%v len=%d", bean.HasImage, len(bean.ImageData))
	}

	// Editing other fields keeps the image.
	bean, err = store.UpdateBean(ctx, bean.RKey, func(b *models.Bean) { b.Notes = models.Ptr("floral") })
	if err != nil {
		t.Fatalf("UpdateBean() error = %v", err)
	}
	if !bean.HasImage {
		t.Error("image lost on unrelated update")
	}

	bean, err = store.UpdateBean(ctx, bean.RKey, func(b *models.Bean) { b.ImageData = nil })
	if err != nil {
		t.Fatalf("UpdateBean() error = %v", err)
	}
	if bean.HasImage || bean.ImageData != nil {
		t.Error("image still present after clearing it")
	}

	_, err = store.UpdateBean(ctx, bean.RKey, func(b *models.Bean) { b.ImageData = []byte("not an image") })
	if !database.IsValidation(err) {
		t.Errorf("UpdateBean() with text image error = %v, want ValidationError", err)
	}
}

func TestGetWithMalformedRKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, rkey := range []string{"", "1", "'; DROP TABLE beans; --"} {
		if _, err := store.GetBeanByRKey(ctx, rkey); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("GetBeanByRKey(%q) error = %v, want ErrNotFound", rkey, err)
		}
		if err := store.DeleteExtractionByRKey(ctx, rkey); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("DeleteExtractionByRKey(%q) error = %v, want ErrNotFound", rkey, err)
		}
	}
}

func TestUpdateMissingEntity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rkey := database.NewRKeyGenerator(7).Next()

	called := false
	_, err := store.UpdateGrinder(ctx, rkey, func(*models.Grinder) { called = true })
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("UpdateGrinder() error = %v, want ErrNotFound", err)
	}
	if called {
		t.Error("mutator ran for a missing grinder")
	}
}

// ========== Extraction Tests ==========

func TestExtractionCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)

	date := time.Date(2026, 10, 14, 8, 30, 0, 0, time.Local)
	e, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, date))
	if err != nil {
		t.Fatalf("CreateExtraction() error = %v", err)
	}
	if !e.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", e.Date, date)
	}
	if e.Bean == nil || e.Bean.Name != "Ethiopia Guji" {
		t.Errorf("Bean = %+v, want joined name", e.Bean)
	}
	if e.Grinder == nil || e.Grinder.RKey != grinder.RKey {
		t.Errorf("Grinder = %+v, want %s", e.Grinder, grinder.RKey)
	}
	if ratio, ok := e.Ratio(); !ok || ratio != 2 {
		t.Errorf("Ratio() = %v, %v, want 2", ratio, ok)
	}

	updated, err := store.UpdateExtraction(ctx, e.RKey, func(x *models.Extraction) {
		x.GrindSetting = "14.5"
		x.Rating = nil
	})
	if err != nil {
		t.Fatalf("UpdateExtraction() error = %v", err)
	}
	if updated.GrindSetting != "14.5" || updated.Rating != nil {
		t.Errorf("UpdateExtraction() = %+v", updated)
	}

	if err := store.DeleteExtractionByRKey(ctx, e.RKey); err != nil {
		t.Fatalf("DeleteExtractionByRKey() error = %v", err)
	}
	if err := store.DeleteExtractionByRKey(ctx, e.RKey); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestCreateExtractionDefaultsDate(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2026, 10, 15, 7, 0, 0, 0, time.Local)
	store.now = func() time.Time { return fixed }

	e, err := store.CreateExtraction(context.Background(), &models.CreateExtractionRequest{GrindSetting: "12"})
	if err != nil {
		t.Fatalf("CreateExtraction() error = %v", err)
	}
	if !e.Date.Equal(fixed) || !e.CreatedAt.Equal(fixed) {
		t.Errorf("Date = %v, CreatedAt = %v, want %v", e.Date, e.CreatedAt, fixed)
	}
	if e.Bean != nil || e.BeanRKey != "" {
		t.Errorf("Bean = %+v, want absent", e.Bean)
	}
}

func TestCreateExtractionValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)
	date := time.Now()

	tests := []struct {
		name      string
		mutate    func(r *models.CreateExtractionRequest)
		wantField string
	}{
		{"blank grind", func(r *models.CreateExtractionRequest) { r.GrindSetting = "  " }, "grind_setting"},
		{"rating zero", func(r *models.CreateExtractionRequest) { r.Rating = models.Ptr(0) }, "rating"},
		{"rating six", func(r *models.CreateExtractionRequest) { r.Rating = models.Ptr(6) }, "rating"},
		{"negative yield", func(r *models.CreateExtractionRequest) { r.YieldOut = models.Ptr(-3.0) }, "yield_out"},
		{"unknown bean", func(r *models.CreateExtractionRequest) { r.BeanRKey = database.NewRKeyGenerator(9).Next() }, "bean_rkey"},
		{"malformed grinder", func(r *models.CreateExtractionRequest) { r.GrinderRKey = "42" }, "grinder_rkey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := shotRequest(bean, grinder, brewer, date)
			tt.mutate(req)

			_, err := store.CreateExtraction(ctx, req)
			var verr *database.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("CreateExtraction() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	all, err := store.ListExtractions(ctx, database.SortDateDesc)
	if err != nil {
		t.Fatalf("ListExtractions() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListExtractions() = %d, want nothing persisted", len(all))
	}
}

func TestUpdateExtractionRejectsInvalidRating(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)

	e, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, time.Now()))
	if err != nil {
		t.Fatalf("CreateExtraction() error = %v", err)
	}

	_, err = store.UpdateExtraction(ctx, e.RKey, func(x *models.Extraction) { x.Rating = models.Ptr(9) })
	if !database.IsValidation(err) {
		t.Fatalf("UpdateExtraction() error = %v, want ValidationError", err)
	}

	got, err := store.GetExtractionByRKey(ctx, e.RKey)
	if err != nil {
		t.Fatalf("GetExtractionByRKey() error = %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("Rating = %v, want unchanged 4", got.Rating)
	}
}

func TestUpdateExtractionRejectsBlankGrind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)

	e, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, time.Now()))
	if err != nil {
		t.Fatalf("CreateExtraction() error = %v", err)
	}

	_, err = store.UpdateExtraction(ctx, e.RKey, func(x *models.Extraction) {
		x.GrindSetting = "   "
		x.Notes = models.Ptr("should not be saved")
	})
	var verr *database.ValidationError
	if !errors.As(err, &verr) || verr.Field != "grind_setting" {
		t.Fatalf("UpdateExtraction() error = %v, want grind_setting ValidationError", err)
	}

	got, err := store.GetExtractionByRKey(ctx, e.RKey)
	if err != nil {
		t.Fatalf("GetExtractionByRKey() error = %v", err)
	}
	if got.GrindSetting != "15" {
		t.Errorf("GrindSetting = %q, want unchanged 15", got.GrindSetting)
	}
	if got.Notes != nil {
		t.Errorf("Notes = %q, want unchanged nil", *got.Notes)
	}
}

func TestListExtractionsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)

	base := time.Date(2026, 10, 10, 9, 0, 0, 0, time.Local)
	offsets := []int{2, 0, 5}
	for _, days := range offsets {
		if _, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, base.AddDate(0, 0, days))); err != nil {
			t.Fatalf("CreateExtraction() error = %v", err)
		}
	}

	desc, err := store.ListExtractions(ctx, database.SortDateDesc)
	if err != nil {
		t.Fatalf("ListExtractions() error = %v", err)
	}
	for i := 1; i < len(desc); i++ {
		if desc[i].Date.After(desc[i-1].Date) {
			t.Errorf("SortDateDesc: %v after %v", desc[i].Date, desc[i-1].Date)
		}
	}

	asc, err := store.ListExtractions(ctx, database.SortDateAsc)
	if err != nil {
		t.Fatalf("ListExtractions() error = %v", err)
	}
	if !asc[0].Date.Equal(base) {
		t.Errorf("SortDateAsc first = %v, want %v", asc[0].Date, base)
	}
}

func TestDeleteGrinderNullifiesReferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)

	now := time.Now()
	var shots []*models.Extraction
	for i := 0; i < 3; i++ {
		e, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, now.Add(time.Duration(i)*time.Minute)))
		if err != nil {
			t.Fatalf("CreateExtraction() error = %v", err)
		}
		shots = append(shots, e)
	}

	if err := store.DeleteGrinderByRKey(ctx, grinder.RKey); err != nil {
		t.Fatalf("DeleteGrinderByRKey() error = %v", err)
	}

	for i, e := range shots {
		got, err := store.GetExtractionByRKey(ctx, e.RKey)
		if err != nil {
			t.Fatalf("extraction %d gone after grinder delete: %v", i, err)
		}
		if got.GrinderRKey != "" || got.Grinder != nil {
			t.Errorf("extraction %d Grinder = %+v, want cleared", i, got.Grinder)
		}
		if got.BeanRKey != bean.RKey || got.BrewerRKey != brewer.RKey || got.Bean == nil || got.Brewer == nil {
			t.Errorf("extraction %d other references lost: bean=%v brewer=%v", i, got.Bean, got.Brewer)
		}
	}

	related, err := store.ListRelatedExtractions(ctx, database.RelationGrinder, grinder.RKey)
	if err != nil {
		t.Fatalf("ListRelatedExtractions() error = %v", err)
	}
	if len(related) != 0 {
		t.Errorf("ListRelatedExtractions() = %d, want 0", len(related))
	}
	byBrewer, err := store.ListRelatedExtractions(ctx, database.RelationBrewer, brewer.RKey)
	if err != nil {
		t.Fatalf("ListRelatedExtractions() error = %v", err)
	}
	if len(byBrewer) != len(shots) {
		t.Errorf("brewer still referenced by %d shots, want %d", len(byBrewer), len(shots))
	}
}

func TestListRelatedExtractions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)
	other, err := store.CreateBean(ctx, &models.CreateBeanRequest{Name: "House Blend"})
	if err != nil {
		t.Fatalf("CreateBean() error = %v", err)
	}

	now := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("CreateExtraction() error = %v", err)
		}
	}
	if _, err := store.CreateExtraction(ctx, shotRequest(other, grinder, brewer, now)); err != nil {
		t.Fatalf("CreateExtraction() error = %v", err)
	}

	tests := []struct {
		name string
		rel  database.Relation
		rkey string
		want int
	}{
		{"bean", database.RelationBean, bean.RKey, 3},
		{"other bean", database.RelationBean, other.RKey, 1},
		{"grinder", database.RelationGrinder, grinder.RKey, 4},
		{"brewer", database.RelationBrewer, brewer.RKey, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListRelatedExtractions(ctx, tt.rel, tt.rkey)
			if err != nil {
				t.Fatalf("ListRelatedExtractions() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListRelatedExtractions() = %d, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := store.ListRelatedExtractions(ctx, database.Relation("roaster"), bean.RKey); !database.IsValidation(err) {
		t.Errorf("unknown relation error = %v, want ValidationError", err)
	}
}

// ========== Preference Tests ==========

func TestPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.GetPreference(ctx, "weightUnit"); err != nil || ok {
		t.Fatalf("GetPreference() on empty store = ok %v, err %v", ok, err)
	}

	if err := store.SetPreference(ctx, "weightUnit", "grams"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	if err := store.SetPreference(ctx, "weightUnit", "ounces"); err != nil {
		t.Fatalf("SetPreference() overwrite error = %v", err)
	}

	value, ok, err := store.GetPreference(ctx, "weightUnit")
	if err != nil || !ok || value != "ounces" {
		t.Errorf("GetPreference() = %q, %v, %v, want ounces", value, ok, err)
	}

	all, err := store.ListPreferences(ctx)
	if err != nil {
		t.Fatalf("ListPreferences() error = %v", err)
	}
	if len(all) != 1 || all["weightUnit"] != "ounces" {
		t.Errorf("ListPreferences() = %v", all)
	}
}

// ========== Reset & Notification Tests ==========

func TestResetAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	bean, grinder, brewer := createEquipment(t, store)

	if _, err := store.CreateExtraction(ctx, shotRequest(bean, grinder, brewer, time.Now())); err != nil {
		t.Fatalf("CreateExtraction() error = %v", err)
	}
	if _, err := store.UpdateBean(ctx, bean.RKey, func(b *models.Bean) { b.ImageData = pngHeader }); err != nil {
		t.Fatalf("UpdateBean() error = %v", err)
	}
	if err := store.SetPreference(ctx, "hasOnboarded", "true"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}

	if err := store.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}

	extractions, _ := store.ListExtractions(ctx, database.SortDateDesc)
	beans, _ := store.ListBeans(ctx, database.SortNameAsc)
	grinders, _ := store.ListGrinders(ctx, database.SortNameAsc)
	brewers, _ := store.ListBrewers(ctx, database.SortNameAsc)
	prefs, _ := store.ListPreferences(ctx)
	if len(extractions)+len(beans)+len(grinders)+len(brewers)+len(prefs) != 0 {
		t.Errorf("ResetAll left data: %d extractions, %d beans, %d grinders, %d brewers, %d prefs",
			len(extractions), len(beans), len(grinders), len(brewers), len(prefs))
	}

	var images int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM images").Scan(&images); err != nil {
		t.Fatalf("failed to count images: %v", err)
	}
	if images != 0 {
		t.Errorf("ResetAll left %d images", images)
	}
}

func TestSubscribeNotifiesOnCommit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	changes := 0
	unsubscribe := store.Subscribe(func() { changes++ })

	bean, err := store.CreateBean(ctx, &models.CreateBeanRequest{Name: "Sumatra"})
	if err != nil {
		t.Fatalf("CreateBean() error = %v", err)
	}
	if changes != 1 {
		t.Errorf("changes after create = %d, want 1", changes)
	}

	// Rejected writes do not notify.
	if _, err := store.CreateBean(ctx, &models.CreateBeanRequest{}); err == nil {
		t.Fatal("CreateBean() with blank name succeeded")
	}
	if _, err := store.UpdateBean(ctx, bean.RKey, func(b *models.Bean) { b.Name = "" }); err == nil {
		t.Fatal("UpdateBean() with blank name succeeded")
	}
	if changes != 1 {
		t.Errorf("changes after rejected writes = %d, want 1", changes)
	}

	if err := store.DeleteBeanByRKey(ctx, bean.RKey); err != nil {
		t.Fatalf("DeleteBeanByRKey() error = %v", err)
	}
	if changes != 2 {
		t.Errorf("changes after delete = %d, want 2", changes)
	}

	unsubscribe()
	if err := store.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if changes != 2 {
		t.Errorf("changes after unsubscribe = %d, want 2", changes)
	}
}
