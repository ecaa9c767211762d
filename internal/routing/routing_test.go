package routing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"baristalog/internal/bff"
	"baristalog/internal/database/sqlite"
	"baristalog/internal/handlers"
	"baristalog/internal/models"
	"baristalog/internal/preferences"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, now time.Time) *httptest.Server {
	t.Helper()
	store, err := sqlite.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	prefs := preferences.NewService(store)
	store.Subscribe(prefs.Invalidate)

	h := handlers.NewHandler(store, prefs)
	h.SetClock(func() time.Time { return now })

	server := httptest.NewServer(SetupRouter(Config{Handlers: h, Logger: zerolog.Nop()}))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: failed to decode response: %v", method, url, err)
		}
	}
	return resp
}

func TestShotWorkflow(t *testing.T) {
	now := time.Date(2026, 10, 15, 15, 0, 0, 0, time.Local)
	server := newTestServer(t, now)
	api := server.URL + "/api"

	var bean models.Bean
	var grinder models.Grinder
	var brewer models.Brewer
	if resp := do(t, http.MethodPost, api+"/beans", models.CreateBeanRequest{Name: "Guji"}, &bean); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create bean status = %d", resp.StatusCode)
	}
	do(t, http.MethodPost, api+"/grinders", models.CreateGrinderRequest{Name: "Niche Zero"}, &grinder)
	do(t, http.MethodPost, api+"/brewers", models.CreateBrewerRequest{Name: "Linea Mini"}, &brewer)

	if resp := do(t, http.MethodPut, api+"/preferences", map[string]any{"defaultGrinderName": "Niche Zero"}, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("update preferences status = %d", resp.StatusCode)
	}

	var draft models.CreateExtractionRequest
	do(t, http.MethodGet, api+"/extractions/draft", nil, &draft)
	if draft.GrinderRKey != grinder.RKey || draft.BrewerRKey != "" {
		t.Errorf("default draft = %+v", draft)
	}

	shotTime := now.Add(-2 * time.Hour)
	var shot models.Extraction
	resp := do(t, http.MethodPost, api+"/extractions", models.CreateExtractionRequest{
		Date:         &shotTime,
		GrindSetting: "14",
		DoseIn:       models.Ptr(18.0),
		YieldOut:     models.Ptr(36.0),
		TimeSeconds:  models.Ptr(28.0),
		Rating:       models.Ptr(4),
		BeanRKey:     bean.RKey,
		GrinderRKey:  grinder.RKey,
		BrewerRKey:   brewer.RKey,
	}, &shot)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create extraction status = %d", resp.StatusCode)
	}
	if shot.Bean == nil || shot.Bean.Name != "Guji" {
		t.Errorf("joined bean = %+v", shot.Bean)
	}

	var fromShot models.CreateExtractionRequest
	do(t, http.MethodGet, api+"/extractions/draft?from="+shot.RKey, nil, &fromShot)
	if fromShot.GrindSetting != "14" || fromShot.YieldOut != nil || fromShot.BrewerRKey != brewer.RKey {
		t.Errorf("draft from shot = %+v", fromShot)
	}

	var days []bff.DayView
	do(t, http.MethodGet, api+"/history", nil, &days)
	if len(days) != 1 || days[0].Label != "Today" || len(days[0].Extractions) != 1 {
		t.Fatalf("history = %+v", days)
	}
	if got := days[0].Extractions[0]; got.Ratio != "1:2.0" || got.Time != "28s" || got.Rating != "4/5" {
		t.Errorf("history row = %+v", got)
	}

	var history bff.HistoryView
	do(t, http.MethodGet, api+"/beans/"+bean.RKey+"/history", nil, &history)
	if history.Total != 1 || len(history.Recent) != 1 {
		t.Errorf("bean history = %+v", history)
	}

	if resp := do(t, http.MethodDelete, api+"/grinders/"+grinder.RKey, nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete grinder status = %d", resp.StatusCode)
	}
	var after models.Extraction
	do(t, http.MethodGet, api+"/extractions/"+shot.RKey, nil, &after)
	if after.GrinderRKey != "" || after.Grinder != nil {
		t.Errorf("extraction still references deleted grinder: %+v", after)
	}

	if resp := do(t, http.MethodGet, api+"/grinders/"+grinder.RKey+"/history", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("history of deleted grinder status = %d", resp.StatusCode)
	}
}

func TestExportRoute(t *testing.T) {
	server := newTestServer(t, time.Now())
	do(t, http.MethodPost, server.URL+"/api/beans", models.CreateBeanRequest{Name: "Guji"}, nil)

	resp, err := http.Get(server.URL + "/api/export?format=yaml")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "baristalog-export.yaml") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(string(body), "name: Guji") {
		t.Errorf("export body = %s", body)
	}

	if resp := do(t, http.MethodGet, server.URL+"/api/export?format=csv", nil, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("csv export status = %d", resp.StatusCode)
	}
}

func TestMiddlewareChain(t *testing.T) {
	server := newTestServer(t, time.Now())

	resp := do(t, http.MethodGet, server.URL+"/api/beans", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	if resp := do(t, http.MethodPatch, server.URL+"/api/beans", nil, nil); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d, want 405", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, server.URL+"/api/beans/not-a-tid", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("malformed rkey status = %d, want 404", resp.StatusCode)
	}
}
