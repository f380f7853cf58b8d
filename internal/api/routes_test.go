package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/i18n"
	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/service"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	maps, err := service.NewMapService(service.NewFileStore(t.TempDir()), nil)
	if err != nil {
		t.Fatalf("NewMapService: %v", err)
	}
	if _, err := maps.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	cat, err := i18n.Load()
	if err != nil {
		t.Fatalf("i18n.Load: %v", err)
	}
	svc := &Services{
		Maps: maps,
		Touchpad: service.NewTouchpadService(service.TouchpadConfig{
			Maps:    maps,
			Catalog: cat,
			Logger:  log.Discard(),
		}),
		Logger: log.Discard(),
	}
	config := huma.DefaultConfig("AbaPlan API", Version)
	config.Transformers = append(config.Transformers, humastar.LinkTransformer())
	_, api := humatest.New(t, config)
	RegisterRoutes(api, svc)
	return api, svc
}

func newMap(title string) map[string]any {
	return map[string]any{
		"title":     title,
		"width":     640,
		"height":    480,
		"layerType": map[string]string{"kind": "osm"},
	}
}

// TestMaps_Search verifies filtering and paging of the list endpoint.
func TestMaps_Search(t *testing.T) {
	api, _ := newTestAPI(t)

	tests := []struct {
		query string
		total int
		count int
	}{
		{"", 3, 3},
		{"?q=GARE", 1, 1},
		{"?q=2", 1, 1},
		{"?limit=2", 3, 2},
		{"?offset=2&limit=2", 3, 1},
		{"?q=nothing", 0, 0},
	}
	for _, tt := range tests {
		resp := api.Get("/api/v1/maps" + tt.query)
		if resp.Code != http.StatusOK {
			t.Fatalf("%q: status %d: %s", tt.query, resp.Code, resp.Body.String())
		}
		var page struct {
			Total int                 `json:"total"`
			Data  []service.OptionMap `json:"data"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
			t.Fatalf("%q: decoding: %v", tt.query, err)
		}
		if page.Total != tt.total || len(page.Data) != tt.count {
			t.Fatalf("%q: got total %d count %d, want %d %d", tt.query, page.Total, len(page.Data), tt.total, tt.count)
		}
	}
}

// TestMaps_Errors verifies service errors map to HTTP statuses.
func TestMaps_Errors(t *testing.T) {
	api, _ := newTestAPI(t)

	dup := newMap("Doublon")
	dup["uid"] = 1
	if resp := api.Post("/api/v1/maps", dup); resp.Code != http.StatusConflict {
		t.Fatalf("duplicate uid: expected 409, got %d", resp.Code)
	}

	bad := newMap("Sans points")
	bad["shapes"] = []map[string]any{{"kind": "line", "points": [][]float64{{6.6}}}}
	if resp := api.Post("/api/v1/maps", bad); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid shape: expected 422, got %d", resp.Code)
	}

	if resp := api.Put("/api/v1/maps/42", newMap("Absente")); resp.Code != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", resp.Code)
	}
	if resp := api.Delete("/api/v1/maps/42"); resp.Code != http.StatusNotFound {
		t.Fatalf("delete missing: expected 404, got %d", resp.Code)
	}
	if resp := api.Get("/api/v1/touchpad/1"); resp.Code != http.StatusNotFound {
		t.Fatalf("status without session: expected 404, got %d", resp.Code)
	}
}

// TestMaps_CRUD verifies create, update and delete round trip.
func TestMaps_CRUD(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Post("/api/v1/maps", newMap("Quartier"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/api/v1/maps/4" {
		t.Fatalf("unexpected Location %q", loc)
	}
	if links := strings.Join(resp.Header().Values("Link"), ","); !strings.Contains(links, "/api/v1/maps/4/kml") {
		t.Fatalf("created map should link its exports, got %q", links)
	}

	resp = api.Put("/api/v1/maps/4", newMap("Quartier nord"))
	if resp.Code != http.StatusOK {
		t.Fatalf("update: %d %s", resp.Code, resp.Body.String())
	}
	if m, _ := svc.Maps.Get(4); m.Title != "Quartier nord" {
		t.Fatalf("update not stored, got %q", m.Title)
	}

	if resp := api.Delete("/api/v1/maps/4"); resp.Code != http.StatusOK {
		t.Fatalf("delete: %d", resp.Code)
	}
	if _, err := svc.Maps.Get(4); err == nil {
		t.Fatal("map should be gone")
	}
}

// TestExports verifies content types and download names.
func TestExports(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/v1/maps/1/geojson")
	if resp.Code != http.StatusOK {
		t.Fatalf("geojson: %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(resp.Body.String(), "FeatureCollection") {
		t.Fatalf("expected a feature collection: %s", resp.Body.String())
	}

	resp = api.Get("/api/v1/maps/1/kml")
	if cd := resp.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Fatalf("kml should download, got %q", cd)
	}
}

// TestImportGeoJSON verifies shapes can be uploaded as GeoJSON.
func TestImportGeoJSON(t *testing.T) {
	api, svc := newTestAPI(t)

	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Arbre"},"geometry":{"type":"Point","coordinates":[6.63,46.52]}}]}`
	resp := api.Post("/api/v1/maps/3/geojson?replace=true", "Content-Type: application/geo+json", strings.NewReader(doc))
	if resp.Code != http.StatusOK {
		t.Fatalf("import: %d %s", resp.Code, resp.Body.String())
	}
	m, _ := svc.Maps.Get(3)
	if len(m.Shapes) != 1 || m.Shapes[0].Name != "Arbre" {
		t.Fatalf("unexpected shapes %+v", m.Shapes)
	}

	resp = api.Post("/api/v1/maps/3/geojson", "Content-Type: application/geo+json", strings.NewReader("{"))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad document: expected 422, got %d", resp.Code)
	}
}

// TestIsReadOnly verifies the query endpoint only accepts single reads.
func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT * FROM maps", true},
		{"  select uid from maps;", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"DESCRIBE maps", true},
		{"DELETE FROM maps", false},
		{"SELECT 1; DROP TABLE maps", false},
		{"EXPLAIN SELECT 1", true},
		{"SELECT \"offset\" FROM maps", true},
		{"EXPLAIN ANALYZE DELETE FROM maps", false},
		{"explain  analyze select 1", false},
		{"WITH t AS (SELECT 1) DELETE FROM maps", false},
		{"FROM maps; ", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := isReadOnly(tt.query); got != tt.want {
			t.Fatalf("isReadOnly(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
