package service

import (
	"errors"
	"strings"
	"testing"
)

func newTestMaps(t *testing.T) (*MapService, *EventBus) {
	t.Helper()
	bus := NewEventBus()
	svc, err := NewMapService(NewFileStore(t.TempDir()), bus)
	if err != nil {
		t.Fatalf("NewMapService: %v", err)
	}
	return svc, bus
}

// TestMapService_CRUD verifies create, fetch, update and delete, and that
// each mutation is announced on the bus.
func TestMapService_CRUD(t *testing.T) {
	svc, bus := newTestMaps(t)
	events := bus.Subscribe()
	defer bus.Unsubscribe(events)

	m, err := svc.Create(OptionMap{Title: "Plan de quartier", Width: 800, Height: 600, LayerType: LayerType{Kind: LayerSquare}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.UID != 1 {
		t.Fatalf("expected uid 1, got %d", m.UID)
	}
	if e := <-events; e.Action != ActionCreated || e.ID != "1" || e.Resource != ResourceMaps {
		t.Fatalf("unexpected event %+v", e)
	}

	m2, _ := svc.Create(OptionMap{Title: "Centre"})
	if m2.UID != 2 {
		t.Fatalf("expected next uid 2, got %d", m2.UID)
	}
	<-events

	m.Title = "Plan renommé"
	if _, err := svc.Update(1, m); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Get(1)
	if err != nil || got.Title != "Plan renommé" || got.LayerType.Kind != LayerSquare {
		t.Fatalf("unexpected map %+v err %v", got, err)
	}
	if e := <-events; e.Action != ActionUpdated {
		t.Fatalf("expected updated event, got %+v", e)
	}

	if err := svc.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(1); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound, got %v", err)
	}
	if err := svc.Delete(1); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound on second delete, got %v", err)
	}
	if _, err := svc.Update(42, m); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound on update, got %v", err)
	}
	if _, err := svc.Create(OptionMap{UID: 2, Title: "dup"}); !errors.Is(err, ErrMapExists) {
		t.Fatalf("expected ErrMapExists, got %v", err)
	}
}

// TestMapService_Persistence verifies maps survive a reload from the same store.
func TestMapService_Persistence(t *testing.T) {
	dir := t.TempDir()
	svc, _ := NewMapService(NewFileStore(dir), nil)
	if _, err := svc.Create(OptionMap{Title: "Gare", Shapes: []Shape{{Kind: ShapePoint, Points: [][]float64{{6.6291, 46.5167}}}}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	reloaded, err := NewMapService(NewFileStore(dir), nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	m, err := reloaded.Get(1)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if m.Title != "Gare" || len(m.Shapes) != 1 {
		t.Fatalf("unexpected reloaded map %+v", m)
	}
}

// TestMapService_Filter verifies title matching ignores case and uids match as text.
func TestMapService_Filter(t *testing.T) {
	svc, _ := newTestMaps(t)
	for _, title := range []string{"Plan de quartier sous-gare", "Centre-ville", "Parcours piéton"} {
		if _, err := svc.Create(OptionMap{Title: title}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	for i := 0; i < 9; i++ {
		svc.Create(OptionMap{Title: "Brouillon"})
	}

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"PLAN", []int{1}},
		{"gare", []int{1}},
		{"PIÉTON", []int{3}},
		{"2", []int{2, 12}},
		{"1", []int{1, 10, 11, 12}},
		{"nope", nil},
	}
	for _, tt := range tests {
		got := svc.Filter(tt.query)
		if len(got) != len(tt.want) {
			t.Fatalf("Filter(%q): expected %v, got %d maps", tt.query, tt.want, len(got))
		}
		for i, m := range got {
			if m.UID != tt.want[i] {
				t.Fatalf("Filter(%q)[%d] = %d, want %d", tt.query, i, m.UID, tt.want[i])
			}
		}
	}

	page, total := svc.Search("brouillon", 2, 3)
	if total != 9 || len(page) != 3 || page[0].UID != 6 {
		t.Fatalf("unexpected page total=%d page=%+v", total, page)
	}
	page, total = svc.Search("", 50, 10)
	if total != 12 || len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %d of %d", len(page), total)
	}
}

// TestMapService_Seed verifies an empty store is seeded once.
func TestMapService_Seed(t *testing.T) {
	svc, _ := newTestMaps(t)
	n, err := svc.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n == 0 || len(svc.List()) != n {
		t.Fatalf("expected %d seeded maps, got %d", n, len(svc.List()))
	}
	if again, _ := svc.Seed(); again != 0 {
		t.Fatalf("expected no seeding of a filled store, got %d", again)
	}
	for _, m := range svc.List() {
		if _, err := svc.FeatureCollection(m.UID); err != nil {
			t.Fatalf("seed map %d does not export: %v", m.UID, err)
		}
	}
}

// TestMapService_Exports verifies GeoJSON and KML exports of the drawn shapes.
func TestMapService_Exports(t *testing.T) {
	svc, _ := newTestMaps(t)
	m, err := svc.Create(OptionMap{
		Title: "Exports",
		Shapes: []Shape{
			{Kind: ShapeCircle, Name: "Place", Points: [][]float64{{6.63, 46.52}}, Radius: 50},
			{Kind: ShapeLine, Name: "Rue", Points: [][]float64{{6.63, 46.52}, {6.64, 46.53}}},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fc, err := svc.FeatureCollection(m.UID)
	if err != nil {
		t.Fatalf("FeatureCollection: %v", err)
	}
	if len(fc.Features) != 2 || fc.Features[0].Geometry.GeoJSONType() != "Polygon" {
		t.Fatalf("unexpected features %+v", fc.Features)
	}

	out, err := svc.KML(m.UID)
	if err != nil {
		t.Fatalf("KML: %v", err)
	}
	if !strings.Contains(string(out), "<name>Exports</name>") || !strings.Contains(string(out), "<name>Rue</name>") {
		t.Fatalf("unexpected kml:\n%s", out)
	}

	if err := svc.Delete(m.UID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.KML(m.UID); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound for a deleted map, got %v", err)
	}

	if _, err := svc.Create(OptionMap{Title: "bad", Shapes: []Shape{{Kind: ShapeLine, Points: [][]float64{{1, 1}}}}}); !errors.Is(err, ErrInvalidMap) {
		t.Fatalf("expected ErrInvalidMap, got %v", err)
	}
}
