package service

import (
	"errors"
	"testing"
)

const importDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Gare"},
     "geometry": {"type": "Point", "coordinates": [6.6291, 46.5167]}},
    {"type": "Feature", "properties": {"name": "Palud", "kind": "circle", "radius": 80},
     "geometry": {"type": "Point", "coordinates": [6.6327, 46.5210]}},
    {"type": "Feature", "properties": {"kind": "pedestrian"},
     "geometry": {"type": "LineString", "coordinates": [[6.62, 46.51], [6.625, 46.515], [6.63, 46.52]]}},
    {"type": "Feature", "properties": {"kind": "water", "name": "Lac"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[6.60, 46.50], [6.65, 46.50], [6.65, 46.49], [6.60, 46.49], [6.60, 46.50]]],
       [[[6.70, 46.50], [6.75, 46.50], [6.75, 46.49], [6.70, 46.50]]]
     ]}}
  ]
}`

// TestMapService_ImportGeoJSON verifies geometries become shapes, declared
// kinds are kept when compatible and collinear vertices are simplified away.
func TestMapService_ImportGeoJSON(t *testing.T) {
	svc, _ := newTestMaps(t)
	if _, err := svc.Create(OptionMap{Title: "Import"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	m, err := svc.ImportGeoJSON(1, []byte(importDoc), false)
	if err != nil {
		t.Fatalf("ImportGeoJSON: %v", err)
	}
	want := []string{ShapePoint, ShapeCircle, ShapePedestrian, ShapeWater, ShapeWater}
	if len(m.Shapes) != len(want) {
		t.Fatalf("expected %d shapes, got %+v", len(want), m.Shapes)
	}
	for i, k := range want {
		if m.Shapes[i].Kind != k {
			t.Fatalf("shape %d: kind %q, want %q", i, m.Shapes[i].Kind, k)
		}
	}
	if m.Shapes[1].Radius != 80 || m.Shapes[0].Name != "Gare" {
		t.Fatalf("properties not carried: %+v %+v", m.Shapes[0], m.Shapes[1])
	}
	if n := len(m.Shapes[2].Points); n != 2 {
		t.Fatalf("straight line should keep its two ends, got %d vertices", n)
	}

	m, err = svc.ImportGeoJSON(1, []byte(importDoc), true)
	if err != nil || len(m.Shapes) != len(want) {
		t.Fatalf("replace import: %d shapes, err %v", len(m.Shapes), err)
	}
}

// TestMapService_ImportGeoJSONErrors verifies bad documents are rejected.
func TestMapService_ImportGeoJSONErrors(t *testing.T) {
	svc, _ := newTestMaps(t)
	svc.Create(OptionMap{Title: "Import"})

	if _, err := svc.ImportGeoJSON(1, []byte("not json"), false); !errors.Is(err, ErrInvalidMap) {
		t.Fatalf("expected ErrInvalidMap, got %v", err)
	}
	if _, err := svc.ImportGeoJSON(9, []byte(`{"type":"FeatureCollection","features":[]}`), false); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound, got %v", err)
	}
}
