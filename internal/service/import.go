package service

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
)

// importTolerance drops vertices closer than ~10cm to the simplified line.
const importTolerance = 1e-6

// ImportGeoJSON adds the features of a GeoJSON FeatureCollection to a map
// as shapes. Multi geometries become one shape per part, polygon holes are
// dropped. A "kind" property matching a drawing tool overrides the kind
// derived from the geometry. When replace is set the existing shapes are
// discarded first. It returns the updated map.
func (s *MapService) ImportGeoJSON(uid int, data []byte, replace bool) (OptionMap, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return OptionMap{}, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	m, err := s.Get(uid)
	if err != nil {
		return OptionMap{}, err
	}

	var shapes []Shape
	for i, f := range fc.Features {
		parts, err := shapesOf(f)
		if err != nil {
			return OptionMap{}, fmt.Errorf("%w: feature %d: %v", ErrInvalidMap, i, err)
		}
		shapes = append(shapes, parts...)
	}
	if replace {
		m.Shapes = shapes
	} else {
		m.Shapes = append(m.Shapes, shapes...)
	}
	return s.Update(uid, m)
}

func shapesOf(f *geojson.Feature) ([]Shape, error) {
	name := f.Properties.MustString("name", "")
	kind := f.Properties.MustString("kind", "")
	radius := f.Properties.MustFloat64("radius", 0)

	var out []Shape
	add := func(derived string, pts []orb.Point) {
		k := derived
		if compatibleKind(kind, derived) {
			k = kind
		}
		sh := Shape{Kind: k, Name: name, Points: make([][]float64, 0, len(pts))}
		if k == ShapeCircle {
			sh.Radius = radius
		}
		for _, p := range pts {
			sh.Points = append(sh.Points, []float64{p.Lon(), p.Lat()})
		}
		out = append(out, sh)
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		add(ShapePoint, []orb.Point{g})
	case orb.MultiPoint:
		for _, p := range g {
			add(ShapePoint, []orb.Point{p})
		}
	case orb.LineString:
		add(ShapeLine, simplify.DouglasPeucker(importTolerance).LineString(g.Clone()))
	case orb.MultiLineString:
		for _, ls := range g {
			add(ShapeLine, simplify.DouglasPeucker(importTolerance).LineString(ls.Clone()))
		}
	case orb.Polygon:
		if len(g) == 0 {
			return nil, fmt.Errorf("empty polygon")
		}
		add(ShapePolygon, simplifyRing(g[0]))
	case orb.MultiPolygon:
		for _, p := range g {
			if len(p) > 0 {
				add(ShapePolygon, simplifyRing(p[0]))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported geometry %T", f.Geometry)
	}
	return out, nil
}

// simplifyRing keeps r when simplification would collapse it.
func simplifyRing(r orb.Ring) orb.Ring {
	out := simplify.DouglasPeucker(importTolerance).Ring(r.Clone())
	if len(out) < 4 {
		return r
	}
	return out
}

// compatibleKind reports whether a declared kind can stand for a derived one.
func compatibleKind(declared, derived string) bool {
	switch derived {
	case ShapePoint:
		return declared == ShapeCircle
	case ShapeLine:
		return declared == ShapePedestrian
	case ShapePolygon:
		return declared == ShapeWater
	}
	return false
}
