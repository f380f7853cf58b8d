// Package service contains the business logic of the AbaPlan server.
package service

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/joeblew999/aba-plan/internal/geom"
)

// Base layers offered by the map widget.
const (
	LayerOSM    = "osm"
	LayerSquare = "square"
	LayerCity   = "city"
)

// LayerType selects the base layer of a map.
type LayerType struct {
	Kind string `json:"kind" yaml:"kind" enum:"osm,square,city" default:"osm" doc:"Base layer" example:"square"`
}

// OptionMap is a saved map configuration.
// Huma reads the tags for OpenAPI and validation; the seed file uses the yaml tags.
type OptionMap struct {
	UID       int          `json:"uid,omitempty" yaml:"uid" doc:"Unique map identifier" example:"2"`
	Title     string       `json:"title" yaml:"title" required:"true" minLength:"1" maxLength:"200" doc:"Map title" example:"Plan de quartier sous-gare"`
	Width     int          `json:"width" yaml:"width" minimum:"1" maximum:"10000" default:"1024" doc:"Widget width in pixels"`
	Height    int          `json:"height" yaml:"height" minimum:"1" maximum:"10000" default:"768" doc:"Widget height in pixels"`
	LayerType LayerType    `json:"layerType" yaml:"layerType" doc:"Base layer"`
	Extent    *geom.Extent `json:"extent,omitempty" yaml:"extent,omitempty" doc:"Last visible extent, Web Mercator metres"`
	Shapes    []Shape      `json:"shapes,omitempty" yaml:"shapes,omitempty" doc:"Drawn features"`
}

// Drawing tools of the editor toolbar.
const (
	ShapePoint      = "point"
	ShapeCircle     = "circle"
	ShapePolygon    = "polygon"
	ShapeLine       = "line"
	ShapePedestrian = "pedestrian"
	ShapeWater      = "water"
)

// Shape is a drawn feature.
type Shape struct {
	Kind   string      `json:"kind" yaml:"kind" enum:"point,circle,polygon,line,pedestrian,water" doc:"Drawing tool that produced the shape" example:"polygon"`
	Name   string      `json:"name,omitempty" yaml:"name,omitempty" doc:"Label" example:"Parc"`
	Points [][]float64 `json:"points" yaml:"points" minItems:"1" doc:"Vertices as [lng, lat] pairs"`
	Radius float64     `json:"radius,omitempty" yaml:"radius,omitempty" minimum:"0" doc:"Circle radius in metres"`
}

// circleSegments is the number of vertices used to approximate a circle.
const circleSegments = 32

// Geometry converts the shape to an orb geometry. Circles become polygons
// so every export format can carry them.
func (s Shape) Geometry() (orb.Geometry, error) {
	pts := make([]orb.Point, 0, len(s.Points))
	for i, p := range s.Points {
		if len(p) < 2 {
			return nil, fmt.Errorf("shape %q: vertex %d needs lng and lat", s.Name, i)
		}
		pts = append(pts, orb.Point{p[0], p[1]})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("shape %q has no vertices", s.Name)
	}

	switch s.Kind {
	case ShapePoint:
		return pts[0], nil
	case ShapeCircle:
		if s.Radius <= 0 {
			return pts[0], nil
		}
		ring := make(orb.Ring, 0, circleSegments+1)
		for i := 0; i < circleSegments; i++ {
			bearing := float64(i) * 360 / circleSegments
			ring = append(ring, geo.PointAtBearingAndDistance(pts[0], bearing, s.Radius))
		}
		ring = append(ring, ring[0])
		return orb.Polygon{ring}, nil
	case ShapeLine, ShapePedestrian:
		if len(pts) < 2 {
			return nil, fmt.Errorf("shape %q: a %s needs two vertices", s.Name, s.Kind)
		}
		return orb.LineString(pts), nil
	case ShapePolygon, ShapeWater:
		if len(pts) < 3 {
			return nil, fmt.Errorf("shape %q: a %s needs three vertices", s.Name, s.Kind)
		}
		ring := orb.Ring(pts)
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		return orb.Polygon{ring}, nil
	}
	return nil, fmt.Errorf("shape %q: unknown kind %q", s.Name, s.Kind)
}

// ItineraryPoint is a named point recorded from the touchpad.
type ItineraryPoint struct {
	Name string  `json:"name" doc:"Point name" example:"Gare"`
	Lat  float64 `json:"lat" doc:"Latitude" example:"46.5167"`
	Lng  float64 `json:"lng" doc:"Longitude" example:"6.6291"`
}

// round6 keeps coordinates at ~10cm precision for display.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
