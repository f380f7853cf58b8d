package service

import (
	"errors"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/aba-plan/internal/kml"
)

// ItineraryDocument is the KML document name of exported itineraries.
const ItineraryDocument = "Itinéraire"

// ErrNoPoints is returned when exporting an empty itinerary.
var ErrNoPoints = errors.New("itinerary has no points")

// Itinerary collects named points touched on the kiosk.
type Itinerary struct {
	mu      sync.Mutex
	points  *geojson.FeatureCollection
	current *orb.Point
	canUndo bool
}

// NewItinerary creates an empty itinerary.
func NewItinerary() *Itinerary {
	return &Itinerary{points: geojson.NewFeatureCollection()}
}

// SetCurrent remembers the last touched location.
func (it *Itinerary) SetCurrent(lng, lat float64) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.current = &orb.Point{lng, lat}
}

// AddCurrent appends the current location under name. It returns false when
// nothing was touched since the last addition.
func (it *Itinerary) AddCurrent(name string) bool {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.current == nil {
		return false
	}
	f := geojson.NewFeature(*it.current)
	f.Properties["name"] = name
	it.points.Append(f)
	it.current = nil
	it.canUndo = true
	return true
}

// DeleteLast removes the point added last. Only one undo is allowed per
// addition.
func (it *Itinerary) DeleteLast() bool {
	it.mu.Lock()
	defer it.mu.Unlock()

	if !it.canUndo || len(it.points.Features) == 0 {
		return false
	}
	it.points.Features = it.points.Features[:len(it.points.Features)-1]
	it.canUndo = false
	return true
}

// Points lists the recorded points.
func (it *Itinerary) Points() []ItineraryPoint {
	it.mu.Lock()
	defer it.mu.Unlock()

	out := make([]ItineraryPoint, 0, len(it.points.Features))
	for _, f := range it.points.Features {
		p := f.Point()
		out = append(out, ItineraryPoint{
			Name: f.Properties.MustString("name", ""),
			Lat:  round6(p.Lat()),
			Lng:  round6(p.Lon()),
		})
	}
	return out
}

// KML renders the itinerary.
func (it *Itinerary) KML() ([]byte, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if len(it.points.Features) == 0 {
		return nil, ErrNoPoints
	}
	return kml.Encode(it.points, ItineraryDocument)
}

// End discards the itinerary.
func (it *Itinerary) End() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.points = geojson.NewFeatureCollection()
	it.current = nil
	it.canUndo = false
}
