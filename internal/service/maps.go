package service

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/aba-plan/internal/kml"
)

var (
	// ErrMapNotFound is returned for unknown map uids.
	ErrMapNotFound = errors.New("map not found")
	// ErrMapExists is returned when creating a map with a uid already in use.
	ErrMapExists = errors.New("map already exists")
	// ErrInvalidMap wraps shape validation failures.
	ErrInvalidMap = errors.New("invalid map")
)

//go:embed seed/maps.yaml
var seedMaps []byte

// MapService manages saved maps.
type MapService struct {
	store MapStore
	bus   *EventBus
	mu    sync.RWMutex
	maps  map[int]OptionMap
}

// NewMapService loads all maps from store. bus may be nil.
func NewMapService(store MapStore, bus *EventBus) (*MapService, error) {
	maps, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading maps: %w", err)
	}
	return &MapService{store: store, bus: bus, maps: maps}, nil
}

// Seed fills an empty store with the sample maps. It returns how many were added.
func (s *MapService) Seed() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.maps) > 0 {
		return 0, nil
	}
	var samples []OptionMap
	if err := yaml.Unmarshal(seedMaps, &samples); err != nil {
		return 0, fmt.Errorf("parsing seed maps: %w", err)
	}
	for _, m := range samples {
		if err := s.store.Put(m); err != nil {
			return 0, err
		}
		s.maps[m.UID] = m
	}
	return len(samples), nil
}

// List returns all maps sorted by uid.
func (s *MapService) List() []OptionMap {
	return s.Filter("")
}

// Filter returns the maps whose title contains query, ignoring case, or
// whose uid contains it as a decimal string. An empty query matches all.
func (s *MapService) Filter(query string) []OptionMap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	q := fold.String(query)
	var result []OptionMap
	for uid, m := range s.maps {
		if q == "" || strings.Contains(fold.String(m.Title), q) || strings.Contains(strconv.Itoa(uid), query) {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UID < result[j].UID })
	return result
}

// Search filters and pages the maps. It returns the page and the number of
// matches before paging.
func (s *MapService) Search(query string, offset, limit int) ([]OptionMap, int) {
	all := s.Filter(query)
	total := len(all)
	if offset >= total {
		return []OptionMap{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total
}

// Get returns a map by uid.
func (s *MapService) Get(uid int) (OptionMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[uid]
	if !ok {
		return OptionMap{}, fmt.Errorf("%w: %d", ErrMapNotFound, uid)
	}
	return m, nil
}

// Create saves a new map. A zero uid is replaced with the next free one.
func (s *MapService) Create(m OptionMap) (OptionMap, error) {
	if err := validateShapes(m); err != nil {
		return OptionMap{}, err
	}

	s.mu.Lock()
	if m.UID == 0 {
		m.UID = s.nextUID()
	} else if _, exists := s.maps[m.UID]; exists {
		s.mu.Unlock()
		return OptionMap{}, fmt.Errorf("%w: %d", ErrMapExists, m.UID)
	}
	if err := s.store.Put(m); err != nil {
		s.mu.Unlock()
		return OptionMap{}, err
	}
	s.maps[m.UID] = m
	s.mu.Unlock()

	s.publish(ActionCreated, m.UID)
	return m, nil
}

// Update replaces an existing map.
func (s *MapService) Update(uid int, m OptionMap) (OptionMap, error) {
	if err := validateShapes(m); err != nil {
		return OptionMap{}, err
	}

	s.mu.Lock()
	if _, ok := s.maps[uid]; !ok {
		s.mu.Unlock()
		return OptionMap{}, fmt.Errorf("%w: %d", ErrMapNotFound, uid)
	}
	m.UID = uid
	if err := s.store.Put(m); err != nil {
		s.mu.Unlock()
		return OptionMap{}, err
	}
	s.maps[uid] = m
	s.mu.Unlock()

	s.publish(ActionUpdated, uid)
	return m, nil
}

// Delete removes a map.
func (s *MapService) Delete(uid int) error {
	s.mu.Lock()
	if _, ok := s.maps[uid]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrMapNotFound, uid)
	}
	if err := s.store.Remove(uid); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.maps, uid)
	s.mu.Unlock()

	s.publish(ActionDeleted, uid)
	return nil
}

// FeatureCollection exports the shapes of a map.
func (s *MapService) FeatureCollection(uid int) (*geojson.FeatureCollection, error) {
	m, err := s.Get(uid)
	if err != nil {
		return nil, err
	}
	return featureCollection(m)
}

// KML exports the shapes of a map as a KML document named after the map.
func (s *MapService) KML(uid int) ([]byte, error) {
	m, err := s.Get(uid)
	if err != nil {
		return nil, err
	}
	fc, err := featureCollection(m)
	if err != nil {
		return nil, err
	}
	return kml.Encode(fc, m.Title)
}

func featureCollection(m OptionMap) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, sh := range m.Shapes {
		g, err := sh.Geometry()
		if err != nil {
			return nil, err
		}
		f := geojson.NewFeature(g)
		f.Properties["kind"] = sh.Kind
		if sh.Name != "" {
			f.Properties["name"] = sh.Name
		}
		if sh.Radius > 0 {
			f.Properties["radius"] = sh.Radius
		}
		fc.Append(f)
	}
	return fc, nil
}

// nextUID must be called with mu held.
func (s *MapService) nextUID() int {
	last := 0
	for uid := range s.maps {
		if uid > last {
			last = uid
		}
	}
	return last + 1
}

func (s *MapService) publish(action string, uid int) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{Resource: ResourceMaps, Action: action, ID: strconv.Itoa(uid)})
}

func validateShapes(m OptionMap) error {
	for i, sh := range m.Shapes {
		if _, err := sh.Geometry(); err != nil {
			return fmt.Errorf("%w: shape %d: %v", ErrInvalidMap, i, err)
		}
	}
	return nil
}
