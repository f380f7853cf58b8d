// Package geocode resolves addresses and places through a
// Nominatim-compatible HTTP service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ErrUnavailable is returned when the upstream service fails.
var ErrUnavailable = errors.New("geocode: service unavailable")

// Geocoder converts between coordinates and text. Points are lng/lat.
type Geocoder interface {
	// Address returns a human readable address near p, "" when none.
	Address(ctx context.Context, p orb.Point) (string, error)
	// Point returns the location of a place query; ok is false when the
	// place is unknown.
	Point(ctx context.Context, query string) (p orb.Point, ok bool, err error)
}

// Config configures a Nominatim client.
type Config struct {
	BaseURL   string
	UserAgent string
	Language  string // Accept-Language sent upstream
	CacheSize int
	CacheTTL  time.Duration
	Timeout   time.Duration
}

type place struct {
	point orb.Point
	ok    bool
}

// Nominatim is a caching Geocoder backed by a Nominatim HTTP API.
type Nominatim struct {
	cfg       Config
	client    *http.Client
	addresses *expirable.LRU[string, string]
	places    *expirable.LRU[string, place]
}

// NewNominatim creates a client. Zero config fields get defaults.
func NewNominatim(cfg Config) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "abaplan/0.1"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Nominatim{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		addresses: expirable.NewLRU[string, string](cfg.CacheSize, nil, cfg.CacheTTL),
		places:    expirable.NewLRU[string, place](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// Address reverse geocodes p.
func (n *Nominatim) Address(ctx context.Context, p orb.Point) (string, error) {
	// ~1m precision is plenty for a spoken address
	key := fmt.Sprintf("%.5f,%.5f", p.Lon(), p.Lat())
	if a, ok := n.addresses.Get(key); ok {
		return a, nil
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(p.Lat(), 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon(), 'f', -1, 64))

	var body struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := n.get(ctx, "/reverse", q, &body); err != nil {
		return "", err
	}
	// "Unable to geocode" is a miss, not a failure
	n.addresses.Add(key, body.DisplayName)
	return body.DisplayName, nil
}

// Point geocodes a free-text query.
func (n *Nominatim) Point(ctx context.Context, query string) (orb.Point, bool, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return orb.Point{}, false, nil
	}
	if pl, ok := n.places.Get(key); ok {
		return pl.point, pl.ok, nil
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("q", query)

	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := n.get(ctx, "/search", q, &hits); err != nil {
		return orb.Point{}, false, err
	}

	var pl place
	if len(hits) > 0 {
		lat, err1 := strconv.ParseFloat(hits[0].Lat, 64)
		lon, err2 := strconv.ParseFloat(hits[0].Lon, 64)
		if err1 != nil || err2 != nil {
			return orb.Point{}, false, fmt.Errorf("%w: bad coordinates %q,%q", ErrUnavailable, hits[0].Lat, hits[0].Lon)
		}
		pl = place{point: orb.Point{lon, lat}, ok: true}
	}
	n.places.Add(key, pl)
	return pl.point, pl.ok, nil
}

func (n *Nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if n.cfg.Language != "" {
		req.Header.Set("Accept-Language", n.cfg.Language)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s", ErrUnavailable, path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

// Heading describes where one point lies from another.
type Heading struct {
	Meters float64
	// Sector is the 8-point compass sector: 0 north, 1 north-east, ... 7 north-west.
	Sector int
}

// Direction returns the distance and compass sector from one lng/lat point
// to another.
func Direction(from, to orb.Point) Heading {
	bearing := geo.Bearing(from, to)
	if bearing < 0 {
		bearing += 360
	}
	sector := int(math.Floor((bearing+22.5)/45)) % 8
	return Heading{Meters: geo.Distance(from, to), Sector: sector}
}
