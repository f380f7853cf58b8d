// Package kml renders GeoJSON feature collections as KML 2.2 documents.
package kml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ContentType is the MIME type of KML documents.
const ContentType = "application/vnd.google-earth.kml+xml"

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("kml: no features")

const namespace = "http://www.opengis.net/kml/2.2"

type document struct {
	XMLName xml.Name `xml:"kml"`
	NS      string   `xml:"xmlns,attr"`
	Doc     struct {
		Name       string      `xml:"name"`
		Placemarks []placemark `xml:"Placemark"`
	} `xml:"Document"`
}

type placemark struct {
	Name        string        `xml:"name,omitempty"`
	Description string        `xml:"description,omitempty"`
	Extended    *extendedData `xml:"ExtendedData,omitempty"`
	geometry
}

type geometry struct {
	Point      *coords       `xml:"Point,omitempty"`
	LineString *coords       `xml:"LineString,omitempty"`
	Polygon    *polygon      `xml:"Polygon,omitempty"`
	Multi      *multiGeometry `xml:"MultiGeometry,omitempty"`
}

type multiGeometry struct {
	Points      []coords  `xml:"Point"`
	LineStrings []coords  `xml:"LineString"`
	Polygons    []polygon `xml:"Polygon"`
}

type coords struct {
	Coordinates string `xml:"coordinates"`
}

type polygon struct {
	Outer coordsRing   `xml:"outerBoundaryIs"`
	Inner []coordsRing `xml:"innerBoundaryIs,omitempty"`
}

type coordsRing struct {
	LinearRing coords `xml:"LinearRing"`
}

type extendedData struct {
	Data []data `xml:"Data"`
}

type data struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

// Encode renders fc as KML. Each feature becomes a Placemark named after
// its "name" property; "description" maps to the description and other
// properties go to ExtendedData.
func Encode(fc *geojson.FeatureCollection, documentName string) ([]byte, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, ErrEmpty
	}

	doc := document{NS: namespace}
	doc.Doc.Name = documentName
	for i, f := range fc.Features {
		g, err := encodeGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		pm := placemark{geometry: g}
		pm.Name = f.Properties.MustString("name", "")
		pm.Description = f.Properties.MustString("description", "")
		pm.Extended = extended(f.Properties)
		doc.Doc.Placemarks = append(doc.Doc.Placemarks, pm)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func extended(props geojson.Properties) *extendedData {
	var keys []string
	for k := range props {
		if k != "name" && k != "description" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	ed := &extendedData{}
	for _, k := range keys {
		ed.Data = append(ed.Data, data{Name: k, Value: fmt.Sprint(props[k])})
	}
	return ed
}

func encodeGeometry(g orb.Geometry) (geometry, error) {
	switch g := g.(type) {
	case orb.Point:
		return geometry{Point: &coords{format(g)}}, nil
	case orb.LineString:
		return geometry{LineString: &coords{format(g...)}}, nil
	case orb.Ring:
		return geometry{Polygon: encodePolygon(orb.Polygon{g})}, nil
	case orb.Polygon:
		return geometry{Polygon: encodePolygon(g)}, nil
	case orb.MultiPoint:
		m := &multiGeometry{}
		for _, p := range g {
			m.Points = append(m.Points, coords{format(p)})
		}
		return geometry{Multi: m}, nil
	case orb.MultiLineString:
		m := &multiGeometry{}
		for _, ls := range g {
			m.LineStrings = append(m.LineStrings, coords{format(ls...)})
		}
		return geometry{Multi: m}, nil
	case orb.MultiPolygon:
		m := &multiGeometry{}
		for _, p := range g {
			m.Polygons = append(m.Polygons, *encodePolygon(p))
		}
		return geometry{Multi: m}, nil
	case nil:
		return geometry{}, errors.New("missing geometry")
	}
	return geometry{}, fmt.Errorf("unsupported geometry %s", g.GeoJSONType())
}

func encodePolygon(p orb.Polygon) *polygon {
	out := &polygon{}
	for i, r := range p {
		ring := coordsRing{LinearRing: coords{format(closed(r)...)}}
		if i == 0 {
			out.Outer = ring
		} else {
			out.Inner = append(out.Inner, ring)
		}
	}
	return out
}

// closed returns r with its first point repeated at the end, as KML requires.
func closed(r orb.Ring) orb.Ring {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(append(orb.Ring(nil), r...), r[0])
	}
	return r
}

func format(points ...orb.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}
