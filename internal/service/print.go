package service

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// PrintShape is a shape laid out in widget pixels.
type PrintShape struct {
	Kind   string
	Name   string
	X, Y   float64 // points only
	Points string  // "x,y x,y ..." for lines and polygons
	Closed bool
}

// PrintPage is the data of the printable map page.
type PrintPage struct {
	Map    OptionMap
	Shapes []PrintShape
	Legend []string
}

// PrintLayout projects the shapes of a map onto its widget size. The saved
// extent frames the page; without one the shapes' own bounds do.
func (s *MapService) PrintLayout(uid int) (PrintPage, error) {
	m, err := s.Get(uid)
	if err != nil {
		return PrintPage{}, err
	}
	if m.Width <= 0 {
		m.Width = 1024
	}
	if m.Height <= 0 {
		m.Height = 768
	}

	geoms := make([]orb.Geometry, 0, len(m.Shapes))
	for _, sh := range m.Shapes {
		g, err := sh.Geometry()
		if err != nil {
			return PrintPage{}, err
		}
		geoms = append(geoms, project.Geometry(orb.Clone(g), project.WGS84.ToMercator))
	}

	var frame orb.Bound
	switch {
	case m.Extent != nil && !m.Extent.Empty():
		frame = m.Extent.Bound()
	case len(geoms) > 0:
		frame = orb.Collection(geoms).Bound()
	default:
		return PrintPage{Map: m}, nil
	}

	w, h := frame.Max.X()-frame.Min.X(), frame.Max.Y()-frame.Min.Y()
	px := func(p orb.Point) (float64, float64) {
		x, y := 0.0, 0.0
		if w > 0 {
			x = (p.X() - frame.Min.X()) / w * float64(m.Width)
		}
		if h > 0 {
			y = (frame.Max.Y() - p.Y()) / h * float64(m.Height)
		}
		return round2(x), round2(y)
	}
	ring := func(pts []orb.Point) string {
		parts := make([]string, len(pts))
		for i, p := range pts {
			x, y := px(p)
			parts[i] = fmt.Sprintf("%g,%g", x, y)
		}
		return strings.Join(parts, " ")
	}

	page := PrintPage{Map: m}
	for i, g := range geoms {
		sh := m.Shapes[i]
		ps := PrintShape{Kind: sh.Kind, Name: sh.Name}
		switch g := g.(type) {
		case orb.Point:
			ps.X, ps.Y = px(g)
		case orb.LineString:
			ps.Points = ring(g)
		case orb.Polygon:
			ps.Points = ring(g[0])
			ps.Closed = true
		}
		page.Shapes = append(page.Shapes, ps)
		if sh.Name != "" {
			page.Legend = append(page.Legend, sh.Name)
		}
	}
	return page, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
