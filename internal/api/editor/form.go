package editor

import (
	"fmt"
	"unicode/utf8"

	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/service"
)

// Signal names of the new-map form. data-bind lowercases them.
const (
	sigTitle  = "newmaptitle"
	sigWidth  = "newmapwidth"
	sigHeight = "newmapheight"
	sigLayer  = "newmaplayer"
)

// Bounds and defaults shared with the OptionMap schema.
const (
	defaultWidth  = 1024
	defaultHeight = 768
	maxSize       = 10000
	maxTitle      = 200
)

// ParseMapSignals builds a map from the new-map form signals. Missing
// signals take the REST defaults; present ones are checked against the
// same bounds the REST API enforces.
func ParseMapSignals(s humastar.Signals) (service.OptionMap, error) {
	m := service.OptionMap{
		Title:     s.String(sigTitle),
		Width:     defaultWidth,
		Height:    defaultHeight,
		LayerType: service.LayerType{Kind: service.LayerOSM},
	}
	if n := utf8.RuneCountInString(m.Title); n == 0 || n > maxTitle {
		return m, fmt.Errorf("le titre doit compter de 1 à %d caractères", maxTitle)
	}

	for _, dim := range []struct {
		key string
		dst *int
	}{{sigWidth, &m.Width}, {sigHeight, &m.Height}} {
		if !s.Has(dim.key) {
			continue
		}
		n, ok := s.Int(dim.key)
		if !ok || n < 1 || n > maxSize {
			return m, fmt.Errorf("les dimensions vont de 1 à %d pixels", maxSize)
		}
		*dim.dst = n
	}

	if s.Has(sigLayer) {
		switch kind := s.String(sigLayer); kind {
		case service.LayerOSM, service.LayerSquare, service.LayerCity:
			m.LayerType.Kind = kind
		default:
			return m, fmt.Errorf("fond de carte inconnu %q", kind)
		}
	}
	return m, nil
}

// ResetMapSignals clears the new-map form.
func ResetMapSignals() map[string]any {
	return map[string]any{
		sigTitle:  "",
		sigWidth:  defaultWidth,
		sigHeight: defaultHeight,
		sigLayer:  service.LayerOSM,
	}
}
