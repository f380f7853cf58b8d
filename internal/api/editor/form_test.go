package editor

import (
	"testing"

	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/service"
)

// TestParseMapSignals verifies defaults and the bounds shared with the
// REST schema.
func TestParseMapSignals(t *testing.T) {
	tests := []struct {
		name    string
		signals humastar.Signals
		want    service.OptionMap
		wantErr bool
	}{
		{
			name:    "defaults",
			signals: humastar.Signals{"newmaptitle": "Gare"},
			want:    service.OptionMap{Title: "Gare", Width: 1024, Height: 768, LayerType: service.LayerType{Kind: service.LayerOSM}},
		},
		{
			name:    "explicit",
			signals: humastar.Signals{"newmaptitle": "Ville", "newmapwidth": 800.0, "newmapheight": "600", "newmaplayer": "city"},
			want:    service.OptionMap{Title: "Ville", Width: 800, Height: 600, LayerType: service.LayerType{Kind: service.LayerCity}},
		},
		{name: "no title", signals: humastar.Signals{"newmapwidth": 800.0}, wantErr: true},
		{name: "zero width", signals: humastar.Signals{"newmaptitle": "A", "newmapwidth": 0.0}, wantErr: true},
		{name: "negative height", signals: humastar.Signals{"newmaptitle": "A", "newmapheight": -5.0}, wantErr: true},
		{name: "huge width", signals: humastar.Signals{"newmaptitle": "A", "newmapwidth": 20000.0}, wantErr: true},
		{name: "text width", signals: humastar.Signals{"newmaptitle": "A", "newmapwidth": "large"}, wantErr: true},
		{name: "unknown layer", signals: humastar.Signals{"newmaptitle": "A", "newmaplayer": "satellite"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMapSignals(tt.signals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMapSignals: %v", err)
			}
			if got.Title != tt.want.Title || got.Width != tt.want.Width || got.Height != tt.want.Height || got.LayerType != tt.want.LayerType {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
