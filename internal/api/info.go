package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir   string
	store     string
	dbOK      bool
	languages []string
}

func NewInfoHandler(dataDir, store string, dbOK bool, languages []string) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, store: store, dbOK: dbOK, languages: languages}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name      string   `json:"name" doc:"Service name"`
	Version   string   `json:"version" doc:"Service version"`
	DataDir   string   `json:"data_dir" doc:"Data directory path"`
	Store     string   `json:"store" enum:"file,duckdb" doc:"Map store backend"`
	DB        bool     `json:"db" doc:"Whether database is available"`
	Languages []string `json:"languages" doc:"Touchpad languages"`
	Features  []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:      "aba-plan",
		Version:   Version,
		DataDir:   h.dataDir,
		Store:     h.store,
		DB:        h.dbOK,
		Languages: h.languages,
		Features:  []string{"maps", "touchpad", "voice", "geocoding", "kml", "geojson", "print"},
	}}, nil
}
