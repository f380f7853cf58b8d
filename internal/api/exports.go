package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/aba-plan/internal/kml"
)

// FileOutput is a raw document download.
type FileOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// RegisterExports registers the map export routes.
func (h *APIHandler) RegisterExports(api huma.API) {
	huma.Get(api, "/api/v1/maps/{id}/geojson", h.GetGeoJSON, huma.OperationTags("maps", "exports"))
	huma.Get(api, "/api/v1/maps/{id}/kml", h.GetKML, huma.OperationTags("maps", "exports"))
	huma.Get(api, "/api/v1/maps/{id}/print", h.GetPrint, huma.OperationTags("maps", "exports"))
	huma.Post(api, "/api/v1/maps/{id}/geojson", h.ImportGeoJSON, huma.OperationTags("maps"))
}

// ImportInput carries a raw GeoJSON FeatureCollection.
type ImportInput struct {
	IDInput
	Replace bool   `query:"replace" doc:"Discard existing shapes first"`
	RawBody []byte `contentType:"application/geo+json"`
}

func (h *APIHandler) ImportGeoJSON(ctx context.Context, input *ImportInput) (*MapOutput, error) {
	m, err := h.svc.Maps.ImportGeoJSON(input.ID, input.RawBody, input.Replace)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &MapOutput{Body: MapBody{m}}, nil
}

func (h *APIHandler) GetGeoJSON(ctx context.Context, input *IDInput) (*FileOutput, error) {
	fc, err := h.svc.Maps.FeatureCollection(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, h.apiError(err)
	}
	return &FileOutput{
		ContentType:        "application/geo+json",
		ContentDisposition: attachment(fmt.Sprintf("map-%d.geojson", input.ID)),
		Body:               data,
	}, nil
}

func (h *APIHandler) GetKML(ctx context.Context, input *IDInput) (*FileOutput, error) {
	data, err := h.svc.Maps.KML(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &FileOutput{
		ContentType:        kml.ContentType,
		ContentDisposition: attachment(fmt.Sprintf("map-%d.kml", input.ID)),
		Body:               data,
	}, nil
}

func (h *APIHandler) GetPrint(ctx context.Context, input *IDInput) (*FileOutput, error) {
	page, err := h.svc.Maps.PrintLayout(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	html, err := h.svc.Renderer.Render("print", page)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &FileOutput{ContentType: "text/html; charset=utf-8", Body: []byte(html)}, nil
}

func attachment(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, name, url.PathEscape(name))
}
