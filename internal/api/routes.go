// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/aba-plan/internal/calibration"
	"github.com/joeblew999/aba-plan/internal/geocode"
	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/kml"
	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/service"
	"github.com/joeblew999/aba-plan/internal/templates"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Maps     *service.MapService
	Touchpad *service.TouchpadService
	Renderer *templates.Renderer
	Logger   *log.Logger
}

// Types

type IDInput struct {
	ID int `path:"id" minimum:"1" doc:"Map identifier" example:"2"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// MapBody is a saved map. Its links point at its exports and at the
// touchpad session.
type MapBody struct {
	service.OptionMap
}

// Links implements humastar.Linker.
func (b MapBody) Links(string) []string {
	base := "/api/v1/maps/" + strconv.Itoa(b.UID)
	return []string{
		humastar.Action(base+"/geojson", "export", http.MethodGet, "GeoJSON export"),
		humastar.Action(base+"/kml", "export", http.MethodGet, "KML export"),
		humastar.Action(base+"/print", "print", http.MethodGet, "Printable page"),
		humastar.Action(base+"/geojson", "import", http.MethodPost, "GeoJSON import"),
		humastar.Action("/api/v1/touchpad/"+strconv.Itoa(b.UID), "touchpad", http.MethodPost, "Start touchpad"),
		humastar.Action(base, "delete", http.MethodDelete, "Delete map"),
	}
}

type MapOutput struct {
	Body MapBody
}

type CreatedMapOutput struct {
	Location string `header:"Location" doc:"URL of the created map"`
	Body     MapBody
}

type MapsInput struct {
	Q      string `query:"q" doc:"Filter on title, ignoring case, or on uid" example:"gare"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
}

type MapsOutput struct {
	Body humastar.PageBody[service.OptionMap]
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMaps registers saved map CRUD routes.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Get(api, "/api/v1/maps", h.GetMaps, huma.OperationTags("maps"))
	huma.Register(api, huma.Operation{
		OperationID:   "create-map",
		Method:        http.MethodPost,
		Path:          "/api/v1/maps",
		Summary:       "Save a new map",
		Tags:          []string{"maps"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateMap)
	huma.Get(api, "/api/v1/maps/{id}", h.GetMap, huma.OperationTags("maps"))
	huma.Put(api, "/api/v1/maps/{id}", h.PutMap, huma.OperationTags("maps"))
	huma.Delete(api, "/api/v1/maps/{id}", h.DeleteMap, huma.OperationTags("maps"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetMaps(ctx context.Context, input *MapsInput) (*MapsOutput, error) {
	page, total := h.svc.Maps.Search(input.Q, input.Offset, input.Limit)
	body := humastar.PageBody[service.OptionMap]{
		Total:  total,
		Offset: input.Offset,
		Limit:  input.Limit,
		Data:   page,
	}
	if input.Q != "" {
		body.Query = url.Values{"q": {input.Q}}
	}
	return &MapsOutput{Body: body}, nil
}

func (h *APIHandler) CreateMap(ctx context.Context, input *struct{ Body service.OptionMap }) (*CreatedMapOutput, error) {
	created, err := h.svc.Maps.Create(input.Body)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &CreatedMapOutput{
		Location: fmt.Sprintf("/api/v1/maps/%d", created.UID),
		Body:     MapBody{created},
	}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *IDInput) (*MapOutput, error) {
	m, err := h.svc.Maps.Get(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &MapOutput{Body: MapBody{m}}, nil
}

func (h *APIHandler) PutMap(ctx context.Context, input *struct {
	IDInput
	Body service.OptionMap
}) (*MapOutput, error) {
	updated, err := h.svc.Maps.Update(input.ID, input.Body)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &MapOutput{Body: MapBody{updated}}, nil
}

func (h *APIHandler) DeleteMap(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Maps.Delete(input.ID); err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Map deleted"}}, nil
}

// apiError maps service errors to HTTP errors. Unknown errors are logged
// and reported as 500.
func (h *APIHandler) apiError(err error) error {
	switch {
	case errors.Is(err, service.ErrMapNotFound),
		errors.Is(err, service.ErrNoSession),
		errors.Is(err, service.ErrNoPoints),
		errors.Is(err, kml.ErrEmpty):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrMapExists):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidMap),
		errors.Is(err, calibration.ErrNoExtent):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, geocode.ErrUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	}
	h.svc.Logger.Error("request failed", "error", err)
	return huma.Error500InternalServerError("internal error", err)
}

// RegisterRoutes registers every Register* method of the REST handler.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}
