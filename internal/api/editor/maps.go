// Package editor contains Datastar SSE handlers for the map editor and the
// touchpad kiosk.
package editor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/i18n"
	"github.com/joeblew999/aba-plan/internal/service"
)

// MapsHandler drives the saved-maps modal: list, filter, create, delete.
type MapsHandler struct {
	humastar.Handler
	maps    *service.MapService
	catalog *i18n.Catalog
}

// NewMapsHandler creates a maps editor handler.
func NewMapsHandler(maps *service.MapService, catalog *i18n.Catalog, renderer *humastar.Renderer) *MapsHandler {
	return &MapsHandler{
		Handler: humastar.Handler{Renderer: renderer},
		maps:    maps,
		catalog: catalog,
	}
}

func (h *MapsHandler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("editor")
	huma.Get(api, "/api/v1/editor/maps", h.ListMaps, tags)
	huma.Post(api, "/api/v1/editor/maps/search", h.SearchMaps, tags)
	huma.Post(api, "/api/v1/editor/maps", h.CreateMap, tags)
	huma.Delete(api, "/api/v1/editor/maps/{id}", h.DeleteMap, tags)
	huma.Get(api, "/api/v1/editor/languages", h.ListLanguages, tags)
}

func (h *MapsHandler) ListMaps(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.patchList(sse, "")
	}), nil
}

// SearchMaps filters the list with the "q" signal as the user types.
func (h *MapsHandler) SearchMaps(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Decode()
	if err != nil {
		return nil, err
	}
	q := signals.String("q")
	return h.Stream(func(sse humastar.SSE) {
		h.patchList(sse, q)
	}), nil
}

// CreateMap saves a map from the "newmap" form signals.
func (h *MapsHandler) CreateMap(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Decode()
	if err != nil {
		return nil, err
	}
	m, err := ParseMapSignals(signals)

	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		created, err := h.maps.Create(m)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		reset := ResetMapSignals()
		reset["success"] = fmt.Sprintf("Carte '%s' enregistrée", created.Title)
		sse.Signals(reset)
		h.patchList(sse, "")
		sse.Event("map-changed", map[string]any{"action": service.ActionCreated, "id": created.UID})
	}), nil
}

type DeleteMapInput struct {
	ID int `path:"id" doc:"Map identifier to delete"`
}

func (h *MapsHandler) DeleteMap(ctx context.Context, input *DeleteMapInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.maps.Delete(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Remove("map-" + strconv.Itoa(input.ID))
		sse.Success("Carte supprimée")
		sse.Event("map-changed", map[string]any{"action": service.ActionDeleted, "id": input.ID})
	}), nil
}

// ListLanguages fills the kiosk language picker.
func (h *MapsHandler) ListLanguages(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	var options []humastar.Option
	for _, lang := range h.catalog.Languages() {
		options = append(options, humastar.Option{Value: lang, Label: h.catalog.Name(lang)})
	}
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch("#touchpad-lang", humastar.Options(h.Renderer, "Langue", options))
	}), nil
}

func (h *MapsHandler) patchList(sse humastar.SSE, q string) {
	sse.Patch("#map-list", h.renderMapList(q))
}

func (h *MapsHandler) renderMapList(q string) string {
	empty := humastar.EmptyState{Title: "Aucune carte", Message: "Enregistrez une carte pour commencer"}
	if q != "" {
		empty.Message = fmt.Sprintf("Aucune carte ne correspond à « %s »", q)
	}
	return humastar.Cards(h.Renderer, "map-card", h.maps.Filter(q), empty)
}
