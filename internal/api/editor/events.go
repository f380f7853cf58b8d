package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/service"
)

// EventHandler streams map change events to the Datastar UI via SSE.
type EventHandler struct {
	*MapsHandler
	bus *service.EventBus
}

// NewEventHandler creates a new event handler.
func NewEventHandler(maps *MapsHandler, bus *service.EventBus) *EventHandler {
	return &EventHandler{MapsHandler: maps, bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if ev.Resource != service.ResourceMaps {
					continue
				}
				h.patchList(sse, "")
				sse.Event("resource-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
				})
			}
		}
	}), nil
}
