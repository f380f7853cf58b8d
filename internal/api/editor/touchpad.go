package editor

import (
	"context"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/service"
)

// TouchpadHandler streams a kiosk session's speech and markers.
type TouchpadHandler struct {
	humastar.Handler
	bus *service.EventBus
}

// NewTouchpadHandler creates a touchpad stream handler.
func NewTouchpadHandler(bus *service.EventBus, renderer *humastar.Renderer) *TouchpadHandler {
	return &TouchpadHandler{Handler: humastar.Handler{Renderer: renderer}, bus: bus}
}

func (h *TouchpadHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/touchpad/{id}/events", h.Events,
		huma.OperationTags("touchpad", "stream"),
	)
}

type TouchpadEventsInput struct {
	ID int `path:"id" doc:"Map identifier"`
}

// Events sends a "say" signal and a speech log line for every sentence, and
// a "marker" signal for every calibrated tap.
func (h *TouchpadHandler) Events(ctx context.Context, input *TouchpadEventsInput) (*huma.StreamResponse, error) {
	id := strconv.Itoa(input.ID)
	return h.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if ev.Resource != service.ResourceTouchpad || ev.ID != id {
					continue
				}
				switch data := ev.Data.(type) {
				case service.Speech:
					sse.Append("#speech-log", "speech", data)
					sse.Signals(map[string]any{"say": data})
				case service.Marker:
					sse.Signals(map[string]any{"marker": data})
					sse.Event("touchpad-marker", data)
				}
			}
		}
	}), nil
}
