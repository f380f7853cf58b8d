package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/aba-plan/internal/geom"
	"github.com/joeblew999/aba-plan/internal/humastar"
	"github.com/joeblew999/aba-plan/internal/i18n"
	"github.com/joeblew999/aba-plan/internal/kml"
	"github.com/joeblew999/aba-plan/internal/service"
	"github.com/joeblew999/aba-plan/internal/voice"
)

// TouchpadBody is a session status with the links valid in its state.
type TouchpadBody struct {
	service.TouchpadStatus
}

// Links implements humastar.Linker. Taps and speech are always accepted,
// the itinerary only fills once calibrated.
func (b TouchpadBody) Links(string) []string {
	base := "/api/v1/touchpad/" + strconv.Itoa(b.UID)
	links := []string{
		humastar.Action(base+"/taps", "tap", http.MethodPost, "Tap"),
		humastar.Action(base+"/utterances", "speak", http.MethodPost, "Voice command"),
		humastar.Action(base+"/language", "language", http.MethodPut, "Change language"),
		humastar.Action("/ws/touchpad/"+strconv.Itoa(b.UID), "websocket", "", "Kiosk websocket"),
	}
	if b.Calibrated {
		links = append(links, humastar.Action(base+"/itinerary", "itinerary", http.MethodGet, "Itinerary"))
	}
	if b.Points > 0 {
		links = append(links, humastar.Action(base+"/itinerary/kml", "export", http.MethodGet, "Itinerary KML"))
	}
	return links
}

type TouchpadOutput struct {
	Body TouchpadBody
}

type StartTouchpadBody struct {
	Locale string `json:"locale,omitempty" doc:"Kiosk locale, matched against the available languages" example:"fr-CH"`
}

type TapBody struct {
	X      float64      `json:"x" doc:"Device x coordinate" example:"120"`
	Y      float64      `json:"y" doc:"Device y coordinate" example:"40"`
	Extent *geom.Extent `json:"extent,omitempty" doc:"Visible map extent, required on the first calibration tap"`
}

type UtteranceBody struct {
	Text string `json:"text" required:"true" minLength:"1" doc:"Recognised speech" example:"rechercher gare de Lausanne"`
}

type LanguageBody struct {
	Locale string `json:"locale" required:"true" doc:"Locale to switch to" example:"en-US"`
}

type CommandsBody struct {
	Lang     string       `json:"lang" doc:"Active language"`
	Commands []voice.Help `json:"commands" doc:"Registered voice commands"`
}

// RegisterTouchpad registers the touchpad kiosk routes.
func (h *APIHandler) RegisterTouchpad(api huma.API) {
	tags := huma.OperationTags("touchpad")
	huma.Post(api, "/api/v1/touchpad/{id}", h.StartTouchpad, tags)
	huma.Get(api, "/api/v1/touchpad/{id}", h.GetTouchpad, tags)
	huma.Post(api, "/api/v1/touchpad/{id}/taps", h.Tap, tags)
	huma.Post(api, "/api/v1/touchpad/{id}/utterances", h.Hear, tags)
	huma.Put(api, "/api/v1/touchpad/{id}/language", h.SetLanguage, tags)
	huma.Get(api, "/api/v1/touchpad/{id}/commands", h.GetCommands, tags)
	huma.Get(api, "/api/v1/touchpad/{id}/itinerary", h.GetItinerary, tags)
	huma.Get(api, "/api/v1/touchpad/{id}/itinerary/kml", h.GetItineraryKML, tags)
	huma.Delete(api, "/api/v1/touchpad/{id}/itinerary", h.EndItinerary, tags)
}

func (h *APIHandler) StartTouchpad(ctx context.Context, input *struct {
	IDInput
	Body StartTouchpadBody `required:"false"`
}) (*TouchpadOutput, error) {
	locale := input.Body.Locale
	if locale == "" {
		locale = i18n.DefaultLang
	}
	st, err := h.svc.Touchpad.Start(ctx, input.ID, locale)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &TouchpadOutput{Body: TouchpadBody{st}}, nil
}

func (h *APIHandler) GetTouchpad(ctx context.Context, input *IDInput) (*TouchpadOutput, error) {
	st, err := h.svc.Touchpad.Status(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &TouchpadOutput{Body: TouchpadBody{st}}, nil
}

func (h *APIHandler) Tap(ctx context.Context, input *struct {
	IDInput
	Body TapBody
}) (*struct{ Body service.TapResult }, error) {
	res, err := h.svc.Touchpad.Tap(ctx, input.ID, geom.Vector2d{X: input.Body.X, Y: input.Body.Y}, input.Body.Extent)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body service.TapResult }{Body: res}, nil
}

func (h *APIHandler) Hear(ctx context.Context, input *struct {
	IDInput
	Body UtteranceBody
}) (*struct{ Body service.HearResult }, error) {
	res, err := h.svc.Touchpad.Hear(ctx, input.ID, input.Body.Text)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body service.HearResult }{Body: res}, nil
}

func (h *APIHandler) SetLanguage(ctx context.Context, input *struct {
	IDInput
	Body LanguageBody
}) (*TouchpadOutput, error) {
	st, err := h.svc.Touchpad.SetLanguage(input.ID, input.Body.Locale)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &TouchpadOutput{Body: TouchpadBody{st}}, nil
}

func (h *APIHandler) GetCommands(ctx context.Context, input *IDInput) (*struct{ Body CommandsBody }, error) {
	st, err := h.svc.Touchpad.Status(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	cmds, err := h.svc.Touchpad.Commands(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body CommandsBody }{Body: CommandsBody{Lang: st.Lang, Commands: cmds}}, nil
}

func (h *APIHandler) GetItinerary(ctx context.Context, input *IDInput) (*struct{ Body []service.ItineraryPoint }, error) {
	it, err := h.svc.Touchpad.Itinerary(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	return &struct{ Body []service.ItineraryPoint }{Body: it.Points()}, nil
}

func (h *APIHandler) GetItineraryKML(ctx context.Context, input *IDInput) (*FileOutput, error) {
	it, err := h.svc.Touchpad.Itinerary(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	data, err := it.KML()
	if err != nil {
		return nil, h.apiError(err)
	}
	return &FileOutput{
		ContentType:        kml.ContentType,
		ContentDisposition: attachment(fmt.Sprintf("itineraire-%d.kml", input.ID)),
		Body:               data,
	}, nil
}

func (h *APIHandler) EndItinerary(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	it, err := h.svc.Touchpad.Itinerary(input.ID)
	if err != nil {
		return nil, h.apiError(err)
	}
	it.End()
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Itinerary ended"}}, nil
}
