// Package humastar serves Datastar streams from Huma operations.
//
// Editor and kiosk handlers embed [Handler], return [Handler.Stream] from
// their operations and talk to the page through [SSE]. Request signals
// arrive as a [SignalsInput]. REST responses get RFC 8288 Link headers from
// [LinkTransformer], fed by [AutoLinks] and by bodies implementing [Linker].
package humastar

import (
	"bytes"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/aba-plan/internal/templates"
)

// Renderer renders the named HTML fragments.
type Renderer = templates.Renderer

// EmptyInput is the input of operations without parameters.
type EmptyInput struct{}

// Handler is embedded by Datastar handlers.
type Handler struct {
	Renderer *Renderer
}

// Stream runs fn against the response once Huma hands over the writer.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			r, w := humago.Unwrap(ctx)
			fn(SSE{datastar.NewSSE(w, r), h.Renderer})
		},
	}
}

// EmptyState is shown in place of a list without items.
type EmptyState struct {
	Title   string
	Message string
}

// Option is one entry of a <select>.
type Option struct {
	Value string
	Label string
}

// Cards renders each item with tmpl, or the empty state when there are none.
func Cards[T any](r *Renderer, tmpl string, items []T, empty EmptyState) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		r.RenderToBuffer(&buf, "empty-state", empty)
		return buf.String()
	}
	for _, item := range items {
		r.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}

// Options renders a disabled placeholder followed by the options.
func Options(r *Renderer, placeholder string, options []Option) string {
	var buf bytes.Buffer
	r.RenderToBuffer(&buf, "select-option", Option{Label: placeholder})
	for _, o := range options {
		r.RenderToBuffer(&buf, "select-option", o)
	}
	return buf.String()
}

// SSE writes Datastar events to one client.
type SSE struct {
	*datastar.ServerSentEventGenerator
	renderer *Renderer
}

// Patch replaces the content of the element matching selector.
func (s SSE) Patch(selector, html string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Append renders the fragment tmpl and adds it at the end of selector.
// Used for logs that grow, such as the spoken sentences of a session.
func (s SSE) Append(selector, tmpl string, data any) error {
	html, err := s.renderer.Render(tmpl, data)
	if err != nil {
		return err
	}
	return s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeAppend(),
	)
}

// Remove deletes the element with the given id.
func (s SSE) Remove(id string) {
	s.RemoveElementByID(id)
}

// Event dispatches a DOM custom event carrying detail.
func (s SSE) Event(name string, detail any) {
	s.DispatchCustomEvent(name, detail)
}

// Signals patches the page signals.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Error sets the "error" signal shown by the page's alert.
func (s SSE) Error(msg string) {
	s.Signals(map[string]any{"error": msg, "success": ""})
}

// Success sets the "success" signal and clears any error.
func (s SSE) Success(msg string) {
	s.Signals(map[string]any{"error": "", "success": msg})
}
