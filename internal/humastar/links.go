package humastar

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EntryPoint is the path every top-level collection links back to.
const EntryPoint = "/health"

// Linker is implemented by response bodies whose links depend on their
// state: a page knows its neighbours, a map its exports, a touchpad
// session what it accepts next. path is the resolved request path.
type Linker interface {
	Links(path string) []string
}

// routeLinks holds the Link headers derived from the route table, keyed by
// operation path. Written once by AutoLinks before serving.
var routeLinks map[string][]string

// AutoLinks derives links from the registered routes and records them in
// the OpenAPI document. Call it after every route is registered.
//
//	/api/v1/maps            item → /api/v1/maps/{id}, up → /health
//	/api/v1/maps/{id}       collection, up → /api/v1/maps; kml, print, ... → sub-resources
//	/api/v1/maps/{id}/kml   up → /api/v1/maps/{id}
//
// Datastar routes (tagged "editor" or "stream") are left out.
func AutoLinks(api huma.API) {
	oapi := api.OpenAPI()
	g := linkGraph{}

	for p, pi := range oapi.Paths {
		if !linkable(pi) {
			continue
		}
		if parent := path.Dir(p); parent != p && linkable(oapi.Paths[parent]) {
			switch {
			case templated(parent):
				g.add(p, parent, "up")
				g.add(parent, p, path.Base(p))
			case templated(path.Base(p)):
				g.add(p, parent, "collection")
				g.add(p, parent, "up")
				g.add(parent, p, "item")
			}
		}
		if !templated(p) && p != EntryPoint {
			g.add(EntryPoint, p, path.Base(p))
			g.add(p, EntryPoint, "up")
		}
		if pi.Post != nil && !templated(p) {
			g.add(p, p, "create-form")
		}
		if pi.Put != nil {
			g.add(p, p, "edit")
		}
	}
	g.add(EntryPoint, "/openapi.json", "service-desc")
	g.add(EntryPoint, "/docs", "service-doc")

	for p, links := range g {
		sort.Strings(links)
		if pi := oapi.Paths[p]; pi != nil {
			document(pi, links)
		}
	}
	routeLinks = g
}

// LinkTransformer emits the route links, a self link on templated paths and
// whatever a Linker body adds.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, l := range routeLinks[op.Path] {
			ctx.AppendHeader("Link", l)
		}
		resolved := ctx.URL().Path
		if templated(op.Path) {
			ctx.AppendHeader("Link", rel(resolved, "self"))
		}
		if l, ok := v.(Linker); ok {
			for _, h := range l.Links(resolved) {
				ctx.AppendHeader("Link", h)
			}
		}
		return v, nil
	}
}

// RootLinks returns the entry point links, for handlers outside Huma.
func RootLinks() []string {
	return routeLinks[EntryPoint]
}

// Action formats a link to an operation the client may call next.
func Action(href, relation, method, title string) string {
	h := rel(href, relation)
	if method != "" {
		h += fmt.Sprintf(`; method="%s"`, method)
	}
	if title != "" {
		h += fmt.Sprintf(`; title="%s"`, title)
	}
	return h
}

func rel(href, relation string) string {
	return fmt.Sprintf(`<%s>; rel="%s"`, href, relation)
}

type linkGraph map[string][]string

func (g linkGraph) add(from, to, relation string) {
	l := rel(to, relation)
	for _, have := range g[from] {
		if have == l {
			return
		}
	}
	g[from] = append(g[from], l)
}

func templated(p string) bool {
	return strings.Contains(p, "{")
}

func linkable(pi *huma.PathItem) bool {
	if pi == nil {
		return false
	}
	for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Delete} {
		if op == nil {
			continue
		}
		for _, t := range op.Tags {
			if t == "editor" || t == "stream" {
				return false
			}
		}
	}
	return true
}

// document copies links into the OpenAPI success responses of pi.
func document(pi *huma.PathItem, links []string) {
	for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Delete} {
		if op == nil {
			continue
		}
		for code, resp := range op.Responses {
			if !strings.HasPrefix(code, "2") {
				continue
			}
			if resp.Links == nil {
				resp.Links = map[string]*huma.Link{}
			}
			for _, l := range links {
				href, relation, ok := parseLink(l)
				if ok {
					resp.Links[relation] = &huma.Link{OperationRef: href, Description: "Related: " + relation}
				}
			}
		}
	}
}

// parseLink splits `<href>; rel="name"`.
func parseLink(l string) (href, relation string, ok bool) {
	target, params, found := strings.Cut(l, ";")
	if !found {
		return "", "", false
	}
	_, relation, found = strings.Cut(params, `rel="`)
	if !found {
		return "", "", false
	}
	relation, _, _ = strings.Cut(relation, `"`)
	return strings.Trim(strings.TrimSpace(target), "<>"), relation, true
}
