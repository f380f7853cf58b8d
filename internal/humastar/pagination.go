package humastar

import (
	"fmt"
	"net/url"
)

// PageBody is a page of a filtered list. Its Links carry the filter query
// along with first/prev/next/last offsets.
type PageBody[T any] struct {
	Total  int        `json:"total" doc:"Number of matches before paging"`
	Offset int        `json:"offset" doc:"Matches skipped"`
	Limit  int        `json:"limit" doc:"Page size"`
	Data   []T        `json:"data" doc:"Items of this page"`
	Query  url.Values `json:"-"`
}

// Links implements Linker.
func (p PageBody[T]) Links(path string) []string {
	if p.Limit <= 0 {
		first := p.href(path, 0)
		return []string{rel(first, "first"), rel(first, "last")}
	}

	links := []string{rel(p.href(path, 0), "first")}
	if p.Offset > 0 {
		links = append(links, rel(p.href(path, max(p.Offset-p.Limit, 0)), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, rel(p.href(path, p.Offset+p.Limit), "next"))
	}
	last := 0
	if p.Total > 0 {
		last = (p.Total - 1) / p.Limit * p.Limit
	}
	return append(links, rel(p.href(path, last), "last"))
}

func (p PageBody[T]) href(path string, offset int) string {
	q := url.Values{}
	for k, v := range p.Query {
		if k != "offset" && k != "limit" {
			q[k] = v
		}
	}
	q.Set("offset", fmt.Sprint(offset))
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprint(p.Limit))
	}
	return path + "?" + q.Encode()
}
