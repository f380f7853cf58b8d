package templates

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

// TestNew verifies the embedded fragments parse and render.
func TestNew(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	html, err := r.Render("empty-state", map[string]string{"Title": "Aucune carte", "Message": "<rien>"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(html, "Aucune carte") || !strings.Contains(html, "&lt;rien&gt;") {
		t.Fatalf("unexpected html %q", html)
	}

	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, "speech", map[string]string{"Voice": "fr-FR", "Text": "Dalle calibrée"}); err != nil {
		t.Fatalf("RenderToBuffer: %v", err)
	}
	if !strings.Contains(buf.String(), `lang="fr-FR"`) {
		t.Fatalf("unexpected speech fragment %q", buf.String())
	}

	if _, err := r.Render("missing", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

// TestNewFS verifies fragments can be loaded from another filesystem and use dict.
func TestNewFS(t *testing.T) {
	fsys := fstest.MapFS{
		"frag/a.html": {Data: []byte(`{{define "a"}}{{template "b" (dict "Name" .)}}{{end}}`)},
		"frag/b.html": {Data: []byte(`{{define "b"}}hello {{.Name}}{{end}}`)},
	}
	r, err := NewFS(fsys, "frag")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if got := r.MustRender("a", "world"); got != "hello world" {
		t.Fatalf("unexpected render %q", got)
	}
}

// TestNewDir_Fallback verifies an empty directory falls back to the embedded fragments.
func TestNewDir_Fallback(t *testing.T) {
	r, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	if _, err := r.Render("map-card", struct {
		UID           int
		Title         string
		Width, Height int
		LayerType     struct{ Kind string }
		Shapes        []int
	}{UID: 3, Title: "Plan"}); err != nil {
		t.Fatalf("Render map-card: %v", err)
	}
}
