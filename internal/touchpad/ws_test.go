package touchpad

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"

	"github.com/joeblew999/aba-plan/internal/geom"
	"github.com/joeblew999/aba-plan/internal/i18n"
	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/service"
)

type stubGeocoder struct{}

func (stubGeocoder) Address(ctx context.Context, p orb.Point) (string, error) {
	return "Rue du Petit-Chêne 1", nil
}

func (stubGeocoder) Point(ctx context.Context, q string) (orb.Point, bool, error) {
	return orb.Point{}, false, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	bus := service.NewEventBus()
	maps, err := service.NewMapService(service.NewFileStore(t.TempDir()), bus)
	if err != nil {
		t.Fatalf("NewMapService: %v", err)
	}
	maps.Create(service.OptionMap{Title: "Lausanne"})
	maps.Create(service.OptionMap{Title: "Sans session"})
	cat, err := i18n.Load()
	if err != nil {
		t.Fatalf("i18n.Load: %v", err)
	}
	tp := service.NewTouchpadService(service.TouchpadConfig{
		Maps: maps, Geocoder: stubGeocoder{}, Catalog: cat, Bus: bus, Logger: log.Discard(),
	})
	if _, err := tp.Start(context.Background(), 1, "fr"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws/touchpad/{id}", NewServer(tp, bus, log.Discard()))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/touchpad/" + id
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// roundTrip sends msg and reads until the reply, collecting spoken text on the way.
func roundTrip(t *testing.T, ws *websocket.Conn, msg Message) (Reply, []string) {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	var said []string
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var r Reply
		if err := ws.ReadJSON(&r); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch r.T {
		case "say":
			said = append(said, r.Say.Text)
		case "marker":
		default:
			return r, said
		}
	}
}

// TestServer_Calibration verifies taps calibrate the session over the socket.
func TestServer_Calibration(t *testing.T) {
	ts := newTestServer(t)
	ws := dial(t, ts, "1")

	r, _ := roundTrip(t, ws, Message{T: "tap"})
	if r.T != "error" || r.Ref != "tap" {
		t.Fatalf("expected error for a first tap without extent, got %+v", r)
	}

	extent := &geom.Extent{XMin: 736000, YMin: 5861000, XMax: 739000, YMax: 5863500}
	for i, p := range []geom.Vector2d{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}} {
		r, _ = roundTrip(t, ws, Message{T: "tap", X: p.X, Y: p.Y, Extent: extent})
		if r.T != "result" || r.Tap == nil || r.Tap.Interaction {
			t.Fatalf("tap %d: unexpected reply %+v", i, r)
		}
	}
	if !r.Tap.Calibrated || r.Tap.Said[0] != "Dalle calibrée" {
		t.Fatalf("expected calibrated, got %+v", r.Tap)
	}

	r, _ = roundTrip(t, ws, Message{T: "tap", X: 50, Y: 50})
	if !r.Tap.Interaction || r.Tap.Said[0] != "Rue du Petit-Chêne 1" {
		t.Fatalf("unexpected interaction reply %+v", r.Tap)
	}

	r, _ = roundTrip(t, ws, Message{T: "status"})
	if r.Status == nil || !r.Status.Calibrated {
		t.Fatalf("unexpected status %+v", r)
	}
}

// TestServer_Voice verifies speech dispatch, language switch and pushed prompts.
func TestServer_Voice(t *testing.T) {
	ts := newTestServer(t)
	ws := dial(t, ts, "1")

	r, said := roundTrip(t, ws, Message{T: "hear", Text: "Lecture"})
	if r.Hear == nil || !r.Hear.Matched || r.Hear.Command.Name != "reading" {
		t.Fatalf("unexpected hear reply %+v", r)
	}
	// the pushed prompt may arrive after the result
	if len(said) > 1 {
		t.Fatalf("unexpected prompts %q", said)
	}

	r, _ = roundTrip(t, ws, Message{T: "lang", Locale: "en-US"})
	if r.Status == nil || r.Status.Lang != "en" {
		t.Fatalf("unexpected lang reply %+v", r)
	}

	r, _ = roundTrip(t, ws, Message{T: "dance"})
	if r.T != "error" || r.Ref != "dance" {
		t.Fatalf("expected error for unknown message, got %+v", r)
	}
}

// TestServer_NoSession verifies the upgrade is refused without a session.
func TestServer_NoSession(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/touchpad/2"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}
