// Package touchpad serves the kiosk websocket: taps and recognised speech in,
// results and speech prompts out.
package touchpad

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/joeblew999/aba-plan/internal/geom"
	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/service"
)

// Message is a client request.
type Message struct {
	T      string       `json:"t"` // "tap", "hear", "lang", "status"
	X      float64      `json:"x,omitempty"`
	Y      float64      `json:"y,omitempty"`
	Extent *geom.Extent `json:"extent,omitempty"`
	Text   string       `json:"text,omitempty"`
	Locale string       `json:"locale,omitempty"`
}

// Reply is a server message: a result for a request, or a pushed event.
type Reply struct {
	T      string                  `json:"t"`             // "result", "error", "say", "marker"
	Ref    string                  `json:"ref,omitempty"` // request type answered
	Tap    *service.TapResult      `json:"tap,omitempty"`
	Hear   *service.HearResult     `json:"hear,omitempty"`
	Status *service.TouchpadStatus `json:"status,omitempty"`
	Say    *service.Speech         `json:"say,omitempty"`
	Marker *service.Marker         `json:"marker,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// Server handles kiosk websocket connections.
type Server struct {
	upgrader websocket.Upgrader
	touchpad *service.TouchpadService
	bus      *service.EventBus
	log      *log.Logger
}

// NewServer creates a touchpad websocket server.
func NewServer(tp *service.TouchpadService, bus *service.EventBus, logger *log.Logger) *Server {
	return &Server{
		touchpad: tp,
		bus:      bus,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(r Reply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(r)
}

// ServeHTTP upgrades the connection of /ws/touchpad/{id} and processes
// messages until the client leaves. The session must already be started.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid map id", http.StatusBadRequest)
		return
	}
	if _, err := s.touchpad.Status(uid); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events := s.bus.Subscribe()
	go s.forward(ctx, c, uid, events)

	s.log.Debug("touchpad websocket connected", "uid", uid, "remote", r.RemoteAddr)
	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			s.log.Debug("touchpad websocket closed", "uid", uid, "error", err)
			return
		}
		if err := c.send(s.handleMessage(ctx, uid, msg)); err != nil {
			return
		}
	}
}

// forward pushes the session's speech and markers to the client.
func (s *Server) forward(ctx context.Context, c *conn, uid int, ch chan service.Event) {
	defer s.bus.Unsubscribe(ch)
	id := strconv.Itoa(uid)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if ev.Resource != service.ResourceTouchpad || ev.ID != id {
				continue
			}
			var r Reply
			switch data := ev.Data.(type) {
			case service.Speech:
				r = Reply{T: service.ActionSay, Say: &data}
			case service.Marker:
				r = Reply{T: service.ActionMarker, Marker: &data}
			default:
				continue
			}
			if err := c.send(r); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches a single client message.
func (s *Server) handleMessage(ctx context.Context, uid int, msg Message) Reply {
	switch msg.T {
	case "tap":
		res, err := s.touchpad.Tap(ctx, uid, geom.Vector2d{X: msg.X, Y: msg.Y}, msg.Extent)
		if err != nil {
			return errorReply(msg.T, err)
		}
		return Reply{T: "result", Ref: msg.T, Tap: &res}
	case "hear":
		res, err := s.touchpad.Hear(ctx, uid, msg.Text)
		if err != nil {
			return errorReply(msg.T, err)
		}
		return Reply{T: "result", Ref: msg.T, Hear: &res}
	case "lang":
		st, err := s.touchpad.SetLanguage(uid, msg.Locale)
		if err != nil {
			return errorReply(msg.T, err)
		}
		return Reply{T: "result", Ref: msg.T, Status: &st}
	case "status":
		st, err := s.touchpad.Status(uid)
		if err != nil {
			return errorReply(msg.T, err)
		}
		return Reply{T: "result", Ref: msg.T, Status: &st}
	}
	return errorReply(msg.T, errUnknownMessage)
}

var errUnknownMessage = errors.New("unknown message type")

func errorReply(ref string, err error) Reply {
	return Reply{T: "error", Ref: ref, Error: err.Error()}
}
