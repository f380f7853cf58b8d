package service

import (
	"strconv"
	"sync"
)

// Event resources and actions.
const (
	ResourceMaps     = "maps"
	ResourceTouchpad = "touchpad"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionSay     = "say"
	ActionMarker  = "marker"
)

// Event represents a resource mutation or a touchpad output.
type Event struct {
	Resource string // "maps" or "touchpad"
	Action   string // "created", "updated", "deleted", "say", "marker"
	ID       string // map uid
	Data     any    // Speech or Marker for touchpad events
}

// Speech is a sentence the kiosk must say aloud.
type Speech struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Marker is a calibrated tap projected on the map.
type Marker struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// EventBus is a simple fan-out pub/sub for resource change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Speaker says text aloud in a touchpad session.
type Speaker interface {
	Say(uid int, voice, text string)
}

// BusSpeaker publishes speech as touchpad events; the browser or the
// websocket client does the actual synthesis.
type BusSpeaker struct {
	Bus *EventBus
}

// Say implements Speaker.
func (s BusSpeaker) Say(uid int, voice, text string) {
	s.Bus.Publish(Event{
		Resource: ResourceTouchpad,
		Action:   ActionSay,
		ID:       strconv.Itoa(uid),
		Data:     Speech{Text: text, Voice: voice},
	})
}
