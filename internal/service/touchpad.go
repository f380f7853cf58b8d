package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/joeblew999/aba-plan/internal/calibration"
	"github.com/joeblew999/aba-plan/internal/geocode"
	"github.com/joeblew999/aba-plan/internal/geom"
	"github.com/joeblew999/aba-plan/internal/i18n"
	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/voice"
)

// ErrNoSession is returned when a touchpad operation targets a map without
// a started session.
var ErrNoSession = errors.New("no touchpad session")

// Touchpad modes.
const (
	ModeReading   = "reading"
	ModeSearching = "searching"
)

// TouchpadStatus describes a session.
type TouchpadStatus struct {
	UID        int                `json:"uid" doc:"Map identifier"`
	Lang       string             `json:"lang" doc:"Active language" example:"fr"`
	Voice      string             `json:"voice" doc:"Speech synthesis voice" example:"fr-FR"`
	Calibrated bool               `json:"calibrated" doc:"Whether the 4 corners were tapped"`
	Taps       int                `json:"taps" doc:"Calibration taps recorded" minimum:"0" maximum:"4"`
	Mode       string             `json:"mode" enum:"reading,searching" doc:"Interaction mode"`
	Prompt     string             `json:"prompt" doc:"Message key of the next expected action" example:"corner.top_right"`
	Planes     calibration.Planes `json:"planes" doc:"Device and map planes"`
	Searched   *ItineraryPoint    `json:"searched,omitempty" doc:"Location found by the last search"`
	Points     int                `json:"points" doc:"Itinerary points recorded"`
}

// TapResult reports what a tap did.
type TapResult struct {
	Interaction bool     `json:"interaction" doc:"False while the tap was consumed by calibration"`
	Corner      string   `json:"corner,omitempty" doc:"Corner recorded by a calibration tap" example:"top-left"`
	Calibrated  bool     `json:"calibrated" doc:"Session state after the tap"`
	Lng         float64  `json:"lng,omitempty" doc:"Longitude of an interaction tap"`
	Lat         float64  `json:"lat,omitempty" doc:"Latitude of an interaction tap"`
	Said        []string `json:"said" doc:"Sentences spoken in response"`
}

// HearResult reports what an utterance did.
type HearResult struct {
	Matched bool              `json:"matched" doc:"Whether a command matched"`
	Command *voice.Dispatched `json:"command,omitempty" doc:"Command that ran"`
	Said    []string          `json:"said" doc:"Sentences spoken in response"`
}

type touchpadSession struct {
	mu sync.Mutex

	uid        int
	lang       string
	state      calibration.State
	planes     calibration.Planes
	homography geom.Homography
	mode       string
	searched   *orb.Point
	registry   *voice.Registry
	itinerary  *Itinerary

	said []string
}

// TouchpadService runs kiosk sessions, one per map.
type TouchpadService struct {
	maps     *MapService
	geocoder geocode.Geocoder
	catalog  *i18n.Catalog
	speaker  Speaker
	bus      *EventBus
	log      *log.Logger

	mu       sync.Mutex
	sessions map[int]*touchpadSession
}

// TouchpadConfig wires a TouchpadService.
type TouchpadConfig struct {
	Maps     *MapService
	Geocoder geocode.Geocoder
	Catalog  *i18n.Catalog
	Speaker  Speaker
	Bus      *EventBus
	Logger   *log.Logger
}

// NewTouchpadService creates a touchpad service. A nil Speaker speaks on the bus.
func NewTouchpadService(cfg TouchpadConfig) *TouchpadService {
	speaker := cfg.Speaker
	if speaker == nil && cfg.Bus != nil {
		speaker = BusSpeaker{Bus: cfg.Bus}
	}
	return &TouchpadService{
		maps:     cfg.Maps,
		geocoder: cfg.Geocoder,
		catalog:  cfg.Catalog,
		speaker:  speaker,
		bus:      cfg.Bus,
		log:      cfg.Logger,
		sessions: make(map[int]*touchpadSession),
	}
}

// Start opens a fresh session on a map, replacing any previous one, and
// asks for the first corner.
func (t *TouchpadService) Start(ctx context.Context, uid int, locale string) (TouchpadStatus, error) {
	if _, err := t.maps.Get(uid); err != nil {
		return TouchpadStatus{}, err
	}

	lang := t.catalog.Match(locale)
	s := &touchpadSession{
		uid:       uid,
		lang:      lang,
		state:     calibration.Start(),
		mode:      ModeReading,
		registry:  voice.NewRegistry(lang),
		itinerary: NewItinerary(),
	}
	t.registerCommands(s, lang)

	t.mu.Lock()
	t.sessions[uid] = s
	t.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = nil
	t.say(s, t.catalog.T(lang, "prompt.start"))
	t.say(s, t.catalog.T(lang, calibration.Prompt(s.state)))
	t.log.Info("touchpad session started", "uid", uid, "lang", lang)
	return t.status(s), nil
}

// Tap handles a touch at a device point. extent is the visible map extent,
// needed by the first calibration tap.
func (t *TouchpadService) Tap(ctx context.Context, uid int, p geom.Vector2d, extent *geom.Extent) (TapResult, error) {
	s, err := t.session(uid)
	if err != nil {
		return TapResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = nil

	if !s.state.Calibrated() {
		state, planes, out, err := calibration.Step(s.state, s.planes, p, extent)
		switch {
		case errors.Is(err, calibration.ErrDegenerate):
			t.log.Warn("touchpad calibration degenerate, restarting", "uid", uid)
			t.say(s, t.catalog.T(s.lang, "calibration.failed"))
		case err != nil:
			t.say(s, t.catalog.T(s.lang, "calibration.no_extent"))
			return TapResult{Said: s.said}, err
		}
		s.state, s.planes = state, planes
		if state.Calibrated() {
			s.homography = geom.NewHomography(planes.Device, planes.Target)
		}
		t.say(s, t.catalog.T(s.lang, out.Prompt))
		return TapResult{
			Corner:     out.Recorded.String(),
			Calibrated: state.Calibrated(),
			Said:       s.said,
		}, nil
	}

	mp := s.homography.Apply(p)
	ll := project.Mercator.ToWGS84(mp.Point())
	s.itinerary.SetCurrent(ll.Lon(), ll.Lat())
	if t.bus != nil {
		t.bus.Publish(Event{
			Resource: ResourceTouchpad,
			Action:   ActionMarker,
			ID:       strconv.Itoa(uid),
			Data:     Marker{Lng: ll.Lon(), Lat: ll.Lat(), X: mp.X, Y: mp.Y},
		})
	}

	switch s.mode {
	case ModeSearching:
		if s.searched == nil {
			t.say(s, t.catalog.T(s.lang, "search.pending"))
			break
		}
		t.say(s, t.directionText(s.lang, ll, *s.searched))
	default:
		t.say(s, t.address(ctx, s.lang, ll))
	}

	return TapResult{
		Interaction: true,
		Calibrated:  true,
		Lng:         round6(ll.Lon()),
		Lat:         round6(ll.Lat()),
		Said:        s.said,
	}, nil
}

// Hear dispatches recognised speech to the session's commands.
func (t *TouchpadService) Hear(ctx context.Context, uid int, utterance string) (HearResult, error) {
	s, err := t.session(uid)
	if err != nil {
		return HearResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = nil

	d, ok := s.registry.Dispatch(ctx, utterance)
	if !ok {
		t.log.Debug("unrecognised utterance", "uid", uid, "utterance", utterance)
		return HearResult{Said: []string{}}, nil
	}
	return HearResult{Matched: true, Command: &d, Said: s.said}, nil
}

// SetLanguage switches the session to the best table for locale and
// re-registers its commands.
func (t *TouchpadService) SetLanguage(uid int, locale string) (TouchpadStatus, error) {
	s, err := t.session(uid)
	if err != nil {
		return TouchpadStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = nil

	lang := t.catalog.Match(locale)
	t.registerCommands(s, lang)
	s.registry.SetLanguage(lang)
	s.lang = lang
	t.say(s, t.catalog.T(lang, "language.changed"))
	return t.status(s), nil
}

// Commands lists the voice commands of the session's active language.
func (t *TouchpadService) Commands(uid int) ([]voice.Help, error) {
	s, err := t.session(uid)
	if err != nil {
		return nil, err
	}
	return s.registry.Commands(s.registry.Language()), nil
}

// Status describes a session.
func (t *TouchpadService) Status(uid int) (TouchpadStatus, error) {
	s, err := t.session(uid)
	if err != nil {
		return TouchpadStatus{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.status(s), nil
}

// Itinerary returns the session's itinerary.
func (t *TouchpadService) Itinerary(uid int) (*Itinerary, error) {
	s, err := t.session(uid)
	if err != nil {
		return nil, err
	}
	return s.itinerary, nil
}

func (t *TouchpadService) session(uid int) (*touchpadSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[uid]
	if !ok {
		return nil, fmt.Errorf("%w for map %d", ErrNoSession, uid)
	}
	return s, nil
}

// status must be called with s.mu held.
func (t *TouchpadService) status(s *touchpadSession) TouchpadStatus {
	st := TouchpadStatus{
		UID:        s.uid,
		Lang:       s.lang,
		Voice:      t.catalog.Voice(s.lang),
		Calibrated: s.state.Calibrated(),
		Taps:       calibration.Taps,
		Mode:       s.mode,
		Prompt:     calibration.Prompt(s.state),
		Planes:     s.planes,
		Points:     len(s.itinerary.Points()),
	}
	if u, ok := s.state.(calibration.Uncalibrated); ok {
		st.Taps = u.Count
	}
	if s.searched != nil {
		st.Searched = &ItineraryPoint{Lng: round6(s.searched.Lon()), Lat: round6(s.searched.Lat())}
	}
	return st
}

// registerCommands binds the phrase table of lang to the session actions.
func (t *TouchpadService) registerCommands(s *touchpadSession, lang string) {
	actions := map[string]voice.Action{
		"reading": func(ctx context.Context, call int, capture string) {
			s.mode = ModeReading
			t.say(s, t.catalog.T(s.lang, "mode.reading"))
		},
		"search": func(ctx context.Context, call int, capture string) {
			t.say(s, t.catalog.T(s.lang, "search.start", capture))
			s.mode = ModeSearching
			var (
				p   orb.Point
				ok  bool
				err = geocode.ErrUnavailable
			)
			if t.geocoder != nil {
				p, ok, err = t.geocoder.Point(ctx, capture)
			}
			if err != nil || !ok {
				if err != nil {
					t.log.Warn("search failed", "uid", s.uid, "query", capture, "error", err)
				}
				t.say(s, t.catalog.T(s.lang, "search.invalid"))
				s.mode = ModeReading
				s.searched = nil
				return
			}
			s.searched = &p
		},
		"add": func(ctx context.Context, call int, capture string) {
			if !s.itinerary.AddCurrent(capture) {
				t.say(s, t.catalog.T(s.lang, "itinerary.no_point"))
				return
			}
			t.say(s, t.catalog.T(s.lang, "itinerary.added", capture))
		},
		"undo": func(ctx context.Context, call int, capture string) {
			if !s.itinerary.DeleteLast() {
				t.say(s, t.catalog.T(s.lang, "itinerary.nothing"))
				return
			}
			t.say(s, t.catalog.T(s.lang, "itinerary.removed"))
		},
		"rude": func(ctx context.Context, call int, capture string) {
			t.say(s, t.catalog.T(s.lang, "rude."+strconv.Itoa(call%3)))
		},
	}

	phrases := t.catalog.Commands(lang)
	cmds := make([]voice.Command, 0, len(phrases))
	for _, ph := range phrases {
		action, ok := actions[ph.Name]
		if !ok {
			t.log.Warn("voice command has no action", "lang", lang, "command", ph.Name)
			continue
		}
		cmds = append(cmds, voice.Command{
			Name:        ph.Name,
			Patterns:    ph.Patterns,
			Description: ph.Description,
			Action:      action,
		})
	}
	s.registry.Register(lang, cmds)
}

// say must be called with s.mu held.
func (t *TouchpadService) say(s *touchpadSession, text string) {
	s.said = append(s.said, text)
	if t.speaker != nil {
		t.speaker.Say(s.uid, t.catalog.Voice(s.lang), text)
	}
}

func (t *TouchpadService) address(ctx context.Context, lang string, p orb.Point) string {
	if t.geocoder == nil {
		return t.catalog.T(lang, "address.unknown")
	}
	addr, err := t.geocoder.Address(ctx, p)
	if err != nil || addr == "" {
		if err != nil {
			t.log.Warn("reverse geocoding failed", "point", p, "error", err)
		}
		return t.catalog.T(lang, "address.unknown")
	}
	return addr
}

// directionText says where to is seen from from.
func (t *TouchpadService) directionText(lang string, from, to orb.Point) string {
	h := geocode.Direction(from, to)
	var dist string
	if h.Meters < 1000 {
		dist = t.catalog.T(lang, "distance.m", int(math.Round(h.Meters)))
	} else {
		dist = t.catalog.T(lang, "distance.km", h.Meters/1000)
	}
	return t.catalog.T(lang, "search.direction", dist, t.catalog.Direction(lang, h.Sector))
}
