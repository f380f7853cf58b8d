// Package calibration implements the four-tap touch surface calibration.
//
// The machine is a pure function over an explicit State so it can be driven
// by any event source (HTTP, websocket, tests) in arrival order.
package calibration

import (
	"errors"

	"github.com/joeblew999/aba-plan/internal/geom"
)

// Taps is the number of taps needed to calibrate.
const Taps = 4

// ErrNoExtent is returned when the first tap arrives without a map extent
// to snap the target plane from.
var ErrNoExtent = errors.New("calibration: first tap needs the visible map extent")

// ErrDegenerate is returned when the fourth tap leaves the device plane
// without a usable transform. The machine is back at Start.
var ErrDegenerate = errors.New("calibration: device corners are coincident or collinear")

// Corner names a calibration corner, in tap order.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Key returns the message key naming the corner.
func (c Corner) Key() string {
	switch c {
	case TopLeft:
		return "corner.top_left"
	case TopRight:
		return "corner.top_right"
	case BottomLeft:
		return "corner.bottom_left"
	case BottomRight:
		return "corner.bottom_right"
	}
	return "corner.unknown"
}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	}
	return "unknown"
}

// State is either Uncalibrated or Calibrated.
type State interface {
	isState()
	Calibrated() bool
}

// Uncalibrated holds the number of corners recorded so far (0..3).
type Uncalibrated struct {
	Count int
}

// Calibrated is terminal for the lifetime of a session.
type Calibrated struct{}

func (Uncalibrated) isState()         {}
func (Uncalibrated) Calibrated() bool { return false }
func (Calibrated) isState()           {}
func (Calibrated) Calibrated() bool   { return true }

// Next returns the corner the next tap will record.
func (u Uncalibrated) Next() Corner {
	return Corner(u.Count)
}

// Planes is the correspondence being calibrated: the touch surface and the
// map extent it covers.
type Planes struct {
	Device geom.Plane2d `json:"device"`
	Target geom.Plane2d `json:"target"`
}

// Outcome describes what a tap did.
type Outcome struct {
	// Interaction is true when the tap was not consumed by calibration.
	Interaction bool
	// Recorded is the corner just recorded, when Interaction is false.
	Recorded Corner
	// Prompt is the message key to speak after the transition.
	Prompt string
}

// Start returns the initial state.
func Start() State {
	return Uncalibrated{}
}

// Step feeds one tap to the machine. extent is only consulted on the first
// tap, where the target plane is snapped from it. Planes are returned
// unchanged once calibrated.
func Step(s State, planes Planes, tap geom.Vector2d, extent *geom.Extent) (State, Planes, Outcome, error) {
	u, ok := s.(Uncalibrated)
	if !ok {
		return s, planes, Outcome{Interaction: true}, nil
	}

	if u.Count == 0 {
		if extent == nil || extent.Empty() {
			return s, planes, Outcome{Prompt: TopLeft.Key()}, ErrNoExtent
		}
		planes.Target = extent.Plane()
	}

	corner := u.Next()
	planes.Device = planes.Device.WithCorner(int(corner), tap)

	if u.Count+1 == Taps {
		if planes.Device.Degenerate() {
			return Start(), Planes{}, Outcome{Recorded: corner, Prompt: TopLeft.Key()}, ErrDegenerate
		}
		return Calibrated{}, planes, Outcome{Recorded: corner, Prompt: "calibrated"}, nil
	}
	next := Uncalibrated{Count: u.Count + 1}
	return next, planes, Outcome{Recorded: corner, Prompt: next.Next().Key()}, nil
}

// Prompt returns the message key to speak for s: the next corner, or
// "calibrated".
func Prompt(s State) string {
	if u, ok := s.(Uncalibrated); ok {
		return u.Next().Key()
	}
	return "calibrated"
}
