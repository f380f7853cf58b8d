package humastar

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Signals are the Datastar signals posted by the page, a flat JSON object.
type Signals map[string]any

// SignalsInput is the input of operations posting Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// Decode parses the posted signals. Malformed bodies are a 400.
func (i *SignalsInput) Decode() (Signals, error) {
	var s Signals
	if err := json.Unmarshal(i.RawBody, &s); err != nil {
		return nil, huma.Error400BadRequest("Invalid signals: " + err.Error())
	}
	return s, nil
}

// String returns a string signal, "" when missing or not a string.
func (s Signals) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Int returns a numeric signal truncated to int. Text inputs bound to a
// signal post strings, so decimal strings are accepted too. ok is false
// when the signal is missing or not a number.
func (s Signals) Int(key string) (n int, ok bool) {
	switch v := s[key].(type) {
	case float64:
		return int(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return int(f), err == nil
	}
	return 0, false
}

// Has reports whether the page sent the signal at all.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}
