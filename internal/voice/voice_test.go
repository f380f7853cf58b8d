package voice

import (
	"context"
	"testing"
)

var searchPatterns = []string{"rechercher *", "recherche *", "chercher *", "cherche *"}

// TestMatch covers literal, wildcard and case-folded matching.
func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		patterns  []string
		ok        bool
		pattern   int
		capture   string
	}{
		{"trailing wildcard", "rechercher gare centrale", searchPatterns, true, 0, "gare centrale"},
		{"second pattern", "cherche la poste", searchPatterns, true, 3, "la poste"},
		{"case folded literal", "RECHERCHER Lausanne", searchPatterns, true, 0, "Lausanne"},
		{"extra spaces", "  rechercher   gare   centrale ", searchPatterns, true, 0, "gare centrale"},
		{"wildcard needs a word", "rechercher", searchPatterns, false, 0, ""},
		{"literal exact", "lecture", []string{"lecture"}, true, 0, ""},
		{"literal rejects extra words", "lecture rapide", []string{"lecture"}, false, 0, ""},
		{"multi word literal", "ta gueule", []string{"putain", "ta gueule"}, true, 1, ""},
		{"accented literal", "Ça race", []string{"ça race"}, true, 0, ""},
		{"middle wildcard", "aller à la gare maintenant", []string{"aller à * maintenant"}, true, 0, "la gare"},
		{"empty utterance", "   ", searchPatterns, false, 0, ""},
		{"no match", "bonjour", searchPatterns, false, 0, ""},
	}
	for _, tc := range tests {
		m, ok := Match(tc.utterance, tc.patterns)
		if ok != tc.ok {
			t.Fatalf("%s: expected ok=%v, got %v", tc.name, tc.ok, ok)
		}
		if !ok {
			continue
		}
		if m.Pattern != tc.pattern || m.Capture != tc.capture {
			t.Fatalf("%s: expected (%d, %q), got (%d, %q)", tc.name, tc.pattern, tc.capture, m.Pattern, m.Capture)
		}
	}
}

// TestRegistry_DispatchPassesCapture verifies the wildcard capture reaches the action.
func TestRegistry_DispatchPassesCapture(t *testing.T) {
	r := NewRegistry("fr")
	var got string
	r.Register("fr", []Command{{
		Name:     "search",
		Patterns: searchPatterns,
		Action:   func(_ context.Context, _ int, capture string) { got = capture },
	}})

	d, ok := r.Dispatch(context.Background(), "rechercher gare centrale")
	if !ok {
		t.Fatalf("expected a match")
	}
	if got != "gare centrale" || d.Capture != "gare centrale" {
		t.Fatalf("expected capture %q, got action=%q dispatched=%q", "gare centrale", got, d.Capture)
	}
	if d.Name != "search" || d.Pattern != "rechercher *" {
		t.Fatalf("unexpected dispatch %+v", d)
	}
}

// TestRegistry_FirstRegisteredWins verifies ambiguous utterances go to the earliest command.
func TestRegistry_FirstRegisteredWins(t *testing.T) {
	r := NewRegistry("fr")
	var ran []string
	mk := func(name string, patterns ...string) Command {
		return Command{Name: name, Patterns: patterns, Action: func(context.Context, int, string) { ran = append(ran, name) }}
	}
	r.Register("fr", []Command{mk("any", "aller *"), mk("station", "aller gare")})

	r.Dispatch(context.Background(), "aller gare")
	if len(ran) != 1 || ran[0] != "any" {
		t.Fatalf("expected first command to win, got %v", ran)
	}
}

// TestRegistry_CallIndexRotates verifies each command counts its own invocations.
func TestRegistry_CallIndexRotates(t *testing.T) {
	r := NewRegistry("fr")
	var calls []int
	r.Register("fr", []Command{
		{Name: "rude", Patterns: []string{"zut"}, Action: func(_ context.Context, call int, _ string) { calls = append(calls, call) }},
		{Name: "other", Patterns: []string{"autre"}, Action: func(context.Context, int, string) {}},
	})
	for _, u := range []string{"zut", "autre", "zut", "zut"} {
		r.Dispatch(context.Background(), u)
	}
	want := []int{0, 1, 2}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
}

// TestRegistry_RegisterReplaces verifies re-registering a language does not duplicate commands.
func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry("fr")
	count := 0
	cmds := []Command{{Name: "reading", Patterns: []string{"lecture"}, Action: func(context.Context, int, string) { count++ }}}
	r.Register("fr", cmds)
	r.Register("fr", cmds)

	if n := len(r.Commands("fr")); n != 1 {
		t.Fatalf("expected 1 command after re-registration, got %d", n)
	}
	r.Dispatch(context.Background(), "lecture")
	if count != 1 {
		t.Fatalf("expected action once, got %d", count)
	}
}

// TestRegistry_LanguageSwitch verifies only the active language matches.
func TestRegistry_LanguageSwitch(t *testing.T) {
	r := NewRegistry("fr")
	r.Register("fr", []Command{{Name: "reading", Patterns: []string{"lecture"}, Action: func(context.Context, int, string) {}}})
	r.Register("en", []Command{{Name: "reading", Patterns: []string{"reading"}, Action: func(context.Context, int, string) {}}})

	if _, ok := r.Dispatch(context.Background(), "reading"); ok {
		t.Fatalf("expected english phrase to miss while french is active")
	}
	r.SetLanguage("en")
	if _, ok := r.Dispatch(context.Background(), "reading"); !ok {
		t.Fatalf("expected english phrase to match after switch")
	}
	if r.Language() != "en" {
		t.Fatalf("expected active language en, got %q", r.Language())
	}
}

// TestRegistry_AddCommandValidates verifies incomplete commands are rejected.
func TestRegistry_AddCommandValidates(t *testing.T) {
	r := NewRegistry("fr")
	if err := r.AddCommand("fr", Command{Name: "empty"}); err == nil {
		t.Fatalf("expected error for command without patterns")
	}
	if err := r.AddCommand("fr", Command{Name: "noop", Patterns: []string{"x"}}); err == nil {
		t.Fatalf("expected error for command without action")
	}
	if err := r.AddCommand("fr", Command{Name: "ok", Patterns: []string{"x"}, Action: func(context.Context, int, string) {}}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if n := len(r.Commands("fr")); n != 1 {
		t.Fatalf("expected 1 command, got %d", n)
	}
}
