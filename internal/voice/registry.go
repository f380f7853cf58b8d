package voice

import (
	"context"
	"fmt"
	"sync"
)

// Action runs a matched command. call counts how many times the command
// ran before (0 on the first invocation); capture holds the wildcard text.
type Action func(ctx context.Context, call int, capture string)

// Command is a set of phrase patterns bound to one action.
type Command struct {
	Name        string
	Patterns    []string
	Description string
	Action      Action
}

// Help describes a registered command for display.
type Help struct {
	Name        string   `json:"name" doc:"Command identifier" example:"search"`
	Patterns    []string `json:"patterns" doc:"Accepted phrases, * is a wildcard" example:"[\"rechercher *\"]"`
	Description string   `json:"description" doc:"What the command does"`
}

// Dispatched reports what Dispatch ran.
type Dispatched struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Capture string `json:"capture,omitempty"`
	Call    int    `json:"call"`
}

type entry struct {
	cmd   Command
	calls int
}

// Registry holds the command sets of each language and dispatches
// utterances against the active one. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	sets   map[string][]*entry
	active string
}

// NewRegistry creates an empty registry with lang active.
func NewRegistry(lang string) *Registry {
	return &Registry{sets: make(map[string][]*entry), active: lang}
}

// Register replaces the command set of lang. Registering the same language
// twice never duplicates commands.
func (r *Registry) Register(lang string, cmds []Command) {
	entries := make([]*entry, 0, len(cmds))
	for _, c := range cmds {
		entries = append(entries, &entry{cmd: c})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[lang] = entries
}

// AddCommand appends a command to lang's set.
func (r *Registry) AddCommand(lang string, cmd Command) error {
	if len(cmd.Patterns) == 0 {
		return fmt.Errorf("command %q has no patterns", cmd.Name)
	}
	if cmd.Action == nil {
		return fmt.Errorf("command %q has no action", cmd.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[lang] = append(r.sets[lang], &entry{cmd: cmd})
	return nil
}

// SetLanguage makes lang the active command set.
func (r *Registry) SetLanguage(lang string) {
	r.mu.Lock()
	r.active = lang
	r.mu.Unlock()
}

// Language returns the active language.
func (r *Registry) Language() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Commands lists lang's commands in registration order.
func (r *Registry) Commands(lang string) []Help {
	r.mu.Lock()
	defer r.mu.Unlock()

	help := make([]Help, 0, len(r.sets[lang]))
	for _, e := range r.sets[lang] {
		help = append(help, Help{Name: e.cmd.Name, Patterns: e.cmd.Patterns, Description: e.cmd.Description})
	}
	return help
}

// Dispatch runs the first active command matching utterance. The action
// is invoked after the registry lock is released so it may use the
// registry itself.
func (r *Registry) Dispatch(ctx context.Context, utterance string) (Dispatched, bool) {
	r.mu.Lock()
	var (
		hit   *entry
		m     Hit
		found bool
	)
	for _, e := range r.sets[r.active] {
		if m, found = Match(utterance, e.cmd.Patterns); found {
			hit = e
			break
		}
	}
	if !found {
		r.mu.Unlock()
		return Dispatched{}, false
	}
	call := hit.calls
	hit.calls++
	r.mu.Unlock()

	if hit.cmd.Action != nil {
		hit.cmd.Action(ctx, call, m.Capture)
	}
	return Dispatched{
		Name:    hit.cmd.Name,
		Pattern: hit.cmd.Patterns[m.Pattern],
		Capture: m.Capture,
		Call:    call,
	}, true
}
