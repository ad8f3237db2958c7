// Package entity provides the character-entity registry and the
// normalization dictionary used when rendering diplomatic and normalized
// transcription levels.
package entity

import (
	"sort"
	"sync"
)

// Registry maps entity names to the characters they stand for, and back.
// It is safe for concurrent use; compilations only read from it.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]string
	byChar map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]string),
		byChar: make(map[string]string),
	}
}

// DefaultRegistry returns a registry preloaded with the MUFI entities most
// common in Old Norse and Latin transcriptions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, char := range defaultEntities {
		r.Add(name, char)
	}
	return r
}

// Add registers name as a reference to char. A later registration for the
// same character replaces the reverse mapping.
func (r *Registry) Add(name, char string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = char
	r.byChar[char] = name
}

// Char returns the character for an entity name.
func (r *Registry) Char(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Name returns the entity name registered for a character.
func (r *Registry) Name(char string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byChar[char]
	return n, ok
}

// Names returns all registered entity names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

var defaultEntities = map[string]string{
	"eth":       "ð",
	"ETH":       "Ð",
	"thorn":     "þ",
	"THORN":     "Þ",
	"aelig":     "æ",
	"AElig":     "Æ",
	"oslash":    "ø",
	"Oslash":    "Ø",
	"oelig":     "œ",
	"slong":     "ſ",
	"rrot":      "ꝛ",
	"fins":      "ꝼ",
	"et":        "⁊",
	"aalig":     "ꜳ",
	"inodot":    "ı",
	"jnodot":    "ȷ",
	"combacute": "\u0301",
	"combgrave": "\u0300",
	"combmacr":  "\u0304",
	"combdot":   "\u0307",
	"combtilde": "\u0303",
}
