package placeholder

import "sync"

// Registry allocates tokens during recording. Within one record the same raw
// value always maps to the same token; distinct values of a label get
// increasing indexes. Labels registered as bare omit the index entirely and
// collapse every value to one token (account IDs, regions).
type Registry struct {
	mu       sync.Mutex
	counters map[string]int
	assigned map[string]string // label + "\x00" + raw → token text
	bare     map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: map[string]int{},
		assigned: map[string]string{},
		bare:     map[string]bool{},
	}
}

// Bare marks label as single-token: every raw value becomes <label>.
func (r *Registry) Bare(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bare[label] = true
}

// Token returns the token text for a raw value under label, allocating a new
// index if the value has not been seen.
func (r *Registry) Token(label, raw string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bare[label] {
		return Token{Label: label}.String()
	}
	key := label + "\x00" + raw
	if tok, ok := r.assigned[key]; ok {
		return tok
	}
	r.counters[label]++
	tok := Token{Label: label, Index: r.counters[label]}.String()
	r.assigned[key] = tok
	return tok
}

// Seen reports how many distinct values have been assigned under label.
func (r *Registry) Seen(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[label]
}
