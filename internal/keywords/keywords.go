// Package keywords expands a user-facing topic into search terms.
package keywords

import (
	"sort"
	"strings"
)

// Resolver maps topics to keyword lists. It is read-only after construction
// and safe for concurrent use.
type Resolver struct {
	table map[string][]string
}

// NewResolver copies the given table, lower-casing every topic name.
// Topics with an empty keyword list are ignored.
func NewResolver(table map[string][]string) *Resolver {
	copied := make(map[string][]string, len(table))
	for topic, kws := range table {
		if len(kws) == 0 {
			continue
		}
		list := make([]string, len(kws))
		copy(list, kws)
		copied[strings.ToLower(topic)] = list
	}
	return &Resolver{table: copied}
}

// Resolve returns the keywords configured for topic, matched
// case-insensitively. Unknown topics resolve to the topic itself, so the
// result is never empty.
func (r *Resolver) Resolve(topic string) []string {
	if kws, ok := r.table[strings.ToLower(topic)]; ok {
		out := make([]string, len(kws))
		copy(out, kws)
		return out
	}
	return []string{topic}
}

// Topics returns the configured topic names in sorted order.
func (r *Resolver) Topics() []string {
	topics := make([]string, 0, len(r.table))
	for t := range r.table {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
