package eval

import (
	"sort"

	"github.com/edp1096/toy-spice-parser/pkg/netlist"
)

// Scope maps parameter names to values. A lookup that misses locally falls
// through to the parent; Set only ever writes the local map, so a child
// can shadow a parent binding without changing it.
type Scope struct {
	parent        *Scope
	values        map[string]float64
	caseSensitive bool
}

func NewScope(caseSensitive bool) *Scope {
	return &Scope{values: map[string]float64{}, caseSensitive: caseSensitive}
}

// Child returns an empty scope whose lookups fall through to s.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, values: map[string]float64{}, caseSensitive: s.caseSensitive}
}

func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) key(name string) string {
	return netlist.Key(name, s.caseSensitive)
}

func (s *Scope) Set(name string, v float64) {
	s.values[s.key(name)] = v
}

func (s *Scope) Lookup(name string) (float64, bool) {
	k := s.key(name)
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.values[k]; ok {
			return v, true
		}
	}
	return 0, false
}

// HasLocal reports whether name is bound in s itself.
func (s *Scope) HasLocal(name string) bool {
	_, ok := s.values[s.key(name)]
	return ok
}

// Names returns the locally bound names, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
