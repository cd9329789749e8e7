// Package concept defines concept identifiers, preferred-label normalization
// and concept sets shared by the graph, the similarity engine and the overlay.
package concept

import (
	"sort"
	"strings"
)

// DefaultNamespace is the IRI prefix concepts are minted under when the
// configuration does not name another one.
const DefaultNamespace = "http://usi/"

// ID is an opaque, globally unique concept identifier (an IRI).
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// LocalName returns the part of the IRI after the last '/' or '#'.
//
// Examples:
//   - "http://usi/D009014" -> "D009014"
//   - "http://example.org/onto#Ethics" -> "Ethics"
func (id ID) LocalName() string {
	s := string(id)
	if i := strings.LastIndexAny(s, "/#"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// NewID mints an identifier in the given namespace.
//
// The namespace is normalized to end in '/' unless it already ends in '/' or
// '#'. An empty namespace uses DefaultNamespace. Returns "" for an empty
// local name.
func NewID(namespace, localName string) ID {
	localName = strings.TrimSpace(localName)
	if localName == "" {
		return ""
	}
	return ID(NormalizeNamespace(namespace) + localName)
}

// NormalizeNamespace trims the namespace and makes sure it ends in a separator.
func NormalizeNamespace(namespace string) string {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return DefaultNamespace
	}
	if strings.HasSuffix(namespace, "/") || strings.HasSuffix(namespace, "#") {
		return namespace
	}
	return namespace + "/"
}

// Resolve turns a configured reference into an identifier: full IRIs are kept
// as they are, bare local names are minted in namespace.
func Resolve(namespace, ref string) ID {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "://") {
		return ID(ref)
	}
	return NewID(namespace, ref)
}

// NormalizeLabel returns the lookup key for a preferred label: trimmed and
// lower-cased.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Set is an unordered set of concepts.
type Set map[ID]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id and reports whether it was absent.
func (s Set) Add(id ID) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports membership.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Remove deletes id from the set.
func (s Set) Remove(id ID) {
	delete(s, id)
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Pop removes and returns an arbitrary member. The second result is false
// when the set is empty.
func (s Set) Pop() (ID, bool) {
	for id := range s {
		delete(s, id)
		return id, true
	}
	return "", false
}

// IsSupersetOf reports whether every member of other is in s.
func (s Set) IsSupersetOf(other Set) bool {
	for id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the members as sorted strings, the form used on the wire.
func (s Set) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, id := range sorted {
		out[i] = string(id)
	}
	return out
}

// FromStrings builds a set from wire identifiers, skipping blanks.
func FromStrings(values []string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s.Add(ID(v))
		}
	}
	return s
}
