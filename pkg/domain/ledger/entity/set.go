package entity

import "sort"

// EntitySet is a set of party ids. An empty set means "no filter".
type EntitySet map[EntityID]struct{}

func NewEntitySet(ids ...EntityID) EntitySet {
	set := make(EntitySet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func CharacterSet(ids ...CharacterID) EntitySet {
	set := make(EntitySet, len(ids))
	for _, id := range ids {
		set[id.EntityID()] = struct{}{}
	}
	return set
}

func (s EntitySet) Empty() bool {
	return len(s) == 0
}

func (s EntitySet) Has(id EntityID) bool {
	_, ok := s[id]
	return ok
}

// Matches reports whether id passes the filter; empty set matches everything.
func (s EntitySet) Matches(id EntityID) bool {
	if s.Empty() {
		return true
	}
	return s.Has(id)
}

// IDs returns the members in ascending order.
func (s EntitySet) IDs() []EntityID {
	out := make([]EntityID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type RefTypeSet map[RefType]struct{}

func NewRefTypeSet(refTypes ...RefType) RefTypeSet {
	set := make(RefTypeSet, len(refTypes))
	for _, refType := range refTypes {
		set[refType] = struct{}{}
	}
	return set
}

func (s RefTypeSet) Has(refType RefType) bool {
	_, ok := s[refType]
	return ok
}

func (s RefTypeSet) Slice() []RefType {
	out := make([]RefType, 0, len(s))
	for refType := range s {
		out = append(out, refType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
