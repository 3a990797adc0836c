package repository

import (
	"context"
	"sort"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
)

// ownershipRepository links mains to their alts from configuration.
type ownershipRepository struct {
	alts  map[entity.CharacterID][]entity.CharacterID
	mains map[entity.CharacterID]entity.CharacterID
}

func NewOwnership(links map[entity.CharacterID][]entity.CharacterID) *ownershipRepository {
	r := &ownershipRepository{
		alts:  make(map[entity.CharacterID][]entity.CharacterID, len(links)),
		mains: make(map[entity.CharacterID]entity.CharacterID),
	}
	for main, alts := range links {
		r.alts[main] = append([]entity.CharacterID(nil), alts...)
		r.mains[main] = main
		for _, alt := range alts {
			r.mains[alt] = main
		}
	}
	return r
}

func (r *ownershipRepository) Alts(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error) {
	alts, ok := r.alts[main]
	if !ok {
		return nil, &ledger.OwnershipNotLinkedError{CharacterID: main}
	}
	return alts, nil
}

// Mains lists the configured mains in ascending order.
func (r *ownershipRepository) Mains() []entity.CharacterID {
	out := make([]entity.CharacterID, 0, len(r.alts))
	for main := range r.alts {
		out = append(out, main)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MainOf returns the main owning character, the character itself when it
// is not linked.
func (r *ownershipRepository) MainOf(character entity.CharacterID) entity.CharacterID {
	if main, ok := r.mains[character]; ok {
		return main
	}
	return character
}
