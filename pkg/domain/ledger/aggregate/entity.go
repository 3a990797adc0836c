package aggregate

import "github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

type EveEntity struct {
	ID       entity.EntityID       `storm:"id"`
	Category entity.EntityCategory `storm:"index"`
	Name     entity.Name
}

type Names map[entity.EntityID]entity.Name

// Name returns the display name for id, or entity.UnknownName.
func (n Names) Name(id entity.EntityID) entity.Name {
	name, ok := n[id]
	if !ok || name == "" {
		return entity.UnknownName
	}
	return name
}

func NamesFromEntities(entities []EveEntity) Names {
	names := make(Names, len(entities))
	for _, e := range entities {
		names[e.ID] = e.Name
	}
	return names
}

type Division struct {
	ID   entity.DivisionID
	Name entity.DivisionName
}
