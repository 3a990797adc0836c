package entity

type CharacterID int32
type CorporationID int32
type AllianceID int32
type DivisionID int32
type DivisionName string

// EntityID is any character, corporation or alliance id referenced as a
// transaction party.
type EntityID int32

type JournalID int64
type RefType string
type ContextID int64
type ContextIDType string
type Description string
type Reason string

type TypeID int32
type SystemID int32
type Quantity int64

type Name string

// EntityCategory as reported by /universe/names/.
type EntityCategory string

const (
	CategoryCharacter   EntityCategory = "character"
	CategoryCorporation EntityCategory = "corporation"
	CategoryAlliance    EntityCategory = "alliance"
)

// UnknownName is shown for entities the name store could not resolve.
const UnknownName Name = "Unknown"

func (id CharacterID) EntityID() EntityID   { return EntityID(id) }
func (id CorporationID) EntityID() EntityID { return EntityID(id) }
func (id AllianceID) EntityID() EntityID    { return EntityID(id) }
