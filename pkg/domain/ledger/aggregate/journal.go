package aggregate

import (
	"fmt"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/shopspring/decimal"
)

// Scope owns journal records: either a character or a corporation wallet division.
type Scope struct {
	CharacterID   entity.CharacterID
	CorporationID entity.CorporationID
	DivisionID    entity.DivisionID
}

func CharacterScope(id entity.CharacterID) Scope {
	return Scope{CharacterID: id}
}

func CorporationScope(id entity.CorporationID, division entity.DivisionID) Scope {
	return Scope{CorporationID: id, DivisionID: division}
}

func (s Scope) IsCorporation() bool {
	return s.CharacterID == 0 && s.CorporationID != 0
}

func (s Scope) String() string {
	if s.IsCorporation() {
		return fmt.Sprintf("corporation:%d:%d", s.CorporationID, s.DivisionID)
	}
	return fmt.Sprintf("character:%d", s.CharacterID)
}

type JournalRecord struct {
	ID            entity.JournalID       `storm:"id"`    /* Unique journal reference ID, unique within its Scope */
	CharacterID   entity.CharacterID     `storm:"index"` /* Owning character, zero for corporation records */
	CorporationID entity.CorporationID   `storm:"index"` /* Owning corporation, zero for character records */
	DivisionID    entity.DivisionID      /* Corporation wallet division */
	Amount        decimal.Decimal        /* Positive when ISK is deposited into the wallet and negative when ISK is withdrawn */
	Balance       decimal.Decimal        /* Wallet balance after transaction occurred, informational only */
	ContextID     entity.ContextID       /* Extra context for the transaction, meaning differs per ref_type */
	ContextIDType entity.ContextIDType   /* The type of the given context_id if present */
	Date          time.Time              `storm:"index"` /* Date and time of transaction */
	Description   entity.Description     /* The reason for the transaction, mirrors what is seen in the client */
	FirstPartyID  entity.EntityID        `storm:"index"` /* The id of the first party involved in the transaction */
	Reason        entity.Reason          /* The user stated reason for the transaction. Only applies to some ref_types */
	RefType       entity.RefType         `storm:"index"` /* The transaction type, see reftype.Taxonomy */
	SecondPartyID entity.EntityID        `storm:"index"` /* The id of the second party involved in the transaction */
	Tax           decimal.Decimal        /* Tax amount received. Only applies to tax related transactions */
	TaxReceiverID entity.EntityID        /* The corporation ID receiving any tax paid */
}

func (r JournalRecord) Scope() Scope {
	if r.CharacterID != 0 {
		return CharacterScope(r.CharacterID)
	}
	return CorporationScope(r.CorporationID, r.DivisionID)
}

// PartyIDs lists the non-zero entity ids the record references.
func (r JournalRecord) PartyIDs() []entity.EntityID {
	var ids []entity.EntityID
	for _, id := range []entity.EntityID{r.FirstPartyID, r.SecondPartyID, r.TaxReceiverID} {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// MiningKey is the natural key of a mining record: day, type, character and system.
type MiningKey string

func NewMiningKey(date time.Time, typeID entity.TypeID, characterID entity.CharacterID, systemID entity.SystemID) MiningKey {
	return MiningKey(fmt.Sprintf("%s-%d-%d-%d", date.UTC().Format("20060102"), typeID, characterID, systemID))
}

type MiningRecord struct {
	Key         MiningKey          `storm:"id"`
	CharacterID entity.CharacterID `storm:"index"`
	Date        time.Time          `storm:"index"` /* Day granularity */
	TypeID      entity.TypeID      `storm:"index"`
	SystemID    entity.SystemID
	Quantity    entity.Quantity /* Mutable, later syncs may revise the same key */
}

// NewMiningRecord truncates the date to the day and derives the natural key.
func NewMiningRecord(characterID entity.CharacterID, date time.Time, typeID entity.TypeID, systemID entity.SystemID, quantity entity.Quantity) MiningRecord {
	y, m, d := date.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return MiningRecord{
		Key:         NewMiningKey(day, typeID, characterID, systemID),
		CharacterID: characterID,
		Date:        day,
		TypeID:      typeID,
		SystemID:    systemID,
		Quantity:    quantity,
	}
}

// PriceBook maps a type to its average market price.
type PriceBook map[entity.TypeID]decimal.Decimal

// Value is quantity × average price; unknown prices are worth nothing.
func (p PriceBook) Value(record MiningRecord) decimal.Decimal {
	price, ok := p[record.TypeID]
	if !ok {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(record.Quantity)))
}
