package builder_test

import (
	"context"
	"testing"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregator"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/builder"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	concord  entity.EntityID      = 1000125
	npcCorp  entity.EntityID      = 1000132
	corpID   entity.CorporationID = 98000001
	otherCID entity.CorporationID = 98000002
)

var march = aggregate.Period{Year: 2024, Month: time.March}

type ownership map[entity.CharacterID][]entity.CharacterID

func (o ownership) Alts(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error) {
	alts, ok := o[main]
	if !ok {
		return nil, &ledger.OwnershipNotLinkedError{CharacterID: main}
	}
	return alts, nil
}

type failingOwnership struct{}

func (failingOwnership) Alts(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error) {
	return nil, errors.New("linkage table is corrupt")
}

func journal(owner entity.CharacterID, refType entity.RefType, amount int64, first, second entity.EntityID) aggregate.JournalRecord {
	return aggregate.JournalRecord{
		CharacterID:   owner,
		RefType:       refType,
		Amount:        decimal.NewFromInt(amount),
		FirstPartyID:  first,
		SecondPartyID: second,
		Date:          time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC),
	}
}

func corpJournal(corporation entity.CorporationID, refType entity.RefType, amount int64, first, second entity.EntityID) aggregate.JournalRecord {
	return aggregate.JournalRecord{
		CorporationID: corporation,
		DivisionID:    1,
		RefType:       refType,
		Amount:        decimal.NewFromInt(amount),
		FirstPartyID:  first,
		SecondPartyID: second,
		Date:          time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC),
	}
}

func newBuilder(t *testing.T, owners builder.OwnershipRepository) *builder.Builder {
	converter, err := tax.NewConverter(decimal.NewFromInt(40))
	require.NoError(t, err)
	return builder.New(zap.NewNop(), aggregator.New(reftype.Default), converter, owners)
}

func TestCharacterCostsOnlyExcludedButCounted(t *testing.T) {
	b := newBuilder(t, ownership{})
	in := builder.Input{
		Period: march,
		CharacterJournal: []aggregate.JournalRecord{
			journal(1001, "skill_purchase", -500, 1001, npcCorp),
		},
	}

	got, err := b.Character(context.Background(), in, []entity.CharacterID{1001})
	require.NoError(t, err)
	assert.Empty(t, got.Rows)
	assert.True(t, decimal.NewFromInt(-500).Equal(got.Total.Costs), got.Total.Costs.String())
	assert.True(t, got.Total.Total.IsZero())
	assert.Equal(t, "2024-03", got.Period)
}

func TestCharacterFoldsAltsAndConvertsESS(t *testing.T) {
	b := newBuilder(t, ownership{1001: {1002}})
	in := builder.Input{
		Period: march,
		CharacterJournal: []aggregate.JournalRecord{
			journal(1001, "bounty_prizes", 1000, concord, 1001),
			journal(1002, "bounty_prizes", 2000, concord, 1002),
			journal(1002, "skill_purchase", -300, 1002, npcCorp),
			journal(1001, "market_escrow", 50, 3003, 1001),
		},
		CorporationJournal: []aggregate.JournalRecord{
			corpJournal(corpID, "ess_escrow_transfer", 100, concord, 1002),
			corpJournal(corpID, "daily_goal_payouts", 40, concord, 1001),
			corpJournal(corpID, "ess_escrow_transfer", 900, concord, 4004),
		},
		Mining: []aggregate.MiningRecord{
			aggregate.NewMiningRecord(1002, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 1230, 30000142, 10),
		},
		Prices: aggregate.PriceBook{1230: decimal.NewFromInt(25)},
		Names:  aggregate.Names{1001: "Main Pilot"},
	}

	got, err := b.Character(context.Background(), in, []entity.CharacterID{1001})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)

	row := got.Rows[0]
	assert.Equal(t, entity.Name("Main Pilot"), row.Name)
	assert.Equal(t, []entity.CharacterID{1002}, row.Alts)
	assert.True(t, decimal.NewFromInt(3000).Equal(row.Bounty), row.Bounty.String())
	assert.True(t, decimal.NewFromInt(150).Equal(row.ESS), row.ESS.String())
	assert.True(t, decimal.NewFromInt(60).Equal(row.DailyGoal), row.DailyGoal.String())
	assert.True(t, decimal.NewFromInt(250).Equal(row.Mining), row.Mining.String())
	assert.True(t, decimal.NewFromInt(50).Equal(row.Misc), row.Misc.String())
	assert.True(t, decimal.NewFromInt(-300).Equal(row.Costs), row.Costs.String())
	assert.True(t, decimal.NewFromInt(3210).Equal(row.Total), row.Total.String())
}

func TestCharacterOwnershipErrors(t *testing.T) {
	in := builder.Input{
		Period: march,
		CharacterJournal: []aggregate.JournalRecord{
			journal(1001, "bounty_prizes", 1000, concord, 1001),
		},
	}

	got, err := newBuilder(t, ownership{}).Character(context.Background(), in, []entity.CharacterID{1001})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Empty(t, got.Rows[0].Alts)

	_, err = newBuilder(t, failingOwnership{}).Character(context.Background(), in, []entity.CharacterID{1001})
	assert.EqualError(t, err, "error resolving alts of character: 1001: linkage table is corrupt")
}

func TestCharacterReconcilesAndSorts(t *testing.T) {
	b := newBuilder(t, ownership{1001: nil, 1002: nil, 1003: nil})
	in := builder.Input{
		Period: march,
		CharacterJournal: []aggregate.JournalRecord{
			journal(1001, "bounty_prizes", 700, concord, 1001),
			journal(1002, "bounty_prizes", 400, concord, 1002),
			journal(1002, "structure_gate_jump", -100, 1002, 5005),
			journal(1003, "insurance", -1000, 1003, npcCorp),
			journal(1001, "bounty_prizes", 999, concord, 1001),
		},
		Names: aggregate.Names{1001: "bravo", 1002: "Alpha"},
	}
	// Outside of the period.
	late := journal(1001, "bounty_prizes", 5000, concord, 1001)
	late.Date = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	in.CharacterJournal = append(in.CharacterJournal, late)

	got, err := b.Character(context.Background(), in, []entity.CharacterID{1001, 1002, 1003, 1001})
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, entity.Name("Alpha"), got.Rows[0].Name)
	assert.Equal(t, entity.Name("bravo"), got.Rows[1].Name)

	sum := decimal.Zero
	for _, row := range got.Rows {
		sum = sum.Add(row.Total)
	}
	assert.True(t, sum.Equal(got.Total.Total), "%s != %s", sum, got.Total.Total)
	assert.True(t, decimal.NewFromInt(1999).Equal(got.Total.Total), got.Total.Total.String())
	assert.True(t, decimal.NewFromInt(-1100).Equal(got.Total.Costs), got.Total.Costs.String())
	assert.True(t, decimal.NewFromInt(2099).Equal(got.Balance.Income), got.Balance.Income.String())
}

func TestCharacterSkipsMiningOnlyMains(t *testing.T) {
	b := newBuilder(t, ownership{1001: nil, 1002: nil})
	in := builder.Input{
		Period: march,
		CharacterJournal: []aggregate.JournalRecord{
			journal(1001, "bounty_prizes", 100, concord, 1001),
		},
		Mining: []aggregate.MiningRecord{
			aggregate.NewMiningRecord(1002, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 1230, 30000142, 10),
		},
		Prices: aggregate.PriceBook{1230: decimal.NewFromInt(25)},
	}

	got, err := b.Character(context.Background(), in, []entity.CharacterID{1001, 1002})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, entity.EntityID(1001), got.Rows[0].ID)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Total.Total), got.Total.Total.String())
	assert.True(t, decimal.NewFromInt(250).Equal(got.Total.Mining), got.Total.Mining.String())
}

func TestCharacterSplitsESSBetweenMains(t *testing.T) {
	b := newBuilder(t, ownership{1001: {1002}, 2001: nil})
	late := corpJournal(corpID, "ess_escrow_transfer", 400, concord, 2001)
	late.Date = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	in := builder.Input{
		Period: march,
		CorporationJournal: []aggregate.JournalRecord{
			corpJournal(corpID, "ess_escrow_transfer", 100, concord, 1002),
			corpJournal(corpID, "ess_escrow_transfer", 20, concord, 2001),
			late,
		},
		Names: aggregate.Names{1001: "Alpha", 2001: "Bravo"},
	}

	got, err := b.Character(context.Background(), in, []entity.CharacterID{1001, 2001})
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.True(t, decimal.NewFromInt(150).Equal(got.Rows[0].ESS), got.Rows[0].ESS.String())
	assert.True(t, decimal.NewFromInt(30).Equal(got.Rows[1].ESS), got.Rows[1].ESS.String())
}

func TestCharacterRejectsMissingConverter(t *testing.T) {
	b := builder.New(zap.NewNop(), aggregator.New(nil), nil, nil)
	in := builder.Input{
		Period: march,
		CorporationJournal: []aggregate.JournalRecord{
			corpJournal(corpID, "ess_escrow_transfer", 100, concord, 1001),
		},
	}
	_, err := b.Character(context.Background(), in, []entity.CharacterID{1001})
	var cfgErr *tax.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCorporationAndAlliance(t *testing.T) {
	b := newBuilder(t, nil)
	in := builder.Input{
		Period: march,
		CorporationJournal: []aggregate.JournalRecord{
			corpJournal(corpID, "bounty_prizes", 100, concord, corpID.EntityID()),
			corpJournal(corpID, "ess_escrow_transfer", 40, concord, 1001),
			corpJournal(otherCID, "bounty_prizes", 60, concord, otherCID.EntityID()),
			corpJournal(otherCID, "office_rental_fee", -10, otherCID.EntityID(), npcCorp),
			corpJournal(98000003, "office_rental_fee", -70, 98000003, npcCorp),
		},
		Names: aggregate.Names{corpID.EntityID(): "Zulu Holdings"},
	}

	corporations := b.Corporation(in, nil)
	require.Len(t, corporations.Rows, 2)
	assert.Equal(t, entity.Name("Unknown"), corporations.Rows[0].Name)
	assert.True(t, decimal.NewFromInt(50).Equal(corporations.Rows[0].Total))
	assert.Equal(t, entity.Name("Zulu Holdings"), corporations.Rows[1].Name)
	// ESS stays at corporation level.
	assert.True(t, decimal.NewFromInt(40).Equal(corporations.Rows[1].ESS))
	assert.True(t, decimal.NewFromInt(-80).Equal(corporations.Total.Costs))
	assert.True(t, decimal.NewFromInt(190).Equal(corporations.Total.Total))

	one := b.Corporation(in, []entity.CorporationID{otherCID})
	require.Len(t, one.Rows, 1)
	assert.Equal(t, otherCID.EntityID(), one.Rows[0].ID)

	alliance := b.Alliance(in, []entity.CorporationID{corpID, 98000003})
	assert.Equal(t, aggregate.LedgerScopeAlliance, alliance.Scope)
	require.Len(t, alliance.Rows, 1)
	assert.True(t, decimal.NewFromInt(-70).Equal(alliance.Total.Costs))

	assert.Empty(t, b.Alliance(in, nil).Rows)
}
