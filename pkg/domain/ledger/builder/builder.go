// Package builder assembles per-entity ledgers (characters, corporations,
// alliances) from journal rows and reconciles their grand totals.
package builder

import (
	"context"
	"sort"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregator"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// OwnershipRepository returns the alts linked to a main.
type OwnershipRepository interface {
	Alts(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error)
}

// Input is the already fetched data a ledger is built from.
type Input struct {
	Period             aggregate.Period
	CharacterJournal   []aggregate.JournalRecord
	CorporationJournal []aggregate.JournalRecord
	Mining             []aggregate.MiningRecord
	Prices             aggregate.PriceBook
	Names              aggregate.Names
}

type Builder struct {
	log        *zap.Logger
	aggregator *aggregator.Aggregator
	converter  *tax.Converter
	ownership  OwnershipRepository
}

func New(log *zap.Logger, aggregator *aggregator.Aggregator, converter *tax.Converter, ownership OwnershipRepository) *Builder {
	return &Builder{
		log:        log,
		aggregator: aggregator,
		converter:  converter,
		ownership:  ownership,
	}
}

// notLinked is implemented by ownership errors for characters without
// main/alt linkage.
type notLinked interface {
	NotLinked() bool
}

// alts resolves the alts of main. A character without linkage is treated as
// having no alts; any other failure is returned.
func (b *Builder) alts(ctx context.Context, main entity.CharacterID) ([]entity.CharacterID, error) {
	if b.ownership == nil {
		return nil, nil
	}
	alts, err := b.ownership.Alts(ctx, main)
	if err != nil {
		var nl notLinked
		if errors.As(err, &nl) && nl.NotLinked() {
			b.log.Debug("character has no ownership linkage, using no alts", zap.Int32("character_id", int32(main)))
			return nil, nil
		}
		return nil, errors.Wrapf(err, "error resolving alts of character: %d", main)
	}
	return alts, nil
}

func filterJournal(rows []aggregate.JournalRecord, period aggregate.Period, keep func(aggregate.JournalRecord) bool) []aggregate.JournalRecord {
	var out []aggregate.JournalRecord
	for _, row := range rows {
		if !period.Contains(row.Date) {
			continue
		}
		if keep != nil && !keep(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func filterMining(rows []aggregate.MiningRecord, period aggregate.Period, characters entity.EntitySet) []aggregate.MiningRecord {
	var out []aggregate.MiningRecord
	for _, row := range rows {
		if period.Contains(row.Date) && characters.Matches(row.CharacterID.EntityID()) {
			out = append(out, row)
		}
	}
	return out
}

// finish applies the emission rule, reconciles the grand total and orders
// rows by display name.
func finish(scope aggregate.LedgerScope, period aggregate.Period, all []aggregate.LedgerRow, balance aggregate.Balance) *aggregate.Ledger {
	var (
		grand aggregate.Total
		rows  = make([]aggregate.LedgerRow, 0, len(all))
	)
	for _, row := range all {
		grand = grand.Add(row.AsTotal())
		if row.Emitted() {
			rows = append(rows, row)
		}
	}
	grand = grand.Reconcile(rows)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID < rows[j].ID
	})

	return &aggregate.Ledger{
		Scope:   scope,
		Period:  period.String(),
		Rows:    rows,
		Total:   grand,
		Balance: balance,
	}
}
