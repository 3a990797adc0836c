package esi

import (
	"context"
	"net/http"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/antihax/goesi"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// namesChunkSize is the most ids /universe/names/ accepts per call.
const namesChunkSize = 500

// publicRepository serves the ESI endpoints that need no token.
type publicRepository struct {
	log *zap.Logger
	esi *goesi.APIClient
}

func NewPublic(log *zap.Logger, client *http.Client) *publicRepository {
	return &publicRepository{
		log: log,
		esi: goesi.NewAPIClient(client, userAgent),
	}
}

// ResolveNames resolves ids in chunks. The result may be shorter than ids
// when ESI does not know some of them.
func (r *publicRepository) ResolveNames(ctx context.Context, ids []entity.EntityID) ([]aggregate.EveEntity, error) {
	out := make([]aggregate.EveEntity, 0, len(ids))
	for start := 0; start < len(ids); start += namesChunkSize {
		end := start + namesChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := make([]int32, 0, end-start)
		for _, id := range ids[start:end] {
			chunk = append(chunk, int32(id))
		}
		names, resp, err := r.esi.ESI.UniverseApi.PostUniverseNames(ctx, chunk, nil)
		if err != nil {
			return nil, errors.Wrap(classify(resp, err), "unable to resolve names")
		}
		for _, name := range names {
			out = append(out, aggregate.EveEntity{
				ID:       entity.EntityID(name.Id),
				Category: entity.EntityCategory(name.Category),
				Name:     entity.Name(name.Name),
			})
		}
	}
	r.log.Debug("names resolved", zap.Int("requested", len(ids)), zap.Int("resolved", len(out)))
	return out, nil
}

// AveragePrices returns the market average price of every traded type.
func (r *publicRepository) AveragePrices(ctx context.Context) (aggregate.PriceBook, error) {
	prices, resp, err := r.esi.ESI.MarketApi.GetMarketsPrices(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(classify(resp, err), "unable to get market prices")
	}
	out := make(aggregate.PriceBook, len(prices))
	for _, price := range prices {
		if price.AveragePrice == 0 {
			continue
		}
		out[entity.TypeID(price.TypeId)] = decimal.NewFromFloat(price.AveragePrice)
	}
	return out, nil
}

func (r *publicRepository) AllianceCorporations(ctx context.Context, allianceID entity.AllianceID) ([]entity.CorporationID, error) {
	ids, resp, err := r.esi.ESI.AllianceApi.GetAlliancesAllianceIdCorporations(ctx, int32(allianceID), nil)
	if err != nil {
		return nil, errors.Wrapf(classify(resp, err), "unable to get corporations of alliance: %d", allianceID)
	}
	out := make([]entity.CorporationID, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.CorporationID(id))
	}
	return out, nil
}
