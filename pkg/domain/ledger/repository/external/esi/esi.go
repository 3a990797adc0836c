package esi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	authService "github.com/lunemec/eve-bot-pkg/services/auth"

	"github.com/antihax/goesi"
	"github.com/antihax/goesi/esi"
	"github.com/antihax/goesi/optional"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const userAgent = "EVE Ledger"

// ETagStore persists the last ETag seen per operation.
type ETagStore interface {
	ETag(ctx context.Context, operation string) (string, error)
	SetETag(ctx context.Context, operation, etag string) error
}

type repository struct {
	log         *zap.Logger
	authService authService.Service
	etags       ETagStore

	esi *goesi.APIClient

	characterID   entity.CharacterID
	corporationID entity.CorporationID
}

func New(log *zap.Logger, client *http.Client, authService authService.Service, etags ETagStore) (*repository, error) {
	v, err := authService.Verify()
	if err != nil {
		return nil, errors.Wrap(err, "token verify error")
	}

	esi := goesi.NewAPIClient(client, userAgent)
	ctx := context.WithValue(context.Background(), goesi.ContextOAuth2, authService)

	characterInfo, _, err := esi.ESI.CharacterApi.GetCharactersCharacterId(ctx, v.CharacterID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to get character public info")
	}
	log.Info("ESI Repository initialized",
		zap.Int32("character_id", v.CharacterID),
		zap.String("character", characterInfo.Name),
		zap.Int32("corporation_id", characterInfo.CorporationId),
	)
	return &repository{
		log:           log,
		authService:   authService,
		etags:         etags,
		esi:           esi,
		characterID:   entity.CharacterID(v.CharacterID),
		corporationID: entity.CorporationID(characterInfo.CorporationId),
	}, nil
}

func (r *repository) CharacterID() entity.CharacterID {
	return r.characterID
}

func (r *repository) CorporationID() entity.CorporationID {
	return r.corporationID
}

func (r *repository) auth(ctx context.Context) context.Context {
	return context.WithValue(ctx, goesi.ContextOAuth2, r.authService)
}

// WalletDivisions lists the corporation wallet divisions. A character
// without the accountant role gets an empty list.
func (r *repository) WalletDivisions(ctx context.Context) ([]aggregate.Division, error) {
	esiDivisions, resp, err := r.esi.ESI.CorporationApi.GetCorporationsCorporationIdDivisions(
		r.auth(ctx),
		int32(r.corporationID),
		nil,
	)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			r.log.Info("character may not read corporation divisions", zap.Int32("character_id", int32(r.characterID)))
			return nil, nil
		}
		return nil, errors.Wrap(classify(resp, err), "unable to get corporation divisions")
	}
	divisions := make([]aggregate.Division, 0, len(esiDivisions.Wallet))
	for _, division := range esiDivisions.Wallet {
		divisions = append(divisions,
			aggregate.Division{
				ID:   entity.DivisionID(division.Division),
				Name: entity.DivisionName(division.Name),
			},
		)
	}
	return divisions, nil
}

func (r *repository) CharacterJournal(ctx context.Context, force bool, fn ledger.PageFunc[aggregate.JournalRecord]) error {
	operation := fmt.Sprintf("esi:character_journal:%d", r.characterID)
	return paginate(ctx, r.etags, operation, force, func(page int32, etag string) ([]aggregate.JournalRecord, *http.Response, error) {
		opts := &esi.GetCharactersCharacterIdWalletJournalOpts{Page: optional.NewInt32(page)}
		if etag != "" {
			opts.IfNoneMatch = optional.NewString(etag)
		}
		journal, resp, err := r.esi.ESI.WalletApi.GetCharactersCharacterIdWalletJournal(r.auth(ctx), int32(r.characterID), opts)
		if err != nil {
			return nil, resp, err
		}
		out := make([]aggregate.JournalRecord, 0, len(journal))
		for _, in := range journal {
			out = append(out, mapCharacterJournalToAggregateJournalRecord(r.characterID, in))
		}
		return out, resp, nil
	}, fn)
}

func (r *repository) CorporationJournal(ctx context.Context, division aggregate.Division, force bool, fn ledger.PageFunc[aggregate.JournalRecord]) error {
	operation := fmt.Sprintf("esi:corporation_journal:%d:%d", r.corporationID, division.ID)
	err := paginate(ctx, r.etags, operation, force, func(page int32, etag string) ([]aggregate.JournalRecord, *http.Response, error) {
		opts := &esi.GetCorporationsCorporationIdWalletsDivisionJournalOpts{Page: optional.NewInt32(page)}
		if etag != "" {
			opts.IfNoneMatch = optional.NewString(etag)
		}
		journal, resp, err := r.esi.ESI.WalletApi.GetCorporationsCorporationIdWalletsDivisionJournal(
			r.auth(ctx),
			int32(r.corporationID),
			int32(division.ID),
			opts,
		)
		if err != nil {
			return nil, resp, err
		}
		out := make([]aggregate.JournalRecord, 0, len(journal))
		for _, in := range journal {
			out = append(out, mapWalletsDivisionJournalToAggregateJournalRecord(r.corporationID, division.ID, in))
		}
		return out, resp, nil
	}, fn)
	if err != nil && !errors.Is(err, ledger.ErrNotModified) {
		return errors.Wrapf(err, "unable to get wallet journal for division: %s (%d)", division.Name, division.ID)
	}
	return err
}

func (r *repository) CharacterMining(ctx context.Context, force bool, fn ledger.PageFunc[aggregate.MiningRecord]) error {
	operation := fmt.Sprintf("esi:character_mining:%d", r.characterID)
	return paginate(ctx, r.etags, operation, force, func(page int32, etag string) ([]aggregate.MiningRecord, *http.Response, error) {
		opts := &esi.GetCharactersCharacterIdMiningOpts{Page: optional.NewInt32(page)}
		if etag != "" {
			opts.IfNoneMatch = optional.NewString(etag)
		}
		mining, resp, err := r.esi.ESI.IndustryApi.GetCharactersCharacterIdMining(r.auth(ctx), int32(r.characterID), opts)
		if err != nil {
			return nil, resp, err
		}
		out := make([]aggregate.MiningRecord, 0, len(mining))
		for _, in := range mining {
			day, err := parseDay(fmt.Sprint(in.Date))
			if err != nil {
				return nil, resp, err
			}
			out = append(out, aggregate.NewMiningRecord(
				r.characterID,
				day,
				entity.TypeID(in.TypeId),
				entity.SystemID(in.SolarSystemId),
				entity.Quantity(in.Quantity),
			))
		}
		return out, resp, nil
	}, fn)
}

type fetchPage[T any] func(page int32, etag string) ([]T, *http.Response, error)

// paginate reads pages strictly in order, following X-Pages. Only page one
// is sent conditionally; its ETag is saved once every page was handled.
func paginate[T any](ctx context.Context, etags ETagStore, operation string, force bool, fetch fetchPage[T], fn ledger.PageFunc[T]) error {
	var etag string
	if !force && etags != nil {
		var err error
		etag, err = etags.ETag(ctx, operation)
		if err != nil {
			return errors.Wrap(err, "error loading etag")
		}
	}

	records, resp, err := fetch(1, etag)
	if err != nil {
		return classify(resp, err)
	}
	if !force && resp.Header.Get(httpcache.XFromCache) == "1" {
		return ledger.ErrNotModified
	}
	pages := 1
	if header := resp.Header.Get("X-Pages"); header != "" {
		pages, err = strconv.Atoi(header)
		if err != nil {
			return errors.Wrap(err, "error converting X-Pages to integer")
		}
	}
	newETag := resp.Header.Get("ETag")

	err = fn(1, records)
	if err != nil {
		return err
	}
	// Fetch additional pages if any (starting page above is 1).
	for i := 2; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		records, resp, err := fetch(int32(i), "")
		if err != nil {
			return errors.Wrapf(classify(resp, err), "unable to get page: %d", i)
		}
		err = fn(i, records)
		if err != nil {
			return err
		}
	}

	if etags != nil && newETag != "" {
		err = etags.SetETag(ctx, operation, newETag)
		if err != nil {
			return errors.Wrap(err, "error saving etag")
		}
	}
	return nil
}

// classify turns a failed ESI call into one of the ledger error kinds.
func classify(resp *http.Response, err error) error {
	switch {
	case resp != nil && resp.StatusCode == http.StatusNotModified:
		return ledger.ErrNotModified
	case resp != nil && ledger.IsTransientStatus(resp.StatusCode):
		return &ledger.TransientFetchError{StatusCode: resp.StatusCode, Err: err}
	case resp == nil:
		return &ledger.TransientFetchError{Err: err}
	}
	return errors.Wrapf(err, "ESI responded with HTTP %d", resp.StatusCode)
}

// parseDay accepts both a bare date and a formatted time, ESI reports
// mining days without a time part.
func parseDay(in string) (time.Time, error) {
	if len(in) < len("2006-01-02") {
		return time.Time{}, errors.Errorf("invalid mining date: %q", in)
	}
	day, err := time.Parse("2006-01-02", in[:len("2006-01-02")])
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid mining date: %q", in)
	}
	return day, nil
}

func mapCharacterJournalToAggregateJournalRecord(characterID entity.CharacterID, in esi.GetCharactersCharacterIdWalletJournal200Ok) aggregate.JournalRecord {
	return aggregate.JournalRecord{
		ID:            entity.JournalID(in.Id),
		CharacterID:   characterID,
		Amount:        decimal.NewFromFloat(in.Amount),
		Balance:       decimal.NewFromFloat(in.Balance),
		ContextID:     entity.ContextID(in.ContextId),
		ContextIDType: entity.ContextIDType(in.ContextIdType),
		Date:          in.Date.UTC(),
		Description:   entity.Description(in.Description),
		FirstPartyID:  entity.EntityID(in.FirstPartyId),
		Reason:        entity.Reason(in.Reason),
		RefType:       entity.RefType(in.RefType),
		SecondPartyID: entity.EntityID(in.SecondPartyId),
		Tax:           decimal.NewFromFloat(in.Tax),
		TaxReceiverID: entity.EntityID(in.TaxReceiverId),
	}
}

func mapWalletsDivisionJournalToAggregateJournalRecord(corporationID entity.CorporationID, division entity.DivisionID, in esi.GetCorporationsCorporationIdWalletsDivisionJournal200Ok) aggregate.JournalRecord {
	return aggregate.JournalRecord{
		ID:            entity.JournalID(in.Id),
		CorporationID: corporationID,
		DivisionID:    division,
		Amount:        decimal.NewFromFloat(in.Amount),
		Balance:       decimal.NewFromFloat(in.Balance),
		ContextID:     entity.ContextID(in.ContextId),
		ContextIDType: entity.ContextIDType(in.ContextIdType),
		Date:          in.Date.UTC(),
		Description:   entity.Description(in.Description),
		FirstPartyID:  entity.EntityID(in.FirstPartyId),
		Reason:        entity.Reason(in.Reason),
		RefType:       entity.RefType(in.RefType),
		SecondPartyID: entity.EntityID(in.SecondPartyId),
		Tax:           decimal.NewFromFloat(in.Tax),
		TaxReceiverID: entity.EntityID(in.TaxReceiverId),
	}
}
