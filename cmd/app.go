package cmd

import (
	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/ingest"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/reftype"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/repository"
	ledgerExternalRepository "github.com/lunemec/eve-ledger/pkg/domain/ledger/repository/external/esi"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/repository/lock"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/tax"
	discordHandler "github.com/lunemec/eve-ledger/pkg/handlers/discord"
	accountantService "github.com/lunemec/eve-ledger/pkg/services/accountant"
	authRepository "github.com/lunemec/eve-bot-pkg/repositories/auth"
	authService "github.com/lunemec/eve-bot-pkg/services/auth"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds everything the commands share.
type app struct {
	log           *zap.Logger
	store         interface{ Close() error }
	authServices  []authService.Service
	redis         *redis.Client
	accountantSvc accountantService.Service
	locker        lock.Locker
	scope         discordHandler.Scope
}

// newApp wires the stores, the ESI repositories and the services. A bad
// corporation tax percent is fatal here, before anything syncs or reports.
func newApp(log *zap.Logger) (*app, error) {
	converter, err := tax.NewConverter(decimal.NewFromFloat(viper.GetFloat64("corp_tax_percent")))
	if err != nil {
		return nil, errors.Wrap(err, "invalid corp_tax_percent")
	}
	links, err := ownershipLinks()
	if err != nil {
		return nil, err
	}

	client := httpClient()
	store, err := repository.Open(viper.GetString("db_file"))
	if err != nil {
		return nil, err
	}
	a := &app{log: log, store: store}

	public := ledgerExternalRepository.NewPublic(log, client)
	seenCorporations := make(map[entity.CorporationID]struct{})
	var jobs []accountantService.Job
	for _, authfile := range viper.GetStringSlice("auth_files") {
		authRepository := authRepository.NewFileRepository(authfile)
		authService := authService.NewService(
			log,
			client,
			authRepository,
			[]byte(viper.GetString("session_key")),
			viper.GetString("eve_client_id"),
			viper.GetString("eve_sso_secret"),
			eveCallbackURL,
			eveScopes,
		)
		a.authServices = append(a.authServices, authService)
		esiRepository, err := ledgerExternalRepository.New(log, client, authService, store)
		if err != nil {
			a.Close()
			return nil, errors.Wrapf(err, "error initializing ESI repository from: %s", authfile)
		}
		jobs = append(jobs, ingest.NewJob(log, esiRepository, store, public, viper.GetDuration("stale_after")))

		if _, ok := seenCorporations[esiRepository.CorporationID()]; !ok {
			seenCorporations[esiRepository.CorporationID()] = struct{}{}
			a.scope.Corporations = append(a.scope.Corporations, esiRepository.CorporationID())
		}
	}
	if len(a.scope.Corporations) > 0 {
		a.scope.CorporationID = a.scope.Corporations[0]
	}

	ownership := repository.NewOwnership(links)
	a.scope.Mains = ownership.Mains()
	a.scope.AllianceID = entity.AllianceID(viper.GetInt32("alliance_id"))

	ledgerSvc := ledger.NewService(log, store, public, public, ownership, converter, reftype.Default)
	a.accountantSvc = accountantService.New(log, ledgerSvc, jobs...)

	if addr := viper.GetString("redis_addr"); addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: addr})
		a.locker = lock.NewRedis(log, a.redis, viper.GetDuration("lock_ttl"))
	} else {
		a.locker = lock.NewMemory()
	}
	return a, nil
}

// Close saves refreshed tokens and closes the stores.
func (a *app) Close() {
	for _, authService := range a.authServices {
		_, err := authService.Token()
		if err != nil {
			a.log.Error("error refreshing and saving auth token", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("error closing redis client", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Error("error closing database", zap.Error(err))
	}
}
