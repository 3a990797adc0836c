package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reportPeriod string

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <ledger|billboard> <character|corporation|alliance> <id>",
	Short: "Print a ledger or billboard as JSON",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		if err := reportWrapper(log, args); err != nil {
			log.Fatal("error reporting", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportPeriod, "period", "p", "", "YYYY, YYYY-MM or YYYY-MM-DD, current month when empty")
}

func reportWrapper(log *zap.Logger, args []string) error {
	period := aggregate.CurrentMonth(time.Now())
	if reportPeriod != "" {
		var err error
		period, err = aggregate.ParsePeriod(reportPeriod)
		if err != nil {
			return err
		}
	}
	scope := aggregate.LedgerScope(args[1])
	id, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil {
		return errors.Wrapf(err, "invalid id: %q", args[2])
	}

	app, err := newApp(log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	var report interface{}
	switch args[0] {
	case "ledger":
		switch scope {
		case aggregate.LedgerScopeCharacter:
			report, err = app.accountantSvc.CharacterLedger(ctx, period, []entity.CharacterID{entity.CharacterID(id)})
		case aggregate.LedgerScopeCorporation:
			report, err = app.accountantSvc.CorporationLedger(ctx, period, []entity.CorporationID{entity.CorporationID(id)})
		case aggregate.LedgerScopeAlliance:
			report, err = app.accountantSvc.AllianceLedger(ctx, period, entity.AllianceID(id))
		default:
			return errors.Errorf("unknown scope: %q", scope)
		}
	case "billboard":
		report, err = app.accountantSvc.Billboard(ctx, ledger.BillboardRequest{
			Scope:  scope,
			ID:     entity.EntityID(id),
			Period: period,
		})
	default:
		return errors.Errorf("unknown report: %q", args[0])
	}
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(report), "error encoding report")
}
