package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	schedulerHandler "github.com/lunemec/eve-ledger/pkg/handlers/scheduler"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var syncForce bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync every target once and exit",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		if err := syncWrapper(log); err != nil {
			log.Fatal("error syncing", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "ignore ETags and the staleness window")
}

func syncWrapper(log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(log)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler := schedulerHandler.New(
		ctx,
		log,
		"",
		viper.GetInt("sync_workers"),
		app.accountantSvc,
		app.locker,
		func(notification aggregate.SyncNotification) {
			log.Warn("sync aborted before writing",
				zap.String("target", notification.Target),
				zap.Error(notification.Err),
			)
		},
	)
	summary, err := scheduler.SyncAll(ctx, syncForce)
	if err != nil {
		return err
	}
	log.Info("sync finished",
		zap.Int("targets", summary.Targets),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("entities", summary.Entities),
		zap.Int("locked", summary.Locked),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		return errors.Errorf("%d of %d targets failed", summary.Failed, summary.Targets)
	}
	return nil
}
