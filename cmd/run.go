package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	apiHandler "github.com/lunemec/eve-ledger/pkg/handlers/api"
	discordHandler "github.com/lunemec/eve-ledger/pkg/handlers/discord"
	schedulerHandler "github.com/lunemec/eve-ledger/pkg/handlers/scheduler"

	"github.com/braintree/manners"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/tomb.v2"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the discord bot, the sync scheduler and the report API",
	Run:   runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("discord_channel_id", "", "ID of discord channel")
	runCmd.Flags().String("discord_auth_token", "", "Auth token for discord")
	runCmd.Flags().String("sync_schedule", "@every 30m", "cron schedule of the sync rounds")
	runCmd.Flags().String("http_addr", ":8080", "address of the report API")

	must(viper.BindPFlags(runCmd.Flags()))
}

func runBot(cmd *cobra.Command, args []string) {
	log := newLogger()
	err := runWrapper(log, cmd, args)
	if err != nil {
		log.Fatal("error running bot", zap.Error(err))
	}
}

func runWrapper(log *zap.Logger, cmd *cobra.Command, args []string) error {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	for _, key := range []string{"session_key", "eve_client_id", "eve_sso_secret", "discord_channel_id", "discord_auth_token"} {
		if viper.GetString(key) == "" {
			return errors.Errorf("missing required config: %s", key)
		}
	}

	app, err := newApp(log)
	if err != nil {
		return err
	}
	defer app.Close()

	discord, err := discordgo.New("Bot " + viper.GetString("discord_auth_token"))
	if err != nil {
		return errors.Wrap(err, "error inicializing discord client")
	}
	err = discord.Open()
	if err != nil {
		return errors.Wrap(err, "unable to connect to discord")
	}
	defer discord.Close()

	var t tomb.Tomb
	discordHandler := discordHandler.New(
		t.Context(nil),
		log,
		discord,
		viper.GetString("discord_channel_id"),
		app.scope,
		app.accountantSvc,
	)
	schedulerHandler := schedulerHandler.New(
		t.Context(nil),
		log,
		viper.GetString("sync_schedule"),
		viper.GetInt("sync_workers"),
		app.accountantSvc,
		app.locker,
		discordHandler.SyncFailedMessage,
	)
	server := manners.NewWithServer(&http.Server{
		Addr:    viper.GetString("http_addr"),
		Handler: apiHandler.New(log, app.accountantSvc).Routes(),
	})

	t.Go(func() error {
		discordHandler.Start()
		return nil
	})
	t.Go(schedulerHandler.Start)
	t.Go(func() error {
		log.Info("API handler started.", zap.String("addr", viper.GetString("http_addr")))
		return errors.Wrap(server.ListenAndServe(), "error serving API")
	})
	t.Go(func() error {
		<-t.Dying()
		server.Close()
		return nil
	})

	select {
	case <-t.Dying():
	case <-signalChan:
		t.Kill(nil)
	}
	t.Wait()

	// systemd handles reload, so we can panic on error.
	err = t.Err()
	if err != nil {
		return errors.Wrapf(err, "error running bot: %+v", err)
	}

	return nil
}
