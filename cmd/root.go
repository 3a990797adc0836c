package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/logging"

	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string

	eveCallbackURL = "http://localhost:3000/callback"
	eveScopes      = []string{
		"esi-wallet.read_character_wallet.v1",
		"esi-wallet.read_corporation_wallets.v1",
		"esi-industry.read_character_mining.v1",
		"esi-corporations.read_divisions.v1",
	}
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eve-ledger",
	Short: "Income ledgers and billboards for EVE Online characters and corporations",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "ledger.yaml", "config file")
	flags.StringArrayP("auth_files", "a", []string{"auth.bin"}, "paths to files where to read authentication data, for multiple characters, login repeatedly with different file names")
	flags.StringP("session_key", "s", "", "session key, use random string")
	flags.String("eve_client_id", "", "EVE APP client id")
	flags.String("eve_sso_secret", "", "EVE APP SSO secret")
	flags.String("db_file", "ledger.db", "path to the ledger database")
	flags.Float64("corp_tax_percent", 0, "corporation tax percent applied to ESS and daily goal payouts, must not be 0")
	flags.Int32("alliance_id", 0, "alliance reported by the alliance commands")
	flags.Int("sync_workers", 4, "how many targets sync in parallel")
	flags.Duration("stale_after", 10*time.Minute, "a target synced more recently is skipped unless forced")
	flags.String("redis_addr", "", "redis address for sync locks shared between processes, in-process locks when empty")
	flags.Duration("lock_ttl", 30*time.Minute, "how long a redis sync lock survives a crashed holder")
	flags.String("log_level", "info", "debug, info, warn or error")
	flags.String("log_encoding", "console", "json or console")

	must(viper.BindPFlags(flags))
}

func initConfig() {
	viper.SetConfigFile(cfgFile)
	viper.SetEnvPrefix("LEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil && !os.IsNotExist(err) {
		fmt.Printf("error reading config file %s: %s \n", cfgFile, err)
		os.Exit(1)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func newLogger() *zap.Logger {
	log, err := logging.New(viper.GetString("log_level"), viper.GetString("log_encoding"))
	if err != nil {
		fmt.Printf("error inicializing logger: %s \n", err)
		os.Exit(1)
	}
	return log
}

// httpClient caches ESI responses and marks the ones served from cache,
// which is how an unchanged first page is detected.
func httpClient() *http.Client {
	transport := httpcache.NewMemoryCacheTransport()
	transport.Transport = http.DefaultTransport
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ownershipLinks reads the `mains` config key: main id to its alt ids.
func ownershipLinks() (map[entity.CharacterID][]entity.CharacterID, error) {
	var raw map[string][]int32
	err := viper.UnmarshalKey("mains", &raw)
	if err != nil {
		return nil, errors.Wrap(err, "error reading mains")
	}
	links := make(map[entity.CharacterID][]entity.CharacterID, len(raw))
	for mainStr, altIDs := range raw {
		main, err := strconv.ParseInt(mainStr, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid main character id: %q", mainStr)
		}
		alts := make([]entity.CharacterID, 0, len(altIDs))
		for _, alt := range altIDs {
			alts = append(alts, entity.CharacterID(alt))
		}
		links[entity.CharacterID(main)] = alts
	}
	return links, nil
}
