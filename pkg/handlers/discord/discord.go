package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"
	"github.com/lunemec/eve-ledger/pkg/services/accountant"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	floatFormat        = "#\u202F###."
	ledgerMsg          = ":ledger: Ledger"
	balanceMsg         = ":euro: Balance"
	incomeMsg          = ":chart_with_upwards_trend: Income"
	expensesMsg        = ":chart_with_downwards_trend: Expenses"
	billboardMsg       = ":bar_chart: Billboard"
	syncFailedMsg      = ":exclamation: Sync Failed"
	noDataMsg          = "No data for this period."
	forMoreDetailsMsg  = "For more details run:\n\n`!ledger types [period]`\n`!billboard [period]`\n\nPeriod is `YYYY`, `YYYY-MM` or `YYYY-MM-DD`."
	stopwatchEmoji     = `⏱️`
	errUnknownArgument = errors.New("unknown argument, see !help")
)

// Scope is what the plain commands report on when no id is given.
type Scope struct {
	Mains         []entity.CharacterID
	Corporations  []entity.CorporationID
	CorporationID entity.CorporationID
	AllianceID    entity.AllianceID
}

type discordHandler struct {
	ctx       context.Context
	log       *zap.Logger
	discord   *discordgo.Session
	channelID string
	scope     Scope
	now       func() time.Time

	accountantSvc accountant.Service
}

func New(
	ctx context.Context,
	log *zap.Logger,
	discord *discordgo.Session,
	channelID string,
	scope Scope,
	accountantSvc accountant.Service,
) *discordHandler {
	return &discordHandler{
		ctx:           ctx,
		log:           log,
		discord:       discord,
		channelID:     channelID,
		scope:         scope,
		now:           time.Now,
		accountantSvc: accountantSvc,
	}
}

func (h *discordHandler) Start() {
	h.log.Info("Discord handler started.")
	h.discord.AddHandler(h.router)
	<-h.ctx.Done()
}

func (h *discordHandler) router(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore all messages created by the bot itself.
	if m.Author.ID == s.State.User.ID {
		return
	}
	if ok, _ := command("!help", m.Content); ok {
		h.helpHandler(s, m, nil)
		return
	}
	if ok, args := command("!ledger character", m.Content); ok {
		h.characterLedgerHandler(s, m, args)
		return
	}
	if ok, args := command("!ledger alliance", m.Content); ok {
		h.allianceLedgerHandler(s, m, args)
		return
	}
	if ok, args := command("!ledger types", m.Content); ok {
		h.ledgerByTypeHandler(s, m, args)
		return
	}
	if ok, args := command("!ledger", m.Content); ok {
		h.corporationLedgerHandler(s, m, args)
		return
	}
	if ok, args := command("!billboard", m.Content); ok {
		h.billboardHandler(s, m, args)
		return
	}
}

func (h *discordHandler) error(errIn error, channelID string) {
	h.log.Error("error in discord handler call", zap.Error(errIn))
	msg := fmt.Sprintf("Sorry, some error happened: %s", errIn.Error())
	_, err := h.discord.ChannelMessageSend(channelID, msg)
	if err != nil {
		h.log.Error("error responding with error", zap.Error(err), zap.NamedError("original_error", errIn))
	}
}

// working reacts to the command before a slow report is computed.
func (h *discordHandler) working(m *discordgo.MessageCreate) {
	err := h.discord.MessageReactionAdd(m.ChannelID, m.ID, stopwatchEmoji)
	if err != nil {
		h.log.Warn("error reacting with :stopwatch: emoji", zap.Error(err))
	}
}

func (h *discordHandler) sendEmbeds(channelID string, embeds []*discordgo.MessageEmbed) {
	for _, embed := range embeds {
		_, err := h.discord.ChannelMessageSendEmbed(channelID, embed)
		if err != nil {
			h.error(errors.Wrap(err, "error sending ledger message"), channelID)
			return
		}
	}
}

// command matches messageContent against command on a word boundary and
// returns the remaining whitespace separated arguments.
func command(command string, messageContent string) (bool, []string) {
	if !strings.HasPrefix(messageContent, command) {
		return false, nil
	}
	rest := strings.TrimPrefix(messageContent, command)
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return false, nil
	}
	return true, strings.Fields(rest)
}

// parsePeriod reads an optional period argument, defaulting to the current
// month.
func parsePeriod(args []string, now time.Time) (aggregate.Period, error) {
	switch len(args) {
	case 0:
		return aggregate.CurrentMonth(now), nil
	case 1:
		return aggregate.ParsePeriod(args[0])
	}
	return aggregate.Period{}, errUnknownArgument
}

// parseID reads a leading entity id followed by an optional period.
func parseID(args []string, now time.Time) (entity.EntityID, aggregate.Period, error) {
	if len(args) == 0 {
		return 0, aggregate.Period{}, errors.New("missing id, see !help")
	}
	id, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil || id <= 0 {
		return 0, aggregate.Period{}, errors.Errorf("invalid id: %q", args[0])
	}
	period, err := parsePeriod(args[1:], now)
	return entity.EntityID(id), period, err
}

func titleWithPeriod(period aggregate.Period) string {
	from, _ := period.Range()
	switch period.Granularity() {
	case aggregate.GranularityYear:
		return fmt.Sprintf("for %d", period.Year)
	case aggregate.GranularityMonth:
		return fmt.Sprintf("for %s %d", period.Month.String(), period.Year)
	}
	return fmt.Sprintf("for %s", from.Format("2 January 2006"))
}

func isk(amount decimal.Decimal) string {
	return humanize.FormatFloat(floatFormat, amount.InexactFloat64())
}
