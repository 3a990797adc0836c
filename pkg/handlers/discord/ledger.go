package discord

import (
	"fmt"
	"strings"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// rowsPerEmbed keeps each embed description well under the discord limit.
const rowsPerEmbed = 15

// corporationLedgerHandler will be called every time a new
// message is created on any channel that the autenticated bot has access to.
func (h *discordHandler) corporationLedgerHandler(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	period, err := parsePeriod(args, h.now())
	if err != nil {
		h.error(err, m.ChannelID)
		return
	}
	h.working(m)

	ledger, err := h.accountantSvc.CorporationLedger(h.ctx, period, h.scope.Corporations)
	if err != nil {
		h.error(errors.Wrap(err, "error calculating corporation ledger"), m.ChannelID)
		return
	}
	h.sendEmbeds(m.ChannelID, ledgerMessages(fmt.Sprintf("%s %s", ledgerMsg, titleWithPeriod(period)), ledger))
}

func (h *discordHandler) characterLedgerHandler(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	var (
		mains  = h.scope.Mains
		period aggregate.Period
		err    error
	)
	if len(args) > 0 && isID(args[0]) {
		var id entity.EntityID
		id, period, err = parseID(args, h.now())
		mains = []entity.CharacterID{entity.CharacterID(id)}
	} else {
		period, err = parsePeriod(args, h.now())
	}
	if err != nil {
		h.error(err, m.ChannelID)
		return
	}
	h.working(m)

	ledger, err := h.accountantSvc.CharacterLedger(h.ctx, period, mains)
	if err != nil {
		h.error(errors.Wrap(err, "error calculating character ledger"), m.ChannelID)
		return
	}
	h.sendEmbeds(m.ChannelID, ledgerMessages(fmt.Sprintf("%s %s", ledgerMsg, titleWithPeriod(period)), ledger))
}

func (h *discordHandler) allianceLedgerHandler(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	period, err := parsePeriod(args, h.now())
	if err != nil {
		h.error(err, m.ChannelID)
		return
	}
	if h.scope.AllianceID == 0 {
		h.error(errors.New("no alliance configured"), m.ChannelID)
		return
	}
	h.working(m)

	ledger, err := h.accountantSvc.AllianceLedger(h.ctx, period, h.scope.AllianceID)
	if err != nil {
		h.error(errors.Wrap(err, "error calculating alliance ledger"), m.ChannelID)
		return
	}
	h.sendEmbeds(m.ChannelID, ledgerMessages(fmt.Sprintf("%s %s", ledgerMsg, titleWithPeriod(period)), ledger))
}

func ledgerMessages(title string, ledger *aggregate.Ledger) []*discordgo.MessageEmbed {
	if ledger == nil || len(ledger.Rows) == 0 {
		return []*discordgo.MessageEmbed{
			{
				Title:       title,
				Description: noDataMsg,
				Color:       0xffffff,
			},
		}
	}

	var messages []*discordgo.MessageEmbed
	for start := 0; start < len(ledger.Rows); start += rowsPerEmbed {
		end := start + rowsPerEmbed
		if end > len(ledger.Rows) {
			end = len(ledger.Rows)
		}
		var description strings.Builder
		description.WriteString("```")
		for _, row := range ledger.Rows[start:end] {
			description.WriteString(fmt.Sprintf("%-28s %16s\n", row.Name, isk(row.Total)))
			description.WriteString(fmt.Sprintf(
				"  bounty %s | ess %s | mining %s | others %s | costs %s\n",
				isk(row.Bounty), isk(row.ESS), isk(row.Mining), isk(row.Others()), isk(row.Costs),
			))
		}
		description.WriteString("```")

		messageTitle := title
		if start > 0 {
			messageTitle = fmt.Sprintf("%s (%d-%d)", title, start+1, end)
		}
		messages = append(messages, &discordgo.MessageEmbed{
			Title:       messageTitle,
			Description: description.String(),
			Color:       0xffffff,
		})
	}

	total := ledger.Total
	messages = append(messages, &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s %s", balanceMsg, strings.TrimPrefix(title, ledgerMsg+" ")),
		Description: fmt.Sprintf(
			"`%s`\n\nBounty: `%s`\nESS: `%s`\nMining: `%s`\nOthers: `%s`\nCosts: `%s`\n\n%s: `%s`\n%s: `%s`\n\n%s",
			isk(total.Total),
			isk(total.Bounty),
			isk(total.ESS),
			isk(total.Mining),
			isk(total.Others),
			isk(total.Costs),
			incomeMsg,
			isk(ledger.Balance.Income),
			expensesMsg,
			isk(ledger.Balance.Expenses),
			forMoreDetailsMsg,
		),
		Color: 0x00ff00,
	})
	return messages
}

// isID tells an entity id from a period argument. EVE ids are longer than
// a bare year and never contain a dash.
func isID(arg string) bool {
	return len(arg) > len("2006") && !strings.Contains(arg, "-")
}
