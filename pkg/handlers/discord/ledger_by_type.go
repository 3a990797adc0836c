package discord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"
	"github.com/lunemec/eve-ledger/pkg/domain/ledger/entity"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ledgerByTypeHandler will be called every time a new
// message is created on any channel that the autenticated bot has access to.
func (h *discordHandler) ledgerByTypeHandler(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	period, err := parsePeriod(args, h.now())
	if err != nil {
		h.error(err, m.ChannelID)
		return
	}
	h.working(m)

	breakdown, err := h.accountantSvc.Breakdown(h.ctx, period, h.scope.Corporations)
	if err != nil {
		h.error(errors.Wrap(err, "error calculating balance"), m.ChannelID)
		return
	}
	h.sendEmbeds(m.ChannelID, ledgerByTypeMessages(period, breakdown))
}

type balanceByTypeRow struct {
	Type   entity.RefType
	Amount decimal.Decimal
}

func ledgerByTypeMessages(period aggregate.Period, breakdown *aggregate.Breakdown) []*discordgo.MessageEmbed {
	var descriptionRowData = make([]balanceByTypeRow, 0, len(breakdown.ByRefType))
	for refType, amount := range breakdown.ByRefType {
		descriptionRowData = append(descriptionRowData, balanceByTypeRow{
			Type:   refType,
			Amount: amount,
		})
	}
	sort.Slice(descriptionRowData, func(i, j int) bool {
		if descriptionRowData[i].Amount.Equal(descriptionRowData[j].Amount) {
			return descriptionRowData[i].Type < descriptionRowData[j].Type
		}
		return descriptionRowData[i].Amount.GreaterThan(descriptionRowData[j].Amount)
	})

	var (
		income   strings.Builder
		expenses strings.Builder
	)
	income.WriteString("```")
	expenses.WriteString("```")
	for _, descriptionRow := range descriptionRowData {
		switch descriptionRow.Amount.Sign() {
		case 1:
			income.WriteString(fmt.Sprintf("%s  %s\n", isk(descriptionRow.Amount), string(descriptionRow.Type)))
		case -1:
			expenses.WriteString(fmt.Sprintf("%s  %s\n", isk(descriptionRow.Amount), string(descriptionRow.Type)))
		}
	}
	income.WriteString(fmt.Sprintf("\n%s  total```", isk(breakdown.Balance.Income)))
	expenses.WriteString(fmt.Sprintf("\n%s  total```", isk(breakdown.Balance.Expenses)))

	var messages = []*discordgo.MessageEmbed{
		{
			Title:       fmt.Sprintf("%s %s", incomeMsg, titleWithPeriod(period)),
			Description: income.String(),
			Color:       0x00ff00,
		},
		{
			Title:       fmt.Sprintf("%s %s", expensesMsg, titleWithPeriod(period)),
			Description: expenses.String(),
			Color:       0xff0000,
		},
	}

	return messages
}
