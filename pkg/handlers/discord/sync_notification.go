package discord

import (
	"fmt"

	"github.com/lunemec/eve-ledger/pkg/domain/ledger/aggregate"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

// SyncFailedMessage tells the channel that a sync aborted before writing.
// The next scheduled run retries it.
func (h *discordHandler) SyncFailedMessage(notification aggregate.SyncNotification) {
	_, err := h.discord.ChannelMessageSendEmbed(h.channelID, syncFailedMessage(notification))
	if err != nil {
		h.error(err, h.channelID)
		return
	}
}

func syncFailedMessage(notification aggregate.SyncNotification) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s `%s`", syncFailedMsg, notification.Target),
		Description: fmt.Sprintf(
			"Failed %s, nothing was written.\n\n`%s`\n\nThe next scheduled sync will retry.",
			humanize.Time(notification.Date),
			notification.Err,
		),
		Color: 0xff0000,
	}
}
