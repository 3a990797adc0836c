package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// helpHandler will be called every time a new
// message is created on any channel that the autenticated bot has access to.
func (h *discordHandler) helpHandler(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	msg := "I'll keep the books of your pilots and corporations. \n\n" +
		"Here is the list of commands you can use:\n" +
		"`!help` - shows this help message\n" +
		"`!ledger [period]` - income per corporation\n" +
		"`!ledger character <id> [period]` - income of a main and its alts\n" +
		"`!ledger alliance [period]` - income per alliance member corporation\n" +
		"`!ledger types [period]` - corporation wallet grouped by transaction type\n" +
		"`!billboard [period]` - corporation income charts\n" +
		"`!billboard character <id> [period]` - charts of a main and its alts\n\n" +
		"Period is `YYYY`, `YYYY-MM` or `YYYY-MM-DD`, current month when omitted."

	_, err := h.discord.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Title: "Hello, I'm your accountant.",
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: "https://i.imgur.com/ZwUn8DI.jpg",
		},
		Color:       0x00ff00,
		Description: msg,
		Timestamp:   time.Now().Format(time.RFC3339), // Discord wants ISO8601; RFC3339 is an extension of ISO8601 and should be completely compatible.
	})
	if err != nil {
		h.log.Error("error sending message for !help", zap.Error(err))
	}
}
