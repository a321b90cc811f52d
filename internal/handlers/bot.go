package handlers

import (
	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"
	"hostel-ledger-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the part of tgbotapi.BotAPI the handlers use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

func reply(bot Bot, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := bot.Send(msg); err != nil {
		logger.Error("Failed to send message to %d: %v", chatID, err)
	}
}

// replyErr answers with the short message for err's kind.
func replyErr(bot Bot, chatID int64, op string, err error) {
	logger.Warning("%s failed for chat %d: %v", op, chatID, err)
	reply(bot, chatID, "❌ "+apperr.UserMessage(err))
}

func usage(bot Bot, chatID int64, text string) {
	reply(bot, chatID, "Usage: "+text)
}

// args splits the command arguments, answering the chat when they are malformed.
func args(bot Bot, chatID int64, message *tgbotapi.Message) ([]string, bool) {
	a, err := utils.SplitArgs(message.CommandArguments())
	if err != nil {
		reply(bot, chatID, "❌ "+err.Error())
		return nil, false
	}
	return a, true
}

// monthArg returns a[i] when present, otherwise the current month.
func (h *CommandHandler) monthArg(a []string, i int) string {
	if len(a) > i {
		return a[i]
	}
	return models.MonthYearOf(h.now()).String()
}
