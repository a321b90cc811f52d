package handlers

import (
	"context"
	"time"

	"hostel-ledger-bot/internal/config"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// requestTimeout bounds the store work done for one update.
const requestTimeout = 30 * time.Second

var adminCommands = map[string]bool{
	"addmanager": true,
	"addhostel":  true,
	"hostels":    true,
	"hostelcap":  true,
	"edithostel": true,
	"delhostel":  true,
	"report":     true,
	"reconcile":  true,
}

// EventHandler handles Telegram events
type EventHandler struct {
	engine   *ledger.Engine
	config   *config.Config
	commands *CommandHandler
}

// NewEventHandler creates a new event handler
func NewEventHandler(engine *ledger.Engine, cfg *config.Config, commands *CommandHandler) *EventHandler {
	return &EventHandler{
		engine:   engine,
		config:   cfg,
		commands: commands,
	}
}

// HandleMessage handles incoming messages
func (h *EventHandler) HandleMessage(bot Bot, message *tgbotapi.Message) {
	// Ignore messages from bots
	if message.From == nil || message.From.IsBot {
		return
	}
	if !message.IsCommand() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	chatID := message.Chat.ID
	cmd := message.Command()
	isAdmin := h.config.IsAdmin(message.From.ID)

	switch {
	case cmd == "help" || cmd == "start":
		h.commands.SendHelp(bot, chatID, isAdmin)
	case adminCommands[cmd]:
		if !isAdmin {
			reply(bot, chatID, "⛔ This command is for administrators.")
			return
		}
		h.handleAdminCommand(ctx, bot, ledger.AdminSession(chatID), message)
	default:
		sess, err := h.engine.OpenSession(ctx, message.From.ID)
		if err != nil {
			replyErr(bot, chatID, "open session", err)
			return
		}
		sess.ChatID = chatID
		h.handleManagerCommand(ctx, bot, sess, message)
	}
}

func (h *EventHandler) handleAdminCommand(ctx context.Context, bot Bot, sess ledger.Session, message *tgbotapi.Message) {
	switch message.Command() {
	case "addmanager":
		h.commands.AddManager(ctx, bot, sess, message)
		return
	case "addhostel":
		h.commands.AddHostel(ctx, bot, sess, message)
		return
	}

	a, ok := args(bot, sess.ChatID, message)
	if !ok {
		return
	}
	switch message.Command() {
	case "hostels":
		h.commands.ListHostels(ctx, bot, sess)
	case "hostelcap":
		h.commands.SetHostelCapacity(ctx, bot, sess, a)
	case "edithostel":
		h.commands.EditHostel(ctx, bot, sess, a)
	case "delhostel":
		h.commands.DeleteHostel(ctx, bot, sess, a)
	case "report":
		h.commands.SendHostelReport(ctx, bot, sess, a)
	case "reconcile":
		if err := h.commands.RunReconcile(ctx, []int64{sess.ChatID}); err != nil {
			replyErr(bot, sess.ChatID, "reconcile", err)
		}
	}
}

// handleManagerCommand processes bot commands
func (h *EventHandler) handleManagerCommand(ctx context.Context, bot Bot, sess ledger.Session, message *tgbotapi.Message) {
	if message.Command() == "admit" {
		h.commands.Admit(ctx, bot, sess, message)
		return
	}

	a, ok := args(bot, sess.ChatID, message)
	if !ok {
		return
	}
	search := message.CommandArguments()

	switch message.Command() {
	case "rooms":
		h.commands.ListRooms(ctx, bot, sess, search)
	case "addroom":
		h.commands.AddRoom(ctx, bot, sess, a)
	case "editroom":
		h.commands.EditRoom(ctx, bot, sess, a)
	case "delroom":
		h.commands.DeleteRoom(ctx, bot, sess, a)
	case "residents":
		h.commands.ListResidents(ctx, bot, sess, search)
	case "editresident":
		h.commands.EditResident(ctx, bot, sess, a)
	case "transfer":
		h.commands.Transfer(ctx, bot, sess, a)
	case "relieve":
		h.commands.Relieve(ctx, bot, sess, a)
	case "pay":
		h.commands.RecordPayment(ctx, bot, sess, a)
	case "extra":
		h.commands.ExtraCharge(ctx, bot, sess, a, false)
	case "editextra":
		h.commands.ExtraCharge(ctx, bot, sess, a, true)
	case "board":
		h.commands.SendBoard(ctx, bot, sess, h.commands.monthArg(a, 0))
	case "roster":
		h.commands.SendRoster(ctx, bot, sess, h.commands.monthArg(a, 0))
	case "summary":
		h.commands.SendSummary(ctx, bot, sess, h.commands.monthArg(a, 0))
	case "receipt":
		h.commands.SendReceipt(ctx, bot, sess, a)
	case "export":
		h.commands.ExportMonth(ctx, bot, sess, h.commands.monthArg(a, 0))
	case "expense":
		h.commands.AddExpense(ctx, bot, sess, a)
	case "editexpense":
		h.commands.EditExpense(ctx, bot, sess, a)
	case "delexpense":
		h.commands.DeleteExpense(ctx, bot, sess, a)
	case "expenses":
		h.commands.ListExpenses(ctx, bot, sess, h.commands.monthArg(a, 0))
	case "notify":
		h.commands.NotifyRoom(ctx, bot, sess, a)
	case "remind":
		h.commands.Remind(ctx, bot, sess)
	case "profile":
		h.commands.SendProfile(ctx, bot, sess)
	case "editprofile":
		h.commands.EditProfile(ctx, bot, sess, a)
	case "hostel":
		h.commands.SendHostelInfo(ctx, bot, sess)
	default:
		reply(bot, sess.ChatID, "Unknown command. Use /help to see what I can do.")
	}
}

// HandleCallbackQuery handles inline button callbacks
func (h *EventHandler) HandleCallbackQuery(bot Bot, callback *tgbotapi.CallbackQuery) {
	// Answer the callback to remove loading state
	defer func() {
		if _, err := bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
			logger.Warning("Failed to answer callback: %v", err)
		}
	}()
	if callback.Message == nil || callback.From == nil {
		return
	}

	list, arg, page, ok := utils.ParsePageCallback(callback.Data)
	if !ok || list != rosterList {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sess, err := h.engine.OpenSession(ctx, callback.From.ID)
	if err != nil {
		replyErr(bot, callback.Message.Chat.ID, "open session", err)
		return
	}
	sess.ChatID = callback.Message.Chat.ID
	h.commands.EditRosterPage(ctx, bot, sess, callback.Message.MessageID, arg, page)
}
