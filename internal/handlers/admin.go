package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AddManager handles /addmanager. The command message carries a password, so
// it is removed from the chat once read.
func (h *CommandHandler) AddManager(ctx context.Context, bot Bot, sess ledger.Session, message *tgbotapi.Message) {
	defer func() {
		if _, err := bot.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
			logger.Warning("Failed to delete /addmanager message: %v", err)
		}
	}()

	fields, err := utils.ParseFields(message.CommandArguments())
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	telegramID, err := strconv.ParseInt(fields["telegram"], 10, 64)
	if err != nil {
		reply(bot, sess.ChatID, "❌ telegram must be the manager's numeric Telegram user id")
		return
	}
	req := ledger.ManagerRequest{
		Username:        fields["username"],
		Email:           fields["email"],
		PhoneNumber:     fields["phone"],
		AddressLine:     fields["address"],
		District:        fields["district"],
		Zipcode:         fields["zipcode"],
		Password:        fields["password"],
		ConfirmPassword: fields["confirm"],
		TelegramID:      telegramID,
	}

	m, err := h.engine.CreateManager(ctx, sess, req)
	if err != nil {
		replyErr(bot, sess.ChatID, "add manager", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Manager %s created (%s, %s).", m.ManagerCode, m.Username, m.Email))
}

// AddHostel handles /addhostel.
func (h *CommandHandler) AddHostel(ctx context.Context, bot Bot, sess ledger.Session, message *tgbotapi.Message) {
	fields, err := utils.ParseFields(message.CommandArguments())
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	capacity, err := utils.ParseCapacity(fields["capacity"])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	req := ledger.HostelRequest{
		HostelName:   fields["name"],
		AddressLine:  fields["address"],
		District:     fields["district"],
		Zipcode:      fields["zipcode"],
		ManagerEmail: fields["manager"],
		Capacity:     capacity,
	}

	hostel, err := h.engine.CreateHostel(ctx, sess, req)
	if err != nil {
		replyErr(bot, sess.ChatID, "add hostel", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Hostel %s %s created with %d beds.\nID: %s",
		hostel.HostelCode, hostel.HostelName, hostel.Capacity, hostel.ID))
}

// ListHostels sends every live hostel with its occupancy.
func (h *CommandHandler) ListHostels(ctx context.Context, bot Bot, sess ledger.Session) {
	hostels, err := h.engine.ListHostels(ctx, sess)
	if err != nil {
		replyErr(bot, sess.ChatID, "list hostels", err)
		return
	}
	if len(hostels) == 0 {
		reply(bot, sess.ChatID, "No hostels yet.")
		return
	}

	var b strings.Builder
	b.WriteString("🏢 Hostels\n\n")
	for _, o := range hostels {
		fmt.Fprintf(&b, "%s  %s\n", o.Hostel.HostelCode, o.Hostel.HostelName)
		if o.Manager != nil {
			fmt.Fprintf(&b, "   manager %s (%s)\n", o.Manager.Username, o.Manager.ManagerCode)
		}
		fmt.Fprintf(&b, "   %d/%d occupied, %d vacant\n   ID: %s\n", o.Occupancy, o.Capacity, o.Vacancy(), o.Hostel.ID)
	}
	reply(bot, sess.ChatID, b.String())
}

func (h *CommandHandler) SetHostelCapacity(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 2 {
		usage(bot, sess.ChatID, "/hostelcap <hostelId> <capacity>")
		return
	}
	capacity, err := utils.ParseCapacity(a[1])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	if err := h.engine.UpdateHostelCapacity(ctx, sess, a[0], capacity); err != nil {
		replyErr(bot, sess.ChatID, "hostel capacity", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Capacity set to %d.", capacity))
}

// EditHostel handles /edithostel. Hostel fields and the manager's contact
// fields are given as key=value after the hostel id.
func (h *CommandHandler) EditHostel(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 2 {
		usage(bot, sess.ChatID, "/edithostel <hostelId> key=value... (name address district zipcode capacity manager email phone)")
		return
	}
	fields, err := utils.ParseFields(strings.Join(quoteAll(a[1:]), " "))
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	upd := ledger.HostelUpdate{
		HostelName:  fields.Optional("name"),
		AddressLine: fields.Optional("address"),
		District:    fields.Optional("district"),
		Zipcode:     fields.Optional("zipcode"),
		Manager: ledger.ProfileUpdate{
			Username:    fields.Optional("manager"),
			Email:       fields.Optional("email"),
			PhoneNumber: fields.Optional("phone"),
		},
	}
	if v := fields.Optional("capacity"); v != nil {
		capacity, err := utils.ParseCapacity(*v)
		if err != nil {
			reply(bot, sess.ChatID, "❌ "+err.Error())
			return
		}
		upd.Capacity = &capacity
	}

	o, err := h.engine.UpdateHostel(ctx, sess, a[0], upd)
	if err != nil {
		replyErr(bot, sess.ChatID, "edit hostel", err)
		return
	}
	reply(bot, sess.ChatID, "✅ Hostel updated.\n\n"+hostelText(o))
}

func (h *CommandHandler) DeleteHostel(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 1 {
		usage(bot, sess.ChatID, "/delhostel <hostelId>")
		return
	}
	if err := h.engine.DeleteHostel(ctx, sess, a[0]); err != nil {
		replyErr(bot, sess.ChatID, "delete hostel", err)
		return
	}
	reply(bot, sess.ChatID, "🗑️ Hostel deleted.")
}

// SendHostelReport sends the admin report of one hostel for a month.
func (h *CommandHandler) SendHostelReport(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 1 || len(a) > 2 {
		usage(bot, sess.ChatID, "/report <hostelId> [Month-YYYY]")
		return
	}
	rep, err := h.engine.HostelReport(ctx, sess, a[0], h.monthArg(a, 1))
	if err != nil {
		replyErr(bot, sess.ChatID, "hostel report", err)
		return
	}

	text := h.summaryText(rep.Overview.Hostel.HostelName, &rep.Month)
	if rep.Overview.Manager != nil {
		text += fmt.Sprintf("\n\nManager: %s (%s)", rep.Overview.Manager.Username, rep.Overview.Manager.Email)
	}
	reply(bot, sess.ChatID, text)
}
