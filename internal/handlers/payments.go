package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/models"
	"hostel-ledger-bot/internal/report"
	"hostel-ledger-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RecordPayment handles /pay.
func (h *CommandHandler) RecordPayment(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 5 || len(a) > 7 {
		usage(bot, sess.ChatID, "/pay <roomNo> <name> <Month-YYYY> <monthlyPay> <pending> [Cash|Online] [advance]")
		return
	}
	monthlyPay, err := utils.ParseAmount(a[3])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	pending, err := utils.ParseAmount(a[4])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	req := ledger.PaymentRequest{
		MonthYear:     a[2],
		MonthlyPay:    monthlyPay,
		PendingAmount: pending,
	}
	if len(a) > 5 {
		req.ModeOfPay = a[5]
	}
	if len(a) > 6 {
		advance, err := utils.ParseAmount(a[6])
		if err != nil {
			reply(bot, sess.ChatID, "❌ "+err.Error())
			return
		}
		req.Advance = &advance
	}

	r, ok := h.resident(ctx, bot, sess, "record payment", a[0], a[1])
	if !ok {
		return
	}
	req.ResidentID = r.ID
	r, err = h.engine.RecordPayment(ctx, sess, req)
	if err != nil {
		replyErr(bot, sess.ChatID, "record payment", err)
		return
	}
	entry, _ := r.Entry(req.MonthYear)
	reply(bot, sess.ChatID, fmt.Sprintf("✅ %s, room %s, %s\nPaid %s (%s), pending %s\nTotal pending: %s",
		r.Name, r.RoomNo, req.MonthYear,
		h.format.FormatAmount(entry.Paid), entry.ModeOfPay, h.format.FormatAmount(entry.Pending),
		h.format.FormatAmount(r.TotalPendingPerson)))
}

// ExtraCharge handles /extra and /editextra.
func (h *CommandHandler) ExtraCharge(ctx context.Context, bot Bot, sess ledger.Session, a []string, edit bool) {
	cmd := "/extra"
	if edit {
		cmd = "/editextra"
	}
	if len(a) != 4 {
		usage(bot, sess.ChatID, cmd+" <roomNo> <name> <reason> <amount>")
		return
	}
	amount, err := utils.ParseAmount(a[3])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	r, ok := h.resident(ctx, bot, sess, "extra charge", a[0], a[1])
	if !ok {
		return
	}
	if edit {
		r, err = h.engine.UpdateExtraCharge(ctx, sess, r.ID, a[2], amount)
	} else {
		r, err = h.engine.AddExtraCharge(ctx, sess, r.ID, a[2], amount)
	}
	if err != nil {
		replyErr(bot, sess.ChatID, "extra charge", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ %s: %s %s. Pending with extras: %s",
		r.Name, a[2], h.format.FormatAmount(amount),
		h.format.FormatAmount(ledger.PendingTotal(r, ledger.FieldPending))))
}

// SendBoard sends the payment tracking view of a month.
func (h *CommandHandler) SendBoard(ctx context.Context, bot Bot, sess ledger.Session, monthYear string) {
	board, err := h.engine.PaymentBoard(ctx, sess, monthYear)
	if err != nil {
		replyErr(bot, sess.ChatID, "payment board", err)
		return
	}
	if len(board.Rows) == 0 {
		reply(bot, sess.ChatID, fmt.Sprintf("No residents billed in %s.", monthYear))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💰 Payments %s\n\n", monthYear)
	for _, row := range board.Rows {
		fmt.Fprintf(&b, "%s  %s\n", row.Resident.RoomNo, row.Resident.Name)
		if !row.Recorded {
			fmt.Fprintf(&b, "   pay %s  not recorded\n", h.format.FormatAmount(row.Resident.MonthlyPay))
			continue
		}
		fmt.Fprintf(&b, "   pay %s  paid %s  pending %s  %s\n",
			h.format.FormatAmount(row.Resident.MonthlyPay),
			h.format.FormatAmount(row.Paid()),
			h.format.FormatAmount(row.Entry.Pending),
			row.Entry.ModeOfPay)
	}
	fmt.Fprintf(&b, "\nAdvance %s\nMonthly pay %s\nPending %s",
		h.format.FormatAmount(board.TotalAdvance),
		h.format.FormatAmount(board.TotalMonthlyPay),
		h.format.FormatAmount(board.TotalPending))
	reply(bot, sess.ChatID, b.String())
}

const rosterList = "roster"

// SendRoster sends the first page of a month's roster with a pager.
func (h *CommandHandler) SendRoster(ctx context.Context, bot Bot, sess ledger.Session, monthYear string) {
	text, keyboard, err := h.rosterPage(ctx, sess, monthYear, 1)
	if err != nil {
		replyErr(bot, sess.ChatID, "roster", err)
		return
	}
	msg := tgbotapi.NewMessage(sess.ChatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := bot.Send(msg); err != nil {
		logger.Error("Failed to send roster: %v", err)
	}
}

// EditRosterPage replaces a roster message with another page.
func (h *CommandHandler) EditRosterPage(ctx context.Context, bot Bot, sess ledger.Session, messageID int, monthYear string, page int) {
	text, keyboard, err := h.rosterPage(ctx, sess, monthYear, page)
	if err != nil {
		replyErr(bot, sess.ChatID, "roster", err)
		return
	}
	edit := tgbotapi.NewEditMessageText(sess.ChatID, messageID, text)
	edit.ReplyMarkup = keyboard
	if _, err := bot.Send(edit); err != nil {
		logger.Error("Failed to update roster page: %v", err)
	}
}

func (h *CommandHandler) rosterPage(ctx context.Context, sess ledger.Session, monthYear string, page int) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	residents, err := h.engine.Roster(ctx, sess, monthYear)
	if err != nil {
		return "", nil, err
	}
	if len(residents) == 0 {
		return fmt.Sprintf("No residents billed in %s.", monthYear), nil, nil
	}
	items, pages := ledger.Page(residents, page, h.config.PageSize)
	if len(items) == 0 {
		page = pages
		items, _ = ledger.Page(residents, page, h.config.PageSize)
	}

	now := h.now()
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Roster %s (%d residents)\n\n", monthYear, len(residents))
	offset := (page - 1) * h.config.PageSize
	for i, r := range items {
		fmt.Fprintf(&b, "%d. %s  %s  %s", offset+i+1, r.RoomNo, r.Name, h.format.FormatAmount(r.MonthlyPay))
		if r.IsDeleted && r.DateOfRelieving != nil {
			fmt.Fprintf(&b, "  relieved %s", r.DateOfRelieving.Format("02 Jan"))
		} else {
			fmt.Fprintf(&b, "  %d months", ledger.MonthsStayed(r.JoiningDate, r.DateOfRelieving, now))
		}
		b.WriteString("\n")
	}
	if pages <= 1 {
		return b.String(), nil, nil
	}
	keyboard := utils.BuildPageKeyboard(rosterList, monthYear, page, pages)
	return b.String(), &keyboard, nil
}

// SendSummary sends the dashboard of a month.
func (h *CommandHandler) SendSummary(ctx context.Context, bot Bot, sess ledger.Session, monthYear string) {
	s, err := h.engine.MonthlySummary(ctx, sess, monthYear)
	if err != nil {
		replyErr(bot, sess.ChatID, "monthly summary", err)
		return
	}
	reply(bot, sess.ChatID, h.summaryText(sess.HostelName, s))
}

func (h *CommandHandler) summaryText(hostelName string, s *ledger.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s, %s\n", hostelName, s.MonthYear)
	b.WriteString("═══════════════════\n\n")
	fmt.Fprintf(&b, "Income: %s\n", h.format.FormatAmount(s.Income))
	fmt.Fprintf(&b, "Expense: %s\n", h.format.FormatAmount(s.Expense))
	fmt.Fprintf(&b, "Profit: %s\n\n", h.format.FormatAmount(s.Profit()))
	fmt.Fprintf(&b, "Capacity: %d\nOccupancy: %d\nVacancy: %d", s.Capacity, s.Occupancy, s.Vacancy())
	return b.String()
}

// SendReceipt sends a resident's receipt as text and as a CSV document.
func (h *CommandHandler) SendReceipt(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 2 || len(a) > 3 {
		usage(bot, sess.ChatID, "/receipt <roomNo> <name> [Month-YYYY]")
		return
	}
	monthYear := h.monthArg(a, 2)
	if !models.IsValidMonthYear(monthYear) {
		reply(bot, sess.ChatID, fmt.Sprintf("❌ invalid month %q, expected Month-YYYY", monthYear))
		return
	}
	r, ok := h.resident(ctx, bot, sess, "receipt", a[0], a[1])
	if !ok {
		return
	}
	if _, idx := r.Entry(monthYear); idx < 0 {
		reply(bot, sess.ChatID, fmt.Sprintf("No payment recorded for %s in %s.", r.Name, monthYear))
		return
	}
	hostel, err := h.engine.Hostel(ctx, sess)
	if err != nil {
		replyErr(bot, sess.ChatID, "receipt", err)
		return
	}

	rec := report.Receipt{Hostel: *hostel, Resident: *r, MonthYear: monthYear, IssuedAt: h.now()}
	reply(bot, sess.ChatID, h.format.ReceiptText(rec))

	var buffer bytes.Buffer
	if err := report.WriteReceiptCSV(rec, &buffer); err != nil {
		logger.Error("Failed to generate receipt: %v", err)
		reply(bot, sess.ChatID, "❌ Failed to generate receipt file.")
		return
	}
	h.sendDocument(bot, sess.ChatID, rec.Filename(), buffer.Bytes(),
		fmt.Sprintf("🧾 Receipt %s, room %s, %s", r.Name, r.RoomNo, monthYear))
}

// ExportMonth sends the month's CSV report.
func (h *CommandHandler) ExportMonth(ctx context.Context, bot Bot, sess ledger.Session, monthYear string) {
	board, err := h.engine.PaymentBoard(ctx, sess, monthYear)
	if err != nil {
		replyErr(bot, sess.ChatID, "export", err)
		return
	}
	summary, err := h.engine.MonthlySummary(ctx, sess, monthYear)
	if err != nil {
		replyErr(bot, sess.ChatID, "export", err)
		return
	}
	expenses, _, err := h.engine.ListExpenses(ctx, sess, monthYear)
	if err != nil {
		replyErr(bot, sess.ChatID, "export", err)
		return
	}

	m := report.Monthly{
		HostelName: sess.HostelName,
		Board:      board,
		Summary:    summary,
		Expenses:   expenses,
		Generated:  h.now(),
	}
	var buffer bytes.Buffer
	if err := report.WriteMonthlyCSV(m, &buffer); err != nil {
		logger.Error("Failed to generate monthly report: %v", err)
		reply(bot, sess.ChatID, "❌ Failed to generate report file.")
		return
	}
	h.sendDocument(bot, sess.ChatID, m.Filename(), buffer.Bytes(),
		fmt.Sprintf("📊 %s report for %s\n💰 Income %s, expense %s, profit %s",
			sess.HostelName, monthYear,
			h.format.FormatAmount(summary.Income),
			h.format.FormatAmount(summary.Expense),
			h.format.FormatAmount(summary.Profit())))
}

func (h *CommandHandler) sendDocument(bot Bot, chatID int64, filename string, data []byte, caption string) {
	document := tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	}
	documentMsg := tgbotapi.NewDocument(chatID, document)
	documentMsg.Caption = caption

	if _, err := bot.Send(documentMsg); err != nil {
		logger.Error("Failed to send %s: %v", filename, err)
		reply(bot, chatID, "❌ Failed to send file.")
	}
}

