package handlers

import (
	"context"
	"fmt"
	"strings"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/logger"
	"hostel-ledger-bot/internal/notify"
)

const reminderSubject = "Pending Rental Reminder"

// RunReconcile rebuilds every counter and sends the drift report to the
// given chats.
func (h *CommandHandler) RunReconcile(ctx context.Context, recipients []int64) error {
	logger.Info("Executing reconciliation...")
	rep, err := h.engine.Reconcile(ctx, ledger.AdminSession(0))
	if err != nil {
		return err
	}
	body := reconcileText(rep)
	for _, chatID := range recipients {
		if err := h.notifier.Notify(ctx, chatID, "🔧 Reconciliation", body); err != nil {
			logger.Warning("Failed to send reconciliation report to %d: %v", chatID, err)
		}
	}
	return nil
}

func reconcileText(rep *ledger.ReconcileReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d hostels checked.\n", rep.Hostels)
	if len(rep.Drifts) == 0 {
		b.WriteString("✅ No drift found.")
	} else {
		fmt.Fprintf(&b, "⚠️ %d counters repaired:\n", len(rep.Drifts))
		for _, d := range rep.Drifts {
			fmt.Fprintf(&b, "• %s\n", d)
		}
	}
	if len(rep.Failures) > 0 {
		b.WriteString("\n❌ Failed:\n")
		for _, f := range rep.Failures {
			fmt.Fprintf(&b, "• %s\n", f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// SendReminders sends every manager the list of residents who owe money.
// Managers with nothing pending get nothing.
func (h *CommandHandler) SendReminders(ctx context.Context) error {
	logger.Info("Executing pending reminders...")
	sessions, err := h.engine.ManagerSessions(ctx)
	if err != nil {
		return err
	}
	sent := 0
	for _, sess := range sessions {
		ok, err := h.remind(ctx, sess)
		if err != nil {
			logger.Warning("Reminder for %s failed: %v", sess.HostelName, err)
			continue
		}
		if ok {
			sent++
		}
	}
	logger.Info("Pending reminders sent to %d of %d managers", sent, len(sessions))
	return nil
}

// remind reports whether a reminder was sent.
func (h *CommandHandler) remind(ctx context.Context, sess ledger.Session) (bool, error) {
	residents, err := h.engine.PendingResidents(ctx, sess)
	if err != nil {
		return false, err
	}
	body := h.format.ReminderBody(residents)
	if body == "" {
		return false, nil
	}
	subject := fmt.Sprintf("%s: %s", reminderSubject, sess.HostelName)
	return true, h.notifier.Notify(ctx, sess.ChatID, subject, body)
}

// Remind handles /remind for the calling manager.
func (h *CommandHandler) Remind(ctx context.Context, bot Bot, sess ledger.Session) {
	ok, err := h.remind(ctx, sess)
	if err != nil {
		replyErr(bot, sess.ChatID, "remind", err)
		return
	}
	if !ok {
		reply(bot, sess.ChatID, "✅ No pending payments.")
	}
}

// NotifyRoom handles /notify: the message goes to every resident of the room
// with a linked Telegram chat.
func (h *CommandHandler) NotifyRoom(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 2 {
		usage(bot, sess.ChatID, "/notify <roomNo> <message>")
		return
	}
	roomNo, text := a[0], strings.Join(a[1:], " ")
	residents, err := h.engine.RoomResidents(ctx, sess, roomNo)
	if err != nil {
		replyErr(bot, sess.ChatID, "notify", err)
		return
	}
	if len(residents) == 0 {
		reply(bot, sess.ChatID, fmt.Sprintf("No residents in room %s.", roomNo))
		return
	}

	var to []notify.Recipient
	var failed []string
	for _, r := range residents {
		if r.TelegramChatID == 0 {
			failed = append(failed, r.Name+" (no chat linked)")
			continue
		}
		to = append(to, notify.Recipient{ChatID: r.TelegramChatID, Name: r.Name})
	}
	subject := fmt.Sprintf("📢 %s, room %s", sess.HostelName, roomNo)
	delivered := 0
	for _, res := range notify.Broadcast(ctx, h.notifier, to, subject, text) {
		if res.Err != nil {
			failed = append(failed, fmt.Sprintf("%s (%s)", res.Name, apperr.UserMessage(res.Err)))
			continue
		}
		delivered++
	}

	msg := fmt.Sprintf("📨 Sent to %d of %d residents.", delivered, len(residents))
	if len(failed) > 0 {
		msg += "\nNot delivered: " + strings.Join(failed, ", ")
	}
	reply(bot, sess.ChatID, msg)
}
