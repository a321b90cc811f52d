// Package notify delivers messages to managers and residents over Telegram.
package notify

import (
	"bytes"
	"context"
	"fmt"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers a message with a subject to one chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, subject, body string) error
	NotifyDocument(ctx context.Context, chatID int64, caption, filename string, data []byte) error
}

// Telegram is a Notifier backed by a bot. Failures are returned, never retried.
type Telegram struct {
	bot Sender
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(bot Sender) *Telegram {
	return &Telegram{bot: bot}
}

func (t *Telegram) Notify(ctx context.Context, chatID int64, subject, body string) error {
	const op = "notify"
	if err := ctx.Err(); err != nil {
		return err
	}
	if chatID == 0 {
		return apperr.NotFound(apperr.ErrNoRecipient, op, "no chat to deliver %q to", subject)
	}

	var buf bytes.Buffer
	if subject != "" {
		fmt.Fprintf(&buf, "%s\n\n", subject)
	}
	buf.WriteString(body)

	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, buf.String())); err != nil {
		logger.Error("%s: chat %d: %v", op, chatID, err)
		return apperr.Delivery(op, err)
	}
	return nil
}

func (t *Telegram) NotifyDocument(ctx context.Context, chatID int64, caption, filename string, data []byte) error {
	const op = "notify document"
	if err := ctx.Err(); err != nil {
		return err
	}
	if chatID == 0 {
		return apperr.NotFound(apperr.ErrNoRecipient, op, "no chat to deliver %s to", filename)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	if _, err := t.bot.Send(doc); err != nil {
		logger.Error("%s: %s to chat %d: %v", op, filename, chatID, err)
		return apperr.Delivery(op, err)
	}
	return nil
}

// Result is the outcome of a broadcast to one recipient.
type Result struct {
	ChatID int64
	Name   string
	Err    error
}

// Recipient is a named chat.
type Recipient struct {
	ChatID int64
	Name   string
}

// Broadcast sends the same message to every recipient and reports each
// outcome. One failure does not stop the rest.
func Broadcast(ctx context.Context, n Notifier, to []Recipient, subject, body string) []Result {
	results := make([]Result, 0, len(to))
	for _, r := range to {
		results = append(results, Result{ChatID: r.ChatID, Name: r.Name, Err: n.Notify(ctx, r.ChatID, subject, body)})
	}
	return results
}
