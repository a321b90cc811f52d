package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"hostel-ledger-bot/internal/config"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/ledger/memstore"
	"hostel-ledger-bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const (
	adminID   int64 = 1
	managerID int64 = 42
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type fakeBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type note struct {
	chatID  int64
	subject string
	body    string
}

type fakeNotifier struct {
	notes []note
	docs  []string
}

func (n *fakeNotifier) Notify(_ context.Context, chatID int64, subject, body string) error {
	n.notes = append(n.notes, note{chatID, subject, body})
	return nil
}

func (n *fakeNotifier) NotifyDocument(_ context.Context, _ int64, _, filename string, _ []byte) error {
	n.docs = append(n.docs, filename)
	return nil
}

type harness struct {
	t        *testing.T
	bot      *fakeBot
	notifier *fakeNotifier
	commands *CommandHandler
	events   *EventHandler
	nextID   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	n := 0
	engine := ledger.New(memstore.New(),
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDs(func() string { n++; return fmt.Sprintf("id-%03d", n) }),
	)
	cfg := &config.Config{
		AdminIDs:       []int64{adminID},
		CurrencySymbol: "$",
		NumberLocale:   language.English,
		PageSize:       2,
	}
	notifier := &fakeNotifier{}
	commands := NewCommandHandler(engine, cfg, notifier)
	commands.now = func() time.Time { return testNow }
	return &harness{
		t:        t,
		bot:      &fakeBot{},
		notifier: notifier,
		commands: commands,
		events:   NewEventHandler(engine, cfg, commands),
	}
}

// send delivers a command from a user in their private chat and returns the
// text of the last reply.
func (h *harness) send(from int64, text string) string {
	h.t.Helper()
	h.nextID++
	cmd, _, _ := strings.Cut(text, " ")
	h.events.HandleMessage(h.bot, &tgbotapi.Message{
		MessageID: h.nextID,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	})
	return h.lastText()
}

func (h *harness) lastText() string {
	h.t.Helper()
	require.NotEmpty(h.t, h.bot.sent)
	switch m := h.bot.sent[len(h.bot.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	case tgbotapi.DocumentConfig:
		return m.Caption
	}
	return ""
}

// provision creates manager 42 running "Green Nest" through admin commands.
func (h *harness) provision() {
	h.t.Helper()
	out := h.send(adminID, "/addmanager username=Asha email=asha@example.com password=secret1 confirm=secret1 telegram=42")
	require.Contains(h.t, out, "Manager MGR0001 created")
	out = h.send(adminID, `/addhostel name="Green Nest" address="12 MG Road" district=Pune zipcode=411001 manager=asha@example.com capacity=20`)
	require.Contains(h.t, out, "Hostel HST0001 Green Nest created with 20 beds")
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "⛔ This command is for administrators.", h.send(managerID, "/hostels"))
	assert.Equal(t, "No hostels yet.", h.send(adminID, "/hostels"))
}

func TestUnknownUserGetsShortError(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "❌ Manager not found.", h.send(99, "/rooms"))
}

func TestAddManagerDeletesPasswordMessage(t *testing.T) {
	h := newHarness(t)
	h.provision()

	require.NotEmpty(t, h.bot.requests)
	del, ok := h.bot.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, adminID, del.ChatID)
	assert.Equal(t, 1, del.MessageID)

	out := h.send(adminID, "/addmanager username=Ravi email=ravi@example.com password=secret1 confirm=other1 telegram=43")
	assert.True(t, strings.HasPrefix(out, "❌ "), out)

	out = h.send(adminID, "/hostels")
	assert.Contains(t, out, "HST0001  Green Nest")
	assert.Contains(t, out, "manager Asha (MGR0001)")
	assert.Contains(t, out, "0/20 occupied, 20 vacant")
}

func TestProfileAndHostelCommands(t *testing.T) {
	h := newHarness(t)
	h.provision()

	out := h.send(managerID, "/profile")
	assert.Contains(t, out, "Hostel Name: Green Nest")
	assert.Contains(t, out, "Email ID: asha@example.com")

	out = h.send(managerID, `/editprofile phone=9876543210 address="4 Park St"`)
	assert.Contains(t, out, "✅ Profile updated.")
	assert.Contains(t, out, "Phone Number: 9876543210")
	assert.Contains(t, out, "Address Line: 4 Park St")
	out = h.send(managerID, "/editprofile email=not-an-email")
	assert.True(t, strings.HasPrefix(out, "❌ "), out)

	h.send(managerID, "/addroom 101 2")
	h.send(managerID, "/admit room=101 name=Ravi pay=3000 joined=2024-03-01")
	out = h.send(managerID, "/hostel")
	assert.Contains(t, out, "🏢 Green Nest (HST0001)")
	assert.Contains(t, out, "12 MG Road, Pune, 411001")
	assert.Contains(t, out, "📞 9876543210")
	assert.Contains(t, out, "Occupancy: 1")

	assert.Equal(t, "⛔ This command is for administrators.", h.send(managerID, "/edithostel id-002 name=X"))
	out = h.send(adminID, `/edithostel id-002 name="Green Nest Annex" capacity=25 manager="Asha R" email=asha.r@example.com`)
	assert.Contains(t, out, "✅ Hostel updated.")
	assert.Contains(t, out, "🏢 Green Nest Annex (HST0001)")
	assert.Contains(t, out, "Manager: Asha R")
	assert.Contains(t, out, "Capacity: 25")

	out = h.send(managerID, "/profile")
	assert.Contains(t, out, "Hostel Name: Green Nest Annex")
	assert.Contains(t, out, "Email ID: asha.r@example.com")

	h.send(adminID, "/delhostel id-002")
	assert.Equal(t, "❌ Your account is not linked to a hostel.", h.send(managerID, "/hostel"))
}

func TestManagerPaymentFlow(t *testing.T) {
	h := newHarness(t)
	h.provision()

	assert.Equal(t, "✅ Room 101 added with 1 beds.", h.send(managerID, "/addroom 101 1"))
	out := h.send(managerID, `/admit room=101 name="Ravi Kumar" pay=3000 advance=5000 joined=2024-03-01 chat=500`)
	assert.Contains(t, out, "Ravi Kumar admitted to room 101")
	assert.Equal(t, "❌ Room is already full.", h.send(managerID, "/admit room=101 name=Anu pay=3000 joined=2024-03-01"))

	out = h.send(managerID, `/pay 101 "Ravi Kumar" March-2024 3000 500 Cash`)
	assert.Contains(t, out, "Paid $2,500.00 (Cash), pending $500.00")
	assert.Contains(t, out, "Total pending: $500.00")

	out = h.send(managerID, "/pay 101 Nobody March-2024 3000 0")
	assert.Equal(t, "❌ Resident not found.", out)

	out = h.send(managerID, "/summary March-2024")
	assert.Contains(t, out, "Income: $2,500.00")
	assert.Contains(t, out, "Profit: $2,500.00")
	assert.Contains(t, out, "Occupancy: 1")

	out = h.send(managerID, "/board")
	assert.Contains(t, out, "paid $2,500.00  pending $500.00  Cash")
	assert.Contains(t, out, "Advance $5,000.00")

	out = h.send(managerID, `/extra 101 "Ravi Kumar" Laundry 200`)
	assert.Contains(t, out, "Pending with extras: $700.00")
}

func TestReceiptAndExport(t *testing.T) {
	h := newHarness(t)
	h.provision()
	h.send(managerID, "/addroom 101 2")
	h.send(managerID, `/admit room=101 name=Ravi pay=3000 advance=5000 joined=2024-03-01`)

	assert.Equal(t, "No payment recorded for Ravi in March-2024.", h.send(managerID, "/receipt 101 Ravi"))

	h.send(managerID, "/pay 101 Ravi March-2024 3000 500 Online")
	before := len(h.bot.sent)
	h.send(managerID, "/receipt 101 Ravi March-2024")
	require.Len(t, h.bot.sent, before+2)

	text := h.bot.sent[before].(tgbotapi.MessageConfig).Text
	assert.Contains(t, text, "GREEN NEST")
	assert.Contains(t, text, "Rupees TWO THOUSAND FIVE HUNDRED")
	assert.Contains(t, text, "[ ] CASH  [x] A/c")
	doc := h.bot.sent[before+1].(tgbotapi.DocumentConfig)
	assert.Equal(t, "Billing_Form_101_March-2024.csv", doc.File.(tgbotapi.FileBytes).Name)

	h.send(managerID, `/expense 1200 "Gas cylinder" 2024-03-05`)
	out := h.send(managerID, "/expenses")
	assert.Contains(t, out, "Gas cylinder  $1,200.00")
	assert.Contains(t, out, "Total: $1,200.00")

	caption := h.send(managerID, "/export March-2024")
	assert.Contains(t, caption, "Income $2,500.00, expense $1,200.00, profit $1,300.00")
	export := h.bot.sent[len(h.bot.sent)-1].(tgbotapi.DocumentConfig)
	file := export.File.(tgbotapi.FileBytes)
	assert.Equal(t, "hostel_report_March-2024.csv", file.Name)
	assert.Contains(t, string(file.Bytes), "Gas cylinder")
}

func TestRosterPaging(t *testing.T) {
	h := newHarness(t)
	h.provision()
	h.send(managerID, "/addroom 102 5")
	for _, name := range []string{"Anu", "Bala", "Chitra"} {
		h.send(managerID, "/admit room=102 name="+name+" pay=2500 joined=2024-02-01")
	}

	out := h.send(managerID, "/roster March-2024")
	assert.Contains(t, out, "Roster March-2024 (3 residents)")
	assert.Contains(t, out, "1. 102  Anu")
	assert.NotContains(t, out, "Chitra")
	msg := h.bot.sent[len(h.bot.sent)-1].(tgbotapi.MessageConfig)
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	next := keyboard.InlineKeyboard[0][len(keyboard.InlineKeyboard[0])-1]
	assert.Equal(t, "page_roster_March-2024_2", *next.CallbackData)

	h.events.HandleCallbackQuery(h.bot, &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: managerID},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: managerID}},
		Data:    *next.CallbackData,
	})
	edit := h.bot.sent[len(h.bot.sent)-1].(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, 7, edit.MessageID)
	assert.Contains(t, edit.Text, "3. 102  Chitra")
	_, answered := h.bot.requests[len(h.bot.requests)-1].(tgbotapi.CallbackConfig)
	assert.True(t, answered)
}

func TestNotifyAndReminders(t *testing.T) {
	h := newHarness(t)
	h.provision()
	h.send(managerID, "/addroom 101 3")
	h.send(managerID, "/admit room=101 name=Ravi pay=3000 joined=2024-03-01 chat=500")
	h.send(managerID, "/admit room=101 name=Anu pay=3000 joined=2024-03-01")

	out := h.send(managerID, "/notify 101 Water off at 10am")
	assert.Contains(t, out, "Sent to 1 of 2 residents.")
	assert.Contains(t, out, "Anu (no chat linked)")
	require.Len(t, h.notifier.notes, 1)
	assert.Equal(t, int64(500), h.notifier.notes[0].chatID)
	assert.Equal(t, "Water off at 10am", h.notifier.notes[0].body)

	assert.Equal(t, "✅ No pending payments.", h.send(managerID, "/remind"))

	h.send(managerID, "/pay 101 Ravi March-2024 3000 800")
	require.NoError(t, h.commands.SendReminders(context.Background()))
	last := h.notifier.notes[len(h.notifier.notes)-1]
	assert.Equal(t, managerID, last.chatID)
	assert.Equal(t, "Pending Rental Reminder: Green Nest", last.subject)
	assert.Contains(t, last.body, "Name: Ravi\nRoom No: 101")
	assert.Contains(t, last.body, "Pending Amount: $800.00")
}

func TestReconcileCommand(t *testing.T) {
	h := newHarness(t)
	h.provision()

	h.send(adminID, "/reconcile")
	require.NotEmpty(t, h.notifier.notes)
	last := h.notifier.notes[len(h.notifier.notes)-1]
	assert.Equal(t, adminID, last.chatID)
	assert.Contains(t, last.body, "1 hostels checked.")
	assert.Contains(t, last.body, "No drift found.")
}

func TestMalformedArguments(t *testing.T) {
	h := newHarness(t)
	h.provision()
	assert.Equal(t, "❌ unbalanced quotes in arguments", h.send(managerID, `/addroom "101 2`))
	assert.Equal(t, "Usage: /addroom <roomNo> <capacity>", h.send(managerID, "/addroom 101"))
	assert.Equal(t, "Unknown command. Use /help to see what I can do.", h.send(managerID, "/dance"))
	assert.NotContains(t, h.send(managerID, "/help"), "/reconcile")
	assert.Contains(t, h.send(adminID, "/help"), "/reconcile")
}
