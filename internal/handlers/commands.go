package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hostel-ledger-bot/internal/config"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"
	"hostel-ledger-bot/internal/notify"
	"hostel-ledger-bot/internal/report"
	"hostel-ledger-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	engine   *ledger.Engine
	config   *config.Config
	format   *report.Formatter
	notifier notify.Notifier
	now      func() time.Time
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(engine *ledger.Engine, cfg *config.Config, notifier notify.Notifier) *CommandHandler {
	return &CommandHandler{
		engine:   engine,
		config:   cfg,
		format:   report.NewFormatter(cfg.CurrencySymbol, cfg.NumberLocale),
		notifier: notifier,
		now:      time.Now,
	}
}

const managerHelp = `🏠 Hostel Ledger Bot

Rooms:
/rooms [search] - list rooms
/addroom <roomNo> <capacity>
/editroom <roomNo> <newRoomNo> <capacity>
/delroom <roomNo>

Residents:
/admit room=101 name="Ravi Kumar" pay=3000 advance=5000 joined=2024-03-01 [phone= email= id= address= district= zipcode= chat=]
/residents [search]
/editresident <roomNo> <name> key=value...
/transfer <roomNo> <name> <newRoomNo>
/relieve <roomNo> <name> [date]

Payments:
/pay <roomNo> <name> <Month-YYYY> <monthlyPay> <pending> [Cash|Online] [advance]
/extra <roomNo> <name> <reason> <amount>
/editextra <roomNo> <name> <reason> <amount>
/board [Month-YYYY] - payment tracking
/roster [Month-YYYY] - residents billed in a month
/receipt <roomNo> <name> [Month-YYYY]

Expenses:
/expense <amount> <name> [date]
/editexpense <id> <amount> <name> [date]
/delexpense <id>
/expenses [Month-YYYY]

Reports:
/summary [Month-YYYY] - income, expense and profit
/export [Month-YYYY] - CSV report
/notify <roomNo> <message>
/remind - pending payments reminder

Account:
/profile
/editprofile key=value... (username email phone address district zipcode)
/hostel - hostel details and occupancy`

const adminHelp = `

Admin:
/addmanager username= email= password= confirm= telegram= [phone= address= district= zipcode=]
/addhostel name= address= district= zipcode= manager=<email> capacity=
/hostels
/hostelcap <hostelId> <capacity>
/edithostel <hostelId> key=value... (name address district zipcode capacity manager email phone)
/delhostel <hostelId>
/report <hostelId> [Month-YYYY]
/reconcile`

// SendHelp sends help information
func (h *CommandHandler) SendHelp(bot Bot, chatID int64, admin bool) {
	text := managerHelp
	if admin {
		text += adminHelp
	}
	reply(bot, chatID, text)
}

// ListRooms sends the manager's rooms in room order.
func (h *CommandHandler) ListRooms(ctx context.Context, bot Bot, sess ledger.Session, search string) {
	rooms, err := h.engine.ListRooms(ctx, sess, search)
	if err != nil {
		replyErr(bot, sess.ChatID, "list rooms", err)
		return
	}
	if len(rooms) == 0 {
		reply(bot, sess.ChatID, "No rooms found.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚪 Rooms of %s\n\n", sess.HostelName)
	free := 0
	for _, r := range rooms {
		fmt.Fprintf(&b, "%s  %d/%d", r.RoomNo, r.Occupancy, r.Capacity)
		if r.IsFull() {
			b.WriteString("  full")
		} else {
			fmt.Fprintf(&b, "  %d free", r.Vacancy())
		}
		b.WriteString("\n")
		free += r.Vacancy()
	}
	fmt.Fprintf(&b, "\n%d rooms, %d free beds", len(rooms), free)
	reply(bot, sess.ChatID, b.String())
}

func (h *CommandHandler) AddRoom(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 2 {
		usage(bot, sess.ChatID, "/addroom <roomNo> <capacity>")
		return
	}
	capacity, err := utils.ParseCapacity(a[1])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	room, err := h.engine.AddRoom(ctx, sess, a[0], capacity)
	if err != nil {
		replyErr(bot, sess.ChatID, "add room", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Room %s added with %d beds.", room.RoomNo, room.Capacity))
}

func (h *CommandHandler) EditRoom(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 3 {
		usage(bot, sess.ChatID, "/editroom <roomNo> <newRoomNo> <capacity>")
		return
	}
	capacity, err := utils.ParseCapacity(a[2])
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	room, err := h.engine.UpdateRoom(ctx, sess, a[0], a[1], capacity)
	if err != nil {
		replyErr(bot, sess.ChatID, "edit room", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Room %s now has %d beds (%d occupied).", room.RoomNo, room.Capacity, room.Occupancy))
}

func (h *CommandHandler) DeleteRoom(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 1 {
		usage(bot, sess.ChatID, "/delroom <roomNo>")
		return
	}
	if err := h.engine.DeleteRoom(ctx, sess, a[0]); err != nil {
		replyErr(bot, sess.ChatID, "delete room", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("🗑️ Room %s deleted.", a[0]))
}

// Admit reads key=value fields into an admission.
func (h *CommandHandler) Admit(ctx context.Context, bot Bot, sess ledger.Session, message *tgbotapi.Message) {
	fields, err := utils.ParseFields(message.CommandArguments())
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	req, err := h.admitRequest(fields)
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}

	r, err := h.engine.AdmitResident(ctx, sess, req)
	if err != nil {
		replyErr(bot, sess.ChatID, "admit resident", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ %s admitted to room %s from %s.\nMonthly pay %s, advance %s.",
		r.Name, r.RoomNo, r.JoiningDate.Format("02 Jan 2006"),
		h.format.FormatAmount(r.MonthlyPay), h.format.FormatAmount(r.Advance)))
}

func (h *CommandHandler) admitRequest(f utils.Fields) (ledger.AdmitRequest, error) {
	var req ledger.AdmitRequest
	var err error
	if req.RoomNo, err = f.Require("room"); err != nil {
		return req, err
	}
	if req.Name, err = f.Require("name"); err != nil {
		return req, err
	}
	pay, err := f.Require("pay")
	if err != nil {
		return req, err
	}
	if req.MonthlyPay, err = utils.ParseAmount(pay); err != nil {
		return req, err
	}
	req.Advance = decimal.Zero
	if v, ok := f["advance"]; ok {
		if req.Advance, err = utils.ParseAmount(v); err != nil {
			return req, err
		}
	}
	req.JoiningDate = h.now().UTC().Truncate(24 * time.Hour)
	if v, ok := f["joined"]; ok {
		if req.JoiningDate, err = utils.ParseDate(v); err != nil {
			return req, err
		}
	}
	if v, ok := f["chat"]; ok {
		if req.TelegramChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return req, fmt.Errorf("invalid chat id %q", v)
		}
	}
	req.PhoneNo = f["phone"]
	req.Email = f["email"]
	req.IDDocument = f["id"]
	req.AddressLine = f["address"]
	req.District = f["district"]
	req.Zipcode = f["zipcode"]
	return req, nil
}

// ListResidents sends live residents matching search.
func (h *CommandHandler) ListResidents(ctx context.Context, bot Bot, sess ledger.Session, search string) {
	residents, err := h.engine.ListResidents(ctx, sess, ledger.ResidentFilter{Search: search})
	if err != nil {
		replyErr(bot, sess.ChatID, "list residents", err)
		return
	}
	if len(residents) == 0 {
		reply(bot, sess.ChatID, "No residents found.")
		return
	}

	now := h.now()
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Residents of %s\n\n", sess.HostelName)
	for _, r := range residents {
		fmt.Fprintf(&b, "%s  %s", r.RoomNo, r.Name)
		if r.PhoneNo != "" {
			fmt.Fprintf(&b, "  📞 %s", r.PhoneNo)
		}
		fmt.Fprintf(&b, "\n   joined %s, %d months, pending %s\n",
			r.JoiningDate.Format("02 Jan 2006"),
			ledger.MonthsStayed(r.JoiningDate, r.DateOfRelieving, now),
			h.format.FormatAmount(ledger.PendingTotal(&r, ledger.FieldPending)))
	}
	fmt.Fprintf(&b, "\n%d residents", len(residents))
	reply(bot, sess.ChatID, b.String())
}

// resident resolves "<roomNo> <name>" arguments.
func (h *CommandHandler) resident(ctx context.Context, bot Bot, sess ledger.Session, op, roomNo, name string) (*models.Resident, bool) {
	r, err := h.engine.FindResidentInRoom(ctx, sess, roomNo, name)
	if err != nil {
		replyErr(bot, sess.ChatID, op, err)
		return nil, false
	}
	return r, true
}

// EditResident applies key=value changes after "<roomNo> <name>".
func (h *CommandHandler) EditResident(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 3 {
		usage(bot, sess.ChatID, "/editresident <roomNo> <name> key=value... (name phone email id address district zipcode chat advance pay)")
		return
	}
	fields, err := utils.ParseFields(strings.Join(quoteAll(a[2:]), " "))
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	upd, err := residentUpdate(fields)
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	r, ok := h.resident(ctx, bot, sess, "edit resident", a[0], a[1])
	if !ok {
		return
	}
	r, err = h.engine.UpdateResidentDetails(ctx, sess, r.ID, upd)
	if err != nil {
		replyErr(bot, sess.ChatID, "edit resident", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ Updated %s in room %s.", r.Name, r.RoomNo))
}

// quoteAll re-quotes split arguments so values with spaces survive a second split.
func quoteAll(a []string) []string {
	out := make([]string, len(a))
	for i, s := range a {
		if k, v, ok := strings.Cut(s, "="); ok {
			out[i] = k + `="` + v + `"`
		} else {
			out[i] = s
		}
	}
	return out
}

func residentUpdate(f utils.Fields) (ledger.ResidentUpdate, error) {
	upd := ledger.ResidentUpdate{
		Name:        f.Optional("name"),
		PhoneNo:     f.Optional("phone"),
		Email:       f.Optional("email"),
		IDDocument:  f.Optional("id"),
		AddressLine: f.Optional("address"),
		District:    f.Optional("district"),
		Zipcode:     f.Optional("zipcode"),
	}
	if v := f.Optional("chat"); v != nil {
		id, err := strconv.ParseInt(*v, 10, 64)
		if err != nil {
			return upd, fmt.Errorf("invalid chat id %q", *v)
		}
		upd.TelegramChatID = &id
	}
	for key, dst := range map[string]**decimal.Decimal{"advance": &upd.Advance, "pay": &upd.MonthlyPay} {
		if v := f.Optional(key); v != nil {
			amount, err := utils.ParseAmount(*v)
			if err != nil {
				return upd, err
			}
			*dst = &amount
		}
	}
	return upd, nil
}

func (h *CommandHandler) Transfer(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) != 3 {
		usage(bot, sess.ChatID, "/transfer <roomNo> <name> <newRoomNo>")
		return
	}
	r, ok := h.resident(ctx, bot, sess, "transfer resident", a[0], a[1])
	if !ok {
		return
	}
	r, err := h.engine.TransferResident(ctx, sess, ledger.TransferRequest{
		ResidentID: r.ID,
		OldRoomNo:  a[0],
		NewRoomNo:  a[2],
	})
	if err != nil {
		replyErr(bot, sess.ChatID, "transfer resident", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("✅ %s moved from room %s to %s.", r.Name, a[0], r.RoomNo))
}

func (h *CommandHandler) Relieve(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) < 2 || len(a) > 3 {
		usage(bot, sess.ChatID, "/relieve <roomNo> <name> [date]")
		return
	}
	on := h.now().UTC().Truncate(24 * time.Hour)
	if len(a) == 3 {
		d, err := utils.ParseDate(a[2])
		if err != nil {
			reply(bot, sess.ChatID, "❌ "+err.Error())
			return
		}
		on = d
	}
	r, ok := h.resident(ctx, bot, sess, "relieve resident", a[0], a[1])
	if !ok {
		return
	}
	r, err := h.engine.RelieveResident(ctx, sess, r.ID, on)
	if err != nil {
		replyErr(bot, sess.ChatID, "relieve resident", err)
		return
	}
	reply(bot, sess.ChatID, fmt.Sprintf("👋 %s relieved from room %s on %s. Pending %s.",
		r.Name, r.RoomNo, on.Format("02 Jan 2006"), h.format.FormatAmount(r.TotalPendingPerson)))
}
