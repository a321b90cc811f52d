package handlers

import (
	"context"
	"fmt"
	"strings"

	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"
	"hostel-ledger-bot/internal/utils"
)

// SendProfile shows the manager's own account.
func (h *CommandHandler) SendProfile(ctx context.Context, bot Bot, sess ledger.Session) {
	m, err := h.engine.Profile(ctx, sess)
	if err != nil {
		replyErr(bot, sess.ChatID, "profile", err)
		return
	}
	reply(bot, sess.ChatID, profileText(sess.HostelName, m))
}

func profileText(hostelName string, m *models.Manager) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 Profile (%s)\n\n", m.ManagerCode)
	fmt.Fprintf(&b, "Hostel Name: %s\n", hostelName)
	fmt.Fprintf(&b, "Username: %s\n", m.Username)
	fmt.Fprintf(&b, "Email ID: %s\n", m.Email)
	fmt.Fprintf(&b, "Address Line: %s\n", m.AddressLine)
	fmt.Fprintf(&b, "District: %s\n", m.District)
	fmt.Fprintf(&b, "Zipcode: %s\n", m.Zipcode)
	fmt.Fprintf(&b, "Phone Number: %s", m.PhoneNumber)
	return b.String()
}

// EditProfile applies key=value changes to the manager's own account.
func (h *CommandHandler) EditProfile(ctx context.Context, bot Bot, sess ledger.Session, a []string) {
	if len(a) == 0 {
		usage(bot, sess.ChatID, "/editprofile key=value... (username email phone address district zipcode)")
		return
	}
	fields, err := utils.ParseFields(strings.Join(quoteAll(a), " "))
	if err != nil {
		reply(bot, sess.ChatID, "❌ "+err.Error())
		return
	}
	m, err := h.engine.UpdateProfile(ctx, sess, profileUpdate(fields))
	if err != nil {
		replyErr(bot, sess.ChatID, "edit profile", err)
		return
	}
	reply(bot, sess.ChatID, "✅ Profile updated.\n\n"+profileText(sess.HostelName, m))
}

func profileUpdate(f utils.Fields) ledger.ProfileUpdate {
	return ledger.ProfileUpdate{
		Username:    f.Optional("username"),
		Email:       f.Optional("email"),
		PhoneNumber: f.Optional("phone"),
		AddressLine: f.Optional("address"),
		District:    f.Optional("district"),
		Zipcode:     f.Optional("zipcode"),
	}
}

// SendHostelInfo shows the manager's hostel with its occupancy.
func (h *CommandHandler) SendHostelInfo(ctx context.Context, bot Bot, sess ledger.Session) {
	o, err := h.engine.HostelInfo(ctx, sess)
	if err != nil {
		replyErr(bot, sess.ChatID, "hostel info", err)
		return
	}
	reply(bot, sess.ChatID, hostelText(o))
}

func hostelText(o *ledger.HostelOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏢 %s (%s)\n", o.Hostel.HostelName, o.Hostel.HostelCode)
	fmt.Fprintf(&b, "%s\n\n", o.Hostel.Address())
	if o.Manager != nil {
		fmt.Fprintf(&b, "Manager: %s\n📧 %s\n", o.Manager.Username, o.Manager.Email)
		if o.Manager.PhoneNumber != "" {
			fmt.Fprintf(&b, "📞 %s\n", o.Manager.PhoneNumber)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Capacity: %d\nOccupancy: %d\nVacancy: %d", o.Capacity, o.Occupancy, o.Vacancy())
	return b.String()
}
