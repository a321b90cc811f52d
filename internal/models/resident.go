package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayMode is how a month's payment was received.
type PayMode string

const (
	PayModeDefault PayMode = "default"
	PayModeCash    PayMode = "Cash"
	PayModeOnline  PayMode = "Online"
)

// ParsePayMode accepts the mode names case-insensitively; empty means default.
func ParsePayMode(s string) (PayMode, bool) {
	switch {
	case s == "" || strings.EqualFold(s, string(PayModeDefault)):
		return PayModeDefault, true
	case strings.EqualFold(s, string(PayModeCash)):
		return PayModeCash, true
	case strings.EqualFold(s, string(PayModeOnline)):
		return PayModeOnline, true
	}
	return "", false
}

// MonthEntry is one month of a resident's billing history.
type MonthEntry struct {
	MonthYear string          `bson:"monthYear" json:"monthYear"`
	Pending   decimal.Decimal `bson:"pending" json:"pending"`
	Paid      decimal.Decimal `bson:"paid" json:"paid"`
	ModeOfPay PayMode         `bson:"modeOfPay" json:"modeOfPay"`
}

// ExtraCharge is an ad-hoc charge outside the monthly cycle.
type ExtraCharge struct {
	Reason string          `bson:"reason" json:"reason"`
	Amount decimal.Decimal `bson:"amount" json:"amount"`
}

// Resident is one hostel occupant ("hostler").
type Resident struct {
	ID                 string          `bson:"_id" json:"id"`
	UserID             string          `bson:"userId" json:"userId"`
	Name               string          `bson:"name" json:"name"`
	RoomNo             string          `bson:"roomNo" json:"roomNo"`
	PhoneNo            string          `bson:"phoneNo,omitempty" json:"phoneNo,omitempty"`
	Email              string          `bson:"email,omitempty" json:"email,omitempty"`
	IDDocument         string          `bson:"idDocument,omitempty" json:"idDocument,omitempty"`
	AddressLine        string          `bson:"addressLine,omitempty" json:"addressLine,omitempty"`
	District           string          `bson:"district,omitempty" json:"district,omitempty"`
	Zipcode            string          `bson:"zipcode,omitempty" json:"zipcode,omitempty"`
	TelegramChatID     int64           `bson:"telegramChatId,omitempty" json:"telegramChatId,omitempty"`
	Advance            decimal.Decimal `bson:"advance" json:"advance"`
	MonthlyPay         decimal.Decimal `bson:"monthlyPay" json:"monthlyPay"`
	MonthArray         []MonthEntry    `bson:"monthArray" json:"monthArray"`
	Extra              []ExtraCharge   `bson:"extra" json:"extra"`
	TotalPendingPerson decimal.Decimal `bson:"totalPendingPerson" json:"totalPendingPerson"`
	JoiningDate        time.Time       `bson:"joiningDate" json:"joiningDate"`
	DateOfRelieving    *time.Time      `bson:"dateOfRelieving,omitempty" json:"dateOfRelieving,omitempty"`
	IsDeleted          bool            `bson:"is_deleted" json:"is_deleted"`
	Revision           int64           `bson:"revision" json:"revision"`
	CreatedAt          int64           `bson:"createdAt" json:"createdAt"`
}

// Entry returns the month entry for monthYear and its index, or -1.
// Keys are compared as months, so surrounding spaces do not matter.
func (r *Resident) Entry(monthYear string) (MonthEntry, int) {
	want, err := ParseMonthYear(monthYear)
	if err != nil {
		return MonthEntry{MonthYear: monthYear, ModeOfPay: PayModeDefault}, -1
	}
	for i, e := range r.MonthArray {
		if m, err := ParseMonthYear(e.MonthYear); err == nil && m == want {
			return e, i
		}
	}
	return MonthEntry{MonthYear: want.String(), ModeOfPay: PayModeDefault}, -1
}

// PendingSum sums pending across the month array.
func (r *Resident) PendingSum() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range r.MonthArray {
		sum = sum.Add(e.Pending)
	}
	return sum
}
