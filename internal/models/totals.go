package models

import "github.com/shopspring/decimal"

// IncomeTotal is the income side of the monthly totals ledger
// (totals/{hostel}/totalprofit/{monthYear}).
type IncomeTotal struct {
	ID        string          `bson:"_id" json:"id"` // hostelId|monthYear
	HostelID  string          `bson:"hostelId" json:"hostelId"`
	MonthYear string          `bson:"monthYear" json:"monthYear"`
	TotalPaid decimal.Decimal `bson:"totalPaid" json:"totalPaid"`
	UserID    string          `bson:"userId" json:"userId"`
	UpdatedAt int64           `bson:"updatedAt" json:"updatedAt"`
}

// ExpenseTotal is the expense side (totals/{hostel}/totalexpense/{monthYear}).
// AppliedOps remembers recent delta operation ids so a delta is applied once.
type ExpenseTotal struct {
	ID          string          `bson:"_id" json:"id"`
	HostelID    string          `bson:"hostelId" json:"hostelId"`
	MonthYear   string          `bson:"monthYear" json:"monthYear"`
	TotalAmount decimal.Decimal `bson:"totalAmount" json:"totalAmount"`
	UserID      string          `bson:"userId" json:"userId"`
	AppliedOps  []string        `bson:"appliedOps,omitempty" json:"-"`
	UpdatedAt   int64           `bson:"updatedAt" json:"updatedAt"`
}

// TotalID is the document id of a totals row.
func TotalID(hostelID, monthYear string) string {
	return hostelID + "|" + monthYear
}
