package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one discretionary expense recorded by a manager.
type Expense struct {
	ID          string          `bson:"_id" json:"id"`
	UserID      string          `bson:"userId" json:"userId"`
	ExpenseName string          `bson:"expenseName" json:"expenseName"`
	Amount      decimal.Decimal `bson:"amount" json:"amount"`
	Date        time.Time       `bson:"date" json:"date"`
	Revision    int64           `bson:"revision" json:"revision"`
	CreatedAt   int64           `bson:"createdAt" json:"createdAt"`
}

func (e Expense) MonthYear() MonthYear {
	return MonthYearOf(e.Date)
}
