package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"
)

// Monthly is everything the monthly export covers.
type Monthly struct {
	HostelName string
	Board      *ledger.Board
	Summary    *ledger.Summary
	Expenses   []models.Expense
	Generated  time.Time
}

// Filename is the document name of the export.
func (m Monthly) Filename() string {
	return fmt.Sprintf("hostel_report_%s.csv", m.Summary.MonthYear)
}

// WriteMonthlyCSV writes the month's payment board, expenses and totals.
func WriteMonthlyCSV(m Monthly, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	// Header section
	rows := [][]string{
		{"Monthly Hostel Report"},
		{"Hostel", m.HostelName},
		{"Month", m.Summary.MonthYear},
		{"Generated", m.Generated.Format("2006-01-02 15:04:05")},
		{},
		{"SUMMARY"},
		{"Income", m.Summary.Income.StringFixed(2)},
		{"Expense", m.Summary.Expense.StringFixed(2)},
		{"Profit", m.Summary.Profit().StringFixed(2)},
		{"Capacity", strconv.Itoa(m.Summary.Capacity)},
		{"Occupancy", strconv.Itoa(m.Summary.Occupancy)},
		{"Vacancy", strconv.Itoa(m.Summary.Vacancy())},
		{},
	}

	if m.Board != nil && len(m.Board.Rows) > 0 {
		rows = append(rows,
			[]string{"RESIDENTS"},
			[]string{"Room No", "Name", "Advance", "Monthly Pay", "Paid", "Pending", "Mode", "Total Pending"},
		)
		for _, row := range m.Board.Rows {
			rows = append(rows, []string{
				row.Resident.RoomNo,
				row.Resident.Name,
				row.Resident.Advance.StringFixed(2),
				row.Resident.MonthlyPay.StringFixed(2),
				row.Paid().StringFixed(2),
				row.Entry.Pending.StringFixed(2),
				string(row.Entry.ModeOfPay),
				ledger.PendingTotal(&row.Resident, ledger.FieldPending).StringFixed(2),
			})
		}
		rows = append(rows,
			[]string{"TOTAL", "", m.Board.TotalAdvance.StringFixed(2), m.Board.TotalMonthlyPay.StringFixed(2), "", m.Board.TotalPending.StringFixed(2)},
			[]string{},
		)
	}

	if len(m.Expenses) > 0 {
		rows = append(rows,
			[]string{"EXPENSES"},
			[]string{"Date", "Expense", "Amount"},
		)
		for _, x := range m.Expenses {
			rows = append(rows, []string{x.Date.Format("2006-01-02"), x.ExpenseName, x.Amount.StringFixed(2)})
		}
	}

	for _, row := range rows {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write monthly report: %w", err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ReminderBody lists every resident with an outstanding balance, one block
// per resident. It returns "" when nobody owes anything.
func (f *Formatter) ReminderBody(residents []models.Resident) string {
	var blocks []string
	for _, r := range residents {
		if !r.TotalPendingPerson.IsPositive() {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Name: %s\nRoom No: %s\nMobile No: %s\nPending Amount: %s",
			r.Name, r.RoomNo, r.PhoneNo, f.FormatAmount(r.TotalPendingPerson)))
	}
	return strings.Join(blocks, "\n\n")
}
