package report_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"
	"hostel-ledger-bot/internal/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestAmountInWords(t *testing.T) {
	cases := map[string]string{
		"0":       "ZERO",
		"7":       "SEVEN",
		"40":      "FORTY",
		"115":     "ONE HUNDRED AND FIFTEEN",
		"2500":    "TWO THOUSAND FIVE HUNDRED",
		"3050.50": "THREE THOUSAND FIFTY AND FIFTY PAISE",
		"100000":  "ONE HUNDRED THOUSAND",
		"-12":     "TWELVE",
	}
	for in, want := range cases {
		assert.Equal(t, want, report.AmountInWords(decimal.RequireFromString(in)), in)
	}
}

func TestFormatAmount(t *testing.T) {
	en := report.NewFormatter("$", language.English)
	assert.Equal(t, "$1,234.50", en.FormatAmount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", en.FormatAmount(decimal.Zero))

	in := report.NewFormatter("₹", language.MustParse("en-IN"))
	got := in.FormatAmount(decimal.NewFromInt(1234567))
	assert.True(t, strings.HasPrefix(got, "₹"), got)
	assert.True(t, strings.HasSuffix(got, ".00"), got)
	assert.Contains(t, got, ",")
}

func sampleReceipt() report.Receipt {
	return report.Receipt{
		Hostel: models.Hostel{HostelName: "Sunrise", AddressLine: "12 Lake Rd", District: "Chennai", Zipcode: "600001"},
		Resident: models.Resident{
			Name:       "Ravi",
			RoomNo:     "101",
			Advance:    decimal.NewFromInt(5000),
			MonthlyPay: decimal.NewFromInt(3000),
			MonthArray: []models.MonthEntry{
				{MonthYear: "March-2024", Pending: decimal.NewFromInt(500), Paid: decimal.NewFromInt(2500), ModeOfPay: models.PayModeCash},
			},
		},
		MonthYear: "March-2024",
		IssuedAt:  time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestReceiptText(t *testing.T) {
	f := report.NewFormatter("$", language.English)
	text := f.ReceiptText(sampleReceipt())

	assert.Contains(t, text, "SUNRISE")
	assert.Contains(t, text, "12 Lake Rd, Chennai, 600001")
	assert.Contains(t, text, "Room No.: 101")
	assert.Contains(t, text, "Security Deposit: $5,000.00")
	assert.Contains(t, text, "Rupees TWO THOUSAND FIVE HUNDRED")
	assert.Contains(t, text, "Pending: $500.00")
	assert.Contains(t, text, "Balance: $500.00")
	assert.Contains(t, text, "[x] CASH  [ ] A/c")
}

func TestReceiptCSV(t *testing.T) {
	rec := sampleReceipt()
	var buf bytes.Buffer
	require.NoError(t, report.WriteReceiptCSV(rec, &buf))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	values := map[string]string{}
	for _, row := range rows {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "3000.00", values["Bill Amount"])
	assert.Equal(t, "2500.00", values["Total Paid"])
	assert.Equal(t, "500.00", values["Balance"])
	assert.Equal(t, "Cash", values["Payment"])
	assert.Equal(t, "Billing_Form_101_March-2024.csv", rec.Filename())
}

func TestMonthlyCSV(t *testing.T) {
	rec := sampleReceipt()
	entry, _ := rec.Resident.Entry("March-2024")
	m := report.Monthly{
		HostelName: "Sunrise",
		Board: &ledger.Board{
			MonthYear:       "March-2024",
			Rows:            []ledger.BoardRow{{Resident: rec.Resident, Entry: entry, Recorded: true}},
			TotalAdvance:    decimal.NewFromInt(5000),
			TotalMonthlyPay: decimal.NewFromInt(3000),
			TotalPending:    decimal.NewFromInt(500),
		},
		Summary: &ledger.Summary{
			MonthYear: "March-2024",
			Income:    decimal.NewFromInt(2500),
			Expense:   decimal.NewFromInt(700),
			Capacity:  10,
			Occupancy: 1,
		},
		Expenses:  []models.Expense{{ExpenseName: "Gas", Amount: decimal.NewFromInt(700), Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}},
		Generated: rec.IssuedAt,
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteMonthlyCSV(m, &buf))
	out := buf.String()

	assert.Contains(t, out, "Profit,1800.00")
	assert.Contains(t, out, "Vacancy,9")
	assert.Contains(t, out, "101,Ravi,5000.00,3000.00,2500.00,500.00,Cash,500.00")
	assert.Contains(t, out, "2024-03-05,Gas,700.00")
	assert.Equal(t, "hostel_report_March-2024.csv", m.Filename())
}

func TestReminderBody(t *testing.T) {
	f := report.NewFormatter("₹", language.English)
	residents := []models.Resident{
		{Name: "Ravi", RoomNo: "101", PhoneNo: "9876543210", TotalPendingPerson: decimal.NewFromInt(500)},
		{Name: "Anu", RoomNo: "102", TotalPendingPerson: decimal.Zero},
		{Name: "Kumar", RoomNo: "103", PhoneNo: "9000000000", TotalPendingPerson: decimal.NewFromInt(1200)},
	}
	body := f.ReminderBody(residents)

	assert.Equal(t, "Name: Ravi\nRoom No: 101\nMobile No: 9876543210\nPending Amount: ₹500.00\n\n"+
		"Name: Kumar\nRoom No: 103\nMobile No: 9000000000\nPending Amount: ₹1,200.00", body)
	assert.Empty(t, f.ReminderBody(residents[1:2]))
}
