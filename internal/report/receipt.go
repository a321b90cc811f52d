package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Receipt is one resident's bill for one month.
type Receipt struct {
	Hostel    models.Hostel
	Resident  models.Resident
	MonthYear string
	IssuedAt  time.Time
}

func (r Receipt) entry() models.MonthEntry {
	e, _ := r.Resident.Entry(r.MonthYear)
	return e
}

// BillAmount is the resident's monthly rate.
func (r Receipt) BillAmount() decimal.Decimal { return r.Resident.MonthlyPay }

// Pending is what is still owed for the month.
func (r Receipt) Pending() decimal.Decimal { return r.entry().Pending }

// Paid is the bill amount less the month's pending.
func (r Receipt) Paid() decimal.Decimal { return r.BillAmount().Sub(r.Pending()) }

// Filename is the document name sent with the receipt.
func (r Receipt) Filename() string {
	return fmt.Sprintf("Billing_Form_%s_%s.csv", r.Resident.RoomNo, r.MonthYear)
}

func payMark(mode, want models.PayMode) string {
	if mode == want {
		return "[x]"
	}
	return "[ ]"
}

// ReceiptText renders the receipt as a chat message.
func (f *Formatter) ReceiptText(r Receipt) string {
	var b strings.Builder
	mode := r.entry().ModeOfPay

	fmt.Fprintf(&b, "%s\n", strings.ToUpper(r.Hostel.HostelName))
	fmt.Fprintf(&b, "%s\n\n", r.Hostel.Address())
	fmt.Fprintf(&b, "RECEIPT  %s\n", r.MonthYear)
	fmt.Fprintf(&b, "Date: %s\n", r.IssuedAt.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Room No.: %s\n", r.Resident.RoomNo)
	fmt.Fprintf(&b, "Name: %s\n\n", r.Resident.Name)
	fmt.Fprintf(&b, "Security Deposit: %s\n", f.FormatAmount(r.Resident.Advance))
	fmt.Fprintf(&b, "Room Rent & Mess Fees: %s\n\n", f.FormatAmount(r.BillAmount()))
	fmt.Fprintf(&b, "Rupees %s\n", AmountInWords(r.Paid()))
	fmt.Fprintf(&b, "Total Paid: %s\n\n", f.FormatAmount(r.Paid()))
	fmt.Fprintf(&b, "Bill Amount: %s\n", f.FormatAmount(r.BillAmount()))
	fmt.Fprintf(&b, "Pending: %s\n", f.FormatAmount(r.Pending()))
	fmt.Fprintf(&b, "Total Paid: %s\n", f.FormatAmount(r.Paid()))
	fmt.Fprintf(&b, "Balance: %s\n\n", f.FormatAmount(r.Pending()))
	fmt.Fprintf(&b, "Payment: %s CASH  %s A/c", payMark(mode, models.PayModeCash), payMark(mode, models.PayModeOnline))
	return b.String()
}

// WriteReceiptCSV writes the receipt as a CSV document.
func WriteReceiptCSV(r Receipt, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	mode := r.entry().ModeOfPay
	rows := [][]string{
		{"Receipt"},
		{"Hostel", r.Hostel.HostelName},
		{"Address", r.Hostel.Address()},
		{"Date", r.IssuedAt.Format("2006-01-02 15:04:05")},
		{"Month", r.MonthYear},
		{"Room No.", r.Resident.RoomNo},
		{"Name", r.Resident.Name},
		{},
		{"Particulars", "Amount"},
		{"Security Deposit", r.Resident.Advance.StringFixed(2)},
		{"Room Rent & Mess Fees", r.BillAmount().StringFixed(2)},
		{},
		{"Rupees", AmountInWords(r.Paid())},
		{"Bill Amount", r.BillAmount().StringFixed(2)},
		{"Pending", r.Pending().StringFixed(2)},
		{"Total Paid", r.Paid().StringFixed(2)},
		{"Balance", r.Pending().StringFixed(2)},
		{"Payment", string(mode)},
	}
	for _, row := range rows {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write receipt: %w", err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
