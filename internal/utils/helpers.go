package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// ParseAmount validates and parses a non-negative amount. Grouping commas and
// a leading currency symbol are ignored.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "₹$")
	text = strings.ReplaceAll(text, ",", "")

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", text)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// ParseDate accepts YYYY-MM-DD, DD-MM-YYYY or DD/MM/YYYY and returns midnight UTC.
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", text)
}

// ParseCapacity parses a non-negative whole number.
func ParseCapacity(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid capacity %q", text)
	}
	return n, nil
}

// Pager callbacks look like "page_<list>_<arg>_<page>".
const pagePrefix = "page_"

// PageCallback builds the callback data of a pager button.
func PageCallback(list, arg string, page int) string {
	return fmt.Sprintf("%s%s_%s_%d", pagePrefix, list, arg, page)
}

// ParsePageCallback splits pager callback data back into its parts.
func ParsePageCallback(data string) (list, arg string, page int, ok bool) {
	if !strings.HasPrefix(data, pagePrefix) {
		return "", "", 0, false
	}
	parts := strings.Split(strings.TrimPrefix(data, pagePrefix), "_")
	if len(parts) != 3 {
		return "", "", 0, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 1 {
		return "", "", 0, false
	}
	return parts[0], parts[1], page, true
}

// BuildPageKeyboard builds the previous/next row under a paged list.
func BuildPageKeyboard(list, arg string, page, pages int) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton

	if page > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("◀️ Prev", PageCallback(list, arg, page-1)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("%d/%d", page, pages),
		PageCallback(list, arg, page),
	))
	if page < pages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", PageCallback(list, arg, page+1)))
	}

	return tgbotapi.NewInlineKeyboardMarkup(row)
}
