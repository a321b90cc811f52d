package ledger

import (
	"sort"
	"time"

	"hostel-ledger-bot/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// roomCollator orders room numbers digit-aware and case-insensitively, so
// "2" < "10" and "a1" == "A1". Collators are not safe for concurrent use.
func roomCollator() *collate.Collator {
	return collate.New(language.English, collate.Numeric, collate.IgnoreCase)
}

// CompareRoomNo compares two room numbers in natural order.
func CompareRoomNo(a, b string) int {
	return roomCollator().CompareString(a, b)
}

// SortResidents orders residents by room number, then name.
func SortResidents(rs []models.Resident) {
	c := roomCollator()
	sort.SliceStable(rs, func(i, j int) bool {
		if n := c.CompareString(rs[i].RoomNo, rs[j].RoomNo); n != 0 {
			return n < 0
		}
		return rs[i].Name < rs[j].Name
	})
}

// SortRooms orders rooms by room number, digits compared numerically.
func SortRooms(rooms []models.Room) {
	c := roomCollator()
	sort.SliceStable(rooms, func(i, j int) bool {
		return c.CompareString(rooms[i].RoomNo, rooms[j].RoomNo) < 0
	})
}

// InBillingPeriod reports whether a resident belongs on the roster of m:
// they joined on or before the last day of m. Relieving does not matter.
func InBillingPeriod(r models.Resident, m models.MonthYear) bool {
	joined := models.MonthYearOf(r.JoiningDate)
	return !m.Before(joined)
}

// FilterRoster keeps the residents that belong on the roster of m.
func FilterRoster(rs []models.Resident, m models.MonthYear) []models.Resident {
	var out []models.Resident
	for _, r := range rs {
		if InBillingPeriod(r, m) {
			out = append(out, r)
		}
	}
	return out
}

// Page returns the 1-based page of size items and the page count.
// Pages past the end are empty.
func Page[T any](items []T, page, size int) ([]T, int) {
	if size <= 0 {
		size = len(items)
		if size == 0 {
			return nil, 0
		}
	}
	pages := (len(items) + size - 1) / size
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil, pages
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pages
}

// MonthsStayed counts whole months between joining and relieving, or now
// when the resident is still living in.
func MonthsStayed(joining time.Time, relieving *time.Time, now time.Time) int {
	end := now
	if relieving != nil {
		end = *relieving
	}
	if end.Before(joining) {
		return 0
	}
	months := (end.Year()-joining.Year())*12 + int(end.Month()) - int(joining.Month())
	if end.Day() < joining.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
