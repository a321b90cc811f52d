package ledger_test

import (
	"testing"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(rs []models.Resident) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestRosterFollowsJoiningMonth(t *testing.T) {
	f := newFixture(t)
	f.room("101", 3)
	f.admit("Early", "101", day(2023, time.December, 31), 3000)
	f.admit("March", "101", day(2024, time.March, 31), 3000)

	jan, err := f.engine.Roster(f.ctx, f.sess, "January-2024")
	require.NoError(t, err)
	assert.Equal(t, []string{"Early"}, names(jan))

	for _, month := range []string{"March-2024", "April-2024", "January-2025"} {
		rs, err := f.engine.Roster(f.ctx, f.sess, month)
		require.NoError(t, err)
		assert.Contains(t, names(rs), "March", month)
	}

	_, err = f.engine.Roster(f.ctx, f.sess, "03-2024")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRosterKeepsRelievedResidents(t *testing.T) {
	f := newFixture(t)
	f.room("101", 3)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)
	_, err := f.engine.RelieveResident(f.ctx, f.sess, r.ID, day(2024, time.February, 1))
	require.NoError(t, err)

	rs, err := f.engine.Roster(f.ctx, f.sess, "June-2024")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ravi"}, names(rs))

	live, err := f.engine.ListResidents(f.ctx, f.sess, ledger.ResidentFilter{})
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestListResidentsFilters(t *testing.T) {
	f := newFixture(t)
	f.room("10", 3)
	f.room("2", 3)
	f.admit("Zara", "2", day(2024, time.January, 10), 3000)
	f.admit("Amit", "10", day(2024, time.February, 3), 3000)
	f.admit("Bala", "2", day(2023, time.February, 3), 3000)

	all, err := f.engine.ListResidents(f.ctx, f.sess, ledger.ResidentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bala", "Zara", "Amit"}, names(all))

	feb, err := f.engine.ListResidents(f.ctx, f.sess, ledger.ResidentFilter{JoinMonth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bala", "Amit"}, names(feb))

	y, err := f.engine.ListResidents(f.ctx, f.sess, ledger.ResidentFilter{JoinMonth: 2, JoinYear: 2024})
	require.NoError(t, err)
	assert.Equal(t, []string{"Amit"}, names(y))

	s, err := f.engine.ListResidents(f.ctx, f.sess, ledger.ResidentFilter{Search: "zA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zara"}, names(s))
}

func TestFindResidentInRoom(t *testing.T) {
	f := newFixture(t)
	f.room("101", 3)
	f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	r, err := f.engine.FindResidentInRoom(f.ctx, f.sess, "101", "ravi")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", r.Name)

	_, err = f.engine.FindResidentInRoom(f.ctx, f.sess, "101", "Meena")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f.admit("RAVI", "101", day(2024, time.January, 11), 3000)
	_, err = f.engine.FindResidentInRoom(f.ctx, f.sess, "101", "Ravi")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPendingResidents(t *testing.T) {
	f := newFixture(t)
	f.room("101", 3)
	ravi := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)
	meena := f.admit("Meena", "101", day(2024, time.January, 10), 3000)
	f.pay(ravi.ID, "January-2024", 3000, 700)
	f.pay(meena.ID, "January-2024", 3000, 0)

	rs, err := f.engine.PendingResidents(f.ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ravi"}, names(rs))
}

func TestUpdateResidentDetails(t *testing.T) {
	f := newFixture(t)
	f.room("101", 3)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	phone := " 9123456789 "
	got, err := f.engine.UpdateResidentDetails(f.ctx, f.sess, r.ID, ledger.ResidentUpdate{PhoneNo: &phone})
	require.NoError(t, err)
	assert.Equal(t, "9123456789", got.PhoneNo)
	assert.Equal(t, "Ravi", got.Name)
	assert.Equal(t, "9123456789", f.resident(r.ID).PhoneNo)

	blank := ""
	_, err = f.engine.UpdateResidentDetails(f.ctx, f.sess, r.ID, ledger.ResidentUpdate{Name: &blank})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCompareRoomNo(t *testing.T) {
	rooms := []models.Room{{RoomNo: "101"}, {RoomNo: "10"}, {RoomNo: "2"}, {RoomNo: "3"}}
	ledger.SortRooms(rooms)
	got := []string{rooms[0].RoomNo, rooms[1].RoomNo, rooms[2].RoomNo, rooms[3].RoomNo}
	assert.Equal(t, []string{"2", "3", "10", "101"}, got)
	assert.Negative(t, ledger.CompareRoomNo("9", "10"))
	assert.Zero(t, ledger.CompareRoomNo("a1", "A1"))
}

func TestInBillingPeriod(t *testing.T) {
	r := models.Resident{JoiningDate: day(2024, time.March, 31)}
	assert.False(t, ledger.InBillingPeriod(r, models.MonthYear{Month: time.January, Year: 2024}))
	assert.False(t, ledger.InBillingPeriod(r, models.MonthYear{Month: time.February, Year: 2024}))
	assert.True(t, ledger.InBillingPeriod(r, models.MonthYear{Month: time.March, Year: 2024}))
	assert.True(t, ledger.InBillingPeriod(r, models.MonthYear{Month: time.January, Year: 2025}))
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p, pages := ledger.Page(items, 1, 2)
	assert.Equal(t, []int{1, 2}, p)
	assert.Equal(t, 3, pages)

	p, _ = ledger.Page(items, 3, 2)
	assert.Equal(t, []int{5}, p)

	p, pages = ledger.Page(items, 4, 2)
	assert.Empty(t, p)
	assert.Equal(t, 3, pages)

	p, _ = ledger.Page(items, 0, 2)
	assert.Equal(t, []int{1, 2}, p)

	p, pages = ledger.Page(items, 1, 0)
	assert.Equal(t, items, p)
	assert.Equal(t, 1, pages)

	p, pages = ledger.Page([]int(nil), 1, 0)
	assert.Empty(t, p)
	assert.Zero(t, pages)
}

func TestMonthsStayed(t *testing.T) {
	joined := day(2024, time.January, 10)
	assert.Equal(t, 2, ledger.MonthsStayed(joined, nil, day(2024, time.March, 15)))
	assert.Equal(t, 1, ledger.MonthsStayed(joined, nil, day(2024, time.March, 9)))
	left := day(2025, time.January, 10)
	assert.Equal(t, 12, ledger.MonthsStayed(joined, &left, day(2026, time.January, 1)))
	assert.Zero(t, ledger.MonthsStayed(joined, nil, day(2023, time.June, 1)))
}
