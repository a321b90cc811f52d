package ledger_test

import (
	"testing"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/ledger"
	"hostel-ledger-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestProvisioningCodesAndSession(t *testing.T) {
	f := newFixture(t)

	m, err := f.store.FindManagerByTelegramID(f.ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "MGR0001", m.ManagerCode)
	assert.Equal(t, models.RoleManager, m.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte("secret1")))

	h, err := f.store.FindHostel(f.ctx, f.sess.HostelID)
	require.NoError(t, err)
	assert.Equal(t, "HST0001", h.HostelCode)
	assert.Equal(t, m.ID, h.UserID)

	c, err := f.store.FindHostelCapacity(f.ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Capacity)
	assert.Zero(t, c.Occupancy)

	assert.Equal(t, ledger.Session{ManagerID: m.ID, HostelID: h.ID, HostelName: "Green Nest", Role: models.RoleManager, ChatID: 42}, f.sess)
}

func TestCreateManagerRejections(t *testing.T) {
	f := newFixture(t)
	req := ledger.ManagerRequest{
		Username:        "Kiran",
		Email:           "kiran@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret2",
		TelegramID:      77,
	}

	_, err := f.engine.CreateManager(f.ctx, f.admin, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req.ConfirmPassword = req.Password
	_, err = f.engine.CreateManager(f.ctx, f.sess, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	dup := req
	dup.Email = "ASHA@example.com"
	_, err = f.engine.CreateManager(f.ctx, f.admin, dup)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	dup = req
	dup.TelegramID = 42
	_, err = f.engine.CreateManager(f.ctx, f.admin, dup)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	m, err := f.engine.CreateManager(f.ctx, f.admin, req)
	require.NoError(t, err)
	assert.Equal(t, "MGR0002", m.ManagerCode)
}

func TestOpenSessionErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.OpenSession(f.ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.CreateManager(f.ctx, f.admin, ledger.ManagerRequest{
		Username: "Kiran", Email: "kiran@example.com", Password: "secret1", ConfirmPassword: "secret1", TelegramID: 77,
	})
	require.NoError(t, err)
	_, err = f.engine.OpenSession(f.ctx, 77)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestOpenSessionAfterHostelDeleted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.DeleteHostel(f.ctx, f.admin, f.sess.HostelID))

	_, err := f.engine.OpenSession(f.ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestCreateHostelRejections(t *testing.T) {
	f := newFixture(t)
	req := ledger.HostelRequest{
		HostelName:   "Blue Door",
		AddressLine:  "4 Park St",
		District:     "Pune",
		Zipcode:      "411002",
		ManagerEmail: "nobody@example.com",
		Capacity:     10,
	}
	_, err := f.engine.CreateHostel(f.ctx, f.admin, req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	req.ManagerEmail = "asha@example.com"
	_, err = f.engine.CreateHostel(f.ctx, f.admin, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req.Capacity = -1
	_, err = f.engine.CreateHostel(f.ctx, f.admin, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestHostelAdministration(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	r := f.admit("Ravi", "101", day(2024, time.January, 10), 3000)
	f.pay(r.ID, "March-2024", 3000, 1000)

	require.NoError(t, f.engine.UpdateHostelCapacity(f.ctx, f.admin, f.sess.HostelID, 30))
	err := f.engine.UpdateHostelCapacity(f.ctx, f.sess, f.sess.HostelID, 30)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := f.engine.ListHostels(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 30, list[0].Capacity)
	assert.Equal(t, 1, list[0].Occupancy)
	assert.Equal(t, 29, list[0].Vacancy())
	require.NotNil(t, list[0].Manager)
	assert.Equal(t, "MGR0001", list[0].Manager.ManagerCode)

	rep, err := f.engine.HostelReport(f.ctx, f.admin, f.sess.HostelID, "March-2024")
	require.NoError(t, err)
	assert.Equal(t, "Green Nest", rep.Overview.Hostel.HostelName)
	assertAmount(t, 2000, rep.Month.Income)
	assertAmount(t, 2000, rep.Month.Profit())

	sessions, err := f.engine.ManagerSessions(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Session{f.sess}, sessions)

	require.NoError(t, f.engine.DeleteHostel(f.ctx, f.admin, f.sess.HostelID))
	list, err = f.engine.ListHostels(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, list)
	sessions, err = f.engine.ManagerSessions(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	err = f.engine.DeleteHostel(f.ctx, f.admin, f.sess.HostelID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRoomLifecycle(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	f.room("9", 1)

	_, err := f.engine.AddRoom(f.ctx, f.sess, "101", 3)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	_, err = f.engine.AddRoom(f.ctx, f.sess, "102", -1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	f.admit("Ravi", "101", day(2024, time.January, 10), 3000)
	f.admit("Meena", "101", day(2024, time.January, 10), 3000)

	_, err = f.engine.UpdateRoom(f.ctx, f.sess, "101", "101", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.engine.UpdateRoom(f.ctx, f.sess, "101", "201", 2)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	room, err := f.engine.UpdateRoom(f.ctx, f.sess, "101", "101", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, room.Capacity)
	assert.Equal(t, 2, room.Occupancy)

	_, err = f.engine.UpdateRoom(f.ctx, f.sess, "9", "101", 1)
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	_, err = f.engine.UpdateRoom(f.ctx, f.sess, "9", "9A", 1)
	require.NoError(t, err)

	err = f.engine.DeleteRoom(f.ctx, f.sess, "101")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	require.NoError(t, f.engine.DeleteRoom(f.ctx, f.sess, "9A"))
	err = f.engine.DeleteRoom(f.ctx, f.sess, "9A")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rooms, err := f.engine.ListRooms(f.ctx, f.sess, "")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "101", rooms[0].RoomNo)
}

func TestListRoomsSearchAndOrder(t *testing.T) {
	f := newFixture(t)
	for _, no := range []string{"110", "12", "B1", "2", "a1"} {
		f.room(no, 1)
	}
	rooms, err := f.engine.ListRooms(f.ctx, f.sess, "")
	require.NoError(t, err)
	var got []string
	for _, r := range rooms {
		got = append(got, r.RoomNo)
	}
	assert.Equal(t, []string{"2", "12", "110", "a1", "B1"}, got)

	rooms, err = f.engine.ListRooms(f.ctx, f.sess, "1")
	require.NoError(t, err)
	assert.Len(t, rooms, 4)
}

func TestSessionHostel(t *testing.T) {
	f := newFixture(t)

	h, err := f.engine.Hostel(f.ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "Green Nest", h.HostelName)
	assert.Equal(t, "12 MG Road, Pune, 411001", h.Address())

	_, err = f.engine.Hostel(f.ctx, f.admin)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	require.NoError(t, f.engine.DeleteHostel(f.ctx, f.admin, f.sess.HostelID))
	_, err = f.engine.Hostel(f.ctx, f.sess)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
