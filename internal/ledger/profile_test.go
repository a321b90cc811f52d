package ledger_test

import (
	"testing"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestProfile(t *testing.T) {
	f := newFixture(t)

	m, err := f.engine.Profile(f.ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "Asha", m.Username)
	assert.Equal(t, "asha@example.com", m.Email)

	m, err = f.engine.UpdateProfile(f.ctx, f.sess, ledger.ProfileUpdate{
		Email:       ptr(" Asha.R@Example.com "),
		AddressLine: ptr("4 Park St"),
	})
	require.NoError(t, err)
	assert.Equal(t, "asha.r@example.com", m.Email)
	assert.Equal(t, "Asha", m.Username)

	stored, err := f.store.FindManager(f.ctx, f.sess.ManagerID)
	require.NoError(t, err)
	assert.Equal(t, "asha.r@example.com", stored.Email)
	assert.Equal(t, "4 Park St", stored.AddressLine)
	assert.Equal(t, "9876543210", stored.PhoneNumber)
	assert.NotEmpty(t, stored.PasswordHash)

	_, err = f.engine.Profile(f.ctx, f.admin)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestUpdateProfileRejections(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateManager(f.ctx, f.admin, ledger.ManagerRequest{
		Username: "Kiran", Email: "kiran@example.com", Password: "secret1", ConfirmPassword: "secret1", TelegramID: 77,
	})
	require.NoError(t, err)

	cases := map[string]ledger.ProfileUpdate{
		"taken email":   {Email: ptr("kiran@example.com")},
		"bad email":     {Email: ptr("not-an-email")},
		"empty name":    {Username: ptr("  ")},
		"letters phone": {PhoneNumber: ptr("call me")},
	}
	for name, upd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.engine.UpdateProfile(f.ctx, f.sess, upd)
			assert.Error(t, err)
		})
	}
	_, err = f.engine.UpdateProfile(f.ctx, f.sess, ledger.ProfileUpdate{Email: ptr("kiran@example.com")})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	m, err := f.engine.Profile(f.ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", m.Email)
	assert.Equal(t, "Asha", m.Username)
}

func TestHostelInfo(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	o, err := f.engine.HostelInfo(f.ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "Green Nest", o.Hostel.HostelName)
	assert.Equal(t, 20, o.Capacity)
	assert.Equal(t, 1, o.Occupancy)
	require.NotNil(t, o.Manager)
	assert.Equal(t, "Asha", o.Manager.Username)

	require.NoError(t, f.engine.DeleteHostel(f.ctx, f.admin, f.sess.HostelID))
	_, err = f.engine.HostelInfo(f.ctx, f.sess)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateHostel(t *testing.T) {
	f := newFixture(t)
	f.room("101", 2)
	f.admit("Ravi", "101", day(2024, time.January, 10), 3000)

	o, err := f.engine.UpdateHostel(f.ctx, f.admin, f.sess.HostelID, ledger.HostelUpdate{
		HostelName: ptr("Green Nest Annex"),
		Zipcode:    ptr("411002"),
		Capacity:   ptr(25),
		Manager:    ledger.ProfileUpdate{Username: ptr("Asha R"), PhoneNumber: ptr("9123456780")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Nest Annex", o.Hostel.HostelName)
	assert.Equal(t, "12 MG Road", o.Hostel.AddressLine)
	assert.Equal(t, 25, o.Capacity)
	assert.Equal(t, 1, o.Occupancy)
	require.NotNil(t, o.Manager)
	assert.Equal(t, "Asha R", o.Manager.Username)
	assert.Equal(t, "9123456780", o.Manager.PhoneNumber)

	c, err := f.store.FindHostelCapacity(f.ctx, f.sess.HostelID)
	require.NoError(t, err)
	assert.Equal(t, "Green Nest Annex", c.HostelName)
	sess, err := f.engine.OpenSession(f.ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Green Nest Annex", sess.HostelName)

	_, err = f.engine.UpdateHostel(f.ctx, f.sess, f.sess.HostelID, ledger.HostelUpdate{HostelName: ptr("Mine")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.engine.UpdateHostel(f.ctx, f.admin, f.sess.HostelID, ledger.HostelUpdate{Zipcode: ptr("PUNE")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.engine.UpdateHostel(f.ctx, f.admin, f.sess.HostelID, ledger.HostelUpdate{Capacity: ptr(-1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.engine.UpdateHostel(f.ctx, f.admin, "missing", ledger.HostelUpdate{HostelName: ptr("X")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
