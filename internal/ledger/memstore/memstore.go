// Package memstore is an in-memory ledger.Store. Every method is atomic under
// one mutex, which gives it the same counter semantics as the MongoDB store.
// It is meant for tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"hostel-ledger-bot/internal/apperr"
	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// maxAppliedOps bounds the operation ids remembered per expense bucket.
const maxAppliedOps = 64

type Store struct {
	mu sync.Mutex

	counters   map[string]int64
	managers   map[string]models.Manager
	hostels    map[string]models.Hostel
	capacities map[string]models.HostelCapacity
	rooms      map[string]models.Room
	residents  map[string]models.Resident
	expenses   map[string]models.Expense
	income     map[string]models.IncomeTotal
	expense    map[string]models.ExpenseTotal

	// order keeps insertion order per collection so listings are stable.
	order map[string][]string
	fail  map[string]error
}

func New() *Store {
	return &Store{
		counters:   make(map[string]int64),
		managers:   make(map[string]models.Manager),
		hostels:    make(map[string]models.Hostel),
		capacities: make(map[string]models.HostelCapacity),
		rooms:      make(map[string]models.Room),
		residents:  make(map[string]models.Resident),
		expenses:   make(map[string]models.Expense),
		income:     make(map[string]models.IncomeTotal),
		expense:    make(map[string]models.ExpenseTotal),
		order:      make(map[string][]string),
		fail:       make(map[string]error),
	}
}

// FailNext makes the next call of the named method return err.
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

func (s *Store) injected(method string) error {
	if err, ok := s.fail[method]; ok {
		delete(s.fail, method)
		return err
	}
	return nil
}

func (s *Store) remember(collection, id string) {
	s.order[collection] = append(s.order[collection], id)
}

func (s *Store) forget(collection, id string) {
	ids := s.order[collection]
	for i, v := range ids {
		if v == id {
			s.order[collection] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

// WithTransaction runs fn without isolation, like the MongoDB store with
// transactions disabled.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) NextCounter(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("NextCounter"); err != nil {
		return 0, err
	}
	s.counters[name]++
	return s.counters[name], nil
}

// Managers

func (s *Store) InsertManager(_ context.Context, m *models.Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertManager"); err != nil {
		return err
	}
	if _, ok := s.managers[m.ID]; ok {
		return apperr.Duplicate(apperr.ErrManagerExists, "insert manager", "manager %s", m.ID)
	}
	s.managers[m.ID] = *m
	s.remember("managers", m.ID)
	return nil
}

func (s *Store) FindManager(_ context.Context, id string) (*models.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[id]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrManagerNotFound, "find manager", "manager %s", id)
	}
	return &m, nil
}

func (s *Store) FindManagerByEmail(_ context.Context, email string) (*models.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order["managers"] {
		if m := s.managers[id]; m.Email == email {
			return &m, nil
		}
	}
	return nil, apperr.NotFound(apperr.ErrManagerNotFound, "find manager", "manager %s", email)
}

func (s *Store) FindManagerByTelegramID(_ context.Context, telegramID int64) (*models.Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order["managers"] {
		if m := s.managers[id]; m.TelegramID == telegramID {
			return &m, nil
		}
	}
	return nil, apperr.NotFound(apperr.ErrManagerNotFound, "find manager", "telegram user %d", telegramID)
}

func (s *Store) SetManagerHostel(_ context.Context, managerID, hostelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[managerID]
	if !ok {
		return apperr.NotFound(apperr.ErrManagerNotFound, "set manager hostel", "manager %s", managerID)
	}
	m.HostelID = hostelID
	s.managers[managerID] = m
	return nil
}

func (s *Store) UpdateManagerProfile(_ context.Context, m *models.Manager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpdateManagerProfile"); err != nil {
		return err
	}
	cur, ok := s.managers[m.ID]
	if !ok {
		return apperr.NotFound(apperr.ErrManagerNotFound, "update manager", "manager %s", m.ID)
	}
	for id, other := range s.managers {
		if id != m.ID && other.Email == m.Email {
			return apperr.Duplicate(apperr.ErrManagerExists, "update manager", "manager %s already exists", m.Email)
		}
	}
	cur.Username = m.Username
	cur.Email = m.Email
	cur.PhoneNumber = m.PhoneNumber
	cur.AddressLine = m.AddressLine
	cur.District = m.District
	cur.Zipcode = m.Zipcode
	s.managers[m.ID] = cur
	return nil
}

// Hostels

func (s *Store) InsertHostel(_ context.Context, h *models.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertHostel"); err != nil {
		return err
	}
	s.hostels[h.ID] = *h
	s.remember("hostels", h.ID)
	return nil
}

func (s *Store) FindHostel(_ context.Context, id string) (*models.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hostels[id]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrHostelNotFound, "find hostel", "hostel %s", id)
	}
	return &h, nil
}

func (s *Store) ListHostels(_ context.Context) ([]models.Hostel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ListHostels"); err != nil {
		return nil, err
	}
	out := make([]models.Hostel, 0, len(s.hostels))
	for _, id := range s.order["hostels"] {
		out = append(out, s.hostels[id])
	}
	return out, nil
}

func (s *Store) SetHostelCapacity(_ context.Context, hostelID string, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hostels[hostelID]
	if !ok {
		return apperr.NotFound(apperr.ErrHostelNotFound, "set hostel capacity", "hostel %s", hostelID)
	}
	h.Capacity = capacity
	s.hostels[hostelID] = h
	if c, ok := s.capacities[hostelID]; ok {
		c.Capacity = capacity
		s.capacities[hostelID] = c
	}
	return nil
}

func (s *Store) UpdateHostelDetails(_ context.Context, h *models.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.hostels[h.ID]
	if !ok {
		return apperr.NotFound(apperr.ErrHostelNotFound, "update hostel", "hostel %s", h.ID)
	}
	cur.HostelName = h.HostelName
	cur.AddressLine = h.AddressLine
	cur.District = h.District
	cur.Zipcode = h.Zipcode
	s.hostels[h.ID] = cur
	if c, ok := s.capacities[h.ID]; ok {
		c.HostelName = h.HostelName
		s.capacities[h.ID] = c
	}
	return nil
}

func (s *Store) MarkHostelDeleted(_ context.Context, hostelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hostels[hostelID]
	if !ok {
		return apperr.NotFound(apperr.ErrHostelNotFound, "delete hostel", "hostel %s", hostelID)
	}
	h.IsDeleted = true
	s.hostels[hostelID] = h
	if c, ok := s.capacities[hostelID]; ok {
		c.IsDeleted = true
		s.capacities[hostelID] = c
	}
	return nil
}

// Hostel capacity aggregate

func (s *Store) InsertHostelCapacity(_ context.Context, c *models.HostelCapacity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.capacities[c.ID]; ok {
		return apperr.Duplicate(apperr.ErrStore, "insert hostel capacity", "hostel capacity %s", c.ID)
	}
	s.capacities[c.ID] = *c
	return nil
}

func (s *Store) FindHostelCapacity(_ context.Context, hostelID string) (*models.HostelCapacity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capacities[hostelID]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrHostelCapacityMissing, "find hostel capacity", "hostel %s", hostelID)
	}
	return &c, nil
}

func (s *Store) IncHostelOccupancy(_ context.Context, hostelID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("IncHostelOccupancy"); err != nil {
		return err
	}
	c, ok := s.capacities[hostelID]
	if !ok {
		return apperr.NotFound(apperr.ErrHostelCapacityMissing, "inc hostel occupancy", "hostel %s", hostelID)
	}
	if c.Occupancy+delta < 0 {
		return nil
	}
	c.Occupancy += delta
	s.capacities[hostelID] = c
	return nil
}

func (s *Store) SetHostelOccupancy(_ context.Context, hostelID string, occupancy int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capacities[hostelID]
	if !ok {
		return apperr.NotFound(apperr.ErrHostelCapacityMissing, "set hostel occupancy", "hostel %s", hostelID)
	}
	c.Occupancy = occupancy
	s.capacities[hostelID] = c
	return nil
}

// Rooms

func (s *Store) InsertRoom(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rooms {
		if existing.UserID == r.UserID && existing.RoomNo == r.RoomNo {
			return apperr.Duplicate(apperr.ErrRoomExists, "insert room", "room %s", r.RoomNo)
		}
	}
	s.rooms[r.ID] = *r
	s.remember("rooms", r.ID)
	return nil
}

func (s *Store) FindRoom(_ context.Context, id string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrRoomNotFound, "find room", "room %s", id)
	}
	return &r, nil
}

func (s *Store) FindRoomByNo(_ context.Context, userID, roomNo string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order["rooms"] {
		if r := s.rooms[id]; r.UserID == userID && r.RoomNo == roomNo {
			return &r, nil
		}
	}
	return nil, apperr.NotFound(apperr.ErrRoomNotFound, "find room", "room %s", roomNo)
}

func (s *Store) ListRooms(_ context.Context, userID string) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Room
	for _, id := range s.order["rooms"] {
		if r := s.rooms[id]; r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateRoom(_ context.Context, id, roomNo string, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return apperr.NotFound(apperr.ErrRoomNotFound, "update room", "room %s", id)
	}
	r.RoomNo = roomNo
	r.Capacity = capacity
	s.rooms[id] = r
	return nil
}

func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return apperr.NotFound(apperr.ErrRoomNotFound, "delete room", "room %s", id)
	}
	delete(s.rooms, id)
	s.forget("rooms", id)
	return nil
}

func (s *Store) ReserveSeat(_ context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ReserveSeat"); err != nil {
		return nil, err
	}
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrRoomNotFound, "reserve seat", "room %s", roomID)
	}
	if r.Occupancy >= r.Capacity {
		return nil, apperr.CapacityExceeded("reserve seat", "room %s is full", r.RoomNo)
	}
	r.Occupancy++
	s.rooms[roomID] = r
	return &r, nil
}

func (s *Store) ReleaseSeat(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ReleaseSeat"); err != nil {
		return err
	}
	r, ok := s.rooms[roomID]
	if !ok {
		return apperr.NotFound(apperr.ErrRoomNotFound, "release seat", "room %s", roomID)
	}
	if r.Occupancy > 0 {
		r.Occupancy--
	}
	s.rooms[roomID] = r
	return nil
}

func (s *Store) SetRoomOccupancy(_ context.Context, roomID string, occupancy int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return apperr.NotFound(apperr.ErrRoomNotFound, "set room occupancy", "room %s", roomID)
	}
	r.Occupancy = occupancy
	s.rooms[roomID] = r
	return nil
}

// Residents

func cloneResident(r models.Resident) models.Resident {
	r.MonthArray = append([]models.MonthEntry(nil), r.MonthArray...)
	r.Extra = append([]models.ExtraCharge(nil), r.Extra...)
	if r.DateOfRelieving != nil {
		t := *r.DateOfRelieving
		r.DateOfRelieving = &t
	}
	return r
}

func (s *Store) InsertResident(_ context.Context, r *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertResident"); err != nil {
		return err
	}
	s.residents[r.ID] = cloneResident(*r)
	s.remember("residents", r.ID)
	return nil
}

func (s *Store) FindResident(_ context.Context, id string) (*models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[id]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrResidentNotFound, "find resident", "resident %s", id)
	}
	r = cloneResident(r)
	return &r, nil
}

func (s *Store) ListResidents(_ context.Context, userID string) ([]models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ListResidents"); err != nil {
		return nil, err
	}
	var out []models.Resident
	for _, id := range s.order["residents"] {
		if r := s.residents[id]; r.UserID == userID {
			out = append(out, cloneResident(r))
		}
	}
	return out, nil
}

func (s *Store) ReplaceResident(_ context.Context, r *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ReplaceResident"); err != nil {
		return err
	}
	cur, ok := s.residents[r.ID]
	if !ok {
		return apperr.NotFound(apperr.ErrResidentNotFound, "replace resident", "resident %s", r.ID)
	}
	if cur.Revision != r.Revision {
		return apperr.Conflict("replace resident", "resident %s changed (revision %d, have %d)", r.ID, cur.Revision, r.Revision)
	}
	r.Revision++
	s.residents[r.ID] = cloneResident(*r)
	return nil
}

// Bump advances the stored revision of a resident, simulating a concurrent
// writer.
func (s *Store) Bump(residentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.residents[residentID]; ok {
		r.Revision++
		s.residents[residentID] = r
	}
}

// Expenses

func (s *Store) InsertExpense(_ context.Context, x *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertExpense"); err != nil {
		return err
	}
	s.expenses[x.ID] = *x
	s.remember("expenses", x.ID)
	return nil
}

func (s *Store) FindExpense(_ context.Context, id string) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.expenses[id]
	if !ok {
		return nil, apperr.NotFound(apperr.ErrExpenseNotFound, "find expense", "expense %s", id)
	}
	return &x, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Expense
	for _, id := range s.order["expenses"] {
		if x := s.expenses[id]; x.UserID == userID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (s *Store) ReplaceExpense(_ context.Context, x *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[x.ID]
	if !ok {
		return apperr.NotFound(apperr.ErrExpenseNotFound, "replace expense", "expense %s", x.ID)
	}
	if cur.Revision != x.Revision {
		return apperr.Conflict("replace expense", "expense %s changed", x.ID)
	}
	x.Revision++
	s.expenses[x.ID] = *x
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return apperr.NotFound(apperr.ErrExpenseNotFound, "delete expense", "expense %s", id)
	}
	delete(s.expenses, id)
	s.forget("expenses", id)
	return nil
}

// Monthly totals

func (s *Store) PutIncomeTotal(_ context.Context, t *models.IncomeTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("PutIncomeTotal"); err != nil {
		return err
	}
	s.income[t.ID] = *t
	return nil
}

func (s *Store) EnsureIncomeTotal(_ context.Context, hostelID, userID, monthYear string) (*models.IncomeTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := models.TotalID(hostelID, monthYear)
	t, ok := s.income[id]
	if !ok {
		t = models.IncomeTotal{ID: id, HostelID: hostelID, MonthYear: monthYear, TotalPaid: decimal.Zero, UserID: userID, UpdatedAt: time.Now().Unix()}
		s.income[id] = t
	}
	return &t, nil
}

func (s *Store) ensureExpense(hostelID, userID, monthYear string) models.ExpenseTotal {
	id := models.TotalID(hostelID, monthYear)
	t, ok := s.expense[id]
	if !ok {
		t = models.ExpenseTotal{ID: id, HostelID: hostelID, MonthYear: monthYear, TotalAmount: decimal.Zero, UserID: userID, UpdatedAt: time.Now().Unix()}
		s.expense[id] = t
	}
	return t
}

func (s *Store) EnsureExpenseTotal(_ context.Context, hostelID, userID, monthYear string) (*models.ExpenseTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ensureExpense(hostelID, userID, monthYear)
	t.AppliedOps = append([]string(nil), t.AppliedOps...)
	return &t, nil
}

func (s *Store) PutExpenseTotal(_ context.Context, t *models.ExpenseTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.expense[t.ID]
	next := *t
	next.AppliedOps = cur.AppliedOps
	s.expense[t.ID] = next
	return nil
}

func (s *Store) ApplyExpenseDelta(_ context.Context, hostelID, userID, monthYear string, delta decimal.Decimal, opID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ApplyExpenseDelta"); err != nil {
		return false, err
	}
	t := s.ensureExpense(hostelID, userID, monthYear)
	for _, op := range t.AppliedOps {
		if op == opID {
			return false, nil
		}
	}
	t.TotalAmount = t.TotalAmount.Add(delta)
	t.AppliedOps = append(append([]string(nil), t.AppliedOps...), opID)
	if len(t.AppliedOps) > maxAppliedOps {
		t.AppliedOps = t.AppliedOps[len(t.AppliedOps)-maxAppliedOps:]
	}
	t.UpdatedAt = time.Now().Unix()
	s.expense[t.ID] = t
	return true, nil
}

func (s *Store) ListIncomeTotals(_ context.Context, hostelID string) ([]models.IncomeTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.IncomeTotal
	for _, t := range s.income {
		if t.HostelID == hostelID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) ListExpenseTotals(_ context.Context, hostelID string) ([]models.ExpenseTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExpenseTotal
	for _, t := range s.expense {
		if t.HostelID == hostelID {
			t.AppliedOps = append([]string(nil), t.AppliedOps...)
			out = append(out, t)
		}
	}
	return out, nil
}
