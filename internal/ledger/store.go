package ledger

import (
	"context"

	"hostel-ledger-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Store is the document store the ledger runs against. Implementations return
// *apperr.Error values for not-found, duplicate, capacity and conflict cases;
// anything else is treated as a remote failure.
//
// Counter methods (ReserveSeat, ReleaseSeat, IncHostelOccupancy,
// ApplyExpenseDelta, NextCounter) must be atomic on the store side.
type Store interface {
	// WithTransaction runs fn so that its writes commit together when the
	// store supports it; otherwise fn simply runs.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	NextCounter(ctx context.Context, name string) (int64, error)

	InsertManager(ctx context.Context, m *models.Manager) error
	FindManager(ctx context.Context, id string) (*models.Manager, error)
	FindManagerByEmail(ctx context.Context, email string) (*models.Manager, error)
	FindManagerByTelegramID(ctx context.Context, telegramID int64) (*models.Manager, error)
	SetManagerHostel(ctx context.Context, managerID, hostelID string) error
	// UpdateManagerProfile writes the contact fields of m. Email stays unique.
	UpdateManagerProfile(ctx context.Context, m *models.Manager) error

	InsertHostel(ctx context.Context, h *models.Hostel) error
	FindHostel(ctx context.Context, id string) (*models.Hostel, error)
	ListHostels(ctx context.Context) ([]models.Hostel, error)
	SetHostelCapacity(ctx context.Context, hostelID string, capacity int) error
	MarkHostelDeleted(ctx context.Context, hostelID string) error
	// UpdateHostelDetails writes the name and address of h; the aggregate
	// follows the name.
	UpdateHostelDetails(ctx context.Context, h *models.Hostel) error

	InsertHostelCapacity(ctx context.Context, c *models.HostelCapacity) error
	FindHostelCapacity(ctx context.Context, hostelID string) (*models.HostelCapacity, error)
	IncHostelOccupancy(ctx context.Context, hostelID string, delta int) error
	SetHostelOccupancy(ctx context.Context, hostelID string, occupancy int) error

	InsertRoom(ctx context.Context, r *models.Room) error
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	FindRoomByNo(ctx context.Context, userID, roomNo string) (*models.Room, error)
	ListRooms(ctx context.Context, userID string) ([]models.Room, error)
	UpdateRoom(ctx context.Context, id, roomNo string, capacity int) error
	DeleteRoom(ctx context.Context, id string) error
	// ReserveSeat increments occupancy only while occupancy < capacity.
	ReserveSeat(ctx context.Context, roomID string) (*models.Room, error)
	// ReleaseSeat decrements occupancy, never below zero.
	ReleaseSeat(ctx context.Context, roomID string) error
	SetRoomOccupancy(ctx context.Context, roomID string, occupancy int) error

	InsertResident(ctx context.Context, r *models.Resident) error
	FindResident(ctx context.Context, id string) (*models.Resident, error)
	// ListResidents returns every resident of the manager, relieved ones included.
	ListResidents(ctx context.Context, userID string) ([]models.Resident, error)
	// ReplaceResident writes r only if the stored revision equals r.Revision,
	// and bumps r.Revision on success.
	ReplaceResident(ctx context.Context, r *models.Resident) error

	InsertExpense(ctx context.Context, e *models.Expense) error
	FindExpense(ctx context.Context, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]models.Expense, error)
	// ReplaceExpense has the same revision check as ReplaceResident.
	ReplaceExpense(ctx context.Context, e *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	PutIncomeTotal(ctx context.Context, t *models.IncomeTotal) error
	EnsureIncomeTotal(ctx context.Context, hostelID, userID, monthYear string) (*models.IncomeTotal, error)
	EnsureExpenseTotal(ctx context.Context, hostelID, userID, monthYear string) (*models.ExpenseTotal, error)
	// PutExpenseTotal overwrites the total but keeps the applied operation ids.
	PutExpenseTotal(ctx context.Context, t *models.ExpenseTotal) error
	// ApplyExpenseDelta adds delta to the bucket unless opID was already
	// applied to it. It reports whether the delta was applied.
	ApplyExpenseDelta(ctx context.Context, hostelID, userID, monthYear string, delta decimal.Decimal, opID string) (bool, error)
	ListIncomeTotals(ctx context.Context, hostelID string) ([]models.IncomeTotal, error)
	ListExpenseTotals(ctx context.Context, hostelID string) ([]models.ExpenseTotal, error)
}
