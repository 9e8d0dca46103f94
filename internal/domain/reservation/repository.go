package reservation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateNumber is returned by Save when the generated reservation
// number collides with an existing one. Retryable: regenerate and re-insert.
var ErrDuplicateNumber = errors.New("reservation number already exists")

// CapacityScope controls how booking capacity is partitioned.
type CapacityScope string

const (
	// CapacityGlobal allows one concurrent appointment across the whole
	// clinic per time range. Default.
	CapacityGlobal CapacityScope = "global"
	// CapacityPerStaff partitions conflicts by assignee, so two staff members
	// may hold simultaneous bookings.
	CapacityPerStaff CapacityScope = "per_staff"
)

// IsValid returns true if the scope is recognized.
func (s CapacityScope) IsValid() bool {
	return s == CapacityGlobal || s == CapacityPerStaff
}

// ListFilter narrows List results. Nil/empty fields are ignored.
type ListFilter struct {
	Statuses []Status
	ClientID *uuid.UUID
	PetID    *uuid.UUID
	Date     *CalendarDate
}

// Repository defines the persistence contract for reservation aggregates.
// It is the single source of truth for which reservations exist on a date;
// the scheduling engine only supplies the rules.
type Repository interface {
	// FindByID retrieves a reservation by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByNumber retrieves a reservation by its human-readable number.
	FindByNumber(ctx context.Context, number string) (*Reservation, error)

	// FindRangesForDate returns the booked time ranges on a date, excluding
	// canceled reservations. When assigneeID is non-nil only that staff
	// member's bookings are considered (per-staff capacity scope).
	FindRangesForDate(ctx context.Context, date CalendarDate, assigneeID *uuid.UUID) ([]TimeRange, error)

	// List retrieves reservations matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*Reservation, error)

	// ListPage retrieves all reservations with pagination (admin).
	ListPage(ctx context.Context, page, limit int) ([]*Reservation, int64, error)

	// HistoryForPet retrieves all reservations ever made for one pet, most
	// recent first.
	HistoryForPet(ctx context.Context, petID uuid.UUID) ([]*Reservation, error)

	// CountByStatus returns reservation counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new reservation. A reservation-number collision is
	// reported as ErrDuplicateNumber; an overlap rejected by the storage-level
	// exclusion guard is reported as a conflict error.
	Save(ctx context.Context, r *Reservation) error

	// Update persists changes to an existing reservation with optimistic
	// locking.
	Update(ctx context.Context, r *Reservation) error

	// UpdateStatusBatch rewrites the status of the identified reservations.
	// Unconditional and safe to apply twice.
	UpdateStatusBatch(ctx context.Context, ids []uuid.UUID, status Status) error

	// Delete removes a reservation and returns the deleted record.
	Delete(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// InTransaction runs fn against a transactional view of the repository.
	// The reconciliation pass uses it to keep its read and write-through in
	// one transaction.
	InTransaction(ctx context.Context, fn func(Repository) error) error
}
