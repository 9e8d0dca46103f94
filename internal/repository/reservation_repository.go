package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/vetdesk/service-reservation/internal/domain/reservation"
	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// Postgres error codes the repository translates into domain errors.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// ReservationModel is the GORM model for the reservations table. Time-range
// bounds are stored as minutes since midnight; the table carries an exclusion
// constraint over (date, int4range(time_from_min, time_to_min)) that rejects
// overlapping non-canceled rows regardless of what the application checked.
type ReservationModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ReservationNumber string     `gorm:"uniqueIndex;not null;size:20"`
	PetID             uuid.UUID  `gorm:"type:uuid;index;not null"`
	ClientID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	AssigneeID        *uuid.UUID `gorm:"type:uuid;index"`
	Date              time.Time  `gorm:"type:date;index;not null"`
	TimeFromMin       int        `gorm:"not null"`
	TimeToMin         int        `gorm:"not null"`
	Service           string     `gorm:"not null;size:30"`
	Status            string     `gorm:"not null;size:20;index"`
	Version           int64      `gorm:"not null;default:1"`
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of
// reservation.Repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID retrieves a reservation by its unique identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, fmt.Errorf("failed to find reservation by ID: %w", err)
	}
	return toDomainReservation(&model)
}

// FindByNumber retrieves a reservation by its reservation number.
func (r *GormReservationRepository) FindByNumber(ctx context.Context, number string) (*reservation.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("reservation_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", number)
		}
		return nil, fmt.Errorf("failed to find reservation by number: %w", err)
	}
	return toDomainReservation(&model)
}

// FindRangesForDate returns the booked time ranges on a date, excluding
// canceled reservations. A non-nil assigneeID narrows the scan to one staff
// member's bookings.
func (r *GormReservationRepository) FindRangesForDate(ctx context.Context, date reservation.CalendarDate, assigneeID *uuid.UUID) ([]reservation.TimeRange, error) {
	type rangeRow struct {
		TimeFromMin int
		TimeToMin   int
	}

	query := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Where("date = ?", date.Midnight()).
		Where("status <> ?", reservation.StatusCanceled.String())
	if assigneeID != nil {
		query = query.Where("assignee_id = ?", *assigneeID)
	}

	var rows []rangeRow
	if err := query.Order("time_from_min ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find reservations for date: %w", err)
	}

	ranges := make([]reservation.TimeRange, 0, len(rows))
	for _, row := range rows {
		tr, err := reservation.NewTimeRange(reservation.TimeOfDay(row.TimeFromMin), reservation.TimeOfDay(row.TimeToMin))
		if err != nil {
			return nil, fmt.Errorf("corrupt time range in storage: %w", err)
		}
		ranges = append(ranges, tr)
	}
	return ranges, nil
}

// List retrieves reservations matching the filter, ordered by date and start
// time.
func (r *GormReservationRepository) List(ctx context.Context, filter reservation.ListFilter) ([]*reservation.Reservation, error) {
	query := r.db.WithContext(ctx).Model(&ReservationModel{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.PetID != nil {
		query = query.Where("pet_id = ?", *filter.PetID)
	}
	if filter.Date != nil {
		query = query.Where("date = ?", filter.Date.Midnight())
	}

	var models []ReservationModel
	if err := query.Order("date ASC, time_from_min ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return toDomainReservations(models)
}

// ListPage retrieves all reservations with pagination (admin).
func (r *GormReservationRepository) ListPage(ctx context.Context, page, limit int) ([]*reservation.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to page reservations: %w", err)
	}

	reservations, err := toDomainReservations(models)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// HistoryForPet retrieves all reservations ever made for one pet, most recent
// first.
func (r *GormReservationRepository) HistoryForPet(ctx context.Context, petID uuid.UUID) ([]*reservation.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("date DESC, time_from_min DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find pet history: %w", err)
	}
	return toDomainReservations(models)
}

// CountByStatus returns reservation counts grouped by status (admin).
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new reservation. A number collision surfaces as
// reservation.ErrDuplicateNumber so the caller can regenerate and retry; a
// row rejected by the overlap exclusion constraint surfaces as a conflict
// error carrying the attempted slot.
func (r *GormReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	model := toReservationModel(res)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return fmt.Errorf("%w: %s", reservation.ErrDuplicateNumber, res.ReservationNumber())
			case pgExclusionViolation:
				return domain.NewConflictError(fmt.Sprintf(
					"time slot %s is already reserved for %s",
					res.TimeRange(), res.Date()))
			}
		}
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

// Update persists changes to an existing reservation with optimistic locking.
func (r *GormReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	model := toReservationModel(res)

	// IncrementVersion has already run, so the stored row must still hold the
	// previous version.
	expectedVersion := res.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"assignee_id":   model.AssigneeID,
			"date":          model.Date,
			"time_from_min": model.TimeFromMin,
			"time_to_min":   model.TimeToMin,
			"status":        model.Status,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgExclusionViolation {
			return domain.NewConflictError(fmt.Sprintf(
				"time slot %s is already reserved for %s",
				res.TimeRange(), res.Date()))
		}
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// UpdateStatusBatch rewrites the status of the identified reservations.
// Idempotent: re-applying the same status to the same rows is a no-op.
func (r *GormReservationRepository) UpdateStatusBatch(ctx context.Context, ids []uuid.UUID, status reservation.Status) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return fmt.Errorf("failed to batch-update reservation status: %w", err)
	}
	return nil
}

// Delete removes a reservation and returns the deleted record.
func (r *GormReservationRepository) Delete(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Reservation", id.String())
			}
			return fmt.Errorf("failed to find reservation for delete: %w", err)
		}
		if err := tx.Delete(&ReservationModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDomainReservation(&model)
}

// InTransaction runs fn against a repository bound to a single transaction.
func (r *GormReservationRepository) InTransaction(ctx context.Context, fn func(reservation.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormReservationRepository{db: tx})
	})
}

// --- Conversion Helpers ---

func toReservationModel(res *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:                res.ID(),
		ReservationNumber: res.ReservationNumber(),
		PetID:             res.PetID(),
		ClientID:          res.ClientID(),
		AssigneeID:        res.AssigneeID(),
		Date:              res.Date().Midnight(),
		TimeFromMin:       res.TimeRange().From().Minutes(),
		TimeToMin:         res.TimeRange().To().Minutes(),
		Service:           res.Service().String(),
		Status:            res.Status().String(),
		Version:           res.Version(),
		CreatedAt:         res.CreatedAt(),
		UpdatedAt:         res.UpdatedAt(),
	}
}

func toDomainReservation(m *ReservationModel) (*reservation.Reservation, error) {
	timeRange, err := reservation.NewTimeRange(
		reservation.TimeOfDay(m.TimeFromMin),
		reservation.TimeOfDay(m.TimeToMin),
	)
	if err != nil {
		return nil, fmt.Errorf("corrupt time range in storage: %w", err)
	}

	status, err := reservation.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	service, err := reservation.ParseServiceCategory(m.Service)
	if err != nil {
		return nil, err
	}

	return reservation.ReconstructReservation(
		m.ID,
		m.ReservationNumber,
		m.PetID,
		m.ClientID,
		m.AssigneeID,
		reservation.DateOf(m.Date),
		timeRange,
		service,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainReservations(models []ReservationModel) ([]*reservation.Reservation, error) {
	reservations := make([]*reservation.Reservation, len(models))
	for i, m := range models {
		res, err := toDomainReservation(&m)
		if err != nil {
			return nil, err
		}
		reservations[i] = res
	}
	return reservations, nil
}
