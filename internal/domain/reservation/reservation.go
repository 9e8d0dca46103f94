package reservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// Reservation is the aggregate root for the scheduling domain. It owns the
// rules governing valid states and transitions; the repository owns storage.
type Reservation struct {
	id                uuid.UUID
	reservationNumber string
	petID             uuid.UUID
	clientID          uuid.UUID
	assigneeID        *uuid.UUID
	date              CalendarDate
	timeRange         TimeRange
	service           ServiceCategory
	status            Status

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation creates a fresh booking. The conflict check has already
// passed by the time this runs; every new reservation starts oncoming and is
// stamped with a generated reservation number.
func NewReservation(
	petID, clientID uuid.UUID,
	assigneeID *uuid.UUID,
	date CalendarDate,
	timeRange TimeRange,
	service ServiceCategory,
	now time.Time,
) (*Reservation, error) {
	if petID == uuid.Nil {
		return nil, domain.NewValidationError("pet ID is required")
	}
	if clientID == uuid.Nil {
		return nil, domain.NewValidationError("client ID is required")
	}
	if date.IsZero() {
		return nil, domain.NewValidationError("reservation date is required")
	}
	if !service.IsValid() {
		return nil, domain.NewValidationError("invalid service category: " + string(service))
	}

	number, err := GenerateReservationNumber(now)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Reservation{
		id:                uuid.New(),
		reservationNumber: number,
		petID:             petID,
		clientID:          clientID,
		assigneeID:        assigneeID,
		date:              date,
		timeRange:         timeRange,
		service:           service,
		status:            StatusOncoming,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructReservation rebuilds a Reservation from persistence data (no
// validation).
func ReconstructReservation(
	id uuid.UUID,
	reservationNumber string,
	petID, clientID uuid.UUID,
	assigneeID *uuid.UUID,
	date CalendarDate,
	timeRange TimeRange,
	service ServiceCategory,
	status Status,
	version int64,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                id,
		reservationNumber: reservationNumber,
		petID:             petID,
		clientID:          clientID,
		assigneeID:        assigneeID,
		date:              date,
		timeRange:         timeRange,
		service:           service,
		status:            status,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

// ID returns the reservation's unique identifier.
func (r *Reservation) ID() uuid.UUID { return r.id }

// ReservationNumber returns the human-readable reservation number.
func (r *Reservation) ReservationNumber() string { return r.reservationNumber }

// PetID returns the referenced pet.
func (r *Reservation) PetID() uuid.UUID { return r.petID }

// ClientID returns the booking client.
func (r *Reservation) ClientID() uuid.UUID { return r.clientID }

// AssigneeID returns the assigned staff member, or nil if unassigned.
func (r *Reservation) AssigneeID() *uuid.UUID { return r.assigneeID }

// Date returns the scheduled calendar date.
func (r *Reservation) Date() CalendarDate { return r.date }

// TimeRange returns the scheduled time range.
func (r *Reservation) TimeRange() TimeRange { return r.timeRange }

// Service returns the service category of the visit.
func (r *Reservation) Service() ServiceCategory { return r.service }

// Status returns the current lifecycle status.
func (r *Reservation) Status() Status { return r.status }

// Version returns the entity version for optimistic locking.
func (r *Reservation) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// StartsAt returns the scheduled start as a UTC instant.
func (r *Reservation) StartsAt() time.Time { return r.date.At(r.timeRange.From()) }

// EndsAt returns the scheduled end as a UTC instant.
func (r *Reservation) EndsAt() time.Time { return r.date.At(r.timeRange.To()) }

// EndsBefore reports whether the scheduled end lies strictly before now.
func (r *Reservation) EndsBefore(now time.Time) bool { return r.EndsAt().Before(now) }

// --- Behavior ---

// RefreshNumber regenerates the reservation number. Used only by the bounded
// retry loop when the insert hits a number collision; the number is immutable
// once the reservation is persisted.
func (r *Reservation) RefreshNumber(now time.Time) error {
	number, err := GenerateReservationNumber(now)
	if err != nil {
		return err
	}
	r.reservationNumber = number
	return nil
}

// Reschedule moves the reservation to a new date and time range and derives
// the resulting status: a requested canceled/done status always wins, a start
// already in the past forces late, and a future start becomes rescheduled
// unless the caller requested something else. A completed reservation rejects
// rescheduling.
func (r *Reservation) Reschedule(date CalendarDate, timeRange TimeRange, requested *Status, now time.Time) error {
	if r.status == StatusDone {
		return domain.NewInvalidOperationError(
			"reservation " + r.reservationNumber + " is completed and cannot be rescheduled")
	}
	if requested != nil && !requested.IsValid() {
		return domain.NewValidationError("invalid reservation status: " + requested.String())
	}

	r.date = date
	r.timeRange = timeRange
	r.status = DeriveRescheduleStatus(requested, date.At(timeRange.From()).After(now))
	r.updatedAt = now.UTC()
	return nil
}

// ApplyStatus sets the status directly. Any status may be set by an operator;
// only the date and time of a completed reservation are locked, not its
// status.
func (r *Reservation) ApplyStatus(status Status, now time.Time) error {
	if !status.IsValid() {
		return domain.NewValidationError("invalid reservation status: " + status.String())
	}
	r.status = status
	r.updatedAt = now.UTC()
	return nil
}

// Assign sets or replaces the staff member responsible for the visit. A
// completed reservation rejects reassignment.
func (r *Reservation) Assign(staffID uuid.UUID, now time.Time) error {
	if r.status == StatusDone {
		return domain.NewInvalidOperationError(
			"reservation " + r.reservationNumber + " is completed and cannot be reassigned")
	}
	if staffID == uuid.Nil {
		return domain.NewValidationError("staff ID is required")
	}
	r.assigneeID = &staffID
	r.updatedAt = now.UTC()
	return nil
}

// Cancel marks the reservation canceled.
func (r *Reservation) Cancel(now time.Time) {
	r.status = StatusCanceled
	r.updatedAt = now.UTC()
}

// MarkDone marks the visit completed.
func (r *Reservation) MarkDone(now time.Time) {
	r.status = StatusDone
	r.updatedAt = now.UTC()
}

// markLate is applied by the reconciliation pass after the batch write.
func (r *Reservation) markLate(now time.Time) {
	r.status = StatusLate
	r.updatedAt = now.UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
