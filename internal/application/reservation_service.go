package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetdesk/service-reservation/internal/domain/pet"
	"github.com/vetdesk/service-reservation/internal/domain/reservation"
	"github.com/vetdesk/service-reservation/internal/events"
	"github.com/vetdesk/service-reservation/internal/platform/domain"
	"github.com/vetdesk/service-reservation/internal/platform/kafka"
)

// EventPublisher publishes CloudEvents. Satisfied by the Kafka producer;
// narrowed to an interface so unit tests run without a broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// ScheduleConfig carries the booking-window configuration.
type ScheduleConfig struct {
	Hours       reservation.BusinessHours
	SlotMinutes int
	Capacity    reservation.CapacityScope
}

// TimeSlotDTO is the boundary representation of a time range.
type TimeSlotDTO struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// CreateReservationRequest holds the data needed to book a reservation.
type CreateReservationRequest struct {
	PetID      uuid.UUID   `json:"pet_id" binding:"required"`
	ClientID   uuid.UUID   `json:"client_id" binding:"required"`
	AssigneeID *uuid.UUID  `json:"assignee_id"`
	Date       string      `json:"date" binding:"required"`
	Time       TimeSlotDTO `json:"time" binding:"required"`
	Service    string      `json:"service" binding:"required"`
}

// UpdateReservationRequest holds a partial reservation edit. Nil fields are
// left untouched.
type UpdateReservationRequest struct {
	Date       *string      `json:"date"`
	Time       *TimeSlotDTO `json:"time"`
	Status     *string      `json:"status"`
	AssigneeID *uuid.UUID   `json:"assignee_id"`
}

// ListReservationsFilter narrows ListReservations results.
type ListReservationsFilter struct {
	Statuses []string
	ClientID *uuid.UUID
	PetID    *uuid.UUID
	Date     *string
}

// SlotsRequest asks for the free slots of one date. Hour and duration
// overrides fall back to the configured business hours.
type SlotsRequest struct {
	Date        string
	StartHour   *int
	EndHour     *int
	SlotMinutes *int
	AssigneeID  *uuid.UUID
}

// ReservationDTO is the response representation of a reservation.
type ReservationDTO struct {
	ID                uuid.UUID   `json:"id"`
	ReservationNumber string      `json:"reservation_number"`
	PetID             uuid.UUID   `json:"pet_id"`
	ClientID          uuid.UUID   `json:"client_id"`
	AssigneeID        *uuid.UUID  `json:"assignee_id,omitempty"`
	Date              string      `json:"date"`
	Time              TimeSlotDTO `json:"time"`
	Service           string      `json:"service"`
	Status            string      `json:"status"`
	Version           int64       `json:"version"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ReservationService orchestrates the scheduling use cases: conflict-checked
// booking, slot generation, lifecycle edits, and the read-time reconciliation
// sweep.
type ReservationService struct {
	repo      reservation.Repository
	pets      pet.Repository
	publisher EventPublisher
	schedule  ScheduleConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	repo reservation.Repository,
	pets pet.Repository,
	publisher EventPublisher,
	schedule ScheduleConfig,
	logger *zap.Logger,
) *ReservationService {
	if schedule.Hours == (reservation.BusinessHours{}) {
		schedule.Hours = reservation.DefaultBusinessHours()
	}
	if schedule.SlotMinutes == 0 {
		schedule.SlotMinutes = reservation.DefaultSlotMinutes
	}
	if schedule.Capacity == "" {
		schedule.Capacity = reservation.CapacityGlobal
	}
	return &ReservationService{
		repo:      repo,
		pets:      pets,
		publisher: publisher,
		schedule:  schedule,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateReservation books a new visit. The in-process conflict check is the
// fast path; the repository's storage-level exclusion guard is the authority
// under concurrent bookings. A reservation-number collision at insert time is
// retried with a fresh number.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationDTO, error) {
	date, err := reservation.ParseCalendarDate(req.Date)
	if err != nil {
		return nil, err
	}
	timeRange, err := reservation.ParseTimeRange(req.Time.From, req.Time.To)
	if err != nil {
		return nil, err
	}
	service, err := reservation.ParseServiceCategory(req.Service)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	p, err := s.pets.FindByID(ctx, req.PetID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, domain.NewValidationError("pet profile is archived")
	}

	existing, err := s.repo.FindRangesForDate(ctx, date, s.conflictPartition(req.AssigneeID))
	if err != nil {
		return nil, err
	}
	if c := reservation.CheckConflict(date, timeRange, existing); c != nil {
		return nil, c.Err()
	}

	res, err := reservation.NewReservation(req.PetID, req.ClientID, req.AssigneeID, date, timeRange, service, s.now())
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = s.repo.Save(ctx, res)
		if err == nil {
			break
		}
		if errors.Is(err, reservation.ErrDuplicateNumber) && attempt < reservation.MaxNumberAttempts {
			s.logger.Warn("reservation number collision, regenerating",
				zap.String("reservation_number", res.ReservationNumber()),
				zap.Int("attempt", attempt),
			)
			if err := res.RefreshNumber(s.now()); err != nil {
				return nil, err
			}
			continue
		}
		return nil, err
	}

	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationBooked, events.ReservationBookedEvent{
		ReservationID:     res.ID(),
		ReservationNumber: res.ReservationNumber(),
		PetID:             res.PetID(),
		ClientID:          res.ClientID(),
		AssigneeID:        res.AssigneeID(),
		Date:              res.Date().String(),
		TimeFrom:          res.TimeRange().From().String(),
		TimeTo:            res.TimeRange().To().String(),
		Service:           res.Service().String(),
		OccurredAt:        s.now(),
	})

	result := toReservationDTO(res)
	return &result, nil
}

// GenerateFreeSlots enumerates the bookable slots of one date.
func (s *ReservationService) GenerateFreeSlots(ctx context.Context, req SlotsRequest) ([]TimeSlotDTO, error) {
	date, err := reservation.ParseCalendarDate(req.Date)
	if err != nil {
		return nil, err
	}

	hours := s.schedule.Hours
	if req.StartHour != nil {
		hours.StartHour = *req.StartHour
	}
	if req.EndHour != nil {
		hours.EndHour = *req.EndHour
	}
	slotMinutes := s.schedule.SlotMinutes
	if req.SlotMinutes != nil {
		slotMinutes = *req.SlotMinutes
	}

	existing, err := s.repo.FindRangesForDate(ctx, date, s.conflictPartition(req.AssigneeID))
	if err != nil {
		return nil, err
	}

	slots, err := reservation.GenerateSlots(hours, slotMinutes, existing)
	if err != nil {
		return nil, err
	}

	dtos := make([]TimeSlotDTO, len(slots))
	for i, slot := range slots {
		dtos[i] = TimeSlotDTO{From: slot.From().String(), To: slot.To().String()}
	}
	return dtos, nil
}

// UpdateReservation applies a partial edit. Date/time edits derive the new
// status from the rules in the domain package; a completed reservation
// rejects everything except a direct status change.
func (s *ReservationService) UpdateReservation(ctx context.Context, id uuid.UUID, req UpdateReservationRequest) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var requestedStatus *reservation.Status
	if req.Status != nil {
		status, err := reservation.ParseStatus(*req.Status)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		requestedStatus = &status
	}

	rescheduled := req.Date != nil || req.Time != nil
	if rescheduled {
		date := res.Date()
		if req.Date != nil {
			if date, err = reservation.ParseCalendarDate(*req.Date); err != nil {
				return nil, err
			}
		}
		timeRange := res.TimeRange()
		if req.Time != nil {
			if timeRange, err = reservation.ParseTimeRange(req.Time.From, req.Time.To); err != nil {
				return nil, err
			}
		}
		if err := res.Reschedule(date, timeRange, requestedStatus, s.now()); err != nil {
			return nil, err
		}
	} else if requestedStatus != nil {
		if err := res.ApplyStatus(*requestedStatus, s.now()); err != nil {
			return nil, err
		}
	}

	if req.AssigneeID != nil {
		if err := res.Assign(*req.AssigneeID, s.now()); err != nil {
			return nil, err
		}
	}

	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	if rescheduled {
		s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationRescheduled, events.ReservationRescheduledEvent{
			ReservationID:     res.ID(),
			ReservationNumber: res.ReservationNumber(),
			Date:              res.Date().String(),
			TimeFrom:          res.TimeRange().From().String(),
			TimeTo:            res.TimeRange().To().String(),
			Status:            res.Status().String(),
			OccurredAt:        s.now(),
		})
	}

	result := toReservationDTO(res)
	return &result, nil
}

// ListReservations returns reservations matching the filter after running the
// reconciliation pass: any oncoming reservation whose scheduled end has
// passed is rewritten to late, with the write-through in the same transaction
// as the read.
func (s *ReservationService) ListReservations(ctx context.Context, filter ListReservationsFilter) ([]ReservationDTO, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var batch []*reservation.Reservation
	var staleIDs []uuid.UUID

	err = s.repo.InTransaction(ctx, func(txRepo reservation.Repository) error {
		var err error
		batch, err = txRepo.List(ctx, domainFilter)
		if err != nil {
			return err
		}

		staleIDs = reservation.StaleIDs(now, batch)
		if len(staleIDs) > 0 {
			if err := txRepo.UpdateStatusBatch(ctx, staleIDs, reservation.StatusLate); err != nil {
				return err
			}
			reservation.ApplyLate(now, batch, staleIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(staleIDs) > 0 {
		s.logger.Info("reconciled stale reservations",
			zap.Int("count", len(staleIDs)),
		)
		for _, r := range batch {
			if r.Status() != reservation.StatusLate {
				continue
			}
			for _, id := range staleIDs {
				if r.ID() == id {
					s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationMarkedLate, events.ReservationMarkedLateEvent{
						ReservationID:     r.ID(),
						ReservationNumber: r.ReservationNumber(),
						OccurredAt:        now,
					})
					break
				}
			}
		}
	}

	dtos := make([]ReservationDTO, len(batch))
	for i, r := range batch {
		dtos[i] = toReservationDTO(r)
	}
	return dtos, nil
}

// GetReservation retrieves a single reservation by ID.
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(res)
	return &result, nil
}

// GetByNumber retrieves a single reservation by its human-readable number.
func (s *ReservationService) GetByNumber(ctx context.Context, number string) (*ReservationDTO, error) {
	res, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(res)
	return &result, nil
}

// ReservationHistory returns every reservation ever made for a pet.
func (s *ReservationService) ReservationHistory(ctx context.Context, petID uuid.UUID) ([]ReservationDTO, error) {
	if _, err := s.pets.FindByID(ctx, petID); err != nil {
		return nil, err
	}
	history, err := s.repo.HistoryForPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	dtos := make([]ReservationDTO, len(history))
	for i, r := range history {
		dtos[i] = toReservationDTO(r)
	}
	return dtos, nil
}

// CancelReservation marks a reservation canceled.
func (s *ReservationService) CancelReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res.Cancel(s.now())
	res.IncrementVersion()
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCanceled, events.ReservationCanceledEvent{
		ReservationID:     res.ID(),
		ReservationNumber: res.ReservationNumber(),
		ClientID:          res.ClientID(),
		OccurredAt:        s.now(),
	})

	result := toReservationDTO(res)
	return &result, nil
}

// CompleteReservation marks a visit done.
func (s *ReservationService) CompleteReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.Status() != reservation.StatusDone {
		res.MarkDone(s.now())
		res.IncrementVersion()
		if err := s.repo.Update(ctx, res); err != nil {
			return nil, err
		}

		s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCompleted, events.ReservationCompletedEvent{
			ReservationID:     res.ID(),
			ReservationNumber: res.ReservationNumber(),
			PetID:             res.PetID(),
			OccurredAt:        s.now(),
		})
	}

	result := toReservationDTO(res)
	return &result, nil
}

// MarkVisitCompleted is the event-consumer entry point for visit checkout.
func (s *ReservationService) MarkVisitCompleted(ctx context.Context, reservationID uuid.UUID) error {
	_, err := s.CompleteReservation(ctx, reservationID)
	return err
}

// DeleteReservation removes a reservation and returns the deleted record.
func (s *ReservationService) DeleteReservation(ctx context.Context, id uuid.UUID) (*ReservationDTO, error) {
	res, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toReservationDTO(res)
	return &result, nil
}

// --- Admin methods ---

// ReservationStatsDTO holds reservation statistics for the admin dashboard.
type ReservationStatsDTO struct {
	TotalReservations int64            `json:"total_reservations"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// ListAllReservations returns a paginated list of all reservations (admin).
func (s *ReservationService) ListAllReservations(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	batch, total, err := s.repo.ListPage(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	dtos := make([]ReservationDTO, len(batch))
	for i, r := range batch {
		dtos[i] = toReservationDTO(r)
	}
	return dtos, total, nil
}

// GetReservationStats returns aggregate reservation statistics (admin).
func (s *ReservationService) GetReservationStats(ctx context.Context) (*ReservationStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &ReservationStatsDTO{TotalReservations: total, ByStatus: counts}, nil
}

// --- Helpers ---

// conflictPartition returns the assignee to scope the conflict check to, or
// nil for clinic-wide capacity.
func (s *ReservationService) conflictPartition(assigneeID *uuid.UUID) *uuid.UUID {
	if s.schedule.Capacity == reservation.CapacityPerStaff {
		return assigneeID
	}
	return nil
}

func toDomainFilter(filter ListReservationsFilter) (reservation.ListFilter, error) {
	out := reservation.ListFilter{
		ClientID: filter.ClientID,
		PetID:    filter.PetID,
	}
	for _, raw := range filter.Statuses {
		status, err := reservation.ParseStatus(raw)
		if err != nil {
			return reservation.ListFilter{}, domain.NewValidationError(err.Error())
		}
		out.Statuses = append(out.Statuses, status)
	}
	if filter.Date != nil {
		date, err := reservation.ParseCalendarDate(*filter.Date)
		if err != nil {
			return reservation.ListFilter{}, err
		}
		out.Date = &date
	}
	return out, nil
}

func toReservationDTO(r *reservation.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:                r.ID(),
		ReservationNumber: r.ReservationNumber(),
		PetID:             r.PetID(),
		ClientID:          r.ClientID(),
		AssigneeID:        r.AssigneeID(),
		Date:              r.Date().String(),
		Time: TimeSlotDTO{
			From: r.TimeRange().From().String(),
			To:   r.TimeRange().To().String(),
		},
		Service:   r.Service().String(),
		Status:    r.Status().String(),
		Version:   r.Version(),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

func (s *ReservationService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
