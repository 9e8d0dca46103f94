package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vetdesk/service-reservation/internal/domain/pet"
	"github.com/vetdesk/service-reservation/internal/domain/reservation"
	"github.com/vetdesk/service-reservation/internal/platform/domain"
	"github.com/vetdesk/service-reservation/internal/platform/kafka"
)

// fakeReservationRepo is an in-memory reservation.Repository for unit tests.
type fakeReservationRepo struct {
	byID map[uuid.UUID]*reservation.Reservation

	// saveErrs is consumed one entry per Save call before the insert succeeds.
	saveErrs []error
	// savedNumbers records the number presented on each Save attempt.
	savedNumbers []string
	batchCalls   int
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: make(map[uuid.UUID]*reservation.Reservation)}
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	return r, nil
}

func (f *fakeReservationRepo) FindByNumber(_ context.Context, number string) (*reservation.Reservation, error) {
	for _, r := range f.byID {
		if r.ReservationNumber() == number {
			return r, nil
		}
	}
	return nil, domain.NewNotFoundError("Reservation", number)
}

func (f *fakeReservationRepo) FindRangesForDate(_ context.Context, date reservation.CalendarDate, assigneeID *uuid.UUID) ([]reservation.TimeRange, error) {
	var ranges []reservation.TimeRange
	for _, r := range f.byID {
		if !r.Date().Equal(date) || r.Status() == reservation.StatusCanceled {
			continue
		}
		if assigneeID != nil && (r.AssigneeID() == nil || *r.AssigneeID() != *assigneeID) {
			continue
		}
		ranges = append(ranges, r.TimeRange())
	}
	return ranges, nil
}

func (f *fakeReservationRepo) List(_ context.Context, filter reservation.ListFilter) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, r := range f.byID {
		if filter.ClientID != nil && r.ClientID() != *filter.ClientID {
			continue
		}
		if filter.PetID != nil && r.PetID() != *filter.PetID {
			continue
		}
		if filter.Date != nil && !r.Date().Equal(*filter.Date) {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if r.Status() == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReservationRepo) ListPage(_ context.Context, _, _ int) ([]*reservation.Reservation, int64, error) {
	var out []*reservation.Reservation
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReservationRepo) HistoryForPet(_ context.Context, petID uuid.UUID) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, r := range f.byID {
		if r.PetID() == petID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, r := range f.byID {
		counts[r.Status().String()]++
	}
	return counts, nil
}

func (f *fakeReservationRepo) Save(_ context.Context, r *reservation.Reservation) error {
	f.savedNumbers = append(f.savedNumbers, r.ReservationNumber())
	if len(f.saveErrs) > 0 {
		err := f.saveErrs[0]
		f.saveErrs = f.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	f.byID[r.ID()] = r
	return nil
}

func (f *fakeReservationRepo) Update(_ context.Context, r *reservation.Reservation) error {
	if _, ok := f.byID[r.ID()]; !ok {
		return domain.NewNotFoundError("Reservation", r.ID().String())
	}
	f.byID[r.ID()] = r
	return nil
}

func (f *fakeReservationRepo) UpdateStatusBatch(_ context.Context, ids []uuid.UUID, _ reservation.Status) error {
	if len(ids) > 0 {
		f.batchCalls++
	}
	return nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	delete(f.byID, id)
	return r, nil
}

func (f *fakeReservationRepo) InTransaction(_ context.Context, fn func(reservation.Repository) error) error {
	return fn(f)
}

// fakePetRepo is an in-memory pet.Repository.
type fakePetRepo struct {
	byID map[uuid.UUID]*pet.Pet
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{byID: make(map[uuid.UUID]*pet.Pet)}
}

func (f *fakePetRepo) FindByID(_ context.Context, id uuid.UUID) (*pet.Pet, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Pet", id.String())
	}
	return p, nil
}

func (f *fakePetRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*pet.Pet, error) {
	var out []*pet.Pet
	for _, p := range f.byID {
		if p.IsOwnedBy(ownerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePetRepo) Save(_ context.Context, p *pet.Pet) error {
	f.byID[p.ID()] = p
	return nil
}

func (f *fakePetRepo) Update(_ context.Context, p *pet.Pet) error {
	f.byID[p.ID()] = p
	return nil
}

// capturingPublisher records published events instead of talking to Kafka.
type capturingPublisher struct {
	events []kafka.CloudEvent
}

func (p *capturingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) typesSeen() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type serviceFixture struct {
	service   *ReservationService
	repo      *fakeReservationRepo
	pets      *fakePetRepo
	publisher *capturingPublisher
	ownerID   uuid.UUID
	petID     uuid.UUID
}

func newServiceFixture(t *testing.T, now time.Time) *serviceFixture {
	t.Helper()

	repo := newFakeReservationRepo()
	pets := newFakePetRepo()
	publisher := &capturingPublisher{}

	svc := NewReservationService(repo, pets, publisher, ScheduleConfig{}, zap.NewNop())
	svc.now = func() time.Time { return now }

	ownerID := uuid.New()
	p, err := pet.NewPet(ownerID, "Miso", "cat", "british shorthair", 24, "")
	require.NoError(t, err)
	require.NoError(t, pets.Save(context.Background(), p))

	return &serviceFixture{
		service:   svc,
		repo:      repo,
		pets:      pets,
		publisher: publisher,
		ownerID:   ownerID,
		petID:     p.ID(),
	}
}

func (f *serviceFixture) createRequest(date, from, to string) CreateReservationRequest {
	return CreateReservationRequest{
		PetID:    f.petID,
		ClientID: f.ownerID,
		Date:     date,
		Time:     TimeSlotDTO{From: from, To: to},
		Service:  "consultation",
	}
}

func TestCreateReservation(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	dto, err := f.service.CreateReservation(context.Background(), f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	assert.Equal(t, "oncoming", dto.Status)
	assert.Equal(t, "2025-04-17", dto.Date)
	assert.Equal(t, "10:00", dto.Time.From)
	assert.Regexp(t, `^VET-20250410-[0-9A-Z]{4}$`, dto.ReservationNumber)
	assert.Equal(t, []string{"reservation.booked"}, f.publisher.typesSeen())
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	ctx := context.Background()
	_, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	_, err = f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:15", "10:45"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.Contains(t, err.Error(), "time slot 10:15-10:45 is already reserved for 2025-04-17")

	// Same range on a different date is fine.
	_, err = f.service.CreateReservation(ctx, f.createRequest("2025-04-18", "10:00", "10:30"))
	assert.NoError(t, err)
}

func TestCreateReservationAllowsAdjacentSlots(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	ctx := context.Background()
	_, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	_, err = f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:30", "11:00"))
	assert.NoError(t, err, "back-to-back slots share a boundary but not a minute")
}

func TestCreateReservationRetriesNumberCollision(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	f.repo.saveErrs = []error{reservation.ErrDuplicateNumber, reservation.ErrDuplicateNumber, nil}

	dto, err := f.service.CreateReservation(context.Background(), f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)
	require.Len(t, f.repo.savedNumbers, 3)
	assert.NotEqual(t, f.repo.savedNumbers[0], dto.ReservationNumber)
}

func TestCreateReservationGivesUpAfterMaxAttempts(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	f.repo.saveErrs = []error{
		reservation.ErrDuplicateNumber,
		reservation.ErrDuplicateNumber,
		reservation.ErrDuplicateNumber,
	}

	_, err := f.service.CreateReservation(context.Background(), f.createRequest("2025-04-17", "10:00", "10:30"))
	require.Error(t, err)
	assert.ErrorIs(t, err, reservation.ErrDuplicateNumber)
	assert.Len(t, f.repo.savedNumbers, reservation.MaxNumberAttempts)
}

func TestCreateReservationUnknownPet(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	req := f.createRequest("2025-04-17", "10:00", "10:30")
	req.PetID = uuid.New()

	_, err := f.service.CreateReservation(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestCreateReservationInvalidInput(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	_, err := f.service.CreateReservation(ctx, f.createRequest("17-04-2025", "10:00", "10:30"))
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:30", "10:00"))
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	req := f.createRequest("2025-04-17", "10:00", "10:30")
	req.Service = "surgery"
	_, err = f.service.CreateReservation(ctx, req)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestGenerateFreeSlots(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	_, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	slots, err := f.service.GenerateFreeSlots(ctx, SlotsRequest{Date: "2025-04-17"})
	require.NoError(t, err)
	require.Len(t, slots, 15)
	assert.Equal(t, TimeSlotDTO{From: "09:00", To: "09:30"}, slots[0])
	for _, slot := range slots {
		assert.NotEqual(t, "10:00", slot.From)
	}

	// An empty date keeps the full grid.
	slots, err = f.service.GenerateFreeSlots(ctx, SlotsRequest{Date: "2025-04-18"})
	require.NoError(t, err)
	assert.Len(t, slots, 16)
}

func TestGenerateFreeSlotsOverrides(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)

	start, end, minutes := 8, 12, 60
	slots, err := f.service.GenerateFreeSlots(context.Background(), SlotsRequest{
		Date:        "2025-04-17",
		StartHour:   &start,
		EndHour:     &end,
		SlotMinutes: &minutes,
	})
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, TimeSlotDTO{From: "08:00", To: "09:00"}, slots[0])
}

func TestUpdateReservationReschedule(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	created, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	newDate := "2025-04-20"
	updated, err := f.service.UpdateReservation(ctx, created.ID, UpdateReservationRequest{
		Date: &newDate,
		Time: &TimeSlotDTO{From: "11:00", To: "11:30"},
	})
	require.NoError(t, err)

	assert.Equal(t, "rescheduled", updated.Status)
	assert.Equal(t, newDate, updated.Date)
	assert.Equal(t, created.Version+1, updated.Version)
	assert.Equal(t, []string{"reservation.booked", "reservation.rescheduled"}, f.publisher.typesSeen())
}

func TestUpdateReservationStatusOnly(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	created, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	status := "done"
	updated, err := f.service.UpdateReservation(ctx, created.ID, UpdateReservationRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "done", updated.Status)

	// A completed reservation rejects further rescheduling.
	newDate := "2025-04-20"
	_, err = f.service.UpdateReservation(ctx, created.ID, UpdateReservationRequest{Date: &newDate})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidOperation))
}

func TestListReservationsReconcilesStale(t *testing.T) {
	bookingTime := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, bookingTime)
	ctx := context.Background()

	stale, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "09:00", "09:30"))
	require.NoError(t, err)
	fresh, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "14:00", "14:30"))
	require.NoError(t, err)

	// Advance the clock past the first slot's end but before the second's.
	f.service.now = func() time.Time { return time.Date(2025, 4, 17, 12, 0, 0, 0, time.UTC) }

	result, err := f.service.ListReservations(ctx, ListReservationsFilter{})
	require.NoError(t, err)
	require.Len(t, result, 2)

	byID := map[uuid.UUID]ReservationDTO{}
	for _, dto := range result {
		byID[dto.ID] = dto
	}
	assert.Equal(t, "late", byID[stale.ID].Status)
	assert.Equal(t, "oncoming", byID[fresh.ID].Status)
	assert.Equal(t, 1, f.repo.batchCalls, "write-through happens inside the read transaction")
	assert.Contains(t, f.publisher.typesSeen(), "reservation.marked_late")

	// Second sweep finds nothing left to rewrite.
	_, err = f.service.ListReservations(ctx, ListReservationsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.batchCalls)
}

func TestCancelReservation(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	created, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	canceled, err := f.service.CancelReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "canceled", canceled.Status)
	assert.Contains(t, f.publisher.typesSeen(), "reservation.canceled")

	// The canceled slot frees up for a new booking.
	_, err = f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	assert.NoError(t, err)
}

func TestMarkVisitCompleted(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	created, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	require.NoError(t, f.service.MarkVisitCompleted(ctx, created.ID))
	got, err := f.service.GetReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.Status)
	assert.Contains(t, f.publisher.typesSeen(), "reservation.completed")

	// Redelivered consumer messages are a no-op.
	eventsBefore := len(f.publisher.events)
	require.NoError(t, f.service.MarkVisitCompleted(ctx, created.ID))
	assert.Len(t, f.publisher.events, eventsBefore)
}

func TestDeleteReservation(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	created, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)

	deleted, err := f.service.DeleteReservation(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = f.service.GetReservation(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestGetReservationStats(t *testing.T) {
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, now)
	ctx := context.Background()

	created, err := f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "10:00", "10:30"))
	require.NoError(t, err)
	_, err = f.service.CreateReservation(ctx, f.createRequest("2025-04-17", "11:00", "11:30"))
	require.NoError(t, err)
	_, err = f.service.CancelReservation(ctx, created.ID)
	require.NoError(t, err)

	stats, err := f.service.GetReservationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalReservations)
	assert.Equal(t, int64(1), stats.ByStatus["oncoming"])
	assert.Equal(t, int64(1), stats.ByStatus["canceled"])
}
