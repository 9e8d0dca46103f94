//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetdesk/service-reservation/internal/application"
	"github.com/vetdesk/service-reservation/internal/events"
	"github.com/vetdesk/service-reservation/internal/platform/domain"
)

// TestVisitCompleted_CompletesReservation verifies that when a
// VisitCompletedEvent is published to visit.events, the reservation service
// picks it up and transitions the reservation to "done".
func TestVisitCompleted_CompletesReservation(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	petID := uuid.New()
	clientID := uuid.New()
	reservationID := uuid.New()
	seedPet(t, infra.DB, petID, clientID)
	seedReservation(t, infra.DB, reservationID, petID, clientID,
		time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1), 600, 630, "oncoming")

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := events.VisitCompletedEvent{
		ReservationID: reservationID,
		StaffID:       uuid.New(),
		CompletedAt:   time.Now().UTC(),
		OccurredAt:    time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicVisitEvents,
		"service-frontdesk", events.VisitCompleted, evt)

	// Assert: reservation transitions to "done".
	model := waitForReservationStatus(t, infra.DB, reservationID, "done", 15*time.Second)
	assert.Equal(t, int64(2), model.Version)

	// Assert: ReservationCompletedEvent on reservation.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicReservationEvents,
		events.ReservationCompleted, 15*time.Second)

	var completed events.ReservationCompletedEvent
	require.NoError(t, ce.ParseData(&completed))
	assert.Equal(t, reservationID, completed.ReservationID)
	assert.Equal(t, petID, completed.PetID)
}

// TestExclusionConstraint_RejectsConcurrentOverlap verifies the
// storage-level guard: an insert that overlaps an existing non-canceled
// reservation is rejected even without the in-process check.
func TestExclusionConstraint_RejectsConcurrentOverlap(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	petID := uuid.New()
	clientID := uuid.New()
	seedPet(t, infra.DB, petID, clientID)

	ctx := context.Background()
	req := application.CreateReservationRequest{
		PetID:    petID,
		ClientID: clientID,
		Date:     "2030-06-10",
		Time:     application.TimeSlotDTO{From: "10:00", To: "10:30"},
		Service:  "grooming",
	}

	_, err := stack.Service.CreateReservation(ctx, req)
	require.NoError(t, err)

	// Straddling insert bypassing the service: the constraint fires.
	overlapID := uuid.New()
	errInsert := infra.DB.Exec(
		`INSERT INTO reservations
		 (id, reservation_number, pet_id, client_id, date, time_from_min, time_to_min, service, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '2030-06-10', 615, 645, 'grooming', 'oncoming', 1, now(), now())`,
		overlapID, "VET-20300610-ZZZZ", petID, clientID).Error
	require.Error(t, errInsert)

	// Through the service the overlap surfaces as a conflict error.
	req.Time = application.TimeSlotDTO{From: "10:15", To: "10:45"}
	_, err = stack.Service.CreateReservation(ctx, req)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	// A canceled reservation frees its slot for rebooking.
	_, err = stack.Service.CreateReservation(ctx, application.CreateReservationRequest{
		PetID:    petID,
		ClientID: clientID,
		Date:     "2030-06-11",
		Time:     application.TimeSlotDTO{From: "09:00", To: "09:30"},
		Service:  "vaccination",
	})
	require.NoError(t, err)
}

// TestListReconciliation_MarksStaleLate drives the read-time sweep through
// real storage: an oncoming reservation whose end has passed flips to late on
// the next list call and stays late afterwards.
func TestListReconciliation_MarksStaleLate(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	petID := uuid.New()
	clientID := uuid.New()
	seedPet(t, infra.DB, petID, clientID)

	yesterday := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	staleID := uuid.New()
	doneID := uuid.New()
	seedReservation(t, infra.DB, staleID, petID, clientID, yesterday, 540, 570, "oncoming")
	seedReservation(t, infra.DB, doneID, petID, clientID, yesterday, 600, 630, "done")

	ctx := context.Background()
	result, err := stack.Service.ListReservations(ctx, application.ListReservationsFilter{})
	require.NoError(t, err)
	require.Len(t, result, 2)

	byID := map[uuid.UUID]string{}
	for _, dto := range result {
		byID[dto.ID] = dto.Status
	}
	assert.Equal(t, "late", byID[staleID], "stale oncoming reservation flips to late")
	assert.Equal(t, "done", byID[doneID], "sink states are never touched")

	model := waitForReservationStatus(t, infra.DB, staleID, "late", 5*time.Second)
	assert.Equal(t, "late", model.Status, "write-through persisted")

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicReservationEvents,
		events.ReservationMarkedLate, 15*time.Second)
	var marked events.ReservationMarkedLateEvent
	require.NoError(t, ce.ParseData(&marked))
	assert.Equal(t, staleID, marked.ReservationID)
}
