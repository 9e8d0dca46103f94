package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics this service produces to and consumes from.
const (
	TopicReservationEvents = "reservation.events"
	TopicVisitEvents       = "visit.events"
)

// Event types on reservation.events.
const (
	ReservationBooked      = "reservation.booked"
	ReservationRescheduled = "reservation.rescheduled"
	ReservationCanceled    = "reservation.canceled"
	ReservationCompleted   = "reservation.completed"
	ReservationMarkedLate  = "reservation.marked_late"
)

// Event types on visit.events (produced by the front-desk service).
const (
	VisitCompleted = "visit.completed"
)

// ReservationBookedEvent is published when a booking passes the conflict
// check and is persisted.
type ReservationBookedEvent struct {
	ReservationID     uuid.UUID  `json:"reservation_id"`
	ReservationNumber string     `json:"reservation_number"`
	PetID             uuid.UUID  `json:"pet_id"`
	ClientID          uuid.UUID  `json:"client_id"`
	AssigneeID        *uuid.UUID `json:"assignee_id,omitempty"`
	Date              string     `json:"date"`
	TimeFrom          string     `json:"time_from"`
	TimeTo            string     `json:"time_to"`
	Service           string     `json:"service"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

// ReservationRescheduledEvent is published after an explicit date/time edit.
type ReservationRescheduledEvent struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	ReservationNumber string    `json:"reservation_number"`
	Date              string    `json:"date"`
	TimeFrom          string    `json:"time_from"`
	TimeTo            string    `json:"time_to"`
	Status            string    `json:"status"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// ReservationCanceledEvent is published when a reservation is canceled.
type ReservationCanceledEvent struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	ReservationNumber string    `json:"reservation_number"`
	ClientID          uuid.UUID `json:"client_id"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// ReservationCompletedEvent is published when a visit is marked done.
type ReservationCompletedEvent struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	ReservationNumber string    `json:"reservation_number"`
	PetID             uuid.UUID `json:"pet_id"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// ReservationMarkedLateEvent is published by the reconciliation pass for each
// reservation it rewrites to late.
type ReservationMarkedLateEvent struct {
	ReservationID     uuid.UUID `json:"reservation_id"`
	ReservationNumber string    `json:"reservation_number"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// VisitCompletedEvent is consumed from visit.events when the front desk
// checks a patient out.
type VisitCompletedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	StaffID       uuid.UUID `json:"staff_id"`
	CompletedAt   time.Time `json:"completed_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}
