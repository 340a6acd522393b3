// Package queue defines the reservation.created message and the background
// consumer that writes one line per reservation to logs/reservations.log.
package queue

import (
	"time"

	"github.com/iliyamo/seating-plan/internal/model"
)

// ReservationQueue is the durable queue carrying ReservationCreatedEvent.
const ReservationQueue = "reservation.created"

// ReservationCreatedEvent is published once a reservation is stored.  It
// carries enough for downstream consumers to log or notify without reading
// the primary store.
type ReservationCreatedEvent struct {
	ReservationID string   `json:"reservation_id"`
	VenueID       string   `json:"venue_id"`
	CreatedBy     string   `json:"created_by"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	People        int      `json:"people"`
	Seats         []string `json:"seats"`
	CreatedAt     string   `json:"created_at"`
}

// NewReservationCreated builds the event for r.
func NewReservationCreated(r model.Reservation) ReservationCreatedEvent {
	seats := append([]string{}, r.SeatIDs...)
	return ReservationCreatedEvent{
		ReservationID: r.ID,
		VenueID:       r.VenueID,
		CreatedBy:     r.CreatedBy,
		Date:          r.Date,
		Time:          r.Time,
		People:        r.People,
		Seats:         seats,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
