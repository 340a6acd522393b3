// Package gateway defines the persistence contract of the seating plan and the
// infrastructure around it: the asynchronous write queue, the Redis cache of
// reserved seats and the MySQL adapter.
package gateway

import (
	"context"

	"github.com/iliyamo/seating-plan/internal/model"
)

// LayoutGateway reads and writes an owner's layout.  Writes are idempotent
// upserts keyed by id so they can be retried.
type LayoutGateway interface {
	FetchLayout(ctx context.Context, ownerID string) (model.Layout, error)
	UpsertSeatPosition(ctx context.Context, ownerID string, seat model.Seat) error
	DeleteSeat(ctx context.Context, ownerID, id string) error
	UpsertTextLabel(ctx context.Context, ownerID string, label model.TextLabel) error
	DeleteTextLabel(ctx context.Context, ownerID, id string) error
	SetSeatType(ctx context.Context, ownerID string, t model.SeatType) error
}

// ReservationGateway reads reserved seats and stores reservations.
// CreateReservation fails with model.ErrSeatsTaken when any requested seat is
// already reserved for the same venue, date and time.
type ReservationGateway interface {
	FetchReservedSeatIDs(ctx context.Context, venueID, date, time string) ([]string, error)
	CreateReservation(ctx context.Context, r model.Reservation) error
	ListReservations(ctx context.Context, venueID, date string) ([]model.Reservation, error)
}

// Gateway is the full persistence contract.
type Gateway interface {
	LayoutGateway
	ReservationGateway
}
