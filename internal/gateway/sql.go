package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/repository"
)

// SQL implements Gateway over the MySQL repositories.
type SQL struct {
	layouts      *repository.LayoutRepo
	reservations *repository.ReservationRepo
}

// NewSQL builds the MySQL gateway.
func NewSQL(layouts *repository.LayoutRepo, reservations *repository.ReservationRepo) *SQL {
	if layouts == nil || reservations == nil {
		panic("nil repository")
	}
	return &SQL{layouts: layouts, reservations: reservations}
}

func (g *SQL) FetchLayout(ctx context.Context, ownerID string) (model.Layout, error) {
	seats, err := g.layouts.ListSeats(ctx, ownerID)
	if err != nil {
		return model.Layout{}, fmt.Errorf("list seats: %w", err)
	}
	labels, err := g.layouts.ListLabels(ctx, ownerID)
	if err != nil {
		return model.Layout{}, fmt.Errorf("list text labels: %w", err)
	}
	t, err := g.layouts.GetSeatType(ctx, ownerID)
	if err != nil {
		return model.Layout{}, fmt.Errorf("get seat type: %w", err)
	}
	for i := range seats {
		seats[i].Type = t
	}
	return model.Layout{Seats: seats, TextLabels: labels, SeatType: t}, nil
}

func (g *SQL) UpsertSeatPosition(ctx context.Context, ownerID string, seat model.Seat) error {
	if err := g.layouts.UpsertSeat(ctx, ownerID, seat); err != nil {
		return fmt.Errorf("upsert seat %s: %w", seat.ID, err)
	}
	return nil
}

func (g *SQL) DeleteSeat(ctx context.Context, ownerID, id string) error {
	if err := g.layouts.DeleteSeat(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete seat %s: %w", id, err)
	}
	return nil
}

func (g *SQL) UpsertTextLabel(ctx context.Context, ownerID string, label model.TextLabel) error {
	if err := g.layouts.UpsertLabel(ctx, ownerID, label); err != nil {
		return fmt.Errorf("upsert text label %s: %w", label.ID, err)
	}
	return nil
}

func (g *SQL) DeleteTextLabel(ctx context.Context, ownerID, id string) error {
	if err := g.layouts.DeleteLabel(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete text label %s: %w", id, err)
	}
	return nil
}

func (g *SQL) SetSeatType(ctx context.Context, ownerID string, t model.SeatType) error {
	if err := g.layouts.SetSeatType(ctx, ownerID, t); err != nil {
		return fmt.Errorf("set seat type: %w", err)
	}
	return nil
}

func (g *SQL) FetchReservedSeatIDs(ctx context.Context, venueID, date, time string) ([]string, error) {
	ids, err := g.reservations.ReservedSeatIDs(ctx, venueID, date, time)
	if err != nil {
		return nil, fmt.Errorf("reserved seats: %w", err)
	}
	return ids, nil
}

func (g *SQL) CreateReservation(ctx context.Context, r model.Reservation) error {
	err := g.reservations.Create(ctx, r)
	if errors.Is(err, repository.ErrConflict) {
		return model.ErrSeatsTaken
	}
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (g *SQL) ListReservations(ctx context.Context, venueID, date string) ([]model.Reservation, error) {
	out, err := g.reservations.ListByVenue(ctx, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}
