package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/seating-plan/internal/model"
)

// LayoutRepo stores seats, text labels and the layout seat type of each owner.
type LayoutRepo struct {
	db *sql.DB
}

// NewLayoutRepo constructs a LayoutRepo with the given DB handle.
func NewLayoutRepo(db *sql.DB) *LayoutRepo { return &LayoutRepo{db: db} }

// ListSeats returns the owner's seats in insertion order.
func (r *LayoutRepo) ListSeats(ctx context.Context, ownerID string) ([]model.Seat, error) {
	const q = `SELECT id, x, y FROM seats WHERE owner_id = ? ORDER BY pk`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := []model.Seat{}
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.X, &s.Y); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// UpsertSeat creates the seat or moves it when the id already exists.
func (r *LayoutRepo) UpsertSeat(ctx context.Context, ownerID string, s model.Seat) error {
	const q = `INSERT INTO seats (owner_id, id, x, y) VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE x = VALUES(x), y = VALUES(y)`
	_, err := r.db.ExecContext(ctx, q, ownerID, s.ID, s.X, s.Y)
	return err
}

// DeleteSeat removes a seat.  Deleting a missing seat is not an error so the
// write can be retried.
func (r *LayoutRepo) DeleteSeat(ctx context.Context, ownerID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM seats WHERE owner_id = ? AND id = ?`, ownerID, id)
	return err
}

// ListLabels returns the owner's text labels in insertion order.
func (r *LayoutRepo) ListLabels(ctx context.Context, ownerID string) ([]model.TextLabel, error) {
	const q = `SELECT id, x, y, value, width, height FROM text_labels WHERE owner_id = ? ORDER BY pk`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []model.TextLabel{}
	for rows.Next() {
		var (
			t             model.TextLabel
			width, height sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.X, &t.Y, &t.Value, &width, &height); err != nil {
			return nil, err
		}
		if width.Valid {
			w := int(width.Int64)
			t.Width = &w
		}
		if height.Valid {
			h := int(height.Int64)
			t.Height = &h
		}
		labels = append(labels, t)
	}
	return labels, rows.Err()
}

// UpsertLabel creates or replaces a text label.
func (r *LayoutRepo) UpsertLabel(ctx context.Context, ownerID string, t model.TextLabel) error {
	const q = `INSERT INTO text_labels (owner_id, id, x, y, value, width, height) VALUES (?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE x = VALUES(x), y = VALUES(y), value = VALUES(value),
	                                   width = VALUES(width), height = VALUES(height)`
	_, err := r.db.ExecContext(ctx, q, ownerID, t.ID, t.X, t.Y, t.Value, nullInt(t.Width), nullInt(t.Height))
	return err
}

// DeleteLabel removes a text label.
func (r *LayoutRepo) DeleteLabel(ctx context.Context, ownerID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM text_labels WHERE owner_id = ? AND id = ?`, ownerID, id)
	return err
}

// GetSeatType returns the owner's seat type, or the default when the owner
// never chose one.
func (r *LayoutRepo) GetSeatType(ctx context.Context, ownerID string) (model.SeatType, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT seat_type FROM layouts WHERE owner_id = ?`, ownerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSeatType, nil
	}
	if err != nil {
		return "", err
	}
	t, ok := model.ParseSeatType(raw)
	if !ok {
		return model.DefaultSeatType, nil
	}
	return t, nil
}

// SetSeatType stores the owner's seat type.
func (r *LayoutRepo) SetSeatType(ctx context.Context, ownerID string, t model.SeatType) error {
	const q = `INSERT INTO layouts (owner_id, seat_type) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE seat_type = VALUES(seat_type)`
	_, err := r.db.ExecContext(ctx, q, ownerID, string(t))
	return err
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
