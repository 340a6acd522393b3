package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/seating-plan/internal/model"
)

// ReservationRepo stores reservations and the seats they hold.  A seat can be
// held once per venue, date and time; the unique key on reservation_seats
// enforces it.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts the reservation and its seats in one transaction.  It
// returns ErrConflict when any seat is already held for the slot.
func (r *ReservationRepo) Create(ctx context.Context, res model.Reservation) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO reservations (id, venue_id, created_by, date, time, people, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, q, res.ID, res.VenueID, res.CreatedBy, res.Date, res.Time, res.People, res.CreatedAt); err != nil {
		return err
	}

	if err = r.insertSeatsTx(ctx, tx, res); err != nil {
		if isDuplicate(err) {
			err = ErrConflict
		}
		return err
	}
	return tx.Commit()
}

// insertSeatsTx inserts every reserved seat in a single statement.
func (r *ReservationRepo) insertSeatsTx(ctx context.Context, tx *sql.Tx, res model.Reservation) error {
	if len(res.SeatIDs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO reservation_seats (reservation_id, venue_id, date, time, seat_id) VALUES `)
	args := make([]interface{}, 0, len(res.SeatIDs)*5)
	for i, id := range res.SeatIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, res.ID, res.VenueID, res.Date, res.Time, id)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// ReservedSeatIDs lists the seats held for a venue slot.
func (r *ReservationRepo) ReservedSeatIDs(ctx context.Context, venueID, date, time string) ([]string, error) {
	const q = `SELECT seat_id FROM reservation_seats
	           WHERE venue_id = ? AND date = ? AND time = ?
	           ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, venueID, date, time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByVenue returns the reservations of a venue on a date, newest first,
// with their seats.
func (r *ReservationRepo) ListByVenue(ctx context.Context, venueID, date string) ([]model.Reservation, error) {
	const q = `SELECT r.id, r.venue_id, r.created_by, r.date, r.time, r.people, r.created_at, rs.seat_id
	           FROM reservations r
	           LEFT JOIN reservation_seats rs ON rs.reservation_id = r.id
	           WHERE r.venue_id = ? AND r.date = ?
	           ORDER BY r.created_at DESC, r.id, rs.seat_id`
	rows, err := r.db.QueryContext(ctx, q, venueID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		var (
			res    model.Reservation
			seatID sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.VenueID, &res.CreatedBy, &res.Date, &res.Time, &res.People, &res.CreatedAt, &seatID); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].ID == res.ID {
			if seatID.Valid {
				out[n-1].SeatIDs = append(out[n-1].SeatIDs, seatID.String)
			}
			continue
		}
		res.SeatIDs = []string{}
		if seatID.Valid {
			res.SeatIDs = append(res.SeatIDs, seatID.String)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
