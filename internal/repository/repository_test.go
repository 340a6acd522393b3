package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestLayoutRepo_ListSeats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLayoutRepo(db)

	mock.ExpectQuery(`SELECT id, x, y FROM seats WHERE owner_id = \? ORDER BY pk`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "x", "y"}).
			AddRow("seat-a", 1, 2).
			AddRow("seat-b", 0, 0))

	seats, err := repo.ListSeats(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []model.Seat{{ID: "seat-a", X: 1, Y: 2}, {ID: "seat-b"}}, seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepo_UpsertAndDeleteSeat(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLayoutRepo(db)

	mock.ExpectExec(`INSERT INTO seats \(owner_id, id, x, y\)`).
		WithArgs("owner-1", "seat-a", 3, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM seats WHERE owner_id = \? AND id = \?`).
		WithArgs("owner-1", "seat-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, repo.UpsertSeat(ctx, "owner-1", model.Seat{ID: "seat-a", X: 3, Y: 2}))
	require.NoError(t, repo.DeleteSeat(ctx, "owner-1", "seat-a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepo_Labels(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLayoutRepo(db)

	mock.ExpectQuery(`SELECT id, x, y, value, width, height FROM text_labels`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "x", "y", "value", "width", "height"}).
			AddRow("text-a", 0, 1, "Stage", nil, nil).
			AddRow("text-b", 4, 4, "Bar", int64(6), int64(2)))

	labels, err := repo.ListLabels(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Nil(t, labels[0].Width)
	require.NotNil(t, labels[1].Width)
	assert.Equal(t, 6, *labels[1].Width)
	assert.Equal(t, 2, *labels[1].Height)

	w := 3
	mock.ExpectExec(`INSERT INTO text_labels`).
		WithArgs("owner-1", "text-c", 1, 1, "Exit", int64(3), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.UpsertLabel(context.Background(), "owner-1",
		model.TextLabel{ID: "text-c", X: 1, Y: 1, Value: "Exit", Width: &w}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepo_SeatType(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLayoutRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT seat_type FROM layouts`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_type"}))
	got, err := repo.GetSeatType(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSeatType, got)

	mock.ExpectExec(`INSERT INTO layouts \(owner_id, seat_type\)`).
		WithArgs("owner-1", "VIP").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.SetSeatType(ctx, "owner-1", model.SeatVIP))

	mock.ExpectQuery(`SELECT seat_type FROM layouts`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"seat_type"}).AddRow("VIP"))
	got, err = repo.GetSeatType(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatVIP, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func reservationFixture() model.Reservation {
	return model.Reservation{
		ID:        "res-1",
		VenueID:   "venue-1",
		CreatedBy: "user-1",
		Date:      "24-12-2030",
		Time:      "19:30",
		People:    2,
		SeatIDs:   []string{"seat-a", "seat-b"},
		CreatedAt: time.Date(2030, 12, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestReservationRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)
	res := reservationFixture()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs("res-1", "venue-1", "user-1", "24-12-2030", "19:30", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO reservation_seats .* VALUES \(\?, \?, \?, \?, \?\),\(\?, \?, \?, \?, \?\)`).
		WithArgs("res-1", "venue-1", "24-12-2030", "19:30", "seat-a",
			"res-1", "venue-1", "24-12-2030", "19:30", "seat-b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_CreateConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO reservation_seats`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), reservationFixture())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ReservedSeatIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery(`SELECT seat_id FROM reservation_seats`).
		WithArgs("venue-1", "24-12-2030", "19:30").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow("seat-a").AddRow("seat-c"))

	ids, err := repo.ReservedSeatIDs(context.Background(), "venue-1", "24-12-2030", "19:30")
	require.NoError(t, err)
	assert.Equal(t, []string{"seat-a", "seat-c"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ListByVenueGroupsSeats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepo(db)
	now := time.Now().UTC()

	cols := []string{"id", "venue_id", "created_by", "date", "time", "people", "created_at", "seat_id"}
	mock.ExpectQuery(`FROM reservations r`).
		WithArgs("venue-1", "24-12-2030").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("res-2", "venue-1", "user-2", "24-12-2030", "20:00", 1, now, "seat-z").
			AddRow("res-1", "venue-1", "user-1", "24-12-2030", "19:30", 2, now, "seat-a").
			AddRow("res-1", "venue-1", "user-1", "24-12-2030", "19:30", 2, now, "seat-b"))

	out, err := repo.ListByVenue(context.Background(), "venue-1", "24-12-2030")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []string{"seat-z"}, out[0].SeatIDs)
	assert.Equal(t, []string{"seat-a", "seat-b"}, out[1].SeatIDs)
	assert.Equal(t, 2, out[1].People)
	assert.NoError(t, mock.ExpectationsWereMet())
}
