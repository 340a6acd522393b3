package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/model"
)

func TestNewReservationCreated(t *testing.T) {
	r := model.Reservation{
		ID: "r1", VenueID: "v1", CreatedBy: "u1", Date: "20-10-2026", Time: "19:30",
		People: 2, SeatIDs: []string{"a", "b"},
		CreatedAt: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}
	ev := NewReservationCreated(r)
	assert.Equal(t, "r1", ev.ReservationID)
	assert.Equal(t, []string{"a", "b"}, ev.Seats)
	assert.Equal(t, "2026-10-17T12:00:00Z", ev.CreatedAt)
}

func TestConsumer_Handle(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("", dir, nil)

	body, err := json.Marshal(ReservationCreatedEvent{
		ReservationID: "r1", VenueID: "v1", CreatedBy: "u1", Date: "20-10-2026", Time: "19:30",
		People: 2, Seats: []string{"a", "b"}, CreatedAt: "2026-10-17T12:00:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(filepath.Join(dir, "reservations.log"))
	require.NoError(t, err)
	line := "[2026-10-17T12:00:00Z] Reservation created | reservation_id=r1 | venue_id=v1 | created_by=u1 | date=20-10-2026 | time=19:30 | people=2 | seats=[a,b]\n"
	assert.Equal(t, line+line, string(data))

	assert.Error(t, c.Handle([]byte("{")))
	assert.Error(t, c.Handle([]byte(`{"venue_id":"v1"}`)))
}
