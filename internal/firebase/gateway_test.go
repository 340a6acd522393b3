package firebase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/model"
)

// memDB is a JSON tree standing in for the Realtime Database.
type memDB struct {
	mu   sync.Mutex
	root map[string]interface{}
}

func newMemDB() *memDB { return &memDB{root: map[string]interface{}{}} }

func (m *memDB) Node(path string) Node { return &memNode{db: m, segs: strings.Split(path, "/")} }

type memNode struct {
	db   *memDB
	segs []string
}

func (n *memNode) lookup() interface{} {
	var cur interface{} = n.db.root
	for _, s := range n.segs {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[s]
	}
	return cur
}

func (n *memNode) put(v interface{}) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(bs, &generic); err != nil {
		return err
	}
	cur := n.db.root
	for _, s := range n.segs[:len(n.segs)-1] {
		next, ok := cur[s].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[s] = next
		}
		cur = next
	}
	last := n.segs[len(n.segs)-1]
	if generic == nil {
		delete(cur, last)
	} else {
		cur[last] = generic
	}
	return nil
}

func (n *memNode) decode(v interface{}) error {
	bs, err := json.Marshal(n.lookup())
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, v)
}

func (n *memNode) Get(_ context.Context, v interface{}) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	return n.decode(v)
}

func (n *memNode) Set(_ context.Context, v interface{}) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	return n.put(v)
}

func (n *memNode) Delete(_ context.Context) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	return n.put(nil)
}

func (n *memNode) Transaction(_ context.Context, fn func(decode func(v interface{}) error) (interface{}, error)) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	v, err := fn(n.decode)
	if err != nil {
		return err
	}
	return n.put(v)
}

func TestGateway_LayoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := newMemDB()
	g := NewGateway(mem)

	l, err := g.FetchLayout(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, l.Seats)
	assert.Equal(t, model.DefaultSeatType, l.SeatType)

	require.NoError(t, g.UpsertSeatPosition(ctx, "owner-1", model.Seat{ID: "seat-b", X: 4, Y: 1}))
	require.NoError(t, g.UpsertSeatPosition(ctx, "owner-1", model.Seat{ID: "seat-a", X: 2, Y: 1}))
	require.NoError(t, g.UpsertSeatPosition(ctx, "owner-1", model.Seat{ID: "seat-c", X: 0, Y: 0}))
	require.NoError(t, g.UpsertSeatPosition(ctx, "owner-1", model.Seat{ID: "seat-c", X: 9, Y: 3}))
	require.NoError(t, g.DeleteSeat(ctx, "owner-1", "seat-b"))
	w := 4
	require.NoError(t, g.UpsertTextLabel(ctx, "owner-1", model.TextLabel{ID: "text-a", X: 1, Y: 0, Value: "Stage", Width: &w}))
	require.NoError(t, g.UpsertTextLabel(ctx, "owner-1", model.TextLabel{ID: "text-b", Value: "Bar"}))
	require.NoError(t, g.DeleteTextLabel(ctx, "owner-1", "text-b"))
	require.NoError(t, g.SetSeatType(ctx, "owner-1", model.SeatVIP))

	// stored in the same node shape
	assert.Equal(t, map[string]interface{}{"id": "seat-a", "x": float64(2), "y": float64(1)},
		mem.Node("owner-1/seats/seat-a").(*memNode).lookup())
	assert.Equal(t, "VIP", mem.Node("owner-1/seatType").(*memNode).lookup())

	l, err = g.FetchLayout(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []model.Seat{
		{ID: "seat-a", X: 2, Y: 1, Type: model.SeatVIP},
		{ID: "seat-c", X: 9, Y: 3, Type: model.SeatVIP},
	}, l.Seats)
	require.Len(t, l.TextLabels, 1)
	assert.Equal(t, "Stage", l.TextLabels[0].Value)
	assert.Equal(t, 4, *l.TextLabels[0].Width)
	assert.Equal(t, model.SeatVIP, l.SeatType)

	other, err := g.FetchLayout(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, other.Seats)
}

func TestGateway_Reservations(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(newMemDB())
	created := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	r1 := model.Reservation{ID: "r1", VenueID: "v1", CreatedBy: "u1", Date: "10-05-2030", Time: "18:00",
		People: 2, SeatIDs: []string{"seat-b", "seat-a"}, CreatedAt: created}
	require.NoError(t, g.CreateReservation(ctx, r1))

	ids, err := g.FetchReservedSeatIDs(ctx, "v1", "10-05-2030", "18:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"seat-a", "seat-b"}, ids)

	ids, err = g.FetchReservedSeatIDs(ctx, "v1", "10-05-2030", "20:00")
	require.NoError(t, err)
	assert.Empty(t, ids)

	dup := r1
	dup.ID = "r2"
	dup.SeatIDs = []string{"seat-c", "seat-a"}
	assert.ErrorIs(t, g.CreateReservation(ctx, dup), model.ErrSeatsTaken)

	later := model.Reservation{ID: "r3", VenueID: "v1", CreatedBy: "u2", Date: "10-05-2030", Time: "20:00",
		People: 1, SeatIDs: []string{"seat-a"}, CreatedAt: created.Add(time.Hour)}
	require.NoError(t, g.CreateReservation(ctx, later))

	list, err := g.ListReservations(ctx, "v1", "10-05-2030")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r3", list[0].ID)
	assert.Equal(t, "20:00", list[0].Time)
	assert.Equal(t, "r1", list[1].ID)
	assert.Equal(t, created, list[1].CreatedAt)
	assert.Equal(t, []string{"seat-b", "seat-a"}, list[1].SeatIDs)
}
