package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/model"
)

var (
	fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	people   = PeopleRange{Min: 1, Max: 10, Default: 1}
)

func clock() time.Time { return fixedNow }

type fakePublisher struct {
	mu   sync.Mutex
	got  []model.Reservation
	fail error
}

func (p *fakePublisher) PublishReservationCreated(_ context.Context, r model.Reservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, r)
	return p.fail
}

func newSession(t *testing.T, gw gateway.ReservationGateway, pub Publisher, seats ...string) *Session {
	t.Helper()
	return NewSession("venue-1", seats, gw, pub, Options{People: people, Now: clock})
}

func ready(t *testing.T, s *Session, n int) {
	t.Helper()
	require.NoError(t, s.SetDate("20-10-2026"))
	require.NoError(t, s.SetTime("19:30"))
	require.NoError(t, s.SetPeople(n))
}

func TestSession_SetDateValidation(t *testing.T) {
	s := newSession(t, gateway.NewMemory(), nil, "a")

	assert.ErrorIs(t, s.SetDate("2026-10-20"), model.ErrInvalidField)
	assert.ErrorIs(t, s.SetDate("16-10-2026"), model.ErrInvalidField)
	assert.NoError(t, s.SetDate("17-10-2026"))
	assert.ErrorIs(t, s.SetTime("7pm"), model.ErrInvalidField)
	assert.NoError(t, s.SetTime("07:05"))

	snap := s.Snapshot()
	assert.Equal(t, "17-10-2026", snap.Fields.Date)
	assert.Equal(t, "07:05", snap.Fields.Time)
	assert.Equal(t, 1, snap.Fields.People)
	assert.Equal(t, Browsing, snap.State)
}

func TestSession_PeopleClamp(t *testing.T) {
	s := newSession(t, gateway.NewMemory(), nil, "a", "b")

	require.NoError(t, s.DecrementPeople())
	assert.Equal(t, 1, s.Snapshot().Fields.People)

	for i := 0; i < 20; i++ {
		s.IncrementPeople()
	}
	assert.Equal(t, 10, s.Snapshot().Fields.People)

	assert.ErrorIs(t, s.SetPeople(0), model.ErrInvalidField)
	assert.ErrorIs(t, s.SetPeople(11), model.ErrInvalidField)
}

func TestSession_SelectRespectsPeople(t *testing.T) {
	s := newSession(t, gateway.NewMemory(), nil, "a", "b", "c")
	ready(t, s, 2)

	require.NoError(t, s.SelectSeat("a"))
	require.NoError(t, s.SelectSeat("a"))
	require.NoError(t, s.SelectSeat("b"))

	err := s.SelectSeat("c")
	assert.ErrorIs(t, err, model.ErrTooManySelected)
	assert.ErrorIs(t, err, model.ErrCapacity)
	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b"}, snap.Selected)
	assert.True(t, snap.Notices.TooManySelected)

	assert.ErrorIs(t, s.DecrementPeople(), model.ErrTooManySelected)
	assert.Equal(t, 2, s.Snapshot().Fields.People)

	s.UnselectSeat("b")
	require.NoError(t, s.DecrementPeople())
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.Fields.People)
	assert.Equal(t, []string{"a"}, snap.Selected)
	assert.False(t, snap.Notices.TooManySelected)

	assert.ErrorIs(t, s.SelectSeat("zzz"), model.ErrUnknownSeat)
}

func TestSession_SlotChangeClearsSelection(t *testing.T) {
	s := newSession(t, gateway.NewMemory(), nil, "a", "b")
	ready(t, s, 2)
	require.NoError(t, s.SelectSeat("a"))

	require.NoError(t, s.SetTime("20:00"))
	assert.Empty(t, s.Snapshot().Selected)
}

func TestSession_SlotChangeClearsReserved(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemory()
	require.NoError(t, mem.CreateReservation(ctx, model.Reservation{
		ID: "r1", VenueID: "venue-1", Date: "20-10-2026", Time: "19:30", People: 2, SeatIDs: []string{"a", "b"},
	}))
	s := newSession(t, mem, nil, "a", "b")

	assertCleared := func(t *testing.T) {
		t.Helper()
		snap := s.Snapshot()
		assert.Empty(t, snap.Reserved)
		assert.Empty(t, snap.Selected)
		assert.False(t, snap.Notices.AllReserved)
		assert.Equal(t, Browsing, snap.State)
	}

	ready(t, s, 1)
	require.NoError(t, s.CheckAvailability(ctx))
	require.Equal(t, AllReserved, s.Snapshot().State)
	require.Len(t, s.Snapshot().Reserved, 2)

	require.NoError(t, s.SetDate("21-10-2026"))
	assertCleared(t)

	require.NoError(t, s.SetDate("20-10-2026"))
	require.NoError(t, s.CheckAvailability(ctx))
	require.True(t, s.Snapshot().Notices.AllReserved)

	require.NoError(t, s.SetTime("20:00"))
	assertCleared(t)
}

func TestSession_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemory()
	require.NoError(t, mem.CreateReservation(ctx, model.Reservation{
		ID: "r1", VenueID: "venue-1", Date: "20-10-2026", Time: "19:30", People: 1, SeatIDs: []string{"b"},
	}))

	s := newSession(t, mem, nil, "a", "b")

	err := s.CheckAvailability(ctx)
	assert.ErrorIs(t, err, model.ErrEmptyFields)
	assert.True(t, s.Snapshot().Notices.EmptyFields)

	ready(t, s, 2)
	require.NoError(t, s.SelectSeat("b"))
	require.NoError(t, s.CheckAvailability(ctx))

	snap := s.Snapshot()
	assert.Equal(t, Available, snap.State)
	assert.Equal(t, []string{"b"}, snap.Reserved)
	assert.Empty(t, snap.Selected)
	assert.False(t, snap.Notices.EmptyFields)
	assert.ErrorIs(t, s.SelectSeat("b"), model.ErrSeatReserved)
	assert.NoError(t, s.SelectSeat("a"))
}

func TestSession_AllReserved(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemory()
	require.NoError(t, mem.CreateReservation(ctx, model.Reservation{
		ID: "r1", VenueID: "venue-1", Date: "20-10-2026", Time: "19:30", People: 2, SeatIDs: []string{"a", "b"},
	}))

	s := newSession(t, mem, nil, "a", "b")
	ready(t, s, 1)
	require.NoError(t, s.CheckAvailability(ctx))
	snap := s.Snapshot()
	assert.Equal(t, AllReserved, snap.State)
	assert.True(t, snap.Notices.AllReserved)
	err := s.SelectSeat("a")
	assert.ErrorIs(t, err, model.ErrAllReserved)
	assert.Equal(t, "availability", model.Kind(err))

	require.NoError(t, s.Dismiss(NoticeAllReserved))
	assert.False(t, s.Snapshot().Notices.AllReserved)
	assert.ErrorIs(t, s.Dismiss("bogus"), model.ErrInvalidField)

	empty := newSession(t, mem, nil)
	ready(t, empty, 1)
	require.NoError(t, empty.CheckAvailability(ctx))
	assert.Equal(t, AllReserved, empty.Snapshot().State)
}

type blockingGateway struct {
	*gateway.Memory
	started chan struct{}
	release chan struct{}
}

func (g *blockingGateway) FetchReservedSeatIDs(ctx context.Context, venueID, date, tm string) ([]string, error) {
	close(g.started)
	<-g.release
	return g.Memory.FetchReservedSeatIDs(ctx, venueID, date, tm)
}

func TestSession_StaleAvailabilityDiscarded(t *testing.T) {
	gw := &blockingGateway{Memory: gateway.NewMemory(), started: make(chan struct{}), release: make(chan struct{})}
	s := newSession(t, gw, nil, "a")
	ready(t, s, 1)

	errc := make(chan error, 1)
	go func() { errc <- s.CheckAvailability(context.Background()) }()

	<-gw.started
	require.NoError(t, s.SetTime("21:00"))
	close(gw.release)

	assert.ErrorIs(t, <-errc, model.ErrStaleResponse)
	snap := s.Snapshot()
	assert.Equal(t, Browsing, snap.State)
	assert.Equal(t, "21:00", snap.Fields.Time)
}

type failingGateway struct {
	*gateway.Memory
	err error
}

func (g *failingGateway) FetchReservedSeatIDs(context.Context, string, string, string) ([]string, error) {
	return nil, g.err
}

func (g *failingGateway) CreateReservation(context.Context, model.Reservation) error {
	return g.err
}

func TestSession_GatewayFailureSetsSyncFailed(t *testing.T) {
	gw := &failingGateway{Memory: gateway.NewMemory(), err: errors.New("backend down")}
	s := newSession(t, gw, nil, "a")
	ready(t, s, 1)

	assert.Error(t, s.CheckAvailability(context.Background()))
	assert.True(t, s.Snapshot().Notices.SyncFailed)
	require.NoError(t, s.Dismiss(NoticeSyncFailed))

	require.NoError(t, s.SelectSeat("a"))
	_, err := s.Submit(context.Background(), "user-1")
	assert.Error(t, err)
	snap := s.Snapshot()
	assert.True(t, snap.Notices.SyncFailed)
	assert.Equal(t, []string{"a"}, snap.Selected)
}

func TestSession_Submit(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemory()
	pub := &fakePublisher{}
	s := newSession(t, mem, pub, "a", "b", "c")

	_, err := s.Submit(ctx, "user-1")
	assert.ErrorIs(t, err, model.ErrEmptyFields)

	ready(t, s, 2)
	_, err = s.Submit(ctx, "user-1")
	assert.ErrorIs(t, err, model.ErrEmptyFields)

	require.NoError(t, s.SelectSeat("a"))
	require.NoError(t, s.SelectSeat("c"))
	_, err = s.Submit(ctx, "")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	res, err := s.Submit(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "venue-1", res.VenueID)
	assert.Equal(t, "user-1", res.CreatedBy)
	assert.Equal(t, []string{"a", "c"}, res.SeatIDs)
	assert.Equal(t, 2, res.People)
	assert.Equal(t, fixedNow, res.CreatedAt)

	snap := s.Snapshot()
	assert.Equal(t, Reserved, snap.State)
	assert.Empty(t, snap.Selected)
	assert.Equal(t, []string{"a", "c"}, snap.Reserved)

	require.Len(t, mem.Reservations(), 1)
	require.Len(t, pub.got, 1)
	assert.Equal(t, res.ID, pub.got[0].ID)
}

func TestSession_SubmitConflict(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemory()
	pub := &fakePublisher{fail: errors.New("broker down")}

	first := newSession(t, mem, pub, "a", "b")
	second := newSession(t, mem, pub, "a", "b")
	ready(t, first, 1)
	ready(t, second, 1)
	require.NoError(t, first.SelectSeat("a"))
	require.NoError(t, second.SelectSeat("a"))

	_, err := first.Submit(ctx, "u1")
	require.NoError(t, err)

	_, err = second.Submit(ctx, "u2")
	assert.ErrorIs(t, err, model.ErrSeatsTaken)
	snap := second.Snapshot()
	assert.False(t, snap.Notices.SyncFailed)
	assert.Empty(t, snap.Selected)
	assert.Equal(t, []string{"a"}, snap.Reserved)
	assert.Equal(t, Available, snap.State)
	assert.ErrorIs(t, second.SelectSeat("a"), model.ErrSeatReserved)
	assert.Len(t, mem.Reservations(), 1)
}

type conflictGateway struct {
	*gateway.Memory
}

func (g *conflictGateway) CreateReservation(context.Context, model.Reservation) error {
	return model.ErrSeatsTaken
}

func (g *conflictGateway) FetchReservedSeatIDs(context.Context, string, string, string) ([]string, error) {
	return nil, errors.New("backend down")
}

func TestSession_SubmitConflictReloadFails(t *testing.T) {
	s := newSession(t, &conflictGateway{Memory: gateway.NewMemory()}, nil, "a", "b")
	ready(t, s, 1)
	require.NoError(t, s.SelectSeat("a"))

	_, err := s.Submit(context.Background(), "u1")
	assert.ErrorIs(t, err, model.ErrSeatsTaken)
	snap := s.Snapshot()
	assert.Equal(t, Browsing, snap.State)
	assert.Empty(t, snap.Reserved)
	assert.Equal(t, []string{"a"}, snap.Selected)
}

func TestSession_SubmitWithoutActorSetsNotice(t *testing.T) {
	s := newSession(t, gateway.NewMemory(), nil, "a")
	ready(t, s, 1)
	require.NoError(t, s.SelectSeat("a"))

	_, err := s.Submit(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.Equal(t, "auth", model.Kind(err))
	assert.True(t, s.Snapshot().Notices.Unauthenticated)

	require.NoError(t, s.Dismiss(NoticeUnauthenticated))
	assert.False(t, s.Snapshot().Notices.Unauthenticated)

	_, err = s.Submit(context.Background(), "")
	require.Error(t, err)
	_, err = s.Submit(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, s.Snapshot().Notices.Unauthenticated)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemory()
	require.NoError(t, mem.UpsertSeatPosition(ctx, "venue-1", model.Seat{ID: "s1", X: 0, Y: 0}))
	require.NoError(t, mem.UpsertSeatPosition(ctx, "venue-1", model.Seat{ID: "s2", X: 2, Y: 0}))

	now := fixedNow
	reg := NewRegistry(mem, nil, RegistryOptions{
		People:  people,
		IdleTTL: time.Minute,
		Now:     func() time.Time { return now },
	}, nil)

	_, err := reg.Create(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidField)

	s, err := reg.Create(ctx, "venue-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, s.Snapshot().SeatIDs)

	got, err := reg.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, 0, reg.Sweep())
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 0, reg.Len())
}
