// Package reservation implements the booking flow of a customer: choosing a
// date, time and party size, checking which seats are taken, selecting seats
// and submitting the reservation.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/model"
)

// State of a booking session.
type State string

const (
	Browsing    State = "BROWSING"
	Checking    State = "CHECKING"
	Available   State = "AVAILABLE"
	AllReserved State = "ALL_RESERVED"
	Reserving   State = "RESERVING"
	Reserved    State = "RESERVED"
)

// Notice names accepted by Dismiss.
const (
	NoticeTooManySelected = "too_many_selected"
	NoticeEmptyFields     = "empty_fields"
	NoticeAllReserved     = "all_reserved"
	NoticeSyncFailed      = "sync_failed"
	NoticeUnauthenticated = "unauthenticated"
)

// Notices are the dismissible flags shown to the customer.
type Notices struct {
	TooManySelected bool `json:"too_many_selected"`
	EmptyFields     bool `json:"empty_fields"`
	AllReserved     bool `json:"all_reserved"`
	SyncFailed      bool `json:"sync_failed"`
	Unauthenticated bool `json:"unauthenticated"`
}

// Publisher announces stored reservations.  Failures are logged only.
type Publisher interface {
	PublishReservationCreated(ctx context.Context, r model.Reservation) error
}

// PeopleRange bounds the party size.
type PeopleRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID       string           `json:"id"`
	VenueID  string           `json:"venue_id"`
	State    State            `json:"state"`
	Fields   model.FieldState `json:"fields"`
	People   PeopleRange      `json:"people_range"`
	SeatIDs  []string         `json:"seat_ids"`
	Selected []string         `json:"selected"`
	Reserved []string         `json:"reserved"`
	Notices  Notices          `json:"notices"`
}

const publishTimeout = 3 * time.Second

// Session is the selection and reservation state machine of one customer.
// It is safe for concurrent use.  Gateway calls run without the lock held;
// a generation counter, bumped whenever the date or time changes, rejects
// answers to outdated questions.
type Session struct {
	mu sync.Mutex

	id       string
	venueID  string
	seatIDs  []string
	known    map[string]struct{}
	fields   model.FieldState
	selected []string
	reserved map[string]struct{}
	notices  Notices
	state    State
	gen      uint64
	lastSeen time.Time

	gw     gateway.ReservationGateway
	pub    Publisher
	people PeopleRange
	now    func() time.Time
	log    *zap.Logger
}

// Options configure a Session.  Now defaults to time.Now.
type Options struct {
	People PeopleRange
	Now    func() time.Time
	Log    *zap.Logger
}

// NewSession starts a session on venueID whose layout holds seatIDs.  pub
// may be nil.
func NewSession(venueID string, seatIDs []string, gw gateway.ReservationGateway, pub Publisher, opts Options) *Session {
	if gw == nil {
		panic("nil reservation gateway")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	id := uuid.NewString()
	known := make(map[string]struct{}, len(seatIDs))
	ids := make([]string, 0, len(seatIDs))
	for _, sid := range seatIDs {
		if _, dup := known[sid]; dup {
			continue
		}
		known[sid] = struct{}{}
		ids = append(ids, sid)
	}
	return &Session{
		id:       id,
		venueID:  venueID,
		seatIDs:  ids,
		known:    known,
		fields:   model.FieldState{People: opts.People.Default},
		reserved: make(map[string]struct{}),
		state:    Browsing,
		lastSeen: opts.Now(),
		gw:       gw,
		pub:      pub,
		people:   opts.People,
		now:      opts.Now,
		log:      opts.Log.With(zap.String("session_id", id), zap.String("venue_id", venueID)),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// SetDate sets the DD-MM-YYYY date.  Past dates are rejected.  Any change
// clears the selection and the reserved set.
func (s *Session) SetDate(date string) error {
	if date != "" {
		d, err := time.ParseInLocation(model.DateLayout, date, time.UTC)
		if err != nil {
			return fmt.Errorf("%w: date must be DD-MM-YYYY", model.ErrInvalidField)
		}
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(today) {
			return fmt.Errorf("%w: date is in the past", model.ErrInvalidField)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.fields.Date = date
	s.resetQueryLocked()
	return nil
}

// SetTime sets the HH:MM time.  Any change clears the selection and the
// reserved set.
func (s *Session) SetTime(t string) error {
	if t != "" {
		if _, err := time.Parse(model.TimeLayout, t); err != nil {
			return fmt.Errorf("%w: time must be HH:MM", model.ErrInvalidField)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.fields.Time = t
	s.resetQueryLocked()
	return nil
}

func (s *Session) resetQueryLocked() {
	s.gen++
	s.selected = nil
	s.reserved = make(map[string]struct{})
	s.notices.AllReserved = false
	s.notices.TooManySelected = false
	s.state = Browsing
}

// SetPeople sets the party size directly.  It must lie in the configured
// range and cover the current selection.
func (s *Session) SetPeople(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if n < s.people.Min || n > s.people.Max {
		return fmt.Errorf("%w: people must be between %d and %d", model.ErrInvalidField, s.people.Min, s.people.Max)
	}
	if n < len(s.selected) {
		s.notices.TooManySelected = true
		return model.ErrTooManySelected
	}
	s.fields.People = n
	return nil
}

// IncrementPeople raises the party size, stopping at the maximum.
func (s *Session) IncrementPeople() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.fields.People < s.people.Max {
		s.fields.People++
	}
}

// DecrementPeople lowers the party size, stopping at the minimum.  It fails
// with ErrTooManySelected when fewer people than selected seats would remain.
func (s *Session) DecrementPeople() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.fields.People <= s.people.Min {
		return nil
	}
	if s.fields.People-1 < len(s.selected) {
		s.notices.TooManySelected = true
		return model.ErrTooManySelected
	}
	s.fields.People--
	return nil
}

// SelectSeat adds id to the selection.
func (s *Session) SelectSeat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if _, ok := s.known[id]; !ok {
		return model.ErrUnknownSeat
	}
	if _, ok := s.reserved[id]; ok {
		if s.allReservedLocked() {
			return model.ErrAllReserved
		}
		return model.ErrSeatReserved
	}
	if s.isSelectedLocked(id) {
		return nil
	}
	if len(s.selected) >= s.fields.People {
		s.notices.TooManySelected = true
		return model.ErrTooManySelected
	}
	s.selected = append(s.selected, id)
	s.notices.TooManySelected = false
	return nil
}

// UnselectSeat removes id from the selection.  Unknown ids are ignored.
func (s *Session) UnselectSeat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.removeSelectedLocked(id)
	s.notices.TooManySelected = false
}

// CheckAvailability loads the reserved seats of the chosen slot.  Reserved
// seats are dropped from the selection and the all-reserved notice is set
// when no seat is left.
func (s *Session) CheckAvailability(ctx context.Context) error {
	s.mu.Lock()
	s.touchLocked()
	if !s.fields.Complete() {
		s.notices.EmptyFields = true
		s.mu.Unlock()
		return model.ErrEmptyFields
	}
	s.notices.EmptyFields = false
	s.state = Checking
	gen, venue, date, tm := s.gen, s.venueID, s.fields.Date, s.fields.Time
	s.mu.Unlock()

	ids, err := s.gw.FetchReservedSeatIDs(ctx, venue, date, tm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return model.ErrStaleResponse
	}
	if err != nil {
		s.state = Browsing
		s.notices.SyncFailed = true
		s.log.Error("availability check failed", zap.Error(err))
		return fmt.Errorf("fetch reserved seats: %w", err)
	}

	s.applyReservedLocked(ids)
	return nil
}

// applyReservedLocked replaces the reserved set with ids, drops reserved
// seats from the selection and moves to AVAILABLE or ALL_RESERVED.
func (s *Session) applyReservedLocked(ids []string) {
	s.reserved = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.reserved[id] = struct{}{}
	}
	kept := s.selected[:0]
	for _, id := range s.selected {
		if _, taken := s.reserved[id]; !taken {
			kept = append(kept, id)
		}
	}
	s.selected = kept

	s.notices.AllReserved = s.allReservedLocked()
	if s.notices.AllReserved {
		s.state = AllReserved
	} else {
		s.state = Available
	}
}

// allReservedLocked reports whether every seat of the layout is reserved.
// A layout without seats counts as fully reserved.
func (s *Session) allReservedLocked() bool {
	for _, id := range s.seatIDs {
		if _, ok := s.reserved[id]; !ok {
			return false
		}
	}
	return true
}

// Submit stores a reservation of the selected seats on behalf of actor.
// On success the selection is cleared and its seats become reserved.
func (s *Session) Submit(ctx context.Context, actor string) (model.Reservation, error) {
	s.mu.Lock()
	s.touchLocked()
	if !s.fields.Complete() || len(s.selected) == 0 {
		s.notices.EmptyFields = true
		s.mu.Unlock()
		return model.Reservation{}, model.ErrEmptyFields
	}
	if actor == "" {
		s.notices.Unauthenticated = true
		s.mu.Unlock()
		return model.Reservation{}, model.ErrUnauthenticated
	}
	s.notices.EmptyFields = false
	s.notices.Unauthenticated = false
	prev := s.state
	s.state = Reserving
	gen := s.gen
	res := model.Reservation{
		ID:        uuid.NewString(),
		VenueID:   s.venueID,
		CreatedBy: actor,
		Date:      s.fields.Date,
		Time:      s.fields.Time,
		People:    s.fields.People,
		SeatIDs:   append([]string(nil), s.selected...),
		CreatedAt: s.now().UTC(),
	}
	s.mu.Unlock()

	err := s.gw.CreateReservation(ctx, res)

	if errors.Is(err, model.ErrSeatsTaken) {
		s.refreshAfterConflict(ctx, gen, res)
		return model.Reservation{}, err
	}

	s.mu.Lock()
	if err != nil {
		if s.state == Reserving {
			s.state = prev
		}
		s.notices.SyncFailed = true
		s.log.Error("reservation failed", zap.Error(err))
		s.mu.Unlock()
		return model.Reservation{}, err
	}
	if gen == s.gen {
		for _, id := range res.SeatIDs {
			s.reserved[id] = struct{}{}
			s.removeSelectedLocked(id)
		}
		s.notices.AllReserved = s.allReservedLocked()
		s.state = Reserved
	}
	s.mu.Unlock()

	s.log.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("created_by", actor),
		zap.Strings("seats", res.SeatIDs))
	s.publish(ctx, res)
	return res, nil
}

// refreshAfterConflict reloads the reserved seats of the slot after a submit
// lost a race, so the taken seats leave the selection.  When the reload fails
// the reserved set is unknown and the session returns to BROWSING.
func (s *Session) refreshAfterConflict(ctx context.Context, gen uint64, res model.Reservation) {
	s.log.Info("reservation conflict", zap.Strings("seats", res.SeatIDs))
	ids, err := s.gw.FetchReservedSeatIDs(ctx, res.VenueID, res.Date, res.Time)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if err != nil {
		s.log.Warn("reload reserved seats failed", zap.Error(err))
		s.reserved = make(map[string]struct{})
		s.notices.AllReserved = false
		s.state = Browsing
		return
	}
	s.applyReservedLocked(ids)
}

func (s *Session) publish(ctx context.Context, res model.Reservation) {
	if s.pub == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pub.PublishReservationCreated(pctx, res); err != nil {
		s.log.Warn("publish reservation.created failed",
			zap.String("reservation_id", res.ID), zap.Error(err))
	}
}

// Dismiss clears the named notice.
func (s *Session) Dismiss(notice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	switch notice {
	case NoticeTooManySelected:
		s.notices.TooManySelected = false
	case NoticeEmptyFields:
		s.notices.EmptyFields = false
	case NoticeAllReserved:
		s.notices.AllReserved = false
	case NoticeSyncFailed:
		s.notices.SyncFailed = false
	case NoticeUnauthenticated:
		s.notices.Unauthenticated = false
	default:
		return fmt.Errorf("%w: unknown notice %q", model.ErrInvalidField, notice)
	}
	return nil
}

// Snapshot returns a copy of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	reserved := make([]string, 0, len(s.reserved))
	for id := range s.reserved {
		reserved = append(reserved, id)
	}
	sort.Strings(reserved)
	return Snapshot{
		ID:       s.id,
		VenueID:  s.venueID,
		State:    s.state,
		Fields:   s.fields,
		People:   s.people,
		SeatIDs:  append([]string{}, s.seatIDs...),
		Selected: append([]string{}, s.selected...),
		Reserved: reserved,
		Notices:  s.notices,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touchLocked() { s.lastSeen = s.now() }

func (s *Session) isSelectedLocked(id string) bool {
	for _, v := range s.selected {
		if v == id {
			return true
		}
	}
	return false
}

func (s *Session) removeSelectedLocked(id string) {
	for i, v := range s.selected {
		if v == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
}
