package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/model"
)

// ErrQueueFull is recorded when a write cannot be queued.
var ErrQueueFull = errors.New("sync queue full")

// ErrSyncerClosed is recorded for writes enqueued after Close.
var ErrSyncerClosed = errors.New("syncer closed")

// OpKind is the kind of a queued layout write.
type OpKind int

const (
	OpUpsertSeat OpKind = iota
	OpDeleteSeat
	OpUpsertText
	OpDeleteText
	OpSetSeatType
)

func (k OpKind) String() string {
	switch k {
	case OpUpsertSeat:
		return "upsert_seat"
	case OpDeleteSeat:
		return "delete_seat"
	case OpUpsertText:
		return "upsert_text"
	case OpDeleteText:
		return "delete_text"
	case OpSetSeatType:
		return "set_seat_type"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one layout write.  Only the fields relevant to Kind are read.
type Op struct {
	Kind     OpKind
	OwnerID  string
	Seat     model.Seat
	Label    model.TextLabel
	ID       string
	SeatType model.SeatType
}

// UpsertSeatOp, DeleteSeatOp, UpsertTextOp, DeleteTextOp and SetSeatTypeOp
// build the corresponding Op values.
func UpsertSeatOp(owner string, s model.Seat) Op {
	return Op{Kind: OpUpsertSeat, OwnerID: owner, Seat: s}
}

func DeleteSeatOp(owner, id string) Op {
	return Op{Kind: OpDeleteSeat, OwnerID: owner, ID: id}
}

func UpsertTextOp(owner string, l model.TextLabel) Op {
	return Op{Kind: OpUpsertText, OwnerID: owner, Label: l}
}

func DeleteTextOp(owner, id string) Op {
	return Op{Kind: OpDeleteText, OwnerID: owner, ID: id}
}

func SetSeatTypeOp(owner string, t model.SeatType) Op {
	return Op{Kind: OpSetSeatType, OwnerID: owner, SeatType: t}
}

// SyncStatus summarises the writes of one owner.
type SyncStatus struct {
	Pending     int        `json:"pending"`
	Failed      int        `json:"failed"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
}

// SyncFailed reports whether any write was given up on.
func (s SyncStatus) SyncFailed() bool { return s.Failed > 0 }

// SyncOptions configure a Syncer.
type SyncOptions struct {
	QueueSize       int
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	OpTimeout       time.Duration
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.MaxTries == 0 {
		o.MaxTries = 5
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 200 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 5 * time.Second
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 5 * time.Second
	}
	return o
}

// Syncer applies layout writes in the background.  A single worker drains
// the queue so writes of one owner reach the gateway in the order they were
// enqueued.  Each write is retried with exponential backoff; writes that keep
// failing are counted in the owner's SyncStatus.
type Syncer struct {
	gw   LayoutGateway
	opts SyncOptions
	log  *zap.Logger

	jobs chan Op
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
	status map[string]*SyncStatus
}

// NewSyncer returns a Syncer writing to gw.  Call Start to run the worker.
func NewSyncer(gw LayoutGateway, opts SyncOptions, log *zap.Logger) *Syncer {
	if gw == nil {
		panic("nil layout gateway")
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Syncer{
		gw:     gw,
		opts:   opts,
		log:    log,
		jobs:   make(chan Op, opts.QueueSize),
		status: make(map[string]*SyncStatus),
	}
}

// Start runs the worker until Close is called.  ctx bounds the retries: once
// it is cancelled pending writes fail fast.
func (s *Syncer) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for op := range s.jobs {
			s.run(ctx, op)
		}
	}()
}

// Enqueue queues op without waiting for it to be applied.
func (s *Syncer) Enqueue(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.statusLocked(op.OwnerID)
	if s.closed {
		s.failLocked(st, op, ErrSyncerClosed)
		return
	}
	select {
	case s.jobs <- op:
		st.Pending++
	default:
		s.failLocked(st, op, ErrQueueFull)
	}
}

// Status returns a copy of the owner's sync status.
func (s *Syncer) Status(ownerID string) SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.status[ownerID]; ok {
		return *st
	}
	return SyncStatus{}
}

// Close stops accepting writes and waits until the queue is drained.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Syncer) run(ctx context.Context, op Op) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval
	b.MaxInterval = s.opts.MaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
		defer cancel()
		err := s.apply(opCtx, op)
		if errors.Is(err, model.ErrValidation) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.opts.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Warn("sync: retrying write",
				zap.String("op", op.Kind.String()),
				zap.String("owner_id", op.OwnerID),
				zap.Duration("next", next),
				zap.Error(err))
		}),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statusLocked(op.OwnerID)
	st.Pending--
	if err != nil {
		s.failLocked(st, op, err)
	}
}

func (s *Syncer) apply(ctx context.Context, op Op) error {
	switch op.Kind {
	case OpUpsertSeat:
		return s.gw.UpsertSeatPosition(ctx, op.OwnerID, op.Seat)
	case OpDeleteSeat:
		return s.gw.DeleteSeat(ctx, op.OwnerID, op.ID)
	case OpUpsertText:
		return s.gw.UpsertTextLabel(ctx, op.OwnerID, op.Label)
	case OpDeleteText:
		return s.gw.DeleteTextLabel(ctx, op.OwnerID, op.ID)
	case OpSetSeatType:
		return s.gw.SetSeatType(ctx, op.OwnerID, op.SeatType)
	}
	return fmt.Errorf("%w: unknown sync op %d", model.ErrInvalidField, int(op.Kind))
}

func (s *Syncer) statusLocked(owner string) *SyncStatus {
	st, ok := s.status[owner]
	if !ok {
		st = &SyncStatus{}
		s.status[owner] = st
	}
	return st
}

func (s *Syncer) failLocked(st *SyncStatus, op Op, err error) {
	now := time.Now().UTC()
	st.Failed++
	st.LastError = err.Error()
	st.LastErrorAt = &now
	s.log.Error("sync: write failed",
		zap.String("op", op.Kind.String()),
		zap.String("owner_id", op.OwnerID),
		zap.Error(err))
}
