package editor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/model"
)

// Manager keeps one Editor per owner.  An owner's layout is fetched through
// the gateway the first time the owner is seen.
type Manager struct {
	gw   gateway.LayoutGateway
	w    Writer
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	editors map[string]*Editor
}

// NewManager builds a Manager.
func NewManager(gw gateway.LayoutGateway, w Writer, opts Options, log *zap.Logger) *Manager {
	if gw == nil || w == nil {
		panic("nil dependency")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{gw: gw, w: w, opts: opts, log: log, editors: make(map[string]*Editor)}
}

// Get returns the owner's editor, loading it on first use.  The fetch runs
// without holding the manager lock; when two requests race, the first
// editor stored wins.
func (m *Manager) Get(ctx context.Context, owner string) (*Editor, error) {
	if owner == "" {
		return nil, model.ErrUnauthenticated
	}
	m.mu.Lock()
	e, ok := m.editors[owner]
	m.mu.Unlock()
	if ok {
		return e, nil
	}

	l, err := m.gw.FetchLayout(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	e, err = New(owner, m.opts, m.w, m.log)
	if err != nil {
		return nil, err
	}
	e.Load(l)

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.editors[owner]; ok {
		return prev, nil
	}
	m.editors[owner] = e
	m.log.Debug("editor loaded",
		zap.String("owner_id", owner),
		zap.Int("seats", len(l.Seats)),
		zap.Int("text_labels", len(l.TextLabels)))
	return e, nil
}

// Len returns the number of loaded editors.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.editors)
}
