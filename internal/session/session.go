// Package session runs gameplay operations for signed-in players. Every
// operation is a fresh load-mutate-save cycle against the document store:
// no cached record is trusted across operations, mutations are computed on a
// clone, and a failed save discards the mutation entirely. Operations for
// one player are serialized; sessions of different players are independent.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"hearth/internal/audit"
	"hearth/internal/backup"
	"hearth/internal/catalog"
	"hearth/internal/goals"
	"hearth/internal/home"
	"hearth/internal/metrics"
	"hearth/internal/player"
	"hearth/internal/protocol"
	"hearth/internal/shop"
	"hearth/internal/sleeplog"
	"hearth/internal/store"
)

type Manager struct {
	store   store.Store
	cat     *catalog.Catalog
	home    *home.Engine
	shop    *shop.Coordinator
	logger  *log.Logger
	auditor *audit.Logger
	metrics *metrics.Set
	mirror  *backup.Mirror

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Manager)

func WithAudit(l *audit.Logger) Option {
	return func(m *Manager) { m.auditor = l }
}

func WithMetrics(s *metrics.Set) Option {
	return func(m *Manager) { m.metrics = s }
}

func WithMirror(b *backup.Mirror) Option {
	return func(m *Manager) { m.mirror = b }
}

func NewManager(st store.Store, cat *catalog.Catalog, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    st,
		cat:      cat,
		home:     home.NewEngine(cat),
		shop:     shop.NewCoordinator(cat),
		logger:   logger,
		sessions: map[string]*Session{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Catalog() *catalog.Catalog { return m.cat }

// Open returns the session for playerID, creating the player's document with
// starting balance on first sign-in. Name and email are recorded only at
// creation; later sign-ins keep whatever the document says.
func (m *Manager) Open(ctx context.Context, playerID, name, email string) (*Session, *player.Record, error) {
	rec, err := m.store.Load(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		rec = player.New(name, email)
		if err := m.store.Save(ctx, playerID, rec); err != nil {
			m.metrics.StoreFailure()
			return nil, nil, err
		}
	} else if err != nil {
		m.metrics.StoreFailure()
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[playerID]
	if !ok {
		s = &Session{m: m, playerID: playerID}
		m.sessions[playerID] = s
	}
	return s, rec, nil
}

type Session struct {
	m        *Manager
	playerID string

	// Serializes operations within one player session.
	mu sync.Mutex
}

func (s *Session) PlayerID() string { return s.playerID }

// Result pairs the outcome code with the record the presentation layer
// should render from. On errors the record is the untouched stored state.
type Result struct {
	Code   string
	Record *player.Record
}

func (s *Session) Buy(ctx context.Context, itemID string) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpBuy, ItemID: itemID}, func(rec *player.Record) string {
		return s.m.shop.Buy(rec, itemID)
	})
}

func (s *Session) Place(ctx context.Context, itemID string) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpPlace, ItemID: itemID}, func(rec *player.Record) string {
		return s.m.home.Place(rec, itemID)
	})
}

func (s *Session) ResolveSwap(ctx context.Context, cat catalog.Category, itemID string, accept bool) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpResolveSwap, ItemID: itemID}, func(rec *player.Record) string {
		return s.m.home.ResolveSwap(rec, cat, itemID, accept)
	})
}

func (s *Session) Return(ctx context.Context, itemID string, cat catalog.Category) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpReturn, ItemID: itemID}, func(rec *player.Record) string {
		return s.m.home.Return(rec, itemID, cat)
	})
}

func (s *Session) SetPosition(ctx context.Context, itemID string, x, y float64) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpSetPosition, ItemID: itemID}, func(rec *player.Record) string {
		return s.m.home.SetPosition(rec, itemID, x, y)
	})
}

func (s *Session) SetLayer(ctx context.Context, itemID string, order int) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpSetLayer, ItemID: itemID}, func(rec *player.Record) string {
		return s.m.home.SetLayer(rec, itemID, order)
	})
}

func (s *Session) CompleteGoal(ctx context.Context, goalID string, reward int) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpCompleteGoal, GoalID: goalID}, func(rec *player.Record) string {
		return goals.Complete(rec, goalID, reward)
	})
}

func (s *Session) LogSleep(ctx context.Context, date string, hours float64, today string) Result {
	return s.apply(ctx, audit.Entry{Op: protocol.OpLogSleep, Date: date}, func(rec *player.Record) string {
		return sleeplog.Log(rec, date, hours, today)
	})
}

// Snapshot reloads and returns the stored record without mutating it.
func (s *Session) Snapshot(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.m.store.Load(ctx, s.playerID)
	if err != nil {
		s.m.metrics.StoreFailure()
		return Result{Code: protocol.ErrStoreUnavailable}
	}
	return Result{Code: protocol.OKNoop, Record: rec}
}

// persistedCodes are the outcomes whose mutation must be written back.
// Everything else either failed or deliberately left the record unchanged.
var persistedCodes = map[string]struct{}{
	protocol.OKPurchased: {},
	protocol.OKPlaced:    {},
	protocol.OKUpdated:   {},
}

func (s *Session) apply(ctx context.Context, e audit.Entry, fn func(*player.Record) string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.m.store.Load(ctx, s.playerID)
	if err != nil {
		s.m.metrics.StoreFailure()
		s.m.observe(e.Op, protocol.ErrStoreUnavailable)
		return Result{Code: protocol.ErrStoreUnavailable}
	}
	if err := cur.Validate(s.m.cat); err != nil {
		s.m.logger.Printf("player %s: stored document invalid: %v", s.playerID, err)
		s.m.observe(e.Op, protocol.ErrRecordInvalid)
		return Result{Code: protocol.ErrRecordInvalid}
	}

	next := cur.Clone()
	code := fn(next)

	if _, persist := persistedCodes[code]; !persist {
		s.m.observe(e.Op, code)
		return Result{Code: code, Record: cur}
	}

	if err := next.Validate(s.m.cat); err != nil {
		// The engines uphold the invariants; reaching this is a bug.
		s.m.logger.Printf("player %s: %s produced invalid record: %v", s.playerID, e.Op, err)
		s.m.observe(e.Op, protocol.ErrRecordInvalid)
		return Result{Code: protocol.ErrRecordInvalid, Record: cur}
	}

	if err := s.m.store.Save(ctx, s.playerID, next); err != nil {
		s.m.metrics.StoreFailure()
		s.m.observe(e.Op, protocol.ErrStoreUnavailable)
		return Result{Code: protocol.ErrStoreUnavailable, Record: cur}
	}

	s.m.observe(e.Op, code)
	s.m.audit(e, s.playerID, code, next)
	s.m.mirrorDoc(s.playerID, next)
	return Result{Code: code, Record: next}
}

func (m *Manager) observe(op, code string) {
	m.metrics.Observe(op, code)
}

func (m *Manager) audit(e audit.Entry, playerID, code string, rec *player.Record) {
	if m.auditor == nil {
		return
	}
	e.Time = time.Now().UTC().Format(time.RFC3339)
	e.PlayerID = playerID
	e.Code = code
	e.Balance = rec.Balance
	if err := m.auditor.Write(e); err != nil {
		m.logger.Printf("audit write: %v", err)
	}
}

func (m *Manager) mirrorDoc(playerID string, rec *player.Record) {
	if m.mirror == nil {
		return
	}
	b, err := player.Encode(rec)
	if err != nil {
		return
	}
	m.mirror.Enqueue(playerID, b)
}
