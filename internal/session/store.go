// Package session keeps the per-browser state of the interactive pyramid
// tool: the loaded baseline, the rate inputs and the live charts.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"pyramid-engine/internal/chart"
	"pyramid-engine/internal/model"
)

var (
	// ErrNotFound is returned for an unknown or expired session id.
	ErrNotFound = errors.New("session not found")

	// ErrNoBaseline is returned when an action needs a loaded preset.
	ErrNoBaseline = errors.New("no preset loaded")
)

// Session is replaced as a whole on every save; the last write wins.
type Session struct {
	ID        string                  `json:"id"`
	Baseline  *model.BaselineSnapshot `json:"baseline,omitempty"`
	Rates     model.Rates             `json:"rates"`
	Growth    model.GrowthRates       `json:"growth"`
	Canvas    chart.Canvas            `json:"canvas"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// sweepInterval bounds how often Save scans for expired sessions.
const sweepInterval = time.Minute

// MemoryStore keeps sessions in process with a sliding TTL. Expired entries
// are dropped on Get and swept from Save at most once per sweepInterval.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.sessions, id)
		return Session{}, ErrNotFound
	}
	return e.session.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	m.sessions[s.ID] = memoryEntry{session: s.clone(), expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) sweep(now time.Time) {
	if m.ttl <= 0 || now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for id, e := range m.sessions {
		if now.After(e.expires) {
			delete(m.sessions, id)
		}
	}
}

// Len reports the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// clone detaches the baseline pointer and canvas map so callers never share
// state with the store.
func (s Session) clone() Session {
	if s.Baseline != nil {
		b := *s.Baseline
		s.Baseline = &b
	}
	if s.Canvas.Bound != nil {
		bound := make(map[string]string, len(s.Canvas.Bound))
		for k, v := range s.Canvas.Bound {
			bound[k] = v
		}
		s.Canvas.Bound = bound
	}
	return s
}
