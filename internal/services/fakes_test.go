package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"apparel-backoffice/internal/cache"
	"apparel-backoffice/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type counterEntry struct {
	value     int64
	expiresAt time.Time
}

// memoryCounters is a CounterStore with expiry driven by a fake clock.
type memoryCounters struct {
	clock    *fakeClock
	entries  map[string]counterEntry
	err      error
	writeErr error
}

func newMemoryCounters(clock *fakeClock) *memoryCounters {
	return &memoryCounters{clock: clock, entries: make(map[string]counterEntry)}
}

func (m *memoryCounters) live(key string) (counterEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return counterEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return counterEntry{}, false
	}
	return e, true
}

func (m *memoryCounters) GetCounter(_ context.Context, key string) (int64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	e, ok := m.live(key)
	return e.value, ok, nil
}

func (m *memoryCounters) PutCounter(_ context.Context, key string, value int64, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	if ttl == cache.KeepTTL {
		e, ok := m.live(key)
		if !ok {
			return nil
		}
		e.value = value
		m.entries[key] = e
		return nil
	}
	e := counterEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.clock.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memoryCounters) DeleteCounter(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.entries, key)
	return nil
}

// memoryLedger is an in-memory LedgerGateway that records writes.
type memoryLedger struct {
	mu          sync.Mutex
	rows        []models.Quote
	statusCalls int
	err         error
}

func (l *memoryLedger) Append(_ context.Context, quote models.Quote) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.rows = append(l.rows, quote)
	return nil
}

func (l *memoryLedger) FindByID(_ context.Context, id string) (*models.Quote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	for i := range l.rows {
		if l.rows[i].ID == id {
			q := l.rows[i]
			return &q, nil
		}
	}
	return nil, nil
}

func (l *memoryLedger) SetStatus(_ context.Context, id string, status models.QuoteStatus) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	for i := range l.rows {
		if l.rows[i].ID == id {
			l.rows[i].Status = status
			l.statusCalls++
			return true, nil
		}
	}
	return false, nil
}

func (l *memoryLedger) ListAll(_ context.Context) ([]models.Quote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	return append([]models.Quote(nil), l.rows...), nil
}

type recordingPublisher struct {
	events []models.QuoteEvent
}

func (p *recordingPublisher) PublishQuoteEvent(_ context.Context, event models.QuoteEvent) error {
	p.events = append(p.events, event)
	return nil
}

type memoryCredentials struct {
	cred *models.Credential
	err  error
}

func (m *memoryCredentials) Get(context.Context) (*models.Credential, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *memoryCredentials) Put(_ context.Context, cred models.Credential) error {
	if m.err != nil {
		return m.err
	}
	m.cred = &cred
	return nil
}

var errBackendDown = errors.New("backend down")
