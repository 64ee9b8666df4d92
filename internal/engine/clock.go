package engine

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time so tests can drive the dispatcher
// through exact instants.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the system clock.
func RealClock() Clock { return realClock{} }

// MockClock is a settable clock for tests.
type MockClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewMockClock(t time.Time) *MockClock { return &MockClock{t: t} }

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	m.t = t
	m.mu.Unlock()
}

func (m *MockClock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
	return m.t
}
