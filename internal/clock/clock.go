// Package clock supplies record timestamps.
package clock

import (
	"sync"
	"time"

	"github.com/0xRadioAc7iv/caskdb/internal/record"
)

// Clock returns the timestamp to stamp on the next record.
type Clock interface {
	Now() record.Timestamp
}

// System reads the wall clock.
type System struct{}

func (System) Now() record.Timestamp {
	return record.TimestampFromTime(time.Now())
}

// Manual is a Clock for tests. Each call to Now returns the current value and
// then advances it by Step.
type Manual struct {
	mu   sync.Mutex
	now  uint64
	Step uint64
}

// NewManual returns a Manual clock starting at start nanoseconds.
func NewManual(start, step uint64) *Manual {
	return &Manual{now: start, Step: step}
}

func (m *Manual) Now() record.Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := record.NewTimestamp(m.now)
	m.now += m.Step
	return ts
}

// Set moves the clock to ns.
func (m *Manual) Set(ns uint64) {
	m.mu.Lock()
	m.now = ns
	m.mu.Unlock()
}
