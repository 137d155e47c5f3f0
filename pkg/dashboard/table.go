// Package dashboard publishes intake telemetry over HTTP and websockets and
// accepts mode requests from a browser or script.
package dashboard

import (
	"maps"
	"sync"
	"time"

	"github.com/gwillem/algae/pkg/intake"
)

var _ intake.Telemetry = (*Table)(nil)

// Table is an in-memory telemetry sink. Writers never block: subscribers are
// signalled through a one-slot channel and read the latest snapshot.
type Table struct {
	mu      sync.RWMutex
	values  map[string]float64
	updated time.Time
	subs    map[chan struct{}]struct{}
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		values: make(map[string]float64),
		subs:   make(map[chan struct{}]struct{}),
	}
}

// PutNumber implements intake.Telemetry.
func (t *Table) PutNumber(key string, value float64) {
	t.mu.Lock()
	t.values[key] = value
	t.updated = time.Now()
	for ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	t.mu.Unlock()
}

// Number returns the last value published under key.
func (t *Table) Number(key string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok
}

// Snapshot copies every key.
func (t *Table) Snapshot() (map[string]float64, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.values), t.updated
}

// Subscribe returns a channel signalled after each publish and a function
// that removes it.
func (t *Table) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	return ch, func() {
		t.mu.Lock()
		delete(t.subs, ch)
		t.mu.Unlock()
	}
}
