/*
MIT License

Copyright (c) 2026 cogu

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package connmgr is the server-side connection manager: it tracks active
// and inactive connections, allocates connection ids, and reaps closed
// connections once their queues have drained, per spec §4.9.
package connmgr

import (
	"sync"
	"time"

	"github.com/cogu/goapx/internal/conn"
	"github.com/cogu/goapx/pkg/apxctx"
)

// DefaultReapInterval is how often the background cleanup worker wakes,
// per spec §4.9 ("~500 ms").
const DefaultReapInterval = 500 * time.Millisecond

// QueueState reports whether a connection's worker/event queues have
// drained, so the reaper knows it is safe to free. Supplied by the
// caller; this package has no notion of the queues themselves.
type QueueState func(id uint32) (drained bool)

// Manager owns the active/inactive connection lists and the connection id
// allocator. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	nextID   uint32
	inUse    map[uint32]bool
	active   map[uint32]*conn.Connection
	inactive map[uint32]*conn.Connection

	queueDrained QueueState

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds an empty Manager. queueDrained may be nil, in which case
// every inactive connection is considered immediately reapable.
func New(queueDrained QueueState) *Manager {
	return &Manager{
		nextID:       1,
		inUse:        map[uint32]bool{},
		active:       map[uint32]*conn.Connection{},
		inactive:     map[uint32]*conn.Connection{},
		queueDrained: queueDrained,
		stop:         make(chan struct{}),
	}
}

// AllocateID scans from the last-assigned id, skipping ids already in use
// and conn.InvalidConnectionID, per spec §4.9.
func (m *Manager) AllocateID() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		id := m.nextID
		m.nextID++
		if m.nextID == 0 {
			m.nextID = 1
		}
		if id == conn.InvalidConnectionID || m.inUse[id] {
			continue
		}
		m.inUse[id] = true
		return id
	}
}

// Register adds cn to the active list and arranges for it to move to the
// inactive list once it disconnects.
func (m *Manager) Register(cn *conn.Connection) {
	m.mu.Lock()
	m.active[cn.ID] = cn
	m.mu.Unlock()

	cn.OnDisconnect(func() { m.deactivate(cn.ID) })
}

func (m *Manager) deactivate(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.active[id]; ok {
		delete(m.active, id)
		m.inactive[id] = c
	}
}

// Active returns a snapshot of currently active connections.
func (m *Manager) Active() []*conn.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*conn.Connection, 0, len(m.active))
	for _, c := range m.active {
		out = append(out, c)
	}
	return out
}

// Inactive returns a snapshot of connections awaiting cleanup.
func (m *Manager) Inactive() []*conn.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*conn.Connection, 0, len(m.inactive))
	for _, c := range m.inactive {
		out = append(out, c)
	}
	return out
}

// ReapOnce sweeps the inactive list once, freeing every connection whose
// queues report drained and releasing its id for reuse (spec §4.11 "Node
// instance id reuse": an id is only reclaimed after queue drain is
// confirmed, mirroring this reap loop).
func (m *Manager) ReapOnce() {
	m.mu.Lock()
	candidates := make([]*conn.Connection, 0, len(m.inactive))
	for _, c := range m.inactive {
		candidates = append(candidates, c)
	}
	m.mu.Unlock()

	for _, c := range candidates {
		if m.queueDrained != nil && !m.queueDrained(c.ID) {
			continue
		}
		m.mu.Lock()
		delete(m.inactive, c.ID)
		delete(m.inUse, c.ID)
		m.mu.Unlock()
	}
}

// Run starts the background reaper goroutine, waking every interval
// (<= 0 defaults to DefaultReapInterval) until Stop is called.
func (m *Manager) Run(ctx *apxctx.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	go func() {
		for {
			select {
			case <-m.stop:
				return
			case <-ctx.Clock.After(interval):
				m.ReapOnce()
			}
		}
	}()
}

// Stop halts the background reaper. Idempotent.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Len reports the total number of tracked connections, active or
// inactive.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active) + len(m.inactive)
}
