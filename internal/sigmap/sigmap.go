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

// Package sigmap joins provide-ports to require-ports by signature and
// fans out connector-change notifications, per spec §4.4.
package sigmap

import (
	"sync"

	"github.com/cogu/goapx/pkg/apxmetrics"
)

// PortRef identifies one port instance bound into the map: which node
// instance (by name, since nodeinst.Instance itself is opaque to this
// package to avoid an import cycle with the connection layer that owns
// both) and which port on it.
type PortRef struct {
	NodeName string
	PortName string
}

// entry is one signature's bucket: at most one active provider, and the
// ordered list of bound requirers plus any providers held aside because
// one is already active (earliest-bound wins, per spec §4.4).
type entry struct {
	provider     *PortRef
	pendingProvs []PortRef
	requirers    []PortRef
}

// Event is emitted when routing changes a port's connectivity.
type Event struct {
	Port      PortRef
	Gained    bool // true: gained a provider/consumer; false: lost one
	Peer      PortRef
	Signature string
}

// Map is the signature-keyed provide/require router.
type Map struct {
	mu      sync.Mutex
	entries map[string]*entry
	metrics *apxmetrics.Registry
}

// New builds an empty Map. metrics may be nil.
func New(metrics *apxmetrics.Registry) *Map {
	return &Map{entries: make(map[string]*entry), metrics: metrics}
}

// AttachRequirePort binds r under signature sig. If a provider is already
// bound, both sides receive a Gained event.
func (m *Map) AttachRequirePort(sig string, r PortRef) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryFor(sig)
	e.requirers = append(e.requirers, r)

	var events []Event
	if e.provider != nil {
		events = append(events,
			Event{Port: r, Gained: true, Peer: *e.provider, Signature: sig},
			Event{Port: *e.provider, Gained: true, Peer: r, Signature: sig},
		)
	}
	m.setGauge()
	return events
}

// AttachProvidePort binds p under signature sig. If no provider is bound
// yet, p becomes active and every existing requirer is notified; otherwise
// p is held pending until the active provider detaches.
func (m *Map) AttachProvidePort(sig string, p PortRef) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entryFor(sig)
	if e.provider != nil {
		e.pendingProvs = append(e.pendingProvs, p)
		return nil
	}

	e.provider = &p
	events := make([]Event, 0, len(e.requirers))
	for _, r := range e.requirers {
		events = append(events, Event{Port: r, Gained: true, Peer: p, Signature: sig})
	}
	if len(e.requirers) > 0 {
		for _, r := range e.requirers {
			events = append(events, Event{Port: p, Gained: true, Peer: r, Signature: sig})
		}
	}
	m.setGauge()
	return events
}

// DetachRequirePort removes r from sig's requirer list.
func (m *Map) DetachRequirePort(sig string, r PortRef) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sig]
	if !ok {
		return nil
	}
	var events []Event
	e.requirers = removeRef(e.requirers, r)
	if e.provider != nil {
		events = append(events, Event{Port: r, Gained: false, Peer: *e.provider, Signature: sig})
	}
	m.pruneLocked(sig, e)
	m.setGauge()
	return events
}

// DetachProvidePort removes p as sig's active provider, promoting the
// earliest pending provider (if any) and notifying requirers of the swap.
func (m *Map) DetachProvidePort(sig string, p PortRef) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sig]
	if !ok || e.provider == nil || *e.provider != p {
		return nil
	}
	var events []Event
	for _, r := range e.requirers {
		events = append(events, Event{Port: r, Gained: false, Peer: p, Signature: sig})
	}

	if len(e.pendingProvs) > 0 {
		next := e.pendingProvs[0]
		e.pendingProvs = e.pendingProvs[1:]
		e.provider = &next
		for _, r := range e.requirers {
			events = append(events, Event{Port: r, Gained: true, Peer: next, Signature: sig})
		}
	} else {
		e.provider = nil
	}

	m.pruneLocked(sig, e)
	m.setGauge()
	return events
}

func (m *Map) entryFor(sig string) *entry {
	e, ok := m.entries[sig]
	if !ok {
		e = &entry{}
		m.entries[sig] = e
	}
	return e
}

// pruneLocked removes sig's entry once it has no active provider, no
// pending providers and no requirers, per spec §4.4.
func (m *Map) pruneLocked(sig string, e *entry) {
	if e.provider == nil && len(e.requirers) == 0 && len(e.pendingProvs) == 0 {
		delete(m.entries, sig)
	}
}

func (m *Map) setGauge() {
	if m.metrics != nil {
		m.metrics.SetSigMapEntries(len(m.entries))
	}
}

func removeRef(list []PortRef, target PortRef) []PortRef {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// Len reports the number of live signature entries, for tests and metrics.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
