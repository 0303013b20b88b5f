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

// Package nodeinst is the runtime image of a parsed apxtext.Node: the
// provide_data/require_data byte buffers and the per-port offset tables
// that pack/unpack programs read and write through, per spec §4.3.
package nodeinst

import (
	"sync"

	"github.com/cogu/goapx/internal/apxtext"
	"github.com/cogu/goapx/internal/serialvm"
	"github.com/cogu/goapx/pkg/apxerr"
	"github.com/cogu/goapx/pkg/dynval"
)

// PortEntry is one port's byte-layout record within a node instance's
// aggregate data buffer.
type PortEntry struct {
	Name      string
	Offset    int
	Size      int
	Program   *serialvm.Program
	Signature string
	Dirty     bool
}

// ConnectorChange records one add/remove event against a port on this node,
// accumulated since the last DrainChanges call (spec §4.3, "connector-change
// table").
type ConnectorChange struct {
	PortName string
	Added    bool
	Peer     string // peer port signature or descriptive label
}

// Instance is the runtime image of one built node.
type Instance struct {
	mu sync.Mutex

	Name string

	provideData []byte
	requireData []byte

	provideByName map[string]int // name -> index into provideEntries
	requireByName map[string]int

	provideEntries []PortEntry
	requireEntries []PortEntry

	changes []ConnectorChange
}

// Build constructs an Instance from a finalized apxtext.Node, concatenating
// each port's init bytes into provide_data/require_data in declaration
// order.
func Build(n *apxtext.Node) (*Instance, apxerr.Error) {
	inst := &Instance{
		Name:          n.Name,
		provideByName: make(map[string]int, len(n.ProvidePorts)),
		requireByName: make(map[string]int, len(n.RequirePorts)),
	}

	var err apxerr.Error
	inst.provideData, inst.provideEntries, err = layout(n.ProvidePorts, inst.provideByName)
	if err != nil {
		return nil, err
	}
	inst.requireData, inst.requireEntries, err = layout(n.RequirePorts, inst.requireByName)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func layout(ports []*apxtext.Port, byName map[string]int) ([]byte, []PortEntry, apxerr.Error) {
	var buf []byte
	entries := make([]PortEntry, 0, len(ports))
	for _, p := range ports {
		entry := PortEntry{Name: p.Name, Offset: len(buf), Size: p.Size, Program: p.Program, Signature: p.Signature}
		var init *dynval.Value
		if p.Init != nil {
			init = p.Init
		} else {
			init = zeroValue(p)
		}
		packed, perr := serialvm.Pack(p.Program, init)
		if perr != nil {
			return nil, nil, perr
		}
		if len(packed) != p.Size {
			return nil, nil, apxerr.Newf(apxerr.KindInternal, "port %q: init packs to %d bytes, want %d", p.Name, len(packed), p.Size)
		}
		buf = append(buf, packed...)
		byName[p.Name] = len(entries)
		entries = append(entries, entry)
	}
	return buf, entries, nil
}

// zeroValue builds the dynamic-value tree for an all-zero instance of a
// port's element, used when no init literal was declared.
func zeroValue(p *apxtext.Port) *dynval.Value {
	return zeroOf(p.Elem)
}

// ReadProvideData copies len bytes of provide_data starting at offset.
func (inst *Instance) ReadProvideData(offset, length int) ([]byte, apxerr.Error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return readSlice(inst.provideData, offset, length)
}

// WriteProvideData overwrites provide_data at offset and marks the owning
// port dirty.
func (inst *Instance) WriteProvideData(offset int, data []byte) apxerr.Error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if err := writeSlice(inst.provideData, offset, data); err != nil {
		return err
	}
	markDirty(inst.provideEntries, offset)
	return nil
}

// ReadRequireData copies len bytes of require_data starting at offset.
func (inst *Instance) ReadRequireData(offset, length int) ([]byte, apxerr.Error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return readSlice(inst.requireData, offset, length)
}

// WriteRequireData overwrites require_data at offset and marks the owning
// port dirty. This is the path driven by routed peer writes (§4.6).
func (inst *Instance) WriteRequireData(offset int, data []byte) apxerr.Error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if err := writeSlice(inst.requireData, offset, data); err != nil {
		return err
	}
	markDirty(inst.requireEntries, offset)
	return nil
}

// ProvidePort looks a provide-port up by name.
func (inst *Instance) ProvidePort(name string) (PortEntry, apxerr.Error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	i, ok := inst.provideByName[name]
	if !ok {
		return PortEntry{}, apxerr.Newf(apxerr.KindNotFound, "no such provide port %q", name)
	}
	return inst.provideEntries[i], nil
}

// RequirePort looks a require-port up by name.
func (inst *Instance) RequirePort(name string) (PortEntry, apxerr.Error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	i, ok := inst.requireByName[name]
	if !ok {
		return PortEntry{}, apxerr.Newf(apxerr.KindNotFound, "no such require port %q", name)
	}
	return inst.requireEntries[i], nil
}

// ProvidePorts returns a snapshot of all provide-port entries.
func (inst *Instance) ProvidePorts() []PortEntry {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return append([]PortEntry(nil), inst.provideEntries...)
}

// RequirePorts returns a snapshot of all require-port entries.
func (inst *Instance) RequirePorts() []PortEntry {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return append([]PortEntry(nil), inst.requireEntries...)
}

// ProvideDataSize returns the size of the provide_data aggregate buffer.
func (inst *Instance) ProvideDataSize() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return len(inst.provideData)
}

// RequireDataSize returns the size of the require_data aggregate buffer.
func (inst *Instance) RequireDataSize() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return len(inst.requireData)
}

// RecordChange appends a connector-change entry, observed by the routing
// layer until the next DrainChanges.
func (inst *Instance) RecordChange(c ConnectorChange) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.changes = append(inst.changes, c)
}

// DrainChanges returns and clears the accumulated connector-change set.
func (inst *Instance) DrainChanges() []ConnectorChange {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	out := inst.changes
	inst.changes = nil
	return out
}

func readSlice(buf []byte, offset, length int) ([]byte, apxerr.Error) {
	if offset < 0 || length < 0 || offset+length > len(buf) {
		return nil, apxerr.New(apxerr.KindInvalidArgument, "read out of bounds")
	}
	out := make([]byte, length)
	copy(out, buf[offset:offset+length])
	return out, nil
}

func writeSlice(buf []byte, offset int, data []byte) apxerr.Error {
	if offset < 0 || offset+len(data) > len(buf) {
		return apxerr.New(apxerr.KindInvalidArgument, "write out of bounds")
	}
	copy(buf[offset:], data)
	return nil
}

func markDirty(entries []PortEntry, offset int) {
	for i := range entries {
		if offset >= entries[i].Offset && offset < entries[i].Offset+entries[i].Size {
			entries[i].Dirty = true
			return
		}
	}
}
