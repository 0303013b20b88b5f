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

// Package filemgr tracks local and remote RMF files by address and routes
// byte-addressed writes between them, per spec §4.6.
package filemgr

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/cogu/goapx/internal/rmf"
	"github.com/cogu/goapx/pkg/apxerr"
	"github.com/cogu/goapx/pkg/apxmetrics"
)

// maxChunkBytes bounds a single data-frame write when an opened local
// file's initial contents are streamed out, per spec §4.6.
const maxChunkBytes = 256

// WriteHandler observes bytes landing in a remote file's buffer at the
// given offset. Typically a node instance's require-port sink.
type WriteHandler func(offset int, data []byte)

// Transmitter is the capability a connection supplies to send framed
// bytes; filemgr never touches a socket directly (design note, §9
// "Dynamic dispatch").
type Transmitter interface {
	TransmitCommand(payload []byte) apxerr.Error
	TransmitData(address uint32, more bool, data []byte) apxerr.Error
}

// File is one tracked RMF file, local (published by us) or remote
// (published by the peer).
type File struct {
	Name    string
	Address uint32
	Size    uint32
	Type    rmf.FileType
	Digest  [4]byte

	Opening bool
	Open    bool

	initial []byte
	buf     []byte
	onWrite WriteHandler
}

// Manager holds the local/remote file maps for one connection.
type Manager struct {
	mu      sync.Mutex
	local   map[uint32]*File
	remote  map[uint32]*File
	tx      Transmitter
	greeted bool
	metrics *apxmetrics.Registry

	onFileInfo  func(rmf.FileInfo)
	onFileOpen  func(address uint32)
	onFileClose func(address uint32)
}

// SetCallbacks registers the handlers invoked when a command frame is
// routed through MessageReceived. Any of the three may be nil.
func (m *Manager) SetCallbacks(onFileInfo func(rmf.FileInfo), onFileOpen, onFileClose func(address uint32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFileInfo = onFileInfo
	m.onFileOpen = onFileOpen
	m.onFileClose = onFileClose
}

// New builds an empty Manager. tx may be nil until the connection is
// ready to transmit; SetTransmitter attaches it once available.
func New(metrics *apxmetrics.Registry) *Manager {
	return &Manager{local: map[uint32]*File{}, remote: map[uint32]*File{}, metrics: metrics}
}

// SetTransmitter attaches the connection's send capability.
func (m *Manager) SetTransmitter(tx Transmitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx = tx
}

// SetGreetingAccepted flips the manager into the mode where
// AttachLocalFile immediately announces new files.
func (m *Manager) SetGreetingAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.greeted = true
}

// AttachLocalFile registers a file we publish, computing its FNV-1a digest
// over the initial contents (not enforced for routing, §4.11) and
// transmitting FILE_INFO immediately if the greeting has already been
// accepted.
func (m *Manager) AttachLocalFile(name string, address uint32, initial []byte, typ rmf.FileType, onWrite WriteHandler) apxerr.Error {
	m.mu.Lock()
	f := &File{
		Name: name, Address: address, Size: uint32(len(initial)),
		Type: typ, Digest: fnv1a(initial), initial: initial, buf: append([]byte(nil), initial...),
		onWrite: onWrite,
	}
	m.local[address] = f
	greeted, tx := m.greeted, m.tx
	m.mu.Unlock()

	if greeted && tx != nil {
		return m.transmitFileInfo(tx, f)
	}
	return nil
}

// AnnounceAllLocal transmits FILE_INFO for every attached local file, used
// once the connection reaches ACTIVE (spec §4.7, step 1).
func (m *Manager) AnnounceAllLocal(tx Transmitter) apxerr.Error {
	m.mu.Lock()
	m.greeted = true
	m.tx = tx
	files := make([]*File, 0, len(m.local))
	for _, f := range m.local {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Address < files[j].Address })
	m.mu.Unlock()

	for _, f := range files {
		if err := m.transmitFileInfo(tx, f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) transmitFileInfo(tx Transmitter, f *File) apxerr.Error {
	body, err := rmf.EncodeFileInfo(rmf.FileInfo{
		Address: f.Address, Size: f.Size, Type: f.Type, Digest: f.Digest, Name: f.Name,
	})
	if err != nil {
		return err
	}
	return tx.TransmitCommand(body)
}

// OnRemoteFileInfo records a file the peer published and reports it to the
// caller for further routing (e.g. signature-map attach).
func (m *Manager) OnRemoteFileInfo(fi rmf.FileInfo, onWrite WriteHandler) *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &File{
		Name: fi.Name, Address: fi.Address, Size: fi.Size, Type: fi.Type, Digest: fi.Digest,
		buf: make([]byte, fi.Size), onWrite: onWrite,
	}
	m.remote[fi.Address] = f
	return f
}

// RequestOpen emits FILE_OPEN for a remote file and marks it opening.
func (m *Manager) RequestOpen(tx Transmitter, address uint32) apxerr.Error {
	m.mu.Lock()
	f, ok := m.remote[address]
	m.mu.Unlock()
	if !ok {
		return apxerr.Newf(apxerr.KindNotFound, "no remote file at address %d", address)
	}
	f.Opening = true
	return tx.TransmitCommand(rmf.EncodeFileOpen(address))
}

// OnOpenRequest marks a local file open and streams its initial contents
// as one or more data frames, chunked to maxChunkBytes with the more-bit
// set on every chunk but the last.
func (m *Manager) OnOpenRequest(tx Transmitter, address uint32) apxerr.Error {
	m.mu.Lock()
	f, ok := m.local[address]
	m.mu.Unlock()
	if !ok {
		return apxerr.Newf(apxerr.KindNotFound, "no local file at address %d", address)
	}
	f.Open = true

	data := f.initial
	if len(data) == 0 {
		return nil
	}
	for off := 0; off < len(data); off += maxChunkBytes {
		end := off + maxChunkBytes
		if end > len(data) {
			end = len(data)
		}
		more := end < len(data)
		if err := tx.TransmitData(address+uint32(off), more, data[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// MessageReceived dispatches one decoded RMF message: a command frame
// (address == rmf.CommandAddress) is decoded and routed to the registered
// callback; anything else is a data frame written into the remote file
// that covers address.
func (m *Manager) MessageReceived(address uint32, data []byte) apxerr.Error {
	if address == rmf.CommandAddress {
		return m.dispatchCommand(data)
	}

	m.mu.Lock()
	f := m.findByAddress(m.remote, address)
	m.mu.Unlock()
	if f == nil {
		return apxerr.Newf(apxerr.KindNotFound, "no file covers address %d", address)
	}
	offset := int(address - f.Address)
	if offset < 0 || offset+len(data) > len(f.buf) {
		return apxerr.New(apxerr.KindInvalidArgument, "write exceeds file bounds")
	}
	copy(f.buf[offset:], data)
	if m.metrics != nil {
		m.metrics.AddBytesRouted(len(data))
	}
	if f.onWrite != nil {
		f.onWrite(offset, data)
	}
	return nil
}

func (m *Manager) dispatchCommand(payload []byte) apxerr.Error {
	if rmf.IsAck(payload) {
		return nil
	}
	cmd, body, err := rmf.DecodeCommandType(payload)
	if err != nil {
		return err
	}
	switch cmd {
	case rmf.CmdFileInfo:
		fi, ferr := rmf.DecodeFileInfo(body)
		if ferr != nil {
			return ferr
		}
		m.mu.Lock()
		cb := m.onFileInfo
		m.mu.Unlock()
		if cb != nil {
			cb(fi)
		}
	case rmf.CmdFileOpen:
		addr, oerr := rmf.DecodeFileOpen(body)
		if oerr != nil {
			return oerr
		}
		m.mu.Lock()
		cb := m.onFileOpen
		m.mu.Unlock()
		if cb != nil {
			cb(addr)
		}
	case rmf.CmdFileClose:
		if len(body) < 4 {
			return apxerr.New(apxerr.KindUnexpectedEnd, "FILE_CLOSE body too short")
		}
		addr, oerr := rmf.DecodeFileOpen(body)
		if oerr != nil {
			return oerr
		}
		m.mu.Lock()
		cb := m.onFileClose
		m.mu.Unlock()
		if cb != nil {
			cb(addr)
		}
	case rmf.CmdHeartbeat:
		// no-op: liveness is tracked by the connection layer.
	default:
		return apxerr.Newf(apxerr.KindInvalidArgument, "unknown command type %d", cmd)
	}
	return nil
}

// findByAddress returns the file whose [Address, Address+Size) range
// covers addr, or nil.
func (m *Manager) findByAddress(files map[uint32]*File, addr uint32) *File {
	if f, ok := files[addr]; ok {
		return f
	}
	for _, f := range files {
		if addr >= f.Address && addr < f.Address+f.Size {
			return f
		}
	}
	return nil
}

// RemoteContents returns a copy of a tracked remote file's current buffer,
// for tests and introspection.
func (m *Manager) RemoteContents(address uint32) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.remote[address]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.buf...), true
}

func fnv1a(data []byte) [4]byte {
	h := fnv.New32a()
	h.Write(data)
	sum := h.Sum32()
	return [4]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
}
