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

package conn

import (
	"bytes"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/cogu/goapx/internal/filemgr"
	"github.com/cogu/goapx/internal/rmf"
	"github.com/cogu/goapx/pkg/apxctx"
	"github.com/cogu/goapx/pkg/apxerr"
)

// InvalidConnectionID is the reserved sentinel a connection manager must
// never hand out, per spec §4.9.
const InvalidConnectionID uint32 = 0xFFFFFFFF

const greetingTerminator = "\n\n"

// DefaultHeartbeatInterval is how often an ACTIVE connection emits a
// HEARTBEAT command (spec §4.11 "Heartbeat command").
const DefaultHeartbeatInterval = 3 * time.Second

// Connection drives one peer's handshake, framing and keepalive. It
// implements filemgr.Transmitter so a *filemgr.Manager can send through it
// directly.
type Connection struct {
	mu    sync.Mutex
	state State
	role  Role

	ID      uint32
	TraceID string

	ctx   *apxctx.Context
	cap   *Capability
	files *filemgr.Manager

	maxMsgSize int

	rxBuf            []byte
	greetingReceived bool

	lastRecv time.Time
	stopHB   chan struct{}
	hbOnce   sync.Once

	onActive         func()
	onDisconnect     func()
	onRemoteFileInfo func(rmf.FileInfo)
}

// New builds a Connection. maxMsgSize <= 0 defaults to rmf.MaxMessageSize,
// sendBufSize <= 0 defaults to DefaultSendBufferSize.
func New(id uint32, role Role, ctx *apxctx.Context, stream apxctx.Stream, files *filemgr.Manager, maxMsgSize, sendBufSize int) (*Connection, error) {
	if maxMsgSize <= 0 {
		maxMsgSize = rmf.MaxMessageSize
	}
	traceID, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}
	cn := &Connection{
		state:      StateInit,
		role:       role,
		ID:         id,
		TraceID:    traceID,
		ctx:        ctx.WithConn(id, traceID),
		cap:        NewCapability(stream, sendBufSize),
		files:      files,
		maxMsgSize: maxMsgSize,
		stopHB:     make(chan struct{}),
	}
	cn.lastRecv = cn.ctx.Clock.Now()
	cn.onRemoteFileInfo = func(fi rmf.FileInfo) { files.OnRemoteFileInfo(fi, nil) }
	files.SetTransmitter(cn)
	files.SetCallbacks(func(fi rmf.FileInfo) { cn.onRemoteFileInfo(fi) }, cn.onFileOpenRequest, nil)
	if cn.ctx.Metrics != nil {
		cn.ctx.Metrics.IncConn()
	}
	return cn, nil
}

// Files returns the file manager this connection drives.
func (cn *Connection) Files() *filemgr.Manager { return cn.files }

// State returns the connection's current lifecycle state.
func (cn *Connection) State() State {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	return cn.state
}

func (cn *Connection) setState(s State) {
	cn.mu.Lock()
	cn.state = s
	cn.mu.Unlock()
	cn.ctx.Log.Debug("connection state transition", "state", s.String())
}

// OnActive registers a callback fired once the connection reaches ACTIVE,
// after local files are announced.
func (cn *Connection) OnActive(fn func()) { cn.onActive = fn }

// OnDisconnect registers a callback fired when the connection closes.
func (cn *Connection) OnDisconnect(fn func()) { cn.onDisconnect = fn }

// SetRemoteFileHandler overrides how an incoming FILE_INFO is routed,
// letting a connection manager attach signature-map bookkeeping on top of
// the default files.OnRemoteFileInfo insert.
func (cn *Connection) SetRemoteFileHandler(fn func(rmf.FileInfo)) { cn.onRemoteFileInfo = fn }

// Open begins the handshake. A client sends its greeting immediately; a
// server waits passively for the peer's (spec §4.7: "role only differs in
// who sends greeting first").
func (cn *Connection) Open() apxerr.Error {
	cn.setState(StateGreetingSent)
	if cn.role == RoleClient {
		return cn.cap.TransmitDirect([]byte(rmf.BuildGreeting()))
	}
	return nil
}

// FeedBytes appends newly-received bytes and processes as many complete
// greeting lines / NumHeader frames as are available. Call from the
// socket worker as bytes arrive.
func (cn *Connection) FeedBytes(data []byte) apxerr.Error {
	cn.rxBuf = append(cn.rxBuf, data...)
	for {
		if !cn.greetingReceived {
			idx := bytes.Index(cn.rxBuf, []byte(greetingTerminator))
			if idx < 0 {
				return nil
			}
			text := string(cn.rxBuf[:idx+len(greetingTerminator)])
			cn.rxBuf = cn.rxBuf[idx+len(greetingTerminator):]
			cn.greetingReceived = true
			if err := cn.handleGreeting(text); err != nil {
				return err
			}
			continue
		}

		n, consumed, err := rmf.DecodeNumHeader(cn.rxBuf, 0)
		if err != nil {
			if err.Kind() == apxerr.KindUnexpectedEnd {
				return nil
			}
			return err
		}
		if n > uint32(cn.maxMsgSize) {
			return apxerr.Newf(apxerr.KindMsgTooLarge, "incoming frame of %d bytes exceeds max message size %d", n, cn.maxMsgSize)
		}
		if consumed+int(n) > len(cn.rxBuf) {
			return nil
		}
		payload := cn.rxBuf[consumed : consumed+int(n)]
		cn.rxBuf = cn.rxBuf[consumed+int(n):]
		if err := cn.handleFrame(payload); err != nil {
			return err
		}
	}
}

func (cn *Connection) handleGreeting(text string) apxerr.Error {
	if cn.State() != StateGreetingSent {
		return apxerr.Newf(apxerr.KindInvalidArgument, "greeting received in state %s", cn.State())
	}
	if _, ok := rmf.ParseGreeting(text); !ok {
		return apxerr.Newf(apxerr.KindParse, "malformed greeting %q", text)
	}
	cn.setState(StateHeaderAccepted)
	if cn.role == RoleServer {
		if err := cn.cap.TransmitDirect([]byte(rmf.BuildGreeting())); err != nil {
			return err
		}
	}

	framed, err := rmf.EncodeNumHeader(nil, uint32(len(rmf.AckPayload)))
	if err != nil {
		return err
	}
	return cn.cap.TransmitDirect(append(framed, rmf.AckPayload[:]...))
}

func (cn *Connection) handleFrame(payload []byte) apxerr.Error {
	cn.mu.Lock()
	cn.lastRecv = cn.ctx.Clock.Now()
	cn.mu.Unlock()

	if rmf.IsAck(payload) {
		switch cn.State() {
		case StateHeaderAccepted:
			cn.setState(StateAcknowledged)
			return cn.activate()
		case StateAcknowledged, StateActive:
			// A peer's ACK can arrive after we've already activated when a
			// greeting exchange resolves out of order; harmless, ignore.
			return nil
		}
	}

	addr, _, next, err := rmf.DecodeAddress(payload, 0)
	if err != nil {
		return err
	}
	if cn.ctx.Metrics != nil {
		cn.ctx.Metrics.ObserveFrame(commandMetricLabel(addr))
	}
	return cn.files.MessageReceived(addr, payload[next:])
}

func commandMetricLabel(addr uint32) string {
	if addr == rmf.CommandAddress {
		return "command"
	}
	return "data"
}

// activate transitions HEADER_ACCEPTED/ACKNOWLEDGED into ACTIVE by
// announcing all locally-attached files, per spec §4.7 "On entering
// ACTIVE".
func (cn *Connection) activate() apxerr.Error {
	cn.setState(StateActive)
	cn.files.SetGreetingAccepted()
	if err := cn.files.AnnounceAllLocal(cn); err != nil {
		return err
	}
	if cn.onActive != nil {
		cn.onActive()
	}
	return nil
}

func (cn *Connection) onFileOpenRequest(address uint32) {
	_ = cn.files.OnOpenRequest(cn, address)
}

// TransmitCommand implements filemgr.Transmitter: frames payload at
// rmf.CommandAddress.
func (cn *Connection) TransmitCommand(payload []byte) apxerr.Error {
	return cn.transmitFrame(rmf.CommandAddress, false, payload)
}

// TransmitData implements filemgr.Transmitter: frames payload at a file
// data address, carrying the more-bit for multi-chunk writes.
func (cn *Connection) TransmitData(address uint32, more bool, data []byte) apxerr.Error {
	return cn.transmitFrame(address, more, data)
}

func (cn *Connection) transmitFrame(address uint32, more bool, payload []byte) apxerr.Error {
	body := rmf.EncodeAddress(nil, address, more)
	body = append(body, payload...)
	framed, err := rmf.EncodeNumHeader(nil, uint32(len(body)))
	if err != nil {
		return err
	}
	frame := append(framed, body...)
	if len(frame) > cn.maxMsgSize {
		return apxerr.Newf(apxerr.KindMsgTooLarge, "outgoing message of %d bytes exceeds max message size %d", len(frame), cn.maxMsgSize)
	}
	if err := cn.cap.TransmitBegin(); err != nil {
		return err
	}
	if err := cn.cap.TransmitData(frame); err != nil {
		return err
	}
	return cn.cap.TransmitEnd()
}

// RunHeartbeat starts a background loop that emits a HEARTBEAT command
// every interval while ACTIVE, and closes the connection if no bytes
// (heartbeat or otherwise) have arrived within 2×interval (spec §4.11,
// filling the spec.md "timeouts" open question).
func (cn *Connection) RunHeartbeat(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	go func() {
		for {
			select {
			case <-cn.stopHB:
				return
			case <-cn.ctx.Clock.After(interval):
				if cn.State() != StateActive {
					continue
				}
				cn.mu.Lock()
				last := cn.lastRecv
				cn.mu.Unlock()
				if cn.ctx.Clock.Now().Sub(last) > 2*interval {
					cn.Close()
					return
				}
				_ = cn.TransmitCommand(rmf.EncodeHeartbeat())
			}
		}
	}()
}

// Close drops the send buffer, detaches from the file manager's
// transmitter slot, and fires the disconnected callback. Idempotent.
func (cn *Connection) Close() {
	cn.hbOnce.Do(func() { close(cn.stopHB) })
	if cn.State() == StateClosed {
		return
	}
	cn.setState(StateClosed)
	_ = cn.cap.TransmitBegin()
	cn.files.SetTransmitter(nil)
	if cn.ctx.Metrics != nil {
		cn.ctx.Metrics.DecConn()
	}
	if cn.onDisconnect != nil {
		cn.onDisconnect()
	}
}
