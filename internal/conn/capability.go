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
	"github.com/cogu/goapx/pkg/apxctx"
	"github.com/cogu/goapx/pkg/apxerr"
)

// DefaultSendBufferSize is the per-connection send_buffer size, per spec
// §4.7.
const DefaultSendBufferSize = 4 * 1024

// Capability is the tagged capability set a connection is built from,
// replacing the original's v-table-per-transport-kind polymorphism (spec
// §9 "Dynamic dispatch"): one concrete struct of functions per transport,
// rather than an interface implemented by distinct socket/test/loopback
// types. The send buffer is owned exclusively by the socket worker that
// calls these methods, so no internal locking is needed (spec §5).
type Capability struct {
	stream  apxctx.Stream
	bufSize int
	buf     []byte
}

// NewCapability builds a Capability writing framed bytes to stream,
// batching up to bufSize bytes between TransmitBegin/TransmitEnd.
func NewCapability(stream apxctx.Stream, bufSize int) *Capability {
	if bufSize <= 0 {
		bufSize = DefaultSendBufferSize
	}
	return &Capability{stream: stream, bufSize: bufSize, buf: make([]byte, 0, bufSize)}
}

// TransmitBegin starts a fresh send batch, discarding any unflushed bytes
// from a prior batch.
func (c *Capability) TransmitBegin() apxerr.Error {
	c.buf = c.buf[:0]
	return nil
}

// TransmitData appends a fully framed message to the current batch,
// flushing the batch first if the message would not fit. A message larger
// than the whole buffer fails with msg-too-large, per spec §4.7.
func (c *Capability) TransmitData(frame []byte) apxerr.Error {
	if len(frame) > c.bufSize {
		return apxerr.Newf(apxerr.KindMsgTooLarge, "message of %d bytes exceeds send buffer of %d bytes", len(frame), c.bufSize)
	}
	if len(c.buf)+len(frame) > c.bufSize {
		if err := c.flush(); err != nil {
			return err
		}
	}
	c.buf = append(c.buf, frame...)
	return nil
}

// TransmitDirect flushes any pending batch, then writes frame immediately,
// bypassing the send buffer. Used for greeting/ACK bytes during the
// handshake, before a batch is meaningful.
func (c *Capability) TransmitDirect(frame []byte) apxerr.Error {
	if err := c.flush(); err != nil {
		return err
	}
	if _, err := c.stream.Write(frame); err != nil {
		return apxerr.New(apxerr.KindIO, "direct transmit failed", err)
	}
	return nil
}

// TransmitEnd flushes the current batch to the stream.
func (c *Capability) TransmitEnd() apxerr.Error {
	return c.flush()
}

// MaxBytesAvailable returns the send buffer's total capacity.
func (c *Capability) MaxBytesAvailable() int { return c.bufSize }

// CurrentBytesAvailable returns the unused capacity of the current batch,
// consulted by callers between messages per spec §5 "Backpressure".
func (c *Capability) CurrentBytesAvailable() int { return c.bufSize - len(c.buf) }

func (c *Capability) flush() apxerr.Error {
	if len(c.buf) == 0 {
		return nil
	}
	_, err := c.stream.Write(c.buf)
	c.buf = c.buf[:0]
	if err != nil {
		return apxerr.New(apxerr.KindIO, "send buffer flush failed", err)
	}
	return nil
}
