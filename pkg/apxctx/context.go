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

// Package apxctx carries the ambient collaborators every connection and
// file-manager component needs, threaded explicitly rather than held in
// package-level state (see the "Global state" design note). Modeled on
// github.com/nabbar/golib/context's Config[T], narrowed to the fixed set of
// collaborators this project actually has.
package apxctx

import (
	"io"
	"time"

	"github.com/cogu/goapx/pkg/apxlog"
	"github.com/cogu/goapx/pkg/apxmetrics"
)

// Stream is the byte-stream endpoint collaborator a connection writes
// frames to; the caller reads incoming bytes from it and hands them to the
// connection. A *net.TCPConn or the tests' in-memory loopback stream both
// satisfy it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Clock abstracts time for heartbeat and reaper scheduling so tests can
// run without real sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the production Clock backed by the time package.
func RealClock() Clock { return realClock{} }

// Context bundles the logger, metrics registry and clock shared by a
// connection or file-manager instance. The zero value is not usable; build
// one with New.
type Context struct {
	Log     *apxlog.Logger
	Metrics *apxmetrics.Registry
	Clock   Clock
}

// New builds a Context. A nil log defaults to apxlog.Discard(), a nil clock
// defaults to the real wall clock. metrics may be nil to disable
// instrumentation.
func New(log *apxlog.Logger, metrics *apxmetrics.Registry, clock Clock) *Context {
	if log == nil {
		log = apxlog.Discard()
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Context{Log: log, Metrics: metrics, Clock: clock}
}

// WithConn returns a derived Context whose logger is tagged for the given
// connection.
func (c *Context) WithConn(connID uint32, traceID string) *Context {
	return &Context{Log: c.Log.WithConn(connID, traceID), Metrics: c.Metrics, Clock: c.Clock}
}
