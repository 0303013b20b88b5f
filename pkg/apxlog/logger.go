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

// Package apxlog is the ambient structured-logging wrapper shared by every
// APX/RMF component. Grounded on github.com/nabbar/golib/logger's
// hashicorp/go-hclog backend (logger/hclog.go), narrowed to the single
// backend this project needs. A *Logger is always passed explicitly
// through apxctx.Context — never held in a package-level singleton, per
// the "no global state" design note.
package apxlog

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger wraps hclog.Logger with the field names this project attaches
// consistently: connection id, trace id, file address, port signature.
type Logger struct {
	hclog.Logger
}

// New builds a Logger writing to w at the given level. Passing a nil w
// defaults to os.Stderr.
func New(name string, level hclog.Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{Logger: hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  level,
		Output: w,
	})}
}

// Discard returns a Logger that drops everything, for tests and callers
// that don't care about log output.
func Discard() *Logger {
	return &Logger{Logger: hclog.NewNullLogger()}
}

// WithConn returns a child logger tagged with a connection's RMF id and
// correlation trace id.
func (l *Logger) WithConn(connID uint32, traceID string) *Logger {
	return &Logger{Logger: l.Logger.With("conn_id", connID, "trace_id", traceID)}
}

// WithPort returns a child logger tagged with a port signature.
func (l *Logger) WithPort(signature string) *Logger {
	return &Logger{Logger: l.Logger.With("port_signature", signature)}
}

// WithFile returns a child logger tagged with an RMF file's name/address.
func (l *Logger) WithFile(name string, address uint32) *Logger {
	return &Logger{Logger: l.Logger.With("file", name, "address", address)}
}
