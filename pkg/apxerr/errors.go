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

package apxerr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Error extends the standard error with a closed Kind, a parent chain, and
// a captured call-site trace. The interface is a deliberately narrowed
// subset of github.com/nabbar/golib/errors.Error — this project exercises
// kind classification, parent chaining, and tracing, and nothing else from
// the teacher's ~30-method surface.
type Error interface {
	error

	Kind() Kind
	HasKind(k Kind) bool
	Is(err error) bool
	Add(parent ...error)
	Parents() []error
	Unwrap() []error
	Trace() string
}

type ers struct {
	k Kind
	msg string
	parents []Error
	frame runtime.Frame
}

func frameHere(skip int) runtime.Frame {
	pc := make([]uintptr, 1)
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return runtime.Frame{}
	}
	frames := runtime.CallersFrames(pc[:n])
	f, _ := frames.Next()
	return f
}

// New builds a new Error of the given kind with msg, chaining any non-nil
// parents (wrapping plain errors that aren't already an apxerr.Error).
func New(k Kind, msg string, parent ...error) Error {
	e := &ers{k: k, msg: msg, frame: frameHere(1)}
	e.Add(parent...)
	return e
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(k Kind, format string, args ...any) Error {
	e := &ers{k: k, msg: fmt.Sprintf(format, args...), frame: frameHere(1)}
	return e
}

// Make wraps a plain error as an Error, or returns it unchanged if it
// already is one. Returns nil for a nil input.
func Make(err error) Error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return &ers{k: KindUnknown, msg: err.Error(), frame: frameHere(1)}
}

func (e *ers) Error() string {
	if e.frame.File != "" {
		return fmt.Sprintf("%s: %s", e.k, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.k, e.msg)
}

func (e *ers) Kind() Kind { return e.k }

func (e *ers) HasKind(k Kind) bool {
	if e.k == k {
		return true
	}
	for _, p := range e.parents {
		if p.HasKind(k) {
			return true
		}
	}
	return false
}

func (e *ers) Is(err error) bool {
	if err == nil {
		return false
	}
	var o *ers
	if errors.As(err, &o) {
		return e.k == o.k && strings.EqualFold(e.msg, o.msg)
	}
	return strings.EqualFold(e.msg, err.Error())
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p == nil {
			continue
		}
		e.parents = append(e.parents, Make(p))
	}
}

func (e *ers) Parents() []error {
	r := make([]error, 0, len(e.parents))
	for _, p := range e.parents {
		r = append(r, p)
	}
	return r
}

func (e *ers) Unwrap() []error { return e.Parents() }

func (e *ers) Trace() string {
	if e.frame.File == "" {
		return ""
	}
	file := e.frame.File
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, e.frame.Line)
}

// Is reports whether err is, or wraps, an apxerr.Error of kind k.
func Is(err error, k Kind) bool {
	var e Error
	if errors.As(err, &e) {
		return e.HasKind(k)
	}
	return false
}

// KindOf returns the Kind of err if it is an apxerr.Error, else KindUnknown.
func KindOf(err error) Kind {
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}
