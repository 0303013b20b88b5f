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

// Package apxerr provides the closed error taxonomy shared by every APX/RMF
// subsystem: a numeric Kind (grouped into per-package ranges, mirroring how
// github.com/nabbar/golib/errors reserves a MinPkgXxx code range per
// package), a parent-error chain, and a captured call-site trace.
package apxerr

// Kind is a closed classification of failure modes, per spec §7.
type Kind uint16

// Package code ranges. Each subsystem owns a 100-wide block, the same
// layout convention as errors/modules.go in the teacher package. Exported
// so subsystem packages can allocate their own Kind values (via
// RegisterName) without colliding with the generic taxonomy below.
const (
	RangeGeneric  Kind = 0
	RangeParser   Kind = 100
	RangeElement  Kind = 200
	RangeVM       Kind = 300
	RangeNodeInst Kind = 400
	RangeSigMap   Kind = 500
	RangeRMF      Kind = 600
	RangeFileMgr  Kind = 700
	RangeConn     Kind = 800
	RangeConnMgr  Kind = 900
)

// Generic kinds (§7 closed set), valid across all subsystems.
const (
	KindUnknown Kind = RangeGeneric + iota
	KindInvalidArgument
	KindMemory
	KindParse
	KindValueRange
	KindArrayLength
	KindNameTooLong
	KindNotFound
	KindUnresolvedReference
	KindCyclicReference
	KindMsgTooLarge
	KindInvalidInstruction
	KindUnexpectedEnd
	KindIO
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindInvalidArgument:     "invalid-argument",
	KindMemory:              "memory",
	KindParse:               "parse",
	KindValueRange:          "value-range",
	KindArrayLength:         "array-length",
	KindNameTooLong:         "name-too-long",
	KindNotFound:            "not-found",
	KindUnresolvedReference: "unresolved-reference",
	KindCyclicReference:     "cyclic-reference",
	KindMsgTooLarge:         "msg-too-large",
	KindInvalidInstruction:  "invalid-instruction",
	KindUnexpectedEnd:       "unexpected-end",
	KindIO:                  "io",
	KindInternal:            "internal",
}

// String returns the taxonomy name for k, or "kind(N)" for an unregistered
// subsystem-specific value.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "kind(" + itoa(uint16(k)) + ")"
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// RegisterName lets a subsystem attach a human name to a package-local Kind
// value (e.g. apxtext registering RangeParser+1 as
// "stray-characters-after-parse").
func RegisterName(k Kind, name string) {
	kindNames[k] = name
}
