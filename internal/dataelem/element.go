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

// Package dataelem describes the typed value trees that APX data signatures
// compile to: scalars, records and arrays of those, plus unresolved type
// references that finalize() must settle before a node is usable.
package dataelem

import "github.com/cogu/goapx/pkg/apxerr"

// Kind enumerates the variants a data element can take.
type Kind uint8

const (
	KindI8 Kind = iota
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindBool
	KindByte
	KindChar
	KindChar8
	KindChar16
	KindChar32
	KindRecord
	KindRefByID
	KindRefByName
	KindRefResolved
)

func (k Kind) IsInteger() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindU8, KindU16, KindU32, KindU64:
		return true
	}
	return false
}

func (k Kind) IsSigned() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	}
	return false
}

// BaseSize returns the on-wire width in bytes of one scalar instance of k.
// KindRecord, KindRefByID, KindRefByName and KindRefResolved have no fixed
// base size; callers must resolve or descend into children first.
func (k Kind) BaseSize() int {
	switch k {
	case KindI8, KindU8, KindBool, KindByte, KindChar, KindChar8:
		return 1
	case KindI16, KindU16, KindChar16:
		return 2
	case KindI32, KindU32, KindChar32:
		return 4
	case KindI64, KindU64:
		return 8
	}
	return 0
}

// Range holds an inclusive [Lo, Hi] bound for integer scalar elements.
// Signed values are carried in Lo/Hi; unsigned values use ULo/UHi. Signed
// is true iff the owning element's kind is signed.
type Range struct {
	Signed bool
	Lo     int64
	Hi     int64
	ULo    uint64
	UHi    uint64
}

// Field is a named child of a record element.
type Field struct {
	Name string
	Elem *Element
}

// Element is one node in a data-signature tree.
type Element struct {
	Kind Kind

	// Range is non-nil only for integer scalar kinds.
	Range *Range

	// Record children, ordered, only set when Kind == KindRecord.
	Fields []Field

	// Array attributes. ArrayLen == 0 means "not an array".
	ArrayLen    uint32
	IsDynArray  bool

	// Reference bookkeeping, only set for the Ref* kinds.
	RefID      uint32
	RefName    string
	Resolved   *Element // non-nil once KindRefResolved
}

// Validate checks the invariants from the data model: range kind matches
// element kind, and ranges on char/bool/byte/record are forbidden.
func (e *Element) Validate() apxerr.Error {
	if e.Range != nil {
		if !e.Kind.IsInteger() {
			return apxerr.Newf(apxerr.KindInvalidArgument, "range not permitted on element kind %d", e.Kind)
		}
		if e.Range.Signed != e.Kind.IsSigned() {
			return apxerr.New(apxerr.KindInvalidArgument, "range signedness does not match element kind")
		}
	}
	if e.Kind == KindRecord {
		for i := range e.Fields {
			if err := e.Fields[i].Elem.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// PackedSize returns the number of bytes one instance of e occupies on the
// wire, including any dynamic-array length prefix. e must be finalized
// (no unresolved references).
func (e *Element) PackedSize() (int, apxerr.Error) {
	var unit int
	switch e.Kind {
	case KindRecord:
		for _, f := range e.Fields {
			sz, err := f.Elem.PackedSize()
			if err != nil {
				return 0, err
			}
			unit += sz
		}
	case KindRefResolved:
		if e.Resolved == nil {
			return 0, apxerr.New(apxerr.KindInternal, "resolved reference has nil target")
		}
		return e.Resolved.PackedSize()
	case KindRefByID, KindRefByName:
		return 0, apxerr.New(apxerr.KindUnresolvedReference, "reference not resolved")
	default:
		unit = e.Kind.BaseSize()
	}

	if e.ArrayLen == 0 {
		return unit, nil
	}

	total := unit * int(e.ArrayLen)
	if e.IsDynArray {
		total += lengthPrefixWidth(e.ArrayLen)
	}
	return total, nil
}

// lengthPrefixWidth picks the length-prefix width for a dynamic array whose
// declared maximum length is maxN, per the VM's sizing rule.
func lengthPrefixWidth(maxN uint32) int {
	switch {
	case maxN <= 255:
		return 1
	case maxN <= 65535:
		return 2
	default:
		return 4
	}
}

// Resolve walks e and every descendant reference against lookup, producing
// KindRefResolved nodes. Detects cycles via the visiting set of type names
// currently being resolved.
func Resolve(e *Element, lookup func(id uint32, name string) (*Element, bool), visiting map[string]bool) apxerr.Error {
	switch e.Kind {
	case KindRefByID, KindRefByName:
		key := e.RefName
		if key == "" {
			key = itoa(e.RefID)
		}
		if visiting[key] {
			return apxerr.Newf(apxerr.KindCyclicReference, "cyclic type reference %q", key)
		}
		target, ok := lookup(e.RefID, e.RefName)
		if !ok {
			return apxerr.Newf(apxerr.KindUnresolvedReference, "unresolved type reference %q", key)
		}
		visiting[key] = true
		if err := Resolve(target, lookup, visiting); err != nil {
			return err
		}
		delete(visiting, key)
		e.Kind = KindRefResolved
		e.Resolved = target
		return nil
	case KindRecord:
		for i := range e.Fields {
			if err := Resolve(e.Fields[i].Elem, lookup, visiting); err != nil {
				return err
			}
		}
	}
	return nil
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
