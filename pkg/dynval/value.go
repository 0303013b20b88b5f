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

// Package dynval implements the dynamic-value tree carried across the APX
// public API: runtime-typed scalars, arrays, and ordered string-keyed hashes.
// It backs port initializers and pack()/unpack() call payloads.
package dynval

import "github.com/cogu/goapx/pkg/apxerr"

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindUint
	KindString
	KindBool
	KindArray
	KindHash
)

// Value is a single node of the dynamic-value tree. The zero Value is not
// meaningful; use the constructors below.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	s    string
	b    bool
	arr  []*Value
	hash *Hash
}

func Int(v int64) *Value    { return &Value{kind: KindInt, i: v} }
func Uint(v uint64) *Value  { return &Value{kind: KindUint, u: v} }
func Str(v string) *Value   { return &Value{kind: KindString, s: v} }
func Bool(v bool) *Value    { return &Value{kind: KindBool, b: v} }
func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, arr: items}
}
func NewHash() *Value {
	return &Value{kind: KindHash, hash: newHash()}
}

func (v *Value) Kind() Kind { return v.kind }

func (v *Value) Int() (int64, apxerr.Error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindUint:
		return int64(v.u), nil
	default:
		return 0, apxerr.New(apxerr.KindInvalidArgument, "value is not an integer")
	}
}

func (v *Value) Uint() (uint64, apxerr.Error) {
	switch v.kind {
	case KindUint:
		return v.u, nil
	case KindInt:
		if v.i < 0 {
			return 0, apxerr.New(apxerr.KindValueRange, "negative value cannot be unsigned")
		}
		return uint64(v.i), nil
	default:
		return 0, apxerr.New(apxerr.KindInvalidArgument, "value is not an unsigned integer")
	}
}

func (v *Value) Str() (string, apxerr.Error) {
	if v.kind != KindString {
		return "", apxerr.New(apxerr.KindInvalidArgument, "value is not a string")
	}
	return v.s, nil
}

func (v *Value) Bool() (bool, apxerr.Error) {
	if v.kind != KindBool {
		return false, apxerr.New(apxerr.KindInvalidArgument, "value is not a bool")
	}
	return v.b, nil
}

func (v *Value) Array() ([]*Value, apxerr.Error) {
	if v.kind != KindArray {
		return nil, apxerr.New(apxerr.KindInvalidArgument, "value is not an array")
	}
	return v.arr, nil
}

func (v *Value) Hash() (*Hash, apxerr.Error) {
	if v.kind != KindHash {
		return nil, apxerr.New(apxerr.KindInvalidArgument, "value is not a hash")
	}
	return v.hash, nil
}

// Hash is an insertion-ordered string-keyed map of *Value.
type Hash struct {
	keys []string
	vals map[string]*Value
}

func newHash() *Hash {
	return &Hash{vals: make(map[string]*Value)}
}

func (h *Hash) Set(key string, v *Value) {
	if _, ok := h.vals[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.vals[key] = v
}

func (h *Hash) Get(key string) (*Value, bool) {
	v, ok := h.vals[key]
	return v, ok
}

func (h *Hash) Keys() []string {
	return append([]string(nil), h.keys...)
}

func (h *Hash) Len() int { return len(h.keys) }
