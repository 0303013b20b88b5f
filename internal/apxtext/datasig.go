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

package apxtext

import (
	"strconv"

	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/pkg/apxerr"
)

// typeRefResolver looks a named/indexed type up against the type section
// parsed so far, by reference.
type typeRefResolver func(id uint32, hasID bool, name string) bool

// parseDataSignature parses one data-signature starting at sc.pos,
// per spec §4.1: scalar char classes, `{...}` records, `T[...]` type
// references, an optional `(lo,hi)` range suffix on integer scalars, and an
// optional `[n]`/`[n*]` array suffix. known reports whether a referenced
// type id/name exists, purely for an early unresolved-reference check;
// full resolution still happens at finalize().
func parseDataSignature(sc *scanner, known typeRefResolver) (*dataelem.Element, apxerr.Error) {
	e, err := parseBase(sc, known)
	if err != nil {
		return nil, err
	}

	if sc.peek() == '(' {
		if !e.Kind.IsInteger() {
			return nil, apxerr.New(apxerr.KindInvalidArgument, "range suffix only valid on integer scalars")
		}
		sc.pos++
		lo := sc.digits()
		neg := false
		if lo == "" && sc.peek() == '-' {
			neg = true
			sc.pos++
			lo = sc.digits()
		}
		if err := sc.expect(','); err != nil {
			return nil, err
		}
		hi := sc.digits()
		if err := sc.expect(')'); err != nil {
			return nil, err
		}
		r := &dataelem.Range{Signed: e.Kind.IsSigned()}
		if r.Signed {
			loVal, _ := strconv.ParseInt(lo, 10, 64)
			if neg {
				loVal = -loVal
			}
			hiVal, _ := strconv.ParseInt(hi, 10, 64)
			r.Lo, r.Hi = loVal, hiVal
		} else {
			loVal, _ := strconv.ParseUint(lo, 10, 64)
			hiVal, _ := strconv.ParseUint(hi, 10, 64)
			r.ULo, r.UHi = loVal, hiVal
		}
		e.Range = r
	}

	if sc.peek() == '[' {
		sc.pos++
		n := sc.digits()
		if n == "" {
			return nil, apxerr.New(apxerr.KindParse, "expected array length")
		}
		dyn := false
		if sc.peek() == '*' {
			dyn = true
			sc.pos++
		}
		if err := sc.expect(']'); err != nil {
			return nil, err
		}
		nv, convErr := strconv.ParseUint(n, 10, 32)
		if convErr != nil {
			return nil, apxerr.New(apxerr.KindValueRange, "array length out of range")
		}
		e.ArrayLen = uint32(nv)
		e.IsDynArray = dyn
	}

	return e, nil
}

func parseBase(sc *scanner, known typeRefResolver) (*dataelem.Element, apxerr.Error) {
	if sc.eof() {
		return nil, apxerr.New(apxerr.KindParse, "unexpected end of data signature")
	}
	c := sc.next()

	switch c {
	case 'c':
		return &dataelem.Element{Kind: dataelem.KindI8}, nil
	case 'C':
		return &dataelem.Element{Kind: dataelem.KindU8}, nil
	case 's':
		return &dataelem.Element{Kind: dataelem.KindI16}, nil
	case 'S':
		return &dataelem.Element{Kind: dataelem.KindU16}, nil
	case 'l':
		return &dataelem.Element{Kind: dataelem.KindI32}, nil
	case 'L':
		return &dataelem.Element{Kind: dataelem.KindU32}, nil
	case 'q':
		return &dataelem.Element{Kind: dataelem.KindI64}, nil
	case 'Q':
		return &dataelem.Element{Kind: dataelem.KindU64}, nil
	case 'a':
		return &dataelem.Element{Kind: dataelem.KindChar}, nil
	case 'A':
		return &dataelem.Element{Kind: dataelem.KindChar8}, nil
	case 'u':
		return &dataelem.Element{Kind: dataelem.KindChar16}, nil
	case 'U':
		return &dataelem.Element{Kind: dataelem.KindChar32}, nil
	case 'b':
		return &dataelem.Element{Kind: dataelem.KindBool}, nil
	case 'B':
		return &dataelem.Element{Kind: dataelem.KindByte}, nil

	case '{':
		rec := &dataelem.Element{Kind: dataelem.KindRecord}
		for sc.peek() != '}' {
			if sc.eof() {
				return nil, apxerr.New(apxerr.KindParse, "unterminated record, expected '}'")
			}
			name, err := sc.quotedString()
			if err != nil {
				return nil, err
			}
			fe, err := parseDataSignature(sc, known)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, dataelem.Field{Name: name, Elem: fe})
		}
		sc.pos++ // consume '}'
		return rec, nil

	case 'T':
		if err := sc.expect('['); err != nil {
			return nil, err
		}
		var e *dataelem.Element
		if sc.peek() == '"' {
			name, err := sc.quotedString()
			if err != nil {
				return nil, err
			}
			if !known(0, false, name) {
				return nil, apxerr.Newf(apxerr.KindUnresolvedReference, "unresolved type reference %q", name)
			}
			e = &dataelem.Element{Kind: dataelem.KindRefByName, RefName: name}
		} else {
			d := sc.digits()
			if d == "" {
				return nil, apxerr.New(apxerr.KindParse, "expected type id or quoted name after T[")
			}
			id, _ := strconv.ParseUint(d, 10, 32)
			if !known(uint32(id), true, "") {
				return nil, apxerr.Newf(apxerr.KindUnresolvedReference, "unresolved type reference %d", id)
			}
			e = &dataelem.Element{Kind: dataelem.KindRefByID, RefID: uint32(id)}
		}
		if err := sc.expect(']'); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, apxerr.Newf(apxerr.KindParse, "unrecognized data signature character %q", string(c))
	}
}
