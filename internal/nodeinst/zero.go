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

package nodeinst

import (
	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/pkg/dynval"
)

// zeroOf builds the default dynamic value for a resolved data element: zero
// scalars, false booleans, records of zeroed fields, and fixed arrays of
// zeroed elements. Dynamic arrays default to an empty array rather than
// filling out to their declared maximum.
func zeroOf(e *dataelem.Element) *dynval.Value {
	if e.Kind == dataelem.KindRefResolved {
		e = e.Resolved
	}

	if e.ArrayLen > 0 {
		if e.IsDynArray {
			return dynval.Array()
		}
		items := make([]*dynval.Value, e.ArrayLen)
		for i := range items {
			items[i] = zeroScalarOrRecord(e)
		}
		return dynval.Array(items...)
	}
	return zeroScalarOrRecord(e)
}

func zeroScalarOrRecord(e *dataelem.Element) *dynval.Value {
	switch e.Kind {
	case dataelem.KindRecord:
		h := dynval.NewHash()
		hv, _ := h.Hash()
		for _, f := range e.Fields {
			hv.Set(f.Name, zeroOf(f.Elem))
		}
		return h
	case dataelem.KindBool:
		return dynval.Bool(false)
	case dataelem.KindI8, dataelem.KindI16, dataelem.KindI32, dataelem.KindI64:
		return dynval.Int(0)
	default:
		return dynval.Uint(0)
	}
}
