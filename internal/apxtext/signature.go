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
	"strings"

	"github.com/cogu/goapx/internal/dataelem"
)

var scalarChar = map[dataelem.Kind]byte{
	dataelem.KindI8: 'c', dataelem.KindU8: 'C',
	dataelem.KindI16: 's', dataelem.KindU16: 'S',
	dataelem.KindI32: 'l', dataelem.KindU32: 'L',
	dataelem.KindI64: 'q', dataelem.KindU64: 'Q',
	dataelem.KindChar: 'a', dataelem.KindChar8: 'A',
	dataelem.KindBool: 'b', dataelem.KindByte: 'B',
	dataelem.KindChar16: 'u', dataelem.KindChar32: 'U',
}

// dataSignature renders e back to its canonical APX data-signature text.
// Type references must already be resolved; the rendered form inlines the
// resolved target rather than a T[...] reference, so two ports with
// structurally identical elements always produce equal signatures
// regardless of which named type (if any) they were declared through.
func dataSignature(e *dataelem.Element) string {
	var b strings.Builder
	writeElement(&b, e)
	return b.String()
}

func writeElement(b *strings.Builder, e *dataelem.Element) {
	switch e.Kind {
	case dataelem.KindRefResolved:
		writeElement(b, e.Resolved)
		return
	case dataelem.KindRecord:
		b.WriteByte('{')
		for _, f := range e.Fields {
			b.WriteByte('"')
			b.WriteString(f.Name)
			b.WriteByte('"')
			writeElement(b, f.Elem)
		}
		b.WriteByte('}')
	default:
		b.WriteByte(scalarChar[e.Kind])
		if e.Range != nil {
			b.WriteByte('(')
			if e.Range.Signed {
				b.WriteString(strconv.FormatInt(e.Range.Lo, 10))
				b.WriteByte(',')
				b.WriteString(strconv.FormatInt(e.Range.Hi, 10))
			} else {
				b.WriteString(strconv.FormatUint(e.Range.ULo, 10))
				b.WriteByte(',')
				b.WriteString(strconv.FormatUint(e.Range.UHi, 10))
			}
			b.WriteByte(')')
		}
	}
	if e.ArrayLen > 0 {
		b.WriteByte('[')
		b.WriteString(strconv.FormatUint(uint64(e.ArrayLen), 10))
		if e.IsDynArray {
			b.WriteByte('*')
		}
		b.WriteByte(']')
	}
}

// PortSignature is the canonical routing key: port name followed by its
// resolved data signature, per the GLOSSARY definition.
func PortSignature(name string, e *dataelem.Element) string {
	return name + dataSignature(e)
}
