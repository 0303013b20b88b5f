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

package serialvm

import (
	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/pkg/apxerr"
	"github.com/cogu/goapx/pkg/dynval"
)

// Pack encodes v against p, returning the wire bytes. Pack is pure: on
// failure the returned buffer is discarded by the caller and no partial
// write is observable.
func Pack(p *Program, v *dynval.Value) ([]byte, apxerr.Error) {
	buf := make([]byte, 0, p.PackedSize)
	buf, pos, err := packValue(p.Instr, 0, v, buf)
	if err != nil {
		return nil, err
	}
	if pos != len(p.Instr) {
		return nil, apxerr.New(apxerr.KindInternal, "program not fully consumed by pack")
	}
	return buf, nil
}

// Unpack decodes data against p, returning the reconstructed value tree.
// The whole of data must belong to this one instance (callers slice the
// port buffer to PackedSize before calling). A dynamic array's unused
// element slots are always present on the wire as padding; Unpack skips
// over them so byte offsets stay aligned with PackedSize.
func Unpack(p *Program, data []byte) (*dynval.Value, apxerr.Error) {
	v, pos, _, err := unpackValue(p.Instr, 0, data, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(p.Instr) {
		return nil, apxerr.New(apxerr.KindInternal, "program not fully consumed by unpack")
	}
	return v, nil
}

// packValue consumes exactly one value starting at instrs[pos], returning
// the buffer with the encoded bytes appended and the instruction index
// just past the value (including its matching End marker, if any).
func packValue(instrs []Instr, pos int, v *dynval.Value, buf []byte) ([]byte, int, apxerr.Error) {
	if pos >= len(instrs) {
		return nil, 0, apxerr.New(apxerr.KindInternal, "program exhausted mid-value")
	}
	ins := instrs[pos]
	switch ins.Op {
	case OpArrayBegin:
		arr, verr := v.Array()
		if verr != nil {
			return nil, 0, verr
		}
		n := uint32(len(arr))
		if ins.IsDynArray {
			if n > ins.MaxN {
				return nil, 0, apxerr.Newf(apxerr.KindArrayLength, "array length %d exceeds declared max %d", n, ins.MaxN)
			}
			buf = appendLenPrefix(buf, n, LengthPrefixWidth(ins.MaxN))
		} else if n != ins.MaxN {
			return nil, 0, apxerr.Newf(apxerr.KindArrayLength, "fixed array length %d does not match declared %d", n, ins.MaxN)
		}
		innerStart := pos + 1
		endPos := skipValue(instrs, innerStart)
		for i := 0; i < int(n); i++ {
			var err apxerr.Error
			buf, _, err = packValue(instrs, innerStart, arr[i], buf)
			if err != nil {
				return nil, 0, err
			}
		}
		if ins.IsDynArray {
			// spec §4.2: a dynamic array's element region is always
			// max_N wide on the wire; pad the unused tail with zeroed
			// elements so output length matches PackedSize.
			pad := zeroValue(instrs, innerStart)
			for i := n; i < ins.MaxN; i++ {
				var err apxerr.Error
				buf, _, err = packValue(instrs, innerStart, pad, buf)
				if err != nil {
					return nil, 0, err
				}
			}
		}
		if endPos >= len(instrs) || instrs[endPos].Op != OpArrayEnd {
			return nil, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected array end")
		}
		return buf, endPos + 1, nil

	case OpRecordBegin:
		h, verr := v.Hash()
		if verr != nil {
			return nil, 0, verr
		}
		pos++
		for f := 0; f < ins.NumFields; f++ {
			if instrs[pos].Op != OpFieldBegin {
				return nil, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected field begin")
			}
			name := instrs[pos].FieldName
			pos++
			fv, ok := h.Get(name)
			if !ok {
				return nil, 0, apxerr.Newf(apxerr.KindNotFound, "missing record field %q", name)
			}
			var err apxerr.Error
			buf, pos, err = packValue(instrs, pos, fv, buf)
			if err != nil {
				return nil, 0, err
			}
			if instrs[pos].Op != OpFieldEnd {
				return nil, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected field end")
			}
			pos++
		}
		if instrs[pos].Op != OpRecordEnd {
			return nil, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected record end")
		}
		return buf, pos + 1, nil

	case OpScalar:
		var rng *dataelem.Range
		if pos+1 < len(instrs) && instrs[pos+1].Op == OpRangeCheck {
			rng = instrs[pos+1].Rng
		}
		if rng != nil {
			if err := checkRange(rng, v, ins.Kind); err != nil {
				return nil, 0, err
			}
		}
		nbuf, err := encodeScalar(ins.Kind, v, buf)
		if err != nil {
			return nil, 0, err
		}
		pos++
		if rng != nil {
			pos++
		}
		return nbuf, pos, nil

	default:
		return nil, 0, apxerr.New(apxerr.KindInternal, "unexpected opcode at value start")
	}
}

// skipValue returns the instruction index just past the value beginning at
// pos (past its End marker, or, for a bare scalar, past its optional range
// check), without touching any buffer. Used to locate the end of a
// repeated array element without re-decoding it n times.
func skipValue(instrs []Instr, pos int) int {
	ins := instrs[pos]
	switch ins.Op {
	case OpArrayBegin:
		end := skipValue(instrs, pos+1)
		return end + 1
	case OpRecordBegin:
		p := pos + 1
		for instrs[p].Op == OpFieldBegin {
			p++
			p = skipValue(instrs, p) + 1
		}
		return p + 1
	case OpScalar:
		p := pos + 1
		if p < len(instrs) && instrs[p].Op == OpRangeCheck {
			p++
		}
		return p
	}
	return pos
}

// zeroValue builds the default value for the instruction range starting at
// pos, mirroring nodeinst.zeroOf but working from compiled instructions.
// packValue uses it to fill a dynamic array's unused element slots.
func zeroValue(instrs []Instr, pos int) *dynval.Value {
	ins := instrs[pos]
	switch ins.Op {
	case OpArrayBegin:
		innerStart := pos + 1
		if ins.IsDynArray {
			return dynval.Array()
		}
		items := make([]*dynval.Value, ins.MaxN)
		for i := range items {
			items[i] = zeroValue(instrs, innerStart)
		}
		return dynval.Array(items...)
	case OpRecordBegin:
		h := dynval.NewHash()
		hv, _ := h.Hash()
		p := pos + 1
		for f := 0; f < ins.NumFields; f++ {
			name := instrs[p].FieldName
			p++
			hv.Set(name, zeroValue(instrs, p))
			p = skipValue(instrs, p) + 1
		}
		return h
	default: // OpScalar
		switch ins.Kind {
		case dataelem.KindBool:
			return dynval.Bool(false)
		case dataelem.KindI8, dataelem.KindI16, dataelem.KindI32, dataelem.KindI64:
			return dynval.Int(0)
		default:
			return dynval.Uint(0)
		}
	}
}

// instrSize returns the fixed wire width of the value described by
// instrs[pos:]. Dynamic arrays are always padded to max_N elements on the
// wire (see packValue/zeroValue), so this is a pure function of the
// instruction stream with no dependency on any particular instance.
func instrSize(instrs []Instr, pos int) int {
	ins := instrs[pos]
	switch ins.Op {
	case OpArrayBegin:
		unit := instrSize(instrs, pos+1)
		total := unit * int(ins.MaxN)
		if ins.IsDynArray {
			total += LengthPrefixWidth(ins.MaxN)
		}
		return total
	case OpRecordBegin:
		total := 0
		p := pos + 1
		for f := 0; f < ins.NumFields; f++ {
			p++ // OpFieldBegin
			total += instrSize(instrs, p)
			p = skipValue(instrs, p) + 1 // OpFieldEnd
		}
		return total
	default: // OpScalar
		return ins.Kind.BaseSize()
	}
}

// unpackValue consumes exactly one value starting at instrs[pos] and
// data[off:], returning the decoded value, the instruction index and byte
// offset just past it.
func unpackValue(instrs []Instr, pos int, data []byte, off int) (*dynval.Value, int, int, apxerr.Error) {
	if pos >= len(instrs) {
		return nil, 0, 0, apxerr.New(apxerr.KindInternal, "program exhausted mid-value")
	}
	ins := instrs[pos]
	switch ins.Op {
	case OpArrayBegin:
		var n uint32
		var err apxerr.Error
		if ins.IsDynArray {
			n, off, err = readLenPrefix(data, off, LengthPrefixWidth(ins.MaxN))
			if err != nil {
				return nil, 0, 0, err
			}
			if n > ins.MaxN {
				return nil, 0, 0, apxerr.Newf(apxerr.KindArrayLength, "array length %d exceeds declared max %d", n, ins.MaxN)
			}
		} else {
			n = ins.MaxN
		}
		innerStart := pos + 1
		items := make([]*dynval.Value, 0, n)
		var item *dynval.Value
		for i := uint32(0); i < n; i++ {
			item, _, off, err = unpackValue(instrs, innerStart, data, off)
			if err != nil {
				return nil, 0, 0, err
			}
			items = append(items, item)
		}
		if ins.IsDynArray && n < ins.MaxN {
			// the element region is always max_N wide on the wire; skip
			// the unused tail so a sibling value after this array stays
			// aligned.
			off += instrSize(instrs, innerStart) * int(ins.MaxN-n)
		}
		endPos := skipValue(instrs, innerStart)
		if endPos >= len(instrs) || instrs[endPos].Op != OpArrayEnd {
			return nil, 0, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected array end")
		}
		return dynval.Array(items...), endPos + 1, off, nil

	case OpRecordBegin:
		h := dynval.NewHash()
		hv, _ := h.Hash()
		pos++
		for f := 0; f < ins.NumFields; f++ {
			if instrs[pos].Op != OpFieldBegin {
				return nil, 0, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected field begin")
			}
			name := instrs[pos].FieldName
			pos++
			var fv *dynval.Value
			var err apxerr.Error
			fv, pos, off, err = unpackValue(instrs, pos, data, off)
			if err != nil {
				return nil, 0, 0, err
			}
			hv.Set(name, fv)
			if instrs[pos].Op != OpFieldEnd {
				return nil, 0, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected field end")
			}
			pos++
		}
		if instrs[pos].Op != OpRecordEnd {
			return nil, 0, 0, apxerr.New(apxerr.KindInternal, "malformed program: expected record end")
		}
		return h, pos + 1, off, nil

	case OpScalar:
		var rng *dataelem.Range
		if pos+1 < len(instrs) && instrs[pos+1].Op == OpRangeCheck {
			rng = instrs[pos+1].Rng
		}
		v, noff, err := decodeScalar(ins.Kind, data, off)
		if err != nil {
			return nil, 0, 0, err
		}
		if rng != nil {
			if err := checkRange(rng, v, ins.Kind); err != nil {
				return nil, 0, 0, err
			}
		}
		pos++
		if rng != nil {
			pos++
		}
		return v, pos, noff, nil

	default:
		return nil, 0, 0, apxerr.New(apxerr.KindInternal, "unexpected opcode at value start")
	}
}
