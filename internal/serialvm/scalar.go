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
	"encoding/binary"

	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/pkg/apxerr"
	"github.com/cogu/goapx/pkg/dynval"
)

// encodeScalar appends one wire-encoded scalar of kind k, taken from v, to
// buf. All multi-byte scalars are little-endian, per spec §4.2.
func encodeScalar(k dataelem.Kind, v *dynval.Value, buf []byte) ([]byte, apxerr.Error) {
	switch k {
	case dataelem.KindBool:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil

	case dataelem.KindByte, dataelem.KindChar, dataelem.KindChar8, dataelem.KindU8:
		u, err := v.Uint()
		if err != nil {
			return nil, err
		}
		return append(buf, byte(u)), nil

	case dataelem.KindI8:
		i, err := v.Int()
		if err != nil {
			return nil, err
		}
		return append(buf, byte(int8(i))), nil

	case dataelem.KindU16, dataelem.KindChar16:
		u, err := v.Uint()
		if err != nil {
			return nil, err
		}
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(u))
		return append(buf, tmp[:]...), nil

	case dataelem.KindI16:
		i, err := v.Int()
		if err != nil {
			return nil, err
		}
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(int16(i)))
		return append(buf, tmp[:]...), nil

	case dataelem.KindU32, dataelem.KindChar32:
		u, err := v.Uint()
		if err != nil {
			return nil, err
		}
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(u))
		return append(buf, tmp[:]...), nil

	case dataelem.KindI32:
		i, err := v.Int()
		if err != nil {
			return nil, err
		}
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(int32(i)))
		return append(buf, tmp[:]...), nil

	case dataelem.KindU64:
		u, err := v.Uint()
		if err != nil {
			return nil, err
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], u)
		return append(buf, tmp[:]...), nil

	case dataelem.KindI64:
		i, err := v.Int()
		if err != nil {
			return nil, err
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(i))
		return append(buf, tmp[:]...), nil

	default:
		return nil, apxerr.Newf(apxerr.KindInternal, "unsupported scalar kind %d", k)
	}
}

// decodeScalar reads one scalar of kind k from data starting at off,
// returning the reconstructed value and the offset just past it.
func decodeScalar(k dataelem.Kind, data []byte, off int) (*dynval.Value, int, apxerr.Error) {
	need := k.BaseSize()
	if off+need > len(data) {
		return nil, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for scalar")
	}
	switch k {
	case dataelem.KindBool:
		return dynval.Bool(data[off] != 0), off + 1, nil
	case dataelem.KindByte, dataelem.KindChar, dataelem.KindChar8, dataelem.KindU8:
		return dynval.Uint(uint64(data[off])), off + 1, nil
	case dataelem.KindI8:
		return dynval.Int(int64(int8(data[off]))), off + 1, nil
	case dataelem.KindU16, dataelem.KindChar16:
		return dynval.Uint(uint64(binary.LittleEndian.Uint16(data[off:]))), off + 2, nil
	case dataelem.KindI16:
		return dynval.Int(int64(int16(binary.LittleEndian.Uint16(data[off:])))), off + 2, nil
	case dataelem.KindU32, dataelem.KindChar32:
		return dynval.Uint(uint64(binary.LittleEndian.Uint32(data[off:]))), off + 4, nil
	case dataelem.KindI32:
		return dynval.Int(int64(int32(binary.LittleEndian.Uint32(data[off:])))), off + 4, nil
	case dataelem.KindU64:
		return dynval.Uint(binary.LittleEndian.Uint64(data[off:])), off + 8, nil
	case dataelem.KindI64:
		return dynval.Int(int64(binary.LittleEndian.Uint64(data[off:]))), off + 8, nil
	default:
		return nil, 0, apxerr.Newf(apxerr.KindInternal, "unsupported scalar kind %d", k)
	}
}

// checkRange enforces the inlined [Lo,Hi]/[ULo,UHi] bound. Used both before
// a pack write and after an unpack read, per spec §4.2.
func checkRange(r *dataelem.Range, v *dynval.Value, k dataelem.Kind) apxerr.Error {
	if r.Signed {
		i, err := v.Int()
		if err != nil {
			return err
		}
		if i < r.Lo || i > r.Hi {
			return apxerr.Newf(apxerr.KindValueRange, "value %d outside range [%d,%d]", i, r.Lo, r.Hi)
		}
		return nil
	}
	u, err := v.Uint()
	if err != nil {
		return err
	}
	if u < r.ULo || u > r.UHi {
		return apxerr.Newf(apxerr.KindValueRange, "value %d outside range [%d,%d]", u, r.ULo, r.UHi)
	}
	return nil
}

func appendLenPrefix(buf []byte, n uint32, width int) []byte {
	switch width {
	case 1:
		return append(buf, byte(n))
	case 2:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(n))
		return append(buf, tmp[:]...)
	default:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], n)
		return append(buf, tmp[:]...)
	}
}

func readLenPrefix(data []byte, off int, width int) (uint32, int, apxerr.Error) {
	if off+width > len(data) {
		return 0, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for array length prefix")
	}
	switch width {
	case 1:
		return uint32(data[off]), off + 1, nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(data[off:])), off + 2, nil
	default:
		return binary.LittleEndian.Uint32(data[off:]), off + 4, nil
	}
}
