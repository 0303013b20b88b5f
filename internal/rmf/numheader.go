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

// Package rmf implements the RMF wire codec: NumHeader length framing, the
// variable-width address encoding, and command-frame bodies, per spec
// §4.5 and §4.8.
package rmf

import (
	"encoding/binary"

	"github.com/cogu/goapx/pkg/apxerr"
)

// MaxMessageSize bounds a single NumHeader-framed message. Frames claiming
// a larger length fail with msg-too-large and the connection closes.
const MaxMessageSize = 256 * 1024

// EncodeNumHeader appends the self-delimiting length prefix for n to buf.
// n must fit in 31 bits (the top bit is reserved as the long-form flag).
func EncodeNumHeader(buf []byte, n uint32) ([]byte, apxerr.Error) {
	if n > 0x7FFFFFFF {
		return nil, apxerr.Newf(apxerr.KindMsgTooLarge, "length %d exceeds NumHeader range", n)
	}
	if n <= 0x7F {
		return append(buf, byte(n)), nil
	}
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], n|0x80000000)
	return append(buf, tmp[:]...), nil
}

// DecodeNumHeader reads one NumHeader length prefix from data starting at
// off, returning the length and the offset just past the prefix.
func DecodeNumHeader(data []byte, off int) (uint32, int, apxerr.Error) {
	if off >= len(data) {
		return 0, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for NumHeader")
	}
	if data[off]&0x80 == 0 {
		return uint32(data[off]), off + 1, nil
	}
	if off+4 > len(data) {
		return 0, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for long NumHeader")
	}
	n := binary.BigEndian.Uint32(data[off:off+4]) &^ 0x80000000
	return n, off + 4, nil
}

// CommandAddress is the reserved write address for command frames.
const CommandAddress uint32 = 0x3F000000

const moreBit uint32 = 1 << 30

// EncodeAddress appends the variable-length RMF address header for addr,
// per §4.5: 2 bytes big-endian when addr fits in 14 bits and more is
// false, else 4 bytes big-endian with bit 30 carrying the more-bit.
func EncodeAddress(buf []byte, addr uint32, more bool) []byte {
	if addr <= 0x3FFF && !more {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(addr))
		return append(buf, tmp[:]...)
	}
	v := addr | 0x80000000
	if more {
		v |= moreBit
	}
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// DecodeAddress reads a variable-length RMF address starting at off.
func DecodeAddress(data []byte, off int) (addr uint32, more bool, next int, err apxerr.Error) {
	if off >= len(data) {
		return 0, false, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for address header")
	}
	if data[off]&0x80 == 0 {
		if off+2 > len(data) {
			return 0, false, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for short address")
		}
		addr = uint32(binary.BigEndian.Uint16(data[off : off+2]))
		return addr, false, off + 2, nil
	}
	if off+4 > len(data) {
		return 0, false, 0, apxerr.New(apxerr.KindUnexpectedEnd, "buffer too short for long address")
	}
	v := binary.BigEndian.Uint32(data[off : off+4])
	more = v&moreBit != 0
	addr = v &^ (0x80000000 | moreBit)
	return addr, more, off + 4, nil
}
