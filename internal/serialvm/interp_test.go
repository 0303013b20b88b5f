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

package serialvm_test

import (
	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/internal/serialvm"
	"github.com/cogu/goapx/pkg/dynval"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pack/Unpack", func() {
	It("round-trips a plain u16", func() {
		e := &dataelem.Element{Kind: dataelem.KindU16}
		p, err := serialvm.Compile(e)
		Expect(err).To(BeNil())
		Expect(p.PackedSize).To(Equal(2))

		buf, perr := serialvm.Pack(p, dynval.Uint(0x1234))
		Expect(perr).To(BeNil())
		Expect(buf).To(Equal([]byte{0x34, 0x12}))

		v, uerr := serialvm.Unpack(p, buf)
		Expect(uerr).To(BeNil())
		u, _ := v.Uint()
		Expect(u).To(Equal(uint64(0x1234)))
	})

	It("packs and unpacks a record", func() {
		e := &dataelem.Element{Kind: dataelem.KindRecord, Fields: []dataelem.Field{
			{Name: "x", Elem: &dataelem.Element{Kind: dataelem.KindU16}},
			{Name: "y", Elem: &dataelem.Element{Kind: dataelem.KindU8}},
		}}
		p, err := serialvm.Compile(e)
		Expect(err).To(BeNil())

		h := dynval.NewHash()
		hv, _ := h.Hash()
		hv.Set("x", dynval.Uint(0x1234))
		hv.Set("y", dynval.Uint(9))

		buf, perr := serialvm.Pack(p, h)
		Expect(perr).To(BeNil())
		Expect(buf).To(Equal([]byte{0x34, 0x12, 9}))

		v, uerr := serialvm.Unpack(p, buf)
		Expect(uerr).To(BeNil())
		back, _ := v.Hash()
		xv, _ := back.Get("x")
		x, _ := xv.Uint()
		Expect(x).To(Equal(uint64(0x1234)))
	})

	It("enforces range checks on pack and unpack", func() {
		e := &dataelem.Element{Kind: dataelem.KindU8, Range: &dataelem.Range{Signed: false, ULo: 0, UHi: 3}}
		p, _ := serialvm.Compile(e)

		_, perr := serialvm.Pack(p, dynval.Uint(4))
		Expect(perr).ToNot(BeNil())
		Expect(perr.Kind().String()).To(Equal("value-range"))

		buf, _ := serialvm.Pack(p, dynval.Uint(3))
		_, uerr := serialvm.Unpack(p, buf)
		Expect(uerr).To(BeNil())

		_, uerr = serialvm.Unpack(p, []byte{4})
		Expect(uerr).ToNot(BeNil())
		Expect(uerr.Kind().String()).To(Equal("value-range"))
	})

	It("rejects a dynamic array over its declared max and accepts at the boundary", func() {
		e := &dataelem.Element{Kind: dataelem.KindU8, ArrayLen: 255, IsDynArray: true}
		p, err := serialvm.Compile(e)
		Expect(err).To(BeNil())

		items := make([]*dynval.Value, 255)
		for i := range items {
			items[i] = dynval.Uint(uint64(i % 256))
		}
		buf, perr := serialvm.Pack(p, dynval.Array(items...))
		Expect(perr).To(BeNil())
		Expect(buf[0]).To(Equal(byte(255)))

		v, uerr := serialvm.Unpack(p, buf)
		Expect(uerr).To(BeNil())
		back, _ := v.Array()
		Expect(back).To(HaveLen(255))

		over := append(items, dynval.Uint(1))
		_, perr = serialvm.Pack(p, dynval.Array(over...))
		Expect(perr).ToNot(BeNil())
		Expect(perr.Kind().String()).To(Equal("array-length"))
	})

	It("widens the length prefix at the 256 boundary", func() {
		e256 := &dataelem.Element{Kind: dataelem.KindU8, ArrayLen: 256, IsDynArray: true}
		p, _ := serialvm.Compile(e256)
		items := make([]*dynval.Value, 256)
		for i := range items {
			items[i] = dynval.Uint(0)
		}
		buf, perr := serialvm.Pack(p, dynval.Array(items...))
		Expect(perr).To(BeNil())
		Expect(len(buf)).To(Equal(2 + 256))
	})
})
