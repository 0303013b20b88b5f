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

package rmf_test

import (
	"github.com/cogu/goapx/internal/rmf"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NumHeader", func() {
	It("round-trips short and long lengths", func() {
		for _, n := range []uint32{0, 1, 127, 128, 255, 65535, 1 << 20, 0x7FFFFFFF} {
			buf, err := rmf.EncodeNumHeader(nil, n)
			Expect(err).To(BeNil())
			if n <= 0x7F {
				Expect(buf).To(HaveLen(1))
			} else {
				Expect(buf).To(HaveLen(4))
			}
			got, consumed, derr := rmf.DecodeNumHeader(buf, 0)
			Expect(derr).To(BeNil())
			Expect(got).To(Equal(n))
			Expect(consumed).To(Equal(len(buf)))
		}
	})

	It("rejects a length above the 31-bit range", func() {
		_, err := rmf.EncodeNumHeader(nil, 0x80000000)
		Expect(err).ToNot(BeNil())
		Expect(err.Kind().String()).To(Equal("msg-too-large"))
	})
})

var _ = Describe("Address codec", func() {
	It("round-trips every address/more-bit combination and picks the right width", func() {
		cases := []struct {
			addr uint32
			more bool
		}{
			{0, false}, {0x3FFF, false}, {0x3FFF, true}, {0x4000, false}, {0x3FFFFFFF, true},
		}
		for _, c := range cases {
			buf := rmf.EncodeAddress(nil, c.addr, c.more)
			if c.addr <= 0x3FFF && !c.more {
				Expect(buf).To(HaveLen(2))
			} else {
				Expect(buf).To(HaveLen(4))
			}
			addr, more, next, err := rmf.DecodeAddress(buf, 0)
			Expect(err).To(BeNil())
			Expect(addr).To(Equal(c.addr))
			Expect(more).To(Equal(c.more))
			Expect(next).To(Equal(len(buf)))
		}
	})
})

var _ = Describe("Command frames", func() {
	It("round-trips FILE_INFO with a NUL terminator", func() {
		fi := rmf.FileInfo{Address: 0, Size: 4, Type: rmf.FileFixed, Name: "TestNode.out"}
		body, err := rmf.EncodeFileInfo(fi)
		Expect(err).To(BeNil())

		cmd, rest, derr := rmf.DecodeCommandType(body)
		Expect(derr).To(BeNil())
		Expect(cmd).To(Equal(rmf.CmdFileInfo))

		back, ferr := rmf.DecodeFileInfo(rest)
		Expect(ferr).To(BeNil())
		Expect(back.Name).To(Equal("TestNode.out"))
		Expect(back.Address).To(Equal(uint32(0)))
		Expect(back.Size).To(Equal(uint32(4)))
	})

	It("tolerates a FILE_INFO name without a trailing NUL", func() {
		fi := rmf.FileInfo{Address: 4, Size: 2, Name: "Legacy"}
		body, _ := rmf.EncodeFileInfo(fi)
		_, rest, _ := rmf.DecodeCommandType(body)
		noNul := rest[:len(rest)-1]
		back, err := rmf.DecodeFileInfo(noNul)
		Expect(err).To(BeNil())
		Expect(back.Name).To(Equal("Legacy"))
	})

	It("recognizes the literal ACK payload", func() {
		Expect(rmf.IsAck(rmf.EncodeAck())).To(BeTrue())
		Expect(rmf.IsAck([]byte{1, 2, 3, 4, 5, 6, 7, 8})).To(BeFalse())
	})
})

var _ = Describe("Greeting", func() {
	It("accepts both the legacy and current header formats", func() {
		_, ok := rmf.ParseGreeting(rmf.BuildGreeting())
		Expect(ok).To(BeTrue())

		legacy, ok := rmf.ParseGreeting(rmf.GreetingLine + rmf.LegacyHeaderLine)
		Expect(ok).To(BeTrue())
		Expect(legacy).To(BeTrue())
	})
})
