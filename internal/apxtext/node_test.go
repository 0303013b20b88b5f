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

package apxtext_test

import (
	"github.com/cogu/goapx/internal/apxtext"
	"github.com/cogu/goapx/internal/serialvm"
	"github.com/cogu/goapx/pkg/dynval"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parse and Finalize", func() {
	It("builds the minimal two-provide-port node from spec scenario 1", func() {
		text := "APX/1.2\nN\"TestNode1\"\nP\"VehicleSpeed\"S:=65535\nP\"EngineSpeed\"S:=65535\n"
		n, err := apxtext.Parse(text)
		Expect(err).To(BeNil())
		Expect(n.Finalize()).To(BeNil())

		Expect(n.ProvidePorts).To(HaveLen(2))
		Expect(n.RequirePorts).To(HaveLen(0))

		vs := n.ProvidePorts[0]
		Expect(vs.Name).To(Equal("VehicleSpeed"))
		Expect(vs.Size).To(Equal(2))

		buf, perr := serialvm.Pack(vs.Program, vs.Init)
		Expect(perr).To(BeNil())
		Expect(buf).To(Equal([]byte{0xFF, 0xFF}))
	})

	It("writes and reads back an unsigned 16", func() {
		text := "APX/1.2\nN\"TestNode1\"\nP\"VehicleSpeed\"S:=65535\n"
		n, _ := apxtext.Parse(text)
		Expect(n.Finalize()).To(BeNil())

		p := n.ProvidePorts[0]
		buf, perr := serialvm.Pack(p.Program, dynval.Uint(0x1234))
		Expect(perr).To(BeNil())
		Expect(buf).To(Equal([]byte{0x34, 0x12}))
	})

	It("rejects an out-of-range write", func() {
		text := "APX/1.2\nN\"TestNode1\"\nP\"U\"C(0,3):=0\n"
		n, _ := apxtext.Parse(text)
		Expect(n.Finalize()).To(BeNil())

		p := n.ProvidePorts[0]
		_, perr := serialvm.Pack(p.Program, dynval.Uint(3))
		Expect(perr).To(BeNil())

		_, perr = serialvm.Pack(p.Program, dynval.Uint(4))
		Expect(perr).ToNot(BeNil())
		Expect(perr.Kind().String()).To(Equal("value-range"))
	})

	It("fails with a line number on an out-of-order declaration", func() {
		text := "APX/1.2\nP\"X\"C\nN\"TestNode1\"\n"
		_, err := apxtext.Parse(text)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("resolves a named type reference", func() {
		text := "APX/1.2\nN\"TestNode1\"\nT\"U16\"S\nP\"Speed\"T[\"U16\"]\n"
		n, err := apxtext.Parse(text)
		Expect(err).To(BeNil())
		Expect(n.Finalize()).To(BeNil())
		Expect(n.ProvidePorts[0].Size).To(Equal(2))
	})

	It("fails on an unresolved type reference", func() {
		text := "APX/1.2\nN\"TestNode1\"\nP\"Speed\"T[\"Missing\"]\n"
		_, err := apxtext.Parse(text)
		Expect(err).ToNot(BeNil())
		Expect(err.Kind().String()).To(Equal("unresolved-reference"))
	})

	It("rejects queued port attributes at finalize", func() {
		text := "APX/1.2\nN\"TestNode1\"\nP\"X\"C:Q[4]\n"
		n, err := apxtext.Parse(text)
		Expect(err).To(BeNil())
		ferr := n.Finalize()
		Expect(ferr).ToNot(BeNil())
	})

	It("computes equal signatures for ports with identical shapes", func() {
		provider, _ := apxtext.Parse("APX/1.2\nN\"P1\"\nP\"VehicleSpeed\"S\n")
		Expect(provider.Finalize()).To(BeNil())
		consumer, _ := apxtext.Parse("APX/1.2\nN\"C1\"\nR\"VehicleSpeed\"S\n")
		Expect(consumer.Finalize()).To(BeNil())
		Expect(provider.ProvidePorts[0].Signature).To(Equal(consumer.RequirePorts[0].Signature))
	})
})
