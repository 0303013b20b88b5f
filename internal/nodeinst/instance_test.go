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

package nodeinst_test

import (
	"github.com/cogu/goapx/internal/apxtext"
	"github.com/cogu/goapx/internal/nodeinst"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildNode(text string) *nodeinst.Instance {
	n, err := apxtext.Parse(text)
	Expect(err).To(BeNil())
	Expect(n.Finalize()).To(BeNil())
	inst, ierr := nodeinst.Build(n)
	Expect(ierr).To(BeNil())
	return inst
}

var _ = Describe("Instance", func() {
	It("concatenates per-port init bytes into provide_data", func() {
		inst := buildNode("APX/1.2\nN\"TestNode1\"\nP\"VehicleSpeed\"S:=65535\nP\"EngineSpeed\"S:=65535\n")
		Expect(inst.ProvideDataSize()).To(Equal(4))
		b, err := inst.ReadProvideData(0, 4)
		Expect(err).To(BeNil())
		Expect(b).To(Equal([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	})

	It("zero-initializes a port without an init literal", func() {
		inst := buildNode("APX/1.2\nN\"TestNode1\"\nP\"X\"L\n")
		b, err := inst.ReadProvideData(0, 4)
		Expect(err).To(BeNil())
		Expect(b).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("writes and marks the owning port dirty", func() {
		inst := buildNode("APX/1.2\nN\"TestNode1\"\nP\"VehicleSpeed\"S\n")
		Expect(inst.WriteProvideData(0, []byte{0x34, 0x12})).To(BeNil())
		p, err := inst.ProvidePort("VehicleSpeed")
		Expect(err).To(BeNil())
		Expect(p.Dirty).To(BeTrue())
	})

	It("returns not-found for an unknown port name", func() {
		inst := buildNode("APX/1.2\nN\"TestNode1\"\nP\"X\"C\n")
		_, err := inst.ProvidePort("Y")
		Expect(err).ToNot(BeNil())
		Expect(err.Kind().String()).To(Equal("not-found"))
	})

	It("drains accumulated connector changes", func() {
		inst := buildNode("APX/1.2\nN\"TestNode1\"\nP\"X\"C\n")
		inst.RecordChange(nodeinst.ConnectorChange{PortName: "X", Added: true, Peer: "peer1"})
		changes := inst.DrainChanges()
		Expect(changes).To(HaveLen(1))
		Expect(inst.DrainChanges()).To(BeEmpty())
	})
})
