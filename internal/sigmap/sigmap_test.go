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

package sigmap_test

import (
	"github.com/cogu/goapx/internal/sigmap"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Map", func() {
	provider := sigmap.PortRef{NodeName: "Provider", PortName: "VehicleSpeed"}
	requirer := sigmap.PortRef{NodeName: "Consumer", PortName: "VehicleSpeed"}
	const sig = "VehicleSpeedS"

	It("produces exactly one connector-change record on each side when matched", func() {
		m := sigmap.New(nil)
		m.AttachRequirePort(sig, requirer)
		events := m.AttachProvidePort(sig, provider)

		var forProvider, forRequirer int
		for _, e := range events {
			if e.Port == provider {
				forProvider++
			}
			if e.Port == requirer {
				forRequirer++
			}
			Expect(e.Gained).To(BeTrue())
		}
		Expect(forProvider).To(Equal(1))
		Expect(forRequirer).To(Equal(1))
	})

	It("lets the earliest-bound provider win and holds a second one pending", func() {
		m := sigmap.New(nil)
		first := sigmap.PortRef{NodeName: "A", PortName: "X"}
		second := sigmap.PortRef{NodeName: "B", PortName: "X"}

		events1 := m.AttachProvidePort(sig, first)
		Expect(events1).To(BeEmpty())

		events2 := m.AttachProvidePort(sig, second)
		Expect(events2).To(BeEmpty())

		bound := m.AttachRequirePort(sig, requirer)
		Expect(bound).To(HaveLen(2))
		Expect(bound[0].Port).To(Equal(requirer))
		Expect(bound[0].Peer).To(Equal(first))

		events := m.AttachRequirePort("otherSig", requirer)
		Expect(events).To(BeEmpty())
	})

	It("promotes a pending provider on detach of the active one", func() {
		m := sigmap.New(nil)
		first := sigmap.PortRef{NodeName: "A", PortName: "X"}
		second := sigmap.PortRef{NodeName: "B", PortName: "X"}

		m.AttachProvidePort(sig, first)
		m.AttachProvidePort(sig, second)
		m.AttachRequirePort(sig, requirer)

		events := m.DetachProvidePort(sig, first)
		var gainedSecond bool
		for _, e := range events {
			if e.Gained && e.Peer == second {
				gainedSecond = true
			}
		}
		Expect(gainedSecond).To(BeTrue())
	})

	It("removes the entry once both sides are empty", func() {
		m := sigmap.New(nil)
		m.AttachProvidePort(sig, provider)
		m.AttachRequirePort(sig, requirer)
		Expect(m.Len()).To(Equal(1))

		m.DetachRequirePort(sig, requirer)
		m.DetachProvidePort(sig, provider)
		Expect(m.Len()).To(Equal(0))
	})
})
