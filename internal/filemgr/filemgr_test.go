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

package filemgr_test

import (
	"github.com/cogu/goapx/internal/filemgr"
	"github.com/cogu/goapx/internal/rmf"
	"github.com/cogu/goapx/pkg/apxerr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// loopback feeds everything transmitted on one side straight into the
// peer manager's MessageReceived, as if a byte stream connected them.
type loopback struct {
	peer  *filemgr.Manager
	mores []bool
}

func (l *loopback) TransmitCommand(payload []byte) apxerr.Error {
	return l.peer.MessageReceived(rmf.CommandAddress, payload)
}

func (l *loopback) TransmitData(address uint32, more bool, data []byte) apxerr.Error {
	l.mores = append(l.mores, more)
	return l.peer.MessageReceived(address, data)
}

var _ = Describe("Manager", func() {
	It("publishes then opens a file end to end (scenario: publish then open)", func() {
		client := filemgr.New(nil)
		server := filemgr.New(nil)

		clientTx := &loopback{peer: server}
		serverTx := &loopback{peer: client}

		var published rmf.FileInfo
		server.SetCallbacks(func(fi rmf.FileInfo) {
			published = fi
			server.OnRemoteFileInfo(fi, nil)
		}, nil, nil)

		client.SetCallbacks(nil, func(address uint32) {
			Expect(client.OnOpenRequest(clientTx, address)).To(BeNil())
		}, nil)

		initial := []byte{0x01, 0x02, 0x03, 0x04}
		Expect(client.AttachLocalFile("TestNode.out", 0, initial, rmf.FileFixed, nil)).To(BeNil())
		Expect(client.AnnounceAllLocal(clientTx)).To(BeNil())

		Expect(published.Name).To(Equal("TestNode.out"))
		Expect(published.Address).To(Equal(uint32(0)))
		Expect(published.Size).To(Equal(uint32(4)))

		Expect(server.RequestOpen(serverTx, 0)).To(BeNil())

		got, ok := server.RemoteContents(0)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(initial))
	})

	It("chunks a large initial payload across maxChunkBytes-sized data frames with the more-bit set", func() {
		client := filemgr.New(nil)
		server := filemgr.New(nil)
		clientTx := &loopback{peer: server}

		server.SetCallbacks(func(fi rmf.FileInfo) {
			server.OnRemoteFileInfo(fi, nil)
		}, nil, nil)

		big := make([]byte, 300)
		for i := range big {
			big[i] = byte(i)
		}
		Expect(client.AttachLocalFile("Big.out", 0, big, rmf.FileFixed, nil)).To(BeNil())
		Expect(client.AnnounceAllLocal(clientTx)).To(BeNil())
		Expect(client.OnOpenRequest(clientTx, 0)).To(BeNil())
		Expect(clientTx.mores).To(Equal([]bool{true, false}))

		got, ok := server.RemoteContents(0)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(big))
	})

	It("invokes the write handler in transmission order", func() {
		server := filemgr.New(nil)
		var seen [][]byte
		server.OnRemoteFileInfo(rmf.FileInfo{Address: 0, Size: 6, Name: "X.out"}, func(offset int, data []byte) {
			seen = append(seen, append([]byte(nil), data...))
		})

		Expect(server.MessageReceived(0, []byte{1, 2, 3})).To(BeNil())
		Expect(server.MessageReceived(3, []byte{4, 5, 6})).To(BeNil())

		Expect(seen).To(HaveLen(2))
		Expect(seen[0]).To(Equal([]byte{1, 2, 3}))
		Expect(seen[1]).To(Equal([]byte{4, 5, 6}))

		got, _ := server.RemoteContents(0)
		Expect(got).To(Equal([]byte{1, 2, 3, 4, 5, 6}))
	})

	It("rejects a write that exceeds the file's bounds", func() {
		server := filemgr.New(nil)
		server.OnRemoteFileInfo(rmf.FileInfo{Address: 0, Size: 2, Name: "X.out"}, nil)
		err := server.MessageReceived(0, []byte{1, 2, 3})
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Allocator", func() {
	It("bump-allocates port-data addresses on 1KiB boundaries", func() {
		a := filemgr.NewAllocator()
		first := a.AllocatePortData(4)
		second := a.AllocatePortData(4)
		Expect(first).To(Equal(uint32(0)))
		Expect(second).To(Equal(uint32(filemgr.PortDataAlign)))
	})

	It("bump-allocates definition-file addresses on 1MiB boundaries", func() {
		a := filemgr.NewAllocator()
		first := a.AllocateDefFile(10)
		second := a.AllocateDefFile(10)
		Expect(first).To(Equal(uint32(filemgr.DefFileBase)))
		Expect(second).To(Equal(uint32(filemgr.DefFileBase + filemgr.DefFileAlign)))
	})
})
