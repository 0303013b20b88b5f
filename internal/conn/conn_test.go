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

package conn_test

import (
	"io"
	"time"

	"github.com/cogu/goapx/internal/conn"
	"github.com/cogu/goapx/internal/filemgr"
	"github.com/cogu/goapx/internal/rmf"
	"github.com/cogu/goapx/pkg/apxctx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// loopStream synchronously forwards every Write straight into the peer
// connection's FeedBytes, simulating a connected byte stream without a
// real socket or goroutine.
type loopStream struct {
	peer *conn.Connection
}

func (s *loopStream) Write(b []byte) (int, error) {
	if err := s.peer.FeedBytes(b); err != nil {
		return 0, err
	}
	return len(b), nil
}
func (s *loopStream) Read([]byte) (int, error) { return 0, io.EOF }
func (s *loopStream) Close() error             { return nil }

type fakeClock struct {
	now   time.Time
	ticks chan time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(0, 0), ticks: make(chan time.Time, 4)} }
func (c *fakeClock) Now() time.Time                         { return c.now }
func (c *fakeClock) After(time.Duration) <-chan time.Time { return c.ticks }

func buildPair() (client, server *conn.Connection) {
	clientFiles := filemgr.New(nil)
	serverFiles := filemgr.New(nil)

	clientStream := &loopStream{}
	serverStream := &loopStream{}

	var err error
	client, err = conn.New(1, conn.RoleClient, apxctx.New(nil, nil, apxctx.RealClock()), clientStream, clientFiles, 0, 0)
	Expect(err).To(BeNil())
	server, err = conn.New(2, conn.RoleServer, apxctx.New(nil, nil, apxctx.RealClock()), serverStream, serverFiles, 0, 0)
	Expect(err).To(BeNil())

	clientStream.peer = server
	serverStream.peer = client
	return client, server
}

var _ = Describe("Connection handshake", func() {
	It("reaches ACTIVE on both sides", func() {
		client, server := buildPair()
		Expect(server.Open()).To(BeNil())
		Expect(client.Open()).To(BeNil())

		Eventually(client.State).Should(Equal(conn.StateActive))
		Eventually(server.State).Should(Equal(conn.StateActive))
	})

	It("publishes a local file and lets the peer request and read it back", func() {
		client, server := buildPair()

		var published rmf.FileInfo
		server.SetRemoteFileHandler(func(fi rmf.FileInfo) {
			published = fi
			server.Files().OnRemoteFileInfo(fi, nil)
		})

		initial := []byte{0x01, 0x02, 0x03, 0x04}
		Expect(client.Files().AttachLocalFile("TestNode.out", 0, initial, rmf.FileFixed, nil)).To(BeNil())

		Expect(server.Open()).To(BeNil())
		Expect(client.Open()).To(BeNil())
		Eventually(server.State).Should(Equal(conn.StateActive))

		Expect(published.Name).To(Equal("TestNode.out"))

		Expect(server.Files().RequestOpen(server, 0)).To(BeNil())
		got, ok := server.Files().RemoteContents(0)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(initial))
	})
})

var _ = Describe("Message-size limit", func() {
	It("rejects an outgoing message larger than max message size", func() {
		files := filemgr.New(nil)
		stream := &loopStream{}
		cn, err := conn.New(1, conn.RoleClient, apxctx.New(nil, nil, apxctx.RealClock()), stream, files, 16, 4096)
		Expect(err).To(BeNil())
		stream.peer = cn

		big := make([]byte, 64)
		cerr := cn.TransmitCommand(big)
		Expect(cerr).ToNot(BeNil())
		Expect(cerr.Kind().String()).To(Equal("msg-too-large"))
	})
})

var _ = Describe("Heartbeat timeout", func() {
	It("closes the connection once 2x the heartbeat interval elapses without traffic", func() {
		clientFiles := filemgr.New(nil)
		serverFiles := filemgr.New(nil)
		clientStream := &loopStream{}
		serverStream := &loopStream{}

		clock := newFakeClock()
		client, err := conn.New(1, conn.RoleClient, apxctx.New(nil, nil, apxctx.RealClock()), clientStream, clientFiles, 0, 0)
		Expect(err).To(BeNil())
		server, err := conn.New(2, conn.RoleServer, apxctx.New(nil, nil, clock), serverStream, serverFiles, 0, 0)
		Expect(err).To(BeNil())
		clientStream.peer = server
		serverStream.peer = client

		Expect(server.Open()).To(BeNil())
		Expect(client.Open()).To(BeNil())
		Eventually(server.State).Should(Equal(conn.StateActive))

		clock.now = clock.now.Add(10 * time.Second)
		clock.ticks <- clock.now
		server.RunHeartbeat(3 * time.Second)

		Eventually(func() conn.State { return server.State() }, time.Second).Should(Equal(conn.StateClosed))
	})
})
