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

package apxlog_test

import (
	"bytes"

	"github.com/cogu/goapx/pkg/apxlog"
	"github.com/hashicorp/go-hclog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logger", func() {
	It("writes named, leveled output", func() {
		var buf bytes.Buffer
		l := apxlog.New("apxd", hclog.Debug, &buf)
		l.Info("listening", "addr", ":17309")
		Expect(buf.String()).To(ContainSubstring("listening"))
		Expect(buf.String()).To(ContainSubstring("apxd"))
	})

	It("discards everything", func() {
		l := apxlog.Discard()
		Expect(func() { l.Info("nothing") }).ToNot(Panic())
	})

	It("tags child loggers without mutating the parent", func() {
		var buf bytes.Buffer
		root := apxlog.New("apxd", hclog.Debug, &buf)
		child := root.WithConn(7, "trace-123")
		child.Info("hello")
		Expect(buf.String()).To(ContainSubstring("conn_id=7"))
		Expect(buf.String()).To(ContainSubstring("trace-123"))

		buf.Reset()
		root.Info("unrelated")
		Expect(buf.String()).ToNot(ContainSubstring("trace-123"))
	})

	It("tags ports and files", func() {
		var buf bytes.Buffer
		root := apxlog.New("apxd", hclog.Debug, &buf)
		root.WithPort("VehicleSpeed\"S\"").Info("bound")
		Expect(buf.String()).To(ContainSubstring("port_signature"))

		buf.Reset()
		root.WithFile("TestNode.out", 0x4000000).Info("opened")
		Expect(buf.String()).To(ContainSubstring("address=67108864"))
	})
})
