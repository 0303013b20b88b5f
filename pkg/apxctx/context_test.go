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

package apxctx_test

import (
	"time"

	"github.com/cogu/goapx/pkg/apxctx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Context", func() {
	It("defaults a nil logger and clock", func() {
		c := apxctx.New(nil, nil, nil)
		Expect(c.Log).ToNot(BeNil())
		Expect(c.Clock).ToNot(BeNil())
		Expect(c.Clock.Now()).To(BeTemporally("~", time.Now(), time.Second))
	})

	It("derives a per-connection context without mutating the parent", func() {
		c := apxctx.New(nil, nil, nil)
		child := c.WithConn(3, "trace-abc")
		Expect(child).ToNot(BeIdenticalTo(c))
		Expect(child.Clock).To(Equal(c.Clock))
	})
})
