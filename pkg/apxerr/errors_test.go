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

package apxerr_test

import (
	goerrors "errors"

	"github.com/cogu/goapx/pkg/apxerr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	It("carries its kind", func() {
		e := apxerr.New(apxerr.KindValueRange, "value out of range")
		Expect(e.Kind()).To(Equal(apxerr.KindValueRange))
		Expect(e.HasKind(apxerr.KindValueRange)).To(BeTrue())
		Expect(e.HasKind(apxerr.KindParse)).To(BeFalse())
	})

	It("chains parents and reports HasKind through the chain", func() {
		root := apxerr.New(apxerr.KindIO, "socket closed")
		wrapped := apxerr.New(apxerr.KindInternal, "flush failed", root)

		Expect(wrapped.HasKind(apxerr.KindIO)).To(BeTrue())
		Expect(wrapped.Parents()).To(HaveLen(1))
	})

	It("wraps plain errors without double-wrapping apxerr.Error", func() {
		plain := goerrors.New("boom")
		wrapped := apxerr.Make(plain)
		Expect(wrapped.Kind()).To(Equal(apxerr.KindUnknown))

		again := apxerr.Make(wrapped)
		Expect(again).To(BeIdenticalTo(wrapped))
	})

	It("supports errors.As via Error interface", func() {
		e := apxerr.New(apxerr.KindNotFound, "missing port")
		var target apxerr.Error
		Expect(goerrors.As(error(e), &target)).To(BeTrue())
		Expect(target.Kind()).To(Equal(apxerr.KindNotFound))
	})

	It("records a call-site trace", func() {
		e := apxerr.New(apxerr.KindParse, "bad line")
		Expect(e.Trace()).To(ContainSubstring("errors_test.go"))
	})
})

var _ = Describe("package helpers", func() {
	It("Is finds a kind anywhere in the chain", func() {
		root := apxerr.New(apxerr.KindArrayLength, "too many elements")
		wrapped := apxerr.New(apxerr.KindInternal, "unpack failed", root)

		Expect(apxerr.Is(wrapped, apxerr.KindArrayLength)).To(BeTrue())
		Expect(apxerr.Is(wrapped, apxerr.KindMemory)).To(BeFalse())
	})

	It("KindOf returns KindUnknown for plain errors", func() {
		Expect(apxerr.KindOf(goerrors.New("plain"))).To(Equal(apxerr.KindUnknown))
	})
})
