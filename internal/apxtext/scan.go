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

package apxtext

import "github.com/cogu/goapx/pkg/apxerr"

// scanner is a byte cursor over one logical line, shared by the
// data-signature and attribute/literal recursive-descent parsers.
type scanner struct {
	s   string
	pos int
}

func newScanner(s string) *scanner { return &scanner{s: s} }

func (sc *scanner) eof() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) next() byte {
	c := sc.peek()
	sc.pos++
	return c
}

func (sc *scanner) expect(c byte) apxerr.Error {
	if sc.eof() || sc.peek() != c {
		return apxerr.Newf(apxerr.KindParse, "expected %q at offset %d", c, sc.pos)
	}
	sc.pos++
	return nil
}

func (sc *scanner) skipHSpace() {
	for !sc.eof() && (sc.peek() == ' ' || sc.peek() == '\t') {
		sc.pos++
	}
}

// quotedString reads a "..."-delimited string honoring a single backslash
// escape for the quote and backslash characters themselves.
func (sc *scanner) quotedString() (string, apxerr.Error) {
	if err := sc.expect('"'); err != nil {
		return "", err
	}
	var out []byte
	for {
		if sc.eof() {
			return "", apxerr.New(apxerr.KindParse, "unterminated string literal")
		}
		c := sc.next()
		if c == '"' {
			return string(out), nil
		}
		if c == '\\' && !sc.eof() {
			out = append(out, sc.next())
			continue
		}
		out = append(out, c)
	}
}

func (sc *scanner) digits() string {
	start := sc.pos
	for !sc.eof() && sc.peek() >= '0' && sc.peek() <= '9' {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}
