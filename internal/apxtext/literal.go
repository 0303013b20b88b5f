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

import (
	"strconv"

	"github.com/cogu/goapx/pkg/apxerr"
	"github.com/cogu/goapx/pkg/dynval"
)

// parseLiteral parses the `=<literal>` initializer value: a decimal or
// 0x-hex integer (optionally negative), a "..." string, or a `{...}` array
// of literals, per spec §4.1's attribute grammar.
func parseLiteral(sc *scanner) (*dynval.Value, apxerr.Error) {
	sc.skipHSpace()
	switch {
	case sc.peek() == '"':
		s, err := sc.quotedString()
		if err != nil {
			return nil, err
		}
		return dynval.Str(s), nil

	case sc.peek() == '{':
		sc.pos++
		var items []*dynval.Value
		for {
			sc.skipHSpace()
			if sc.peek() == '}' {
				sc.pos++
				return dynval.Array(items...), nil
			}
			v, err := parseLiteral(sc)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
			sc.skipHSpace()
			if sc.peek() == ',' {
				sc.pos++
			}
		}

	default:
		return parseIntLiteral(sc)
	}
}

func parseIntLiteral(sc *scanner) (*dynval.Value, apxerr.Error) {
	neg := false
	if sc.peek() == '-' {
		neg = true
		sc.pos++
	}
	if sc.peek() == '0' && sc.pos+1 < len(sc.s) && (sc.s[sc.pos+1] == 'x' || sc.s[sc.pos+1] == 'X') {
		sc.pos += 2
		start := sc.pos
		for !sc.eof() && isHexDigit(sc.peek()) {
			sc.pos++
		}
		u, err := strconv.ParseUint(sc.s[start:sc.pos], 16, 64)
		if err != nil {
			return nil, apxerr.New(apxerr.KindParse, "invalid hex literal", err)
		}
		if neg {
			return dynval.Int(-int64(u)), nil
		}
		return dynval.Uint(u), nil
	}

	d := sc.digits()
	if d == "" {
		return nil, apxerr.New(apxerr.KindParse, "expected literal value")
	}
	if neg {
		i, err := strconv.ParseInt(d, 10, 64)
		if err != nil {
			return nil, apxerr.New(apxerr.KindParse, "invalid integer literal", err)
		}
		return dynval.Int(-i), nil
	}
	u, err := strconv.ParseUint(d, 10, 64)
	if err != nil {
		return nil, apxerr.New(apxerr.KindParse, "invalid integer literal", err)
	}
	return dynval.Uint(u), nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// portAttributes is the parsed form of the comma-separated attribute list
// following the `:` in a port or type declaration.
type portAttributes struct {
	Init        *dynval.Value
	IsParameter bool
	HasQueue    bool
	QueueLen    int
}

func parseAttributes(sc *scanner) (*portAttributes, apxerr.Error) {
	attrs := &portAttributes{}
	for {
		sc.skipHSpace()
		if sc.eof() {
			return attrs, nil
		}
		switch sc.peek() {
		case '=':
			sc.pos++
			v, err := parseLiteral(sc)
			if err != nil {
				return nil, err
			}
			attrs.Init = v
		case 'P':
			sc.pos++
			attrs.IsParameter = true
		case 'Q':
			sc.pos++
			if err := sc.expect('['); err != nil {
				return nil, err
			}
			d := sc.digits()
			if d == "" {
				return nil, apxerr.New(apxerr.KindParse, "expected queue length")
			}
			n, _ := strconv.Atoi(d)
			if n <= 0 {
				return nil, apxerr.New(apxerr.KindValueRange, "queue length must be > 0")
			}
			if err := sc.expect(']'); err != nil {
				return nil, err
			}
			attrs.HasQueue = true
			attrs.QueueLen = n
		default:
			return nil, apxerr.Newf(apxerr.KindParse, "unrecognized attribute character %q at offset %d", string(sc.peek()), sc.pos)
		}
		sc.skipHSpace()
		if sc.peek() == ',' {
			sc.pos++
			continue
		}
		if sc.eof() {
			return attrs, nil
		}
		return nil, apxerr.New(apxerr.KindParse, "stray characters after attribute list")
	}
}
