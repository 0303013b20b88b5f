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

package dynval

import (
	"bytes"
	"encoding/json"

	"github.com/cogu/goapx/pkg/apxerr"
)

// ToJSON is the default dynamic-value→JSON collaborator (spec §1/§6 name
// this an external collaborator; encoding/json is the standard-library
// codec and is the right tool here — the corpus's richer codecs, cbor and
// msgpack, exist for wire compactness, a concern JSON export does not have).
func ToJSON(v *Value) ([]byte, apxerr.Error) {
	raw, err := toRaw(v)
	if err != nil {
		return nil, err
	}
	b, e := json.Marshal(raw)
	if e != nil {
		return nil, apxerr.New(apxerr.KindInternal, "json encode failed", e)
	}
	return b, nil
}

func toRaw(v *Value) (any, apxerr.Error) {
	if v == nil {
		return nil, nil
	}
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindUint:
		return v.u, nil
	case KindString:
		return v.s, nil
	case KindBool:
		return v.b, nil
	case KindArray:
		out := make([]any, 0, len(v.arr))
		for _, e := range v.arr {
			r, err := toRaw(e)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case KindHash:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.hash.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := ToJSON(v.hash.vals[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return json.RawMessage(buf.Bytes()), nil
	default:
		return nil, apxerr.New(apxerr.KindInternal, "unknown dynamic value kind")
	}
}

// FromJSON is the inverse collaborator: JSON→dynamic-value. Objects are
// decoded through a Go map, so hash keys are inserted in map iteration
// order; the source document's key order is not preserved.
func FromJSON(data []byte) (*Value, apxerr.Error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if e := dec.Decode(&raw); e != nil {
		return nil, apxerr.New(apxerr.KindParse, "json decode failed", e)
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (*Value, apxerr.Error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if i, e := t.Int64(); e == nil {
			return Int(i), nil
		}
		return nil, apxerr.Newf(apxerr.KindParse, "non-integer json number %q", t.String())
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case []any:
		items := make([]*Value, 0, len(t))
		for _, e := range t {
			v, err := fromRaw(e)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case map[string]any:
		h := NewHash()
		hv, _ := h.Hash()
		for k, e := range t {
			v, err := fromRaw(e)
			if err != nil {
				return nil, err
			}
			hv.Set(k, v)
		}
		return h, nil
	default:
		return nil, apxerr.New(apxerr.KindInternal, "unsupported json value type")
	}
}
