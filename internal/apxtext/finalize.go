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
	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/internal/serialvm"
	"github.com/cogu/goapx/pkg/apxerr"
)

// Finalize resolves every type reference against n.Types, computes each
// port's canonical signature and packed size, and compiles its pack/unpack
// program. A node is "good" (spec §4.1) iff Finalize returns nil.
//
// Per the resolved open question on queue_len (§9): a Q[n] attribute on any
// port is rejected here rather than silently accepted and ignored, since no
// component in this implementation consumes queued delivery.
func (n *Node) Finalize() apxerr.Error {
	byID := make([]*dataelem.Element, len(n.Types))
	byName := make(map[string]*dataelem.Element, len(n.Types))
	for i := range n.Types {
		byID[i] = n.Types[i].Elem
		byName[n.Types[i].Name] = n.Types[i].Elem
	}
	lookup := func(id uint32, name string) (*dataelem.Element, bool) {
		if name != "" {
			e, ok := byName[name]
			return e, ok
		}
		if int(id) < len(byID) {
			return byID[id], true
		}
		return nil, false
	}

	for i := range n.Types {
		if err := dataelem.Resolve(n.Types[i].Elem, lookup, map[string]bool{n.Types[i].Name: true}); err != nil {
			return err
		}
	}

	for _, p := range n.ProvidePorts {
		if err := finalizePort(p, lookup); err != nil {
			return err
		}
	}
	for _, p := range n.RequirePorts {
		if err := finalizePort(p, lookup); err != nil {
			return err
		}
	}
	return nil
}

func finalizePort(p *Port, lookup func(uint32, string) (*dataelem.Element, bool)) apxerr.Error {
	if p.QueueLen > 0 {
		return apxerr.Newf(apxerr.KindInvalidArgument, "port %q: queued ports are not implemented", p.Name)
	}
	if err := dataelem.Resolve(p.Elem, lookup, map[string]bool{}); err != nil {
		return err
	}
	if err := p.Elem.Validate(); err != nil {
		return err
	}
	size, err := p.Elem.PackedSize()
	if err != nil {
		return err
	}
	program, cerr := serialvm.Compile(p.Elem)
	if cerr != nil {
		return apxerr.Make(cerr)
	}
	p.Size = size
	p.Program = program
	p.Signature = PortSignature(p.Name, p.Elem)
	return nil
}
