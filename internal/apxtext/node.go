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

// Package apxtext parses the APX text definition format into a Node tree
// and compiles it into pack/unpack programs via finalize, per spec §4.1.
package apxtext

import (
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/cogu/goapx/internal/dataelem"
	"github.com/cogu/goapx/internal/serialvm"
	"github.com/cogu/goapx/pkg/apxerr"
	"github.com/cogu/goapx/pkg/dynval"
)

const maxNameBytes = 256

// KindStrayCharacters flags trailing, unparsed text after an otherwise
// valid type or port declaration line.
const KindStrayCharacters = apxerr.RangeParser + 1

func init() {
	apxerr.RegisterName(KindStrayCharacters, "stray-characters-after-parse")
}

// TypeDecl is a named type declared in a node's type section, referenced
// from port and later type signatures as T["name"] or T[id] (its
// declaration index).
type TypeDecl struct {
	Name string
	Elem *dataelem.Element
}

// Port is one provide- or require-port declaration. Signature, Size and
// Program are populated by (*Node).Finalize.
type Port struct {
	Name        string
	Elem        *dataelem.Element
	Init        *dynval.Value
	IsParameter bool
	QueueLen    int // 0 unless the APX text carried a Q[n] attribute

	Signature string
	Size      int
	Program   *serialvm.Program
}

// Node is a parsed (but not yet finalized) APX definition.
type Node struct {
	Name           string
	VersionMajor   int
	VersionMinor   int
	Types          []TypeDecl
	ProvidePorts   []*Port
	RequirePorts   []*Port
}

// Parse reads APX text (spec §4.1, §6) and returns an unfinalized Node.
// Callers must call Finalize before the node's ports are usable.
func Parse(text string) (*Node, apxerr.Error) {
	lines := splitLines(text)
	n := &Node{}

	li := 0
	// section 1: version
	for li < len(lines) && lines[li].text == "" {
		li++
	}
	if li >= len(lines) {
		return nil, apxerr.New(apxerr.KindParse, "empty definition text")
	}
	if err := parseVersionLine(n, lines[li]); err != nil {
		return nil, err
	}
	li++

	// section 2: node declaration
	for li < len(lines) && lines[li].text == "" {
		li++
	}
	if li >= len(lines) || !strings.HasPrefix(lines[li].text, `N"`) {
		return nil, apxerr.Newf(apxerr.KindParse, "line %d: expected node declaration N\"name\"", lineNo(lines, li))
	}
	sc := newScanner(lines[li].text[1:])
	name, err := sc.quotedString()
	if err != nil {
		return nil, withLine(err, lineNo(lines, li))
	}
	if len(name) > maxNameBytes {
		return nil, apxerr.Newf(apxerr.KindNameTooLong, "line %d: node name exceeds %d bytes", lineNo(lines, li), maxNameBytes)
	}
	n.Name = name
	li++

	lookup := func(id uint32, hasID bool, name string) bool {
		if hasID {
			return int(id) < len(n.Types)
		}
		for _, t := range n.Types {
			if t.Name == name {
				return true
			}
		}
		return false
	}

	// section 3: types, implicitly ends at first non-T declaration line
	for li < len(lines) {
		if lines[li].text == "" {
			li++
			continue
		}
		if lines[li].text[0] != 'T' {
			break
		}
		td, perr := parseTypeLine(lines[li].text, lookup)
		if perr != nil {
			return nil, withLine(perr, lineNo(lines, li))
		}
		n.Types = append(n.Types, *td)
		li++
	}

	// section 4: ports
	sawPort := false
	for li < len(lines) {
		if lines[li].text == "" {
			li++
			continue
		}
		c := lines[li].text[0]
		if c != 'P' && c != 'R' {
			return nil, apxerr.Newf(apxerr.KindParse, "line %d: expected a port declaration", lineNo(lines, li))
		}
		port, perr := parsePortLine(lines[li].text, lookup)
		if perr != nil {
			return nil, withLine(perr, lineNo(lines, li))
		}
		if c == 'P' {
			n.ProvidePorts = append(n.ProvidePorts, port)
		} else {
			n.RequirePorts = append(n.RequirePorts, port)
		}
		sawPort = true
		li++
	}
	if !sawPort {
		return nil, apxerr.New(apxerr.KindParse, "node declares no ports")
	}

	return n, nil
}

type line struct {
	text string
	no   int
}

func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimSuffix(r, "\r")
		out = append(out, line{text: r, no: i + 1})
	}
	return out
}

func lineNo(lines []line, i int) int {
	if i < len(lines) {
		return lines[i].no
	}
	if len(lines) > 0 {
		return lines[len(lines)-1].no
	}
	return 0
}

func withLine(err apxerr.Error, no int) apxerr.Error {
	return apxerr.Newf(err.Kind(), "line %d: %s", no, err.Error())
}

// implementationVersion is the highest APX document version this package
// accepts: major must match exactly, minor may be less than or equal.
var implementationVersion = version.Must(version.NewVersion("1.3.0"))

func parseVersionLine(n *Node, ln line) apxerr.Error {
	const prefix = "APX/"
	if !strings.HasPrefix(ln.text, prefix) {
		return apxerr.Newf(apxerr.KindParse, "line %d: expected APX/<major>.<minor>", ln.no)
	}
	rest := ln.text[len(prefix):]
	v, err := version.NewVersion(rest)
	if err != nil {
		return apxerr.Newf(apxerr.KindParse, "line %d: malformed version %q: %s", ln.no, rest, err)
	}
	segs := v.Segments()
	major, minor := segs[0], 0
	if len(segs) > 1 {
		minor = segs[1]
	}
	if major != implementationVersion.Segments()[0] {
		return apxerr.Newf(apxerr.KindParse, "line %d: unsupported APX major version %d", ln.no, major)
	}
	if minor > implementationVersion.Segments()[1] {
		return apxerr.Newf(apxerr.KindParse, "line %d: unsupported APX minor version %d", ln.no, minor)
	}
	n.VersionMajor, n.VersionMinor = major, minor
	return nil
}

func parseTypeLine(text string, lookup typeRefResolver) (*TypeDecl, apxerr.Error) {
	sc := newScanner(text[1:]) // skip 'T'
	name, err := sc.quotedString()
	if err != nil {
		return nil, err
	}
	if len(name) > maxNameBytes {
		return nil, apxerr.New(apxerr.KindNameTooLong, "type name too long")
	}
	elem, err := parseDataSignature(sc, lookup)
	if err != nil {
		return nil, err
	}
	if sc.peek() == ':' {
		sc.pos++
		if _, err := parseAttributes(sc); err != nil {
			return nil, err
		}
	}
	if !sc.eof() {
		return nil, apxerr.New(KindStrayCharacters, "stray characters after type declaration")
	}
	return &TypeDecl{Name: name, Elem: elem}, nil
}

func parsePortLine(text string, lookup typeRefResolver) (*Port, apxerr.Error) {
	sc := newScanner(text[1:]) // skip 'P'/'R'
	name, err := sc.quotedString()
	if err != nil {
		return nil, err
	}
	if len(name) > maxNameBytes {
		return nil, apxerr.New(apxerr.KindNameTooLong, "port name too long")
	}
	elem, err := parseDataSignature(sc, lookup)
	if err != nil {
		return nil, err
	}
	p := &Port{Name: name, Elem: elem}
	if sc.peek() == ':' {
		sc.pos++
		attrs, err := parseAttributes(sc)
		if err != nil {
			return nil, err
		}
		p.Init = attrs.Init
		p.IsParameter = attrs.IsParameter
		if attrs.HasQueue {
			p.QueueLen = attrs.QueueLen
		}
	}
	if !sc.eof() {
		return nil, apxerr.New(KindStrayCharacters, "stray characters after port declaration")
	}
	return p, nil
}
