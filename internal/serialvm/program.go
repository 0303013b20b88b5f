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

// Package serialvm is the byte-code interpreter that packs and unpacks
// dynamic values against port byte layouts. A Program is compiled once from
// a dataelem.Element tree by Compile; pack/unpack then execute it against a
// buffer with no further knowledge of the source APX text.
package serialvm

import "github.com/cogu/goapx/internal/dataelem"

// Op is the instruction opcode. The instruction set mirrors the opcode
// families from the spec: UNPACK/PACK read or write one scalar and advance
// the cursor, DATA_SIZE governs array iteration, DATA_CTRL selects record
// fields or checks a range, FLOW_CTRL marks the end of a record field.
type Op uint8

const (
	OpScalar      Op = iota // read/write one scalar of Kind at the cursor
	OpRangeCheck            // apply the inlined [Lo,Hi]/[ULo,UHi] bound to the last scalar
	OpRecordBegin           // select into a record of NumFields children (DATA_CTRL record-select)
	OpRecordEnd             // leave the record
	OpFieldBegin            // enter a record field (push field name context)
	OpFieldEnd              // leave a record field (FLOW_CTRL)
	OpArrayBegin            // begin a fixed or dynamic array of MaxN elements
	OpArrayEnd              // end an array
)

// Instr is one compiled instruction. Not every field is meaningful for
// every Op; see the Op doc comments.
type Instr struct {
	Op Op

	Kind dataelem.Kind // OpScalar
	Rng  *dataelem.Range // OpRangeCheck

	FieldName string // OpFieldBegin
	NumFields int    // OpRecordBegin

	MaxN       uint32 // OpArrayBegin
	IsDynArray bool   // OpArrayBegin
}

// Program is a compiled pack/unpack instruction stream plus the metadata
// the spec's program header records.
type Program struct {
	Instr      []Instr
	PackedSize int  // total packed size of one instance, header info
	IsDynamic  bool // true if any array in the tree is dynamic
}

// Compile walks e and emits a flat instruction stream. Compile fails only
// if e still carries unresolved references; Resolve must run first.
func Compile(e *dataelem.Element) (*Program, error) {
	p := &Program{}
	if err := compileInto(e, p); err != nil {
		return nil, err
	}
	sz, err := e.PackedSize()
	if err != nil {
		return nil, err
	}
	p.PackedSize = sz
	return p, nil
}

func compileInto(e *dataelem.Element, p *Program) error {
	if e.Kind == dataelem.KindRefResolved {
		e = e.Resolved
	}

	if e.ArrayLen > 0 {
		p.Instr = append(p.Instr, Instr{Op: OpArrayBegin, MaxN: e.ArrayLen, IsDynArray: e.IsDynArray})
		if e.IsDynArray {
			p.IsDynamic = true
		}
	}

	if e.Kind == dataelem.KindRecord {
		p.Instr = append(p.Instr, Instr{Op: OpRecordBegin, NumFields: len(e.Fields)})
		for _, f := range e.Fields {
			p.Instr = append(p.Instr, Instr{Op: OpFieldBegin, FieldName: f.Name})
			if err := compileInto(f.Elem, p); err != nil {
				return err
			}
			p.Instr = append(p.Instr, Instr{Op: OpFieldEnd, FieldName: f.Name})
		}
		p.Instr = append(p.Instr, Instr{Op: OpRecordEnd})
	} else {
		p.Instr = append(p.Instr, Instr{Op: OpScalar, Kind: e.Kind})
		if e.Range != nil {
			p.Instr = append(p.Instr, Instr{Op: OpRangeCheck, Rng: e.Range})
		}
	}

	if e.ArrayLen > 0 {
		p.Instr = append(p.Instr, Instr{Op: OpArrayEnd})
	}
	return nil
}

// LengthPrefixWidth returns the wire width of a dynamic array's length
// prefix given its declared maximum length, per the spec's sizing rule:
// N <= 255 => 1 byte, <= 65535 => 2 bytes, else 4 bytes.
func LengthPrefixWidth(maxN uint32) int {
	switch {
	case maxN <= 255:
		return 1
	case maxN <= 65535:
		return 2
	default:
		return 4
	}
}
