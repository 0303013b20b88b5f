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

package filemgr

// Address-space partitions, per spec §3: port-data files are bump-allocated
// on 1KiB boundaries starting at 0, definition files on 1MiB boundaries
// starting at the definition-file base.
const (
	PortDataBase  = 0x00000000
	PortDataAlign = 1024

	DefFileBase  = 0x04000000
	DefFileAlign = 1024 * 1024

	defFileCeil = 0x40000000
)

// Allocator hands out non-overlapping local-file addresses for one
// connection's own publications. It is monotonic: addresses are never
// reused within a connection's lifetime, matching the client-local
// bump-allocation behaviour assumed by the original's address book.
type Allocator struct {
	nextPortData uint32
	nextDefFile  uint32
}

// NewAllocator builds an Allocator starting both partitions at their base.
func NewAllocator() *Allocator {
	return &Allocator{nextPortData: PortDataBase, nextDefFile: DefFileBase}
}

// AllocatePortData reserves size bytes in the port-data partition, rounded
// up to the next 1KiB boundary, and returns the address assigned.
func (a *Allocator) AllocatePortData(size uint32) uint32 {
	addr := a.nextPortData
	a.nextPortData = addr + roundUp(size, PortDataAlign)
	return addr
}

// AllocateDefFile reserves size bytes in the definition-file partition,
// rounded up to the next 1MiB boundary, and returns the address assigned.
func (a *Allocator) AllocateDefFile(size uint32) uint32 {
	addr := a.nextDefFile
	a.nextDefFile = addr + roundUp(size, DefFileAlign)
	return addr
}

func roundUp(size, align uint32) uint32 {
	if size == 0 {
		return align
	}
	rem := size % align
	if rem == 0 {
		return size
	}
	return size + (align - rem)
}
