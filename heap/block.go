/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package heap

// nilIdx is the sentinel for "no block"/"no region", standing in for a null
// pointer in the source's intrusively linked lists.
const nilIdx = -1

type blockFlags uint16

const (
	flagAllocated blockFlags = 1 << iota
	flagFreeCached
	flagHasFooter
	flagFreePattern
	flagLeakSuppressed
)

// CallSite identifies the caller of Alloc/Calloc/AllocPages, for leak
// reports. Populate it with CallerSite() or a fixed literal.
type CallSite struct {
	File string
	Line int
}

// block is one allocation unit inside a region's arena. Blocks are threaded
// in address order within their region via prev/next, and independently
// threaded onto a free list or size-class cache via freePrev/freeNext. All
// links are indices into Allocator.blocks, never raw pointers: this is the
// "arena backed by indices" redesign the source's pointer-threaded lists
// call for in a memory-safe language.
type block struct {
	region int // index into Allocator.regions
	offset int // payload start offset within region.data
	cap    int // usable payload capacity, including any debug footer slack
	size   int // current user-reported payload size

	flags blockFlags
	site  CallSite
	gen   uint32 // bumped on every Free; guards against stale Ptr handles

	prev, next         int // address-order neighbours within the region
	freePrev, freeNext int // free-list or cache-list linkage
}

func (b *block) allocated() bool   { return b.flags&flagAllocated != 0 }
func (b *block) freeCached() bool  { return b.flags&flagFreeCached != 0 }
func (b *block) hasFooter() bool   { return b.flags&flagHasFooter != 0 }
func (b *block) leakSuppressed() bool { return b.flags&flagLeakSuppressed != 0 }

// region is a contiguous arena acquired by growHeap, page-aligned in spirit
// (make([]byte, n) on a modern Go runtime is suitably aligned for any Go
// value, which is the property the source's page-reservation call was
// chasing). Regions form the allocator's singly linked region list; blocks
// never straddle a region boundary.
type region struct {
	data  []byte
	first int // index of the first block belonging to this region
}
