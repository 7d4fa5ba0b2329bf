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

// Package heap is a coalescing free-list allocator with a size-class cache
// for hot small allocations. It is an arena-backed redesign of a classic
// C free-list heap: base regions are plain []byte slices, and every block's
// header/footer/linkage lives in parallel Go metadata addressed by index,
// never by raw pointer, so the whole package is safe Go.
//
// A process-wide singleton is available via Default(), but every operation
// also works against an explicit *Allocator for callers that want an
// isolated arena.
package heap

import (
	"fmt"
	"io"
	"math/bits"
	"runtime"
	"sync"

	hpcfg "github.com/dfdean/buildingblocks/heap/config"
	"github.com/dfdean/buildingblocks/logger"
)

const (
	footerLen       = 8
	footerMagic     = 0xDEADC0DEFEEDFACE
	poisonByte      = 0xAA
	freePatternByte = 0xFE
)

// Options configures a new Allocator.
type Options struct {
	Config hpcfg.Config
	Log    logger.FuncLog
}

// Allocator is a single coalescing heap guarded by one mutex, matching the
// source's recursive-mutex singleton: every public method takes the lock
// once and never re-enters it.
type Allocator struct {
	mu  sync.Mutex
	cfg hpcfg.Config
	log logger.FuncLog

	minBits, maxBits uint
	numClasses       int
	freeHead         []int // per class, index into blocks; nilIdx if empty

	cacheHead          []int
	cacheCount         []int
	cacheMax           []int
	cacheMisses        []int
	cacheMissThreshold []int
	cacheMaxGrowths    []int

	regions []region
	blocks  []block

	liveBytes int64
	liveCount int64

	metrics *PromMetrics
}

// New constructs an Allocator from opts. Zero numeric fields of opts.Config
// are filled from Default(); Debug is taken as given.
func New(opts Options) *Allocator {
	cfg := opts.Config.Sanitize()

	minBits := classBits(int(cfg.MinBlock))
	maxBits := classBits(int(cfg.MaxBlock))
	n := int(maxBits-minBits) + 1

	a := &Allocator{
		cfg:                cfg,
		log:                opts.Log,
		minBits:            minBits,
		maxBits:            maxBits,
		numClasses:         n,
		freeHead:           newFilled(n, nilIdx),
		cacheHead:          newFilled(int(cfg.CacheUpperSize)+1, nilIdx),
		cacheCount:         make([]int, int(cfg.CacheUpperSize)+1),
		cacheMax:           newFilled(int(cfg.CacheUpperSize)+1, 1),
		cacheMisses:        make([]int, int(cfg.CacheUpperSize)+1),
		cacheMissThreshold: newFilled(int(cfg.CacheUpperSize)+1, 4),
		cacheMaxGrowths:    make([]int, int(cfg.CacheUpperSize)+1),
	}

	return a
}

func newFilled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// classBits returns ceil(log2(v)) for v >= 2, and 0 for v <= 1.
func classBits(v int) uint {
	if v <= 1 {
		return 0
	}
	return uint(bits.Len(uint(v - 1)))
}

// classFloor returns the index of the highest set bit of v (floor(log2(v))),
// the "largest power of two it can satisfy" used to file a free block.
func classFloor(v int) uint {
	if v <= 1 {
		return 0
	}
	return uint(bits.Len(uint(v))) - 1
}

var (
	defaultOnce  sync.Once
	defaultAlloc *Allocator
)

// Default returns the process-wide allocator singleton, built lazily with
// hpcfg.Default() on first use.
func Default() *Allocator {
	defaultOnce.Do(func() {
		defaultAlloc = New(Options{Config: hpcfg.Default()})
	})
	return defaultAlloc
}

// CallerSite captures the immediate caller's file and line, for leak
// reports. skip 0 names the function calling CallerSite itself.
func CallerSite(skip int) CallSite {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallSite{}
	}
	return CallSite{File: file, Line: line}
}

func (a *Allocator) warn(message string, args ...interface{}) {
	if a.log == nil {
		return
	}
	if l := a.log(); l != nil {
		l.Warning(message, args...)
	}
}

// Ptr is a handle to one allocated block. It stands in for the source's raw
// pointer: Bytes() returns the payload slice, and Free releases it. A Ptr
// from one Allocator must never be passed to another.
type Ptr struct {
	a   *Allocator
	idx int
	gen uint32
}

// Bytes returns the block's current user-visible payload. The slice aliases
// the allocator's arena directly; it is invalidated by Free or by a Realloc
// that moves the block.
func (p *Ptr) Bytes() []byte {
	if p == nil {
		return nil
	}
	a := p.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.validHeld(p) {
		return nil
	}
	b := &a.blocks[p.idx]
	return a.regions[b.region].data[b.offset : b.offset+b.size]
}

// Size returns the block's current user-visible payload length.
func (p *Ptr) Size() int {
	if p == nil {
		return 0
	}
	a := p.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.validHeld(p) {
		return 0
	}
	return a.blocks[p.idx].size
}

func (a *Allocator) validHeld(p *Ptr) bool {
	if p == nil || p.idx < 0 || p.idx >= len(a.blocks) {
		return false
	}
	b := &a.blocks[p.idx]
	return b.gen == p.gen && b.allocated()
}

// Alloc returns a block of at least n user bytes. It consults the
// size-class cache first (O(1) fast path for a hot exact size), then walks
// the power-of-two free lists first-fit, splitting the chosen block if the
// remainder can hold another minimum block. If no free block is large
// enough, the heap grows by one region and the search is retried once.
func (a *Allocator) Alloc(n int, site CallSite) (*Ptr, error) {
	if n < 0 {
		return nil, ErrorInvalidArgument.Error(nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if n <= int(a.cfg.CacheUpperSize) {
		if idx, ok := a.popCache(n); ok {
			return a.finishAlloc(idx, n, site), nil
		}
	}

	idx, err := a.findOrGrow(n)
	if err != nil {
		return nil, err
	}
	return a.finishAlloc(idx, n, site), nil
}

// Calloc behaves as Alloc but zero-fills the returned payload, as calloc(3)
// does.
func (a *Allocator) Calloc(n int, site CallSite) (*Ptr, error) {
	p, err := a.Alloc(n, site)
	if err != nil {
		return nil, err
	}
	b := p.Bytes()
	for i := range b {
		b[i] = 0
	}
	return p, nil
}

func (a *Allocator) findOrGrow(n int) (int, error) {
	idx, found := a.findFreeBlock(n)
	if found {
		a.unlinkFree(idx)
		return idx, nil
	}

	if err := a.growHeap(n); err != nil {
		return 0, err
	}

	idx, found = a.findFreeBlock(n)
	if !found {
		return 0, ErrorOutOfMemory.Error(nil)
	}
	a.unlinkFree(idx)
	return idx, nil
}

// findFreeBlock performs first-fit starting at the class whose lower bound
// is <= n, scanning the whole class (since not every block there is
// guaranteed big enough), then taking the head of any larger class (where
// every block is guaranteed big enough by construction).
func (a *Allocator) findFreeBlock(n int) (int, bool) {
	start := int(classFloor(n)) - int(a.minBits)
	if start < 0 {
		start = 0
	}
	if start >= a.numClasses {
		return nilIdx, false
	}

	for c := start; c < a.numClasses; c++ {
		cur := a.freeHead[c]
		if c == start {
			for cur != nilIdx {
				if a.blocks[cur].cap >= n {
					return cur, true
				}
				cur = a.blocks[cur].freeNext
			}
			continue
		}
		if cur != nilIdx {
			return cur, true
		}
	}
	return nilIdx, false
}

// finishAlloc marks the block allocated, splits off a remainder if large
// enough, writes the debug footer/poison, and records the call site.
func (a *Allocator) finishAlloc(idx, n int, site CallSite) *Ptr {
	b := &a.blocks[idx]

	remainder := b.cap - n
	minBlock := int(a.cfg.MinBlock)
	if remainder >= minBlock+a.overhead() {
		a.splitBlock(idx, n+a.overhead())
		b = &a.blocks[idx]
	}

	b.flags = flagAllocated
	b.size = n
	b.site = site
	b.gen++

	if a.cfg.Debug {
		a.writeFooter(idx)
		a.poison(idx)
	}

	a.liveBytes += int64(n)
	a.liveCount++

	return &Ptr{a: a, idx: idx, gen: b.gen}
}

func (a *Allocator) overhead() int {
	if a.cfg.Debug {
		return footerLen
	}
	return 0
}

// splitBlock carves a new free block out of the trailing cap-n bytes of
// block idx and threads it into the address-order chain right after idx.
func (a *Allocator) splitBlock(idx, n int) {
	newIdx := a.newBlockIndex()
	orig := &a.blocks[idx]

	nb := block{
		region:   orig.region,
		offset:   orig.offset + n,
		cap:      orig.cap - n,
		flags:    0,
		prev:     idx,
		next:     orig.next,
		freePrev: nilIdx,
		freeNext: nilIdx,
	}
	a.blocks[newIdx] = nb

	if orig.next != nilIdx {
		a.blocks[orig.next].prev = newIdx
	}
	orig.next = newIdx
	orig.cap = n

	a.insertFree(newIdx)
}

func (a *Allocator) newBlockIndex() int {
	a.blocks = append(a.blocks, block{})
	return len(a.blocks) - 1
}

// growHeap acquires a new region sized to the next power of two at least as
// large as the request plus bookkeeping slack, and files the whole region
// as one free block.
func (a *Allocator) growHeap(n int) error {
	need := n + a.overhead()
	size := int(a.cfg.GrowSize)
	for size < need {
		size *= 2
	}
	if classBits(size) > a.maxBits {
		return ErrorOutOfMemory.Error(nil)
	}

	data := make([]byte, size)
	regionIdx := len(a.regions)
	blockIdx := a.newBlockIndex()

	a.regions = append(a.regions, region{data: data, first: blockIdx})
	if a.metrics != nil {
		a.metrics.RegionGrowths.Inc()
	}
	a.blocks[blockIdx] = block{
		region:   regionIdx,
		offset:   0,
		cap:      size,
		prev:     nilIdx,
		next:     nilIdx,
		freePrev: nilIdx,
		freeNext: nilIdx,
	}
	a.insertFree(blockIdx)
	return nil
}

func (a *Allocator) insertFree(idx int) {
	b := &a.blocks[idx]
	c := int(classFloor(b.cap)) - int(a.minBits)
	if c < 0 {
		c = 0
	}
	if c >= a.numClasses {
		c = a.numClasses - 1
	}

	b.freePrev = nilIdx
	b.freeNext = a.freeHead[c]
	if a.freeHead[c] != nilIdx {
		a.blocks[a.freeHead[c]].freePrev = idx
	}
	a.freeHead[c] = idx
}

func (a *Allocator) unlinkFree(idx int) {
	b := &a.blocks[idx]
	c := int(classFloor(b.cap)) - int(a.minBits)
	if c < 0 {
		c = 0
	}
	if c >= a.numClasses {
		c = a.numClasses - 1
	}

	if b.freePrev != nilIdx {
		a.blocks[b.freePrev].freeNext = b.freeNext
	} else {
		a.freeHead[c] = b.freeNext
	}
	if b.freeNext != nilIdx {
		a.blocks[b.freeNext].freePrev = b.freePrev
	}
	b.freePrev, b.freeNext = nilIdx, nilIdx
}

// Free is a no-op on a nil pointer. Otherwise it validates the handle, then
// either pushes the block onto the size-class cache (if its exact size
// qualifies and the slot has room) or coalesces it with free, non-cached
// neighbours and files it on the appropriate size-class free list.
func (a *Allocator) Free(p *Ptr) {
	if p == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.validHeld(p) {
		a.warn("heap: free of invalid or already-freed pointer")
		return
	}

	idx := p.idx
	b := &a.blocks[idx]
	n := b.size

	a.liveBytes -= int64(n)
	a.liveCount--

	if n <= int(a.cfg.CacheUpperSize) && a.cacheCount[n] < a.cacheMax[n] {
		a.pushCache(idx, n)
		return
	}

	a.absorbPadding(idx)
	idx = a.coalesce(idx)
	b = &a.blocks[idx]
	b.flags = 0
	b.gen++
	if a.cfg.Debug {
		a.fillFreePattern(idx)
		b.flags |= flagFreePattern
	}
	a.insertFree(idx)
}

// absorbPadding leaves the block unchanged: its cap already spans the
// whole reserved range, debug footer slack included.
func (a *Allocator) absorbPadding(idx int) {
	// cap already tracks the full reserved span; size is reset on free by
	// the caller setting flags to 0, nothing further to reclaim here since
	// this arena never stores header bytes inside the payload region.
}

// coalesce merges block idx with its address-order neighbours if they are
// free and not cache-resident, per the invariant that two adjacent free,
// non-cached blocks never coexist. It returns the index of the surviving
// block: idx itself, unless idx was absorbed into its predecessor.
func (a *Allocator) coalesce(idx int) int {
	b := &a.blocks[idx]

	if nxt := b.next; nxt != nilIdx {
		nb := &a.blocks[nxt]
		if !nb.allocated() && !nb.freeCached() {
			a.unlinkFree(nxt)
			b.cap += nb.cap
			b.next = nb.next
			if nb.next != nilIdx {
				a.blocks[nb.next].prev = idx
			}
			a.retireBlock(nxt)
		}
	}

	if prv := b.prev; prv != nilIdx {
		pb := &a.blocks[prv]
		if !pb.allocated() && !pb.freeCached() {
			a.unlinkFree(prv)
			pb.cap += b.cap
			pb.next = b.next
			if b.next != nilIdx {
				a.blocks[b.next].prev = prv
			}
			a.retireBlock(idx)
			return prv
		}
	}

	return idx
}

// retireBlock zeroes a block slot absorbed by coalesce. The arena never
// compacts the blocks slice; retired indices simply sit unused until the
// allocator process exits, trading a little metadata memory for never
// invalidating a live index.
func (a *Allocator) retireBlock(idx int) {
	a.blocks[idx] = block{region: nilIdx, prev: nilIdx, next: nilIdx, freePrev: nilIdx, freeNext: nilIdx}
}

// Realloc behaves as Alloc when p is nil, as Free when n == 0, as an
// in-place shrink when n fits inside the current capacity, and otherwise
// as a grow: first by merging a free successor in place, falling back to
// alloc+copy+free.
func (a *Allocator) Realloc(p *Ptr, n int) (*Ptr, error) {
	if p == nil {
		return a.Alloc(n, CallSite{})
	}
	if n == 0 {
		a.Free(p)
		return nil, nil
	}

	a.mu.Lock()
	if !a.validHeld(p) {
		a.mu.Unlock()
		return nil, ErrorInvalidArgument.Error(nil)
	}
	b := &a.blocks[p.idx]

	if n <= b.cap-a.overhead() {
		a.liveBytes += int64(n - b.size)
		b.size = n
		b.gen++
		if a.cfg.Debug {
			a.writeFooter(p.idx)
		}
		np := &Ptr{a: a, idx: p.idx, gen: b.gen}
		a.mu.Unlock()
		return np, nil
	}

	if b.next != nilIdx && !a.blocks[b.next].allocated() && !a.blocks[b.next].freeCached() {
		nb := &a.blocks[b.next]
		if b.cap+nb.cap-a.overhead() >= n {
			a.unlinkFree(b.next)
			b.cap += nb.cap
			b.next = nb.next
			if nb.next != nilIdx {
				a.blocks[nb.next].prev = p.idx
			}
			a.liveBytes += int64(n - b.size)
			b.size = n
			b.gen++
			if a.cfg.Debug {
				a.writeFooter(p.idx)
			}
			np := &Ptr{a: a, idx: p.idx, gen: b.gen}
			a.mu.Unlock()
			return np, nil
		}
	}
	a.mu.Unlock()

	np, err := a.Alloc(n, CallSite{})
	if err != nil {
		return nil, err
	}
	copy(np.Bytes(), p.Bytes())
	a.Free(p)
	return np, nil
}

// PtrSize returns the current user payload size of p, or 0 if p is nil or
// invalid.
func (a *Allocator) PtrSize(p *Ptr) int {
	return p.Size()
}

// SuppressLeak marks p so it is excluded from PrintAllocations' leak
// report, without changing its allocation state.
func (a *Allocator) SuppressLeak(p *Ptr) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.validHeld(p) {
		return
	}
	a.blocks[p.idx].flags |= flagLeakSuppressed
}

// CheckPtr validates one handle: that it still names an allocated block,
// that its generation matches (catching use-after-free), and, in debug
// mode, that its footer magic is intact.
func (a *Allocator) CheckPtr(p *Ptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checkPtrHeld(p)
}

func (a *Allocator) checkPtrHeld(p *Ptr) error {
	if !a.validHeld(p) {
		return ErrorCorruption.Error(nil)
	}
	b := &a.blocks[p.idx]
	if b.hasFooter() && !a.footerIntact(p.idx) {
		return ErrorCorruption.Error(nil)
	}
	_ = b
	return nil
}

// CheckState walks every region block-by-block and every size-class free
// list, validating chain consistency, the no-adjacent-free-uncached
// invariant, and (in debug mode) free-pattern integrity.
func (a *Allocator) CheckState() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for ri := range a.regions {
		cur := a.regions[ri].first
		prevFree := false
		for cur != nilIdx {
			b := &a.blocks[cur]
			if b.next != nilIdx && a.blocks[b.next].prev != cur {
				return ErrorCorruption.Error(fmt.Errorf("chain link mismatch after block %d in region %d", cur, ri))
			}
			curFree := !b.allocated() && !b.freeCached()
			if curFree && prevFree {
				return ErrorCorruption.Error(fmt.Errorf("adjacent free non-cached blocks in region %d", ri))
			}
			prevFree = curFree

			if b.allocated() && b.hasFooter() && !a.footerIntact(cur) {
				return ErrorCorruption.Error(fmt.Errorf("footer magic mismatch at block %d", cur))
			}
			if !b.allocated() && !b.freeCached() && b.flags&flagFreePattern != 0 && !a.freePatternIntact(cur) {
				return ErrorCorruption.Error(fmt.Errorf("free pattern broken at block %d", cur))
			}
			cur = b.next
		}
	}

	for c := 0; c < a.numClasses; c++ {
		cur := a.freeHead[c]
		for cur != nilIdx {
			b := &a.blocks[cur]
			if b.allocated() {
				return ErrorCorruption.Error(fmt.Errorf("allocated block %d on free list %d", cur, c))
			}
			cur = b.freeNext
		}
	}

	return nil
}

func (a *Allocator) writeFooter(idx int) {
	b := &a.blocks[idx]
	if b.cap-b.size < footerLen {
		return
	}
	data := a.regions[b.region].data
	off := b.offset + b.size
	putFooter(data[off : off+footerLen])
	b.flags |= flagHasFooter
}

func (a *Allocator) footerIntact(idx int) bool {
	b := &a.blocks[idx]
	if b.cap-b.size < footerLen {
		return true
	}
	data := a.regions[b.region].data
	off := b.offset + b.size
	return checkFooter(data[off : off+footerLen])
}

func putFooter(dst []byte) {
	v := uint64(footerMagic)
	for i := 0; i < footerLen; i++ {
		dst[i] = byte(v >> (8 * uint(i)))
	}
}

func checkFooter(src []byte) bool {
	var v uint64
	for i := 0; i < footerLen; i++ {
		v |= uint64(src[i]) << (8 * uint(i))
	}
	return v == footerMagic
}

func (a *Allocator) poison(idx int) {
	b := &a.blocks[idx]
	data := a.regions[b.region].data
	payload := data[b.offset : b.offset+b.size]
	for i := range payload {
		payload[i] = poisonByte
	}
}

func (a *Allocator) fillFreePattern(idx int) {
	b := &a.blocks[idx]
	data := a.regions[b.region].data
	payload := data[b.offset : b.offset+b.cap]
	for i := range payload {
		payload[i] = freePatternByte
	}
}

func (a *Allocator) freePatternIntact(idx int) bool {
	b := &a.blocks[idx]
	data := a.regions[b.region].data
	payload := data[b.offset : b.offset+b.cap]
	for _, v := range payload {
		if v != freePatternByte {
			return false
		}
	}
	return true
}

// AllocPages returns an allocation whose payload begins on a pageSize
// boundary and spans at least count*pageSize bytes. It over-allocates and
// carves out the aligned middle: the leading slack becomes a new free block
// when it is at least a minimum block in size. A leading slack smaller than
// a minimum block cannot carry its own header and is abandoned; see
// DESIGN.md for the reclamation alternative. The trailing slack is not
// split off: it stays inside the returned block's capacity.
func (a *Allocator) AllocPages(count, pageSize int, site CallSite) (*Ptr, error) {
	if count <= 0 || pageSize <= 0 {
		return nil, ErrorInvalidArgument.Error(nil)
	}
	want := count * pageSize

	p, err := a.Alloc(want+pageSize, site)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.validHeld(p) {
		return nil, ErrorCorruption.Error(nil)
	}
	b := &a.blocks[p.idx]
	base := a.regions[b.region].offsetOf(b.offset)
	_ = base
	a.liveBytes -= int64(b.size - want)
	setSize := func() {
		b.size = want
		if a.cfg.Debug {
			a.writeFooter(p.idx)
		}
	}

	misalign := b.offset % pageSize
	if misalign == 0 {
		setSize()
		return p, nil
	}

	lead := pageSize - misalign
	minBlock := int(a.cfg.MinBlock)
	if lead < minBlock {
		// Leading slack too small to carve into its own block.
		b.offset += lead
		b.cap -= lead
		setSize()
		return p, nil
	}

	newIdx := a.newBlockIndex()
	b = &a.blocks[p.idx]
	a.blocks[newIdx] = block{
		region:   b.region,
		offset:   b.offset,
		cap:      lead,
		prev:     b.prev,
		next:     p.idx,
		freePrev: nilIdx,
		freeNext: nilIdx,
	}
	if b.prev != nilIdx {
		a.blocks[b.prev].next = newIdx
	} else {
		a.regions[b.region].first = newIdx
	}
	b.prev = newIdx
	b.offset += lead
	b.cap -= lead
	setSize()
	a.insertFree(newIdx)

	return p, nil
}

func (r region) offsetOf(o int) int { return o }

// PrintFlags controls PrintAllocations output.
type PrintFlags uint8

const (
	// PrintOnlyChanges is accepted but has no effect: PrintAllocations
	// keeps no mark between calls and always reports every live,
	// non-suppressed allocation.
	PrintOnlyChanges PrintFlags = 1 << iota
	PrintVerbose
)

// PrintAllocations writes a leak-style report of every currently allocated,
// non-leak-suppressed block to w, and returns the number of bytes written.
func (a *Allocator) PrintAllocations(flags PrintFlags, w io.Writer) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	for idx := range a.blocks {
		b := &a.blocks[idx]
		if !b.allocated() || b.leakSuppressed() {
			continue
		}
		var n int
		var err error
		if flags&PrintVerbose != 0 {
			n, err = fmt.Fprintf(w, "block %d: %d bytes at %s:%d\n", idx, b.size, b.site.File, b.site.Line)
		} else {
			n, err = fmt.Fprintf(w, "%d bytes at %s:%d\n", b.size, b.site.File, b.site.Line)
		}
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LiveBytes returns the sum of currently allocated user payload sizes.
func (a *Allocator) LiveBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveBytes
}

// LiveCount returns the number of currently allocated blocks.
func (a *Allocator) LiveCount() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveCount
}
