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

// The size-class cache holds, for each exact user-requested size up to
// CacheUpperSize, a LIFO of freed blocks of precisely that size. Blocks on
// this cache are never coalesced: trading a little fragmentation for an
// O(1) alloc/free fast path on the workload's hot sizes. Cache linkage
// reuses the block's freeNext field (a block is never on both the cache
// and a size-class free list at once).

// popCache pops a block from the exact-size cache slot n, or records a
// miss and runs the adaptive policy if the slot is empty.
func (a *Allocator) popCache(n int) (int, bool) {
	idx := a.cacheHead[n]
	if idx == nilIdx {
		a.recordCacheMiss(n)
		return nilIdx, false
	}

	a.cacheHead[n] = a.blocks[idx].freeNext
	a.blocks[idx].freeNext = nilIdx
	a.cacheCount[n]--
	if a.metrics != nil {
		a.metrics.CacheHits.Inc()
	}
	return idx, true
}

// pushCache files block idx, of exact size n, onto the cache.
func (a *Allocator) pushCache(idx, n int) {
	b := &a.blocks[idx]
	b.flags = flagFreeCached
	b.freeNext = a.cacheHead[n]
	b.freePrev = nilIdx
	a.cacheHead[n] = idx
	a.cacheCount[n]++
}

// recordCacheMiss counts one allocation request that found slot n empty.
// When the miss counter reaches the slot's current threshold, the slot's
// max depth grows by one; once the max depth has grown more than the
// configured sensitivity and the miss threshold is still above one, the
// threshold itself decrements, making the slot progressively more eager to
// grow under sustained pressure.
func (a *Allocator) recordCacheMiss(n int) {
	if a.metrics != nil {
		a.metrics.CacheMisses.Inc()
	}
	a.cacheMisses[n]++
	if a.cacheMisses[n] < a.cacheMissThreshold[n] {
		return
	}

	a.cacheMisses[n] = 0
	a.cacheMax[n]++
	a.cacheMaxGrowths[n]++

	if a.cacheMaxGrowths[n] > a.cfg.CacheSensitivity && a.cacheMissThreshold[n] > 1 {
		a.cacheMissThreshold[n]--
	}
}

// CacheDepth reports the current count and max depth of the exact-size
// cache slot n, for tests and diagnostics.
func (a *Allocator) CacheDepth(n int) (count, max int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 0 || n >= len(a.cacheCount) {
		return 0, 0
	}
	return a.cacheCount[n], a.cacheMax[n]
}
