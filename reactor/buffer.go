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

package reactor

import (
	"net"

	"github.com/dfdean/buildingblocks/heap"
)

// Buffer is one queued read or write: a payload slice, how much of it is
// currently valid/sent, the remote address for a packet-oriented
// connection, and the outcome once the operation completes. Buffers form
// a singly linked FIFO on Connection.pendingReads/pendingWrites via next.
type Buffer struct {
	Payload []byte
	Valid   int
	Offset  int
	Addr    net.Addr
	Err     error

	ptr  *heap.Ptr
	next *Buffer
}

// NewBuffer allocates a Buffer whose Payload is backed by a, so
// connection-dynamic byte storage goes through the heap allocator.
// Release it with Buffer.Release once the caller is done with it.
func NewBuffer(a *heap.Allocator, size int) (*Buffer, error) {
	p, err := a.Alloc(size, heap.CallSite{})
	if err != nil {
		return nil, err
	}
	return &Buffer{Payload: p.Bytes(), ptr: p}, nil
}

// Release returns the buffer's payload to a. Calling it twice, or on a
// Buffer not built by NewBuffer, is a no-op.
func (b *Buffer) Release(a *heap.Allocator) {
	if b.ptr == nil {
		return
	}
	a.Free(b.ptr)
	b.ptr = nil
}

// Reset clears Valid/Offset/Err/Addr for reuse, keeping the same Payload.
func (b *Buffer) Reset() {
	b.Valid = 0
	b.Offset = 0
	b.Addr = nil
	b.Err = nil
}
