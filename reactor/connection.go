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
	"context"
	"io"
	"net"
	"sync"
	"time"
)

// opKind names which single outstanding operation a connection's
// timeout currently guards. A connection has at most one at a time,
// matching "connect OR read OR write, never more than one".
type opKind int

const (
	opNone opKind = iota
	opConnect
	opRead
	opWrite
)

// Connection is one socket the reactor knows about: a TCP client/server
// connection, a UDP endpoint, or a TCP listener. Its pending-read and
// pending-write queues are FIFO, guarded by mu, and serviced by a single
// dedicated pair of pump goroutines. Apart from the pumps, the only data
// transfer is the one immediate attempt ReadBlockAsync/WriteBlockAsync
// make on the submitting goroutine when their queue is empty.
type Connection struct {
	Handle string

	mu    sync.Mutex
	state connState
	slot  int

	isListener bool
	isPacket   bool

	netConn    net.Conn
	listener   net.Listener
	packetConn net.PacketConn

	callback Callback
	reactor  *Reactor

	readHead, readTail   *Buffer
	writeHead, writeTail *Buffer

	readWake  chan struct{}
	writeWake chan struct{}

	neverTimeout     bool
	timeoutOp        opKind
	timeoutRemaining time.Duration

	cancel      context.CancelFunc
	closeOnce   sync.Once
	closeQueued bool
}

func newConnection(r *Reactor, cb Callback) *Connection {
	return &Connection{
		reactor:   r,
		callback:  cb,
		slot:      -1,
		readWake:  make(chan struct{}, 1),
		writeWake: make(chan struct{}, 1),
	}
}

// State returns the connection's current position in the state machine.
func (c *Connection) State() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// startTimeout arms the connection's single outstanding timeout for op.
// A zero dur, or a connection opened with FlagNeverTimeout, never arms.
func (c *Connection) startTimeout(op opKind, dur time.Duration) {
	c.mu.Lock()
	if c.neverTimeout || dur <= 0 {
		c.mu.Unlock()
		return
	}
	c.timeoutOp = op
	c.timeoutRemaining = dur
	c.mu.Unlock()
}

// cancelTimeout clears the outstanding timeout if it still guards op.
func (c *Connection) cancelTimeout(op opKind) {
	c.mu.Lock()
	if c.timeoutOp == op {
		c.timeoutOp = opNone
		c.timeoutRemaining = 0
	}
	c.mu.Unlock()
}

// tickTimeout decrements the outstanding timeout by elapsed and reports
// whether it just expired, clearing it if so (a timeout fires at most
// once per operation).
func (c *Connection) tickTimeout(elapsed time.Duration) (opKind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeoutOp == opNone || c.timeoutRemaining <= 0 {
		return opNone, false
	}
	c.timeoutRemaining -= elapsed
	if c.timeoutRemaining > 0 {
		return opNone, false
	}
	op := c.timeoutOp
	c.timeoutOp = opNone
	c.timeoutRemaining = 0
	return op, true
}

// fireTimeout claims the outstanding timeout for op, so the pump deadline
// path and the housekeeping sweep cannot both report it. It returns false
// if the timeout was already cancelled, claimed, or never armed.
func (c *Connection) fireTimeout(op opKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeoutOp != op {
		return false
	}
	c.timeoutOp = opNone
	c.timeoutRemaining = 0
	return true
}

// eventFor maps a waiting operation to the event kind its waiter is
// expecting a terminal notification on.
func eventFor(op opKind) EventKind {
	switch op {
	case opConnect:
		return IOConnect
	case opWrite:
		return Write
	default:
		return Read
	}
}

// failOp delivers the single terminal error event for op and tears the
// connection down: queues drained, state Closed, socket handed to the
// reactor's pending-close queue.
func (c *Connection) failOp(op opKind, err error) {
	buf := &Buffer{Err: err}
	c.prepareToDisconnect()
	_ = c.setState(Closed)
	c.deliver(eventFor(op), buf)
	if c.reactor != nil {
		c.reactor.requestClose(c)
	}
}

func (c *Connection) enqueueRead(buf *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf.next = nil
	if c.readTail == nil {
		c.readHead, c.readTail = buf, buf
	} else {
		c.readTail.next = buf
		c.readTail = buf
	}
}

func (c *Connection) popRead() *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.readHead
	if b == nil {
		return nil
	}
	c.readHead = b.next
	if c.readHead == nil {
		c.readTail = nil
	}
	b.next = nil
	return b
}

func (c *Connection) enqueueWrite(buf *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf.next = nil
	if c.writeTail == nil {
		c.writeHead, c.writeTail = buf, buf
	} else {
		c.writeTail.next = buf
		c.writeTail = buf
	}
}

func (c *Connection) popWrite() *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.writeHead
	if b == nil {
		return nil
	}
	c.writeHead = b.next
	if c.writeHead == nil {
		c.writeTail = nil
	}
	b.next = nil
	return b
}

// drainQueues discards every parked read and write, returning allocator
// backed payloads to the heap so Close does not leak a FIFO into a
// connection nobody will ever service again.
func (c *Connection) drainQueues() {
	c.mu.Lock()
	rh, wh := c.readHead, c.writeHead
	c.readHead, c.readTail = nil, nil
	c.writeHead, c.writeTail = nil, nil
	c.mu.Unlock()

	for _, head := range []*Buffer{rh, wh} {
		for b := head; b != nil; {
			next := b.next
			b.next = nil
			if c.reactor != nil {
				b.Release(c.reactor.alloc)
			}
			b = next
		}
	}
}

func (c *Connection) deliver(kind EventKind, buf *Buffer) {
	if c.callback != nil {
		c.callback(c, kind, buf)
	}
}

// ReadBlockAsync enqueues a read. If no read is already pending, it first
// tries a non-blocking attempt (a read deadline of now): if that already
// produced data, EOF, or an error, the callback fires before this call
// returns. Otherwise the buffer is parked and serviced by the
// connection's read pump once data becomes available.
func (c *Connection) ReadBlockAsync(buf *Buffer) error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return ENoResponse.Error(nil)
	}
	noneQueued := c.readHead == nil
	ready := c.netConn != nil || c.packetConn != nil
	c.mu.Unlock()

	if noneQueued && ready {
		if n, addr, err, wouldBlock := c.attemptRead(buf, time.Now()); !wouldBlock {
			c.finishRead(buf, n, addr, err)
			return nil
		}
	}

	c.enqueueRead(buf)
	_ = c.setState(Reading)
	c.startTimeout(opRead, c.reactor.cfg.ReadTimeout)
	c.reactor.arm(dirRead, c)
	c.wake(c.readWake)
	return nil
}

// WriteBlockAsync mirrors ReadBlockAsync for sends: buf.Payload[Offset:Valid]
// is the payload still to send, and Offset advances as bytes go out.
func (c *Connection) WriteBlockAsync(buf *Buffer) error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return ENoResponse.Error(nil)
	}
	noneQueued := c.writeHead == nil
	ready := c.netConn != nil || c.packetConn != nil
	c.mu.Unlock()

	if noneQueued && ready {
		n, err, wouldBlock := c.attemptWrite(buf, time.Now())
		if !wouldBlock {
			c.finishWrite(buf, n, err)
			return nil
		}
		buf.Offset += n
	}

	c.enqueueWrite(buf)
	_ = c.setState(Writing)
	c.startTimeout(opWrite, c.reactor.cfg.WriteTimeout)
	c.reactor.arm(dirWrite, c)
	c.wake(c.writeWake)
	return nil
}

// attemptRead issues one Read/ReadFrom call against deadline. wouldBlock
// is true only when the deadline tripped with nothing to report, the
// connection's analogue of EWOULDBLOCK.
func (c *Connection) attemptRead(buf *Buffer, deadline time.Time) (n int, addr net.Addr, err error, wouldBlock bool) {
	c.mu.Lock()
	nc, pc := c.netConn, c.packetConn
	c.mu.Unlock()
	if nc == nil && pc == nil {
		return 0, nil, io.ErrClosedPipe, false
	}

	space := buf.Payload[buf.Offset:]
	if pc != nil {
		_ = pc.SetReadDeadline(deadline)
		n, addr, err = pc.ReadFrom(space)
	} else {
		_ = nc.SetReadDeadline(deadline)
		n, err = nc.Read(space)
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			if n > 0 {
				// Data arrived before the deadline tripped; report it as
				// an ordinary completed read.
				return n, addr, nil, false
			}
			return 0, nil, nil, true
		}
	}
	return n, addr, err, false
}

func (c *Connection) attemptWrite(buf *Buffer, deadline time.Time) (n int, err error, wouldBlock bool) {
	c.mu.Lock()
	nc, pc := c.netConn, c.packetConn
	c.mu.Unlock()
	if nc == nil && pc == nil {
		return 0, io.ErrClosedPipe, false
	}

	payload := buf.Payload[buf.Offset:buf.Valid]
	if pc != nil {
		_ = pc.SetWriteDeadline(deadline)
		n, err = pc.WriteTo(payload, buf.Addr)
	} else {
		_ = nc.SetWriteDeadline(deadline)
		n, err = nc.Write(payload)
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			// Keep whatever partial progress the socket made so the bytes
			// are not re-sent when the buffer is re-attempted.
			return n, nil, true
		}
	}
	return n, err, false
}

func (c *Connection) finishRead(buf *Buffer, n int, addr net.Addr, err error) {
	if c.State() == Closed {
		// Close won the race while the read was in flight; the terminal
		// event for this connection has already been delivered.
		return
	}
	c.cancelTimeout(opRead)
	buf.Valid = n
	buf.Addr = addr
	buf.Err = nil

	if err != nil {
		if err == io.EOF {
			buf.Err = EEOF.Error(err)
		} else {
			buf.Err = EPeerDisconnected.Error(err)
		}
		c.prepareToDisconnect()
		_ = c.setState(Closed)
		c.deliver(PeerDisconnect, buf)
		if c.reactor != nil {
			c.reactor.requestClose(c)
		}
		return
	}

	_ = c.setState(Idle)
	c.deliver(Read, buf)
}

func (c *Connection) finishWrite(buf *Buffer, n int, err error) {
	if c.State() == Closed {
		return
	}
	c.cancelTimeout(opWrite)
	buf.Offset += n
	buf.Err = nil

	if err != nil {
		buf.Err = EPeerDisconnected.Error(err)
		c.prepareToDisconnect()
		_ = c.setState(Closed)
		c.deliver(Write, buf)
		if c.reactor != nil {
			c.reactor.requestClose(c)
		}
		return
	}

	_ = c.setState(Idle)
	c.deliver(Write, buf)
}

// readPump services parked reads one at a time, in FIFO order, blocking
// on the real socket with the connection's read timeout as its deadline.
// A deadline trip that still holds the armed timeout becomes the single
// ENoResponse delivery for the read.
func (c *Connection) readPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.readWake:
		}
		for {
			buf := c.popRead()
			if buf == nil {
				c.reactor.disarm(dirRead, c)
				break
			}
			deadline := time.Time{}
			if !c.neverTimeout && c.reactor.cfg.ReadTimeout > 0 {
				deadline = time.Now().Add(c.reactor.cfg.ReadTimeout)
			}
			n, addr, err, wouldBlock := c.attemptRead(buf, deadline)
			if wouldBlock {
				if c.fireTimeout(opRead) {
					buf.Err = ENoResponse.Error(nil)
					c.failOp(opRead, buf.Err)
					return nil
				}
				if c.State() == Closed {
					return nil
				}
				c.enqueueRead(buf)
				continue
			}
			c.finishRead(buf, n, addr, err)
			if c.State() == Closed {
				return nil
			}
		}
	}
}

// writePump mirrors readPump for sends, resubmitting a partially sent
// buffer until it fully drains or the connection closes. The write
// direction is disarmed as soon as the queue empties so an idle, always
// writable socket is not busy-polled.
func (c *Connection) writePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.writeWake:
		}
		for {
			buf := c.popWrite()
			if buf == nil {
				c.reactor.disarm(dirWrite, c)
				break
			}
			deadline := time.Time{}
			if !c.neverTimeout && c.reactor.cfg.WriteTimeout > 0 {
				deadline = time.Now().Add(c.reactor.cfg.WriteTimeout)
			}
			var err error
			var wouldBlock bool
			for buf.Offset < buf.Valid {
				var n int
				n, err, wouldBlock = c.attemptWrite(buf, deadline)
				buf.Offset += n
				if err != nil || wouldBlock {
					break
				}
			}
			switch {
			case wouldBlock:
				if c.fireTimeout(opWrite) {
					buf.Err = ENoResponse.Error(nil)
					c.failOp(opWrite, buf.Err)
					return nil
				}
				if c.State() == Closed {
					return nil
				}
				c.enqueueWrite(buf)
				continue
			case err != nil:
				c.finishWrite(buf, 0, err)
			default:
				c.finishWrite(buf, 0, nil)
			}
			if c.State() == Closed {
				return nil
			}
		}
	}
}

// prepareToDisconnect discards whatever is left in the queues: a close
// drains pending reads rather than trying to service a socket that is
// about to go away.
func (c *Connection) prepareToDisconnect() {
	c.drainQueues()
}
