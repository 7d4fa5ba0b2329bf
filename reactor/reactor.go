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

// Package reactor is an asynchronous network I/O multiplexer: it owns
// every TCP/UDP socket it opens, dispatches connect/accept/read/write
// completions to per-connection callbacks, enforces per-operation
// timeouts, and tears sockets down safely on close or error. One logical
// event loop per Reactor performs housekeeping (pending-close draining
// and timeout sweeps); per-connection pump goroutines, scheduled by the
// runtime netpoller, move the bytes.
package reactor

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/dfdean/buildingblocks/heap"
	"github.com/dfdean/buildingblocks/logger"
	"github.com/dfdean/buildingblocks/nametable"
	"github.com/dfdean/buildingblocks/platform"
	libcfg "github.com/dfdean/buildingblocks/reactor/config"
	"github.com/dfdean/buildingblocks/runner"
	"github.com/dfdean/buildingblocks/runner/startStop"
	"github.com/hashicorp/go-uuid"
)

// OpenFlags tunes one OpenClient/OpenServer call.
type OpenFlags uint8

const (
	// FlagNeverTimeout exempts the connection from every per-operation
	// timeout: its connect, reads and writes wait indefinitely.
	FlagNeverTimeout OpenFlags = 1 << iota
)

// direction indexes the reactor's armed-socket sets.
type direction int

const (
	dirRead direction = iota
	dirWrite
	dirExc
)

// Reactor owns its connections: their handle table, their armed-direction
// sets, the pending-close queue, and the housekeeping loop. Other
// goroutines may call OpenClient/OpenServer/Close and the Connection
// submit methods concurrently; each briefly takes the reactor lock. Close
// pokes the loop through the wake channel; submissions wake the
// connection's own pumps.
type Reactor struct {
	cfg libcfg.Config
	log logger.FuncLog
	clk platform.Clock

	alloc *heap.Allocator

	mu        sync.Mutex
	handles   *nametable.Table
	conns     []*Connection
	freeSlots []int
	active    int

	readSet  *bitset.BitSet
	writeSet *bitset.BitSet
	excSet   *bitset.BitSet

	pendingClose []*Connection
	allClosed    chan<- struct{}

	// wake has capacity one: a send that finds it full is the suppressed
	// redundant wake-up of the self-pipe scheme.
	wake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	loop   startStop.StartStop

	metrics *PromMetrics
}

// Option customises a Reactor at construction.
type Option func(*Reactor)

// WithLogger routes the reactor's housekeeping warnings through log.
func WithLogger(log logger.FuncLog) Option {
	return func(r *Reactor) { r.log = log }
}

// WithClock substitutes the housekeeping time source, for deterministic
// timeout tests.
func WithClock(clk platform.Clock) Option {
	return func(r *Reactor) { r.clk = clk }
}

// WithAllocator sets the heap allocator backing Buffer payloads handed
// out by the reactor's AllocBuffer convenience.
func WithAllocator(a *heap.Allocator) Option {
	return func(r *Reactor) { r.alloc = a }
}

// New builds a Reactor with cfg (zero fields filled from the defaults).
// Call Start before opening connections.
func New(cfg libcfg.Config, opts ...Option) *Reactor {
	r := &Reactor{
		cfg:      cfg.Sanitize(),
		clk:      platform.SystemClock{},
		handles:  nametable.New(8),
		readSet:  bitset.New(64),
		writeSet: bitset.New(64),
		excSet:   bitset.New(64),
		wake:     make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(r)
	}
	if r.alloc == nil {
		r.alloc = heap.Default()
	}
	r.loop = platform.Spawn("buildingblocks/reactor/loop", r.run, func(ctx context.Context) error {
		r.wakeUp()
		return nil
	})
	return r
}

// Start launches the housekeeping loop. It is an error to start a
// reactor twice without stopping it in between.
func (r *Reactor) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()
	return r.loop.Start(ctx)
}

// Stop closes every live connection, drains the pending-close queue, and
// stops the housekeeping loop.
func (r *Reactor) Stop(ctx context.Context) error {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		if c != nil {
			conns = append(conns, c)
		}
	}
	cancel := r.cancel
	r.mu.Unlock()

	for _, c := range conns {
		r.Close(c)
	}
	if cancel != nil {
		cancel()
	}
	err := r.loop.Stop(ctx)
	r.drainPendingClose()
	return err
}

// AllocBuffer returns a Buffer backed by the reactor's allocator.
func (r *Reactor) AllocBuffer(size int) (*Buffer, error) {
	return NewBuffer(r.alloc, size)
}

// ReleaseBuffer returns buf's payload to the reactor's allocator.
func (r *Reactor) ReleaseBuffer(buf *Buffer) {
	buf.Release(r.alloc)
}

// Lookup resolves a connection handle through the reactor's name table.
func (r *Reactor) Lookup(handle string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.handles.GetValue([]byte(handle))
	if !ok {
		return nil, false
	}
	c, ok := v.(*Connection)
	return c, ok
}

// ActiveConnections reports how many connections (listeners included)
// the reactor currently tracks.
func (r *Reactor) ActiveConnections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// NotifyAllClosed registers ch to receive a (non-blocking) signal each
// time the pending-close queue drains with no live connection left.
func (r *Reactor) NotifyAllClosed(ch chan<- struct{}) {
	r.mu.Lock()
	r.allClosed = ch
	r.mu.Unlock()
}

func (r *Reactor) warn(message string, args ...interface{}) {
	if r.log == nil {
		return
	}
	if l := r.log(); l != nil {
		l.Warning(message, args...)
	}
}

// wakeUp pokes the housekeeping loop. The buffered channel collapses
// redundant wake-ups the way the pending_wakeup flag suppresses
// redundant self-pipe writes.
func (r *Reactor) wakeUp() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reactor) arm(d direction, c *Connection) {
	r.mu.Lock()
	if c.slot >= 0 {
		r.set(d).Set(uint(c.slot))
	}
	r.mu.Unlock()
}

func (r *Reactor) disarm(d direction, c *Connection) {
	r.mu.Lock()
	if c.slot >= 0 {
		r.set(d).Clear(uint(c.slot))
	}
	r.mu.Unlock()
}

func (r *Reactor) set(d direction) *bitset.BitSet {
	switch d {
	case dirWrite:
		return r.writeSet
	case dirExc:
		return r.excSet
	default:
		return r.readSet
	}
}

// armed reports whether c's slot is currently set for d: a connection
// appears in a direction's set only while an operation of that kind is
// parked.
func (r *Reactor) armed(d direction, c *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return c.slot >= 0 && r.set(d).Test(uint(c.slot))
}

// install assigns c a slot and a handle and enters it into the reactor's
// tables. It fails with ETooManySockets at the connection cap.
func (r *Reactor) install(c *Connection) error {
	h, err := uuid.GenerateUUID()
	if err != nil {
		return ETooManySockets.Error(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active >= r.cfg.MaxConnections {
		return ETooManySockets.Error(nil)
	}

	var slot int
	if n := len(r.freeSlots); n > 0 {
		slot = r.freeSlots[n-1]
		r.freeSlots = r.freeSlots[:n-1]
		r.conns[slot] = c
	} else {
		slot = len(r.conns)
		r.conns = append(r.conns, c)
	}

	c.Handle = h
	c.slot = slot
	if err := r.handles.SetValue([]byte(h), c); err != nil {
		r.conns[slot] = nil
		r.freeSlots = append(r.freeSlots, slot)
		return ETooManySockets.Error(err)
	}
	r.active++
	return nil
}

// startPumps launches c's read and write pumps under the reactor's
// lifetime context.
func (r *Reactor) startPumps(c *Connection) {
	ctx, cancel := context.WithCancel(r.loopContext())
	c.cancel = cancel
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				runner.RecoveryCaller("buildingblocks/reactor/readPump", rec)
			}
		}()
		_ = c.readPump(ctx)
	}()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				runner.RecoveryCaller("buildingblocks/reactor/writePump", rec)
			}
		}()
		_ = c.writePump(ctx)
	}()
}

func (r *Reactor) loopContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// OpenClient opens a non-blocking TCP client connection to url (of the
// form "tcp://host:port") and reports completion through cb's IOConnect
// event: Buffer.Err nil on success, ENoResponse on timeout or refusal,
// ENoHostAddress when the name does not resolve. The returned Connection
// is immediately installed in the reactor's tables, in Connecting state.
func (r *Reactor) OpenClient(url string, flags OpenFlags, cb Callback) (*Connection, error) {
	bind, err := libcfg.ParseBindURL(url)
	if err != nil {
		return nil, ENoHostAddress.Error(err)
	}

	c := newConnection(r, cb)
	c.state = Connecting
	c.neverTimeout = flags&FlagNeverTimeout != 0

	if err := r.install(c); err != nil {
		return nil, err
	}

	c.startTimeout(opConnect, r.cfg.ConnectTimeout)

	go r.dial(c, bind)
	return c, nil
}

// dial performs the asynchronous connect for OpenClient on its own
// goroutine, delivering exactly one IOConnect event. The housekeeping
// sweep may beat it to the timeout; fireTimeout arbitrates so only one
// of the two reports it.
func (r *Reactor) dial(c *Connection, bind libcfg.BindAddress) {
	defer func() {
		if rec := recover(); rec != nil {
			runner.RecoveryCaller("buildingblocks/reactor/dial", rec)
		}
	}()

	ctx := r.loopContext()
	var cancel context.CancelFunc
	if !c.neverTimeout && r.cfg.ConnectTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ConnectTimeout)
		defer cancel()
	}

	d := net.Dialer{}
	nc, err := d.DialContext(ctx, bind.Network, bind.Address)

	if c.State() == Closed {
		// Closed (or timed out via housekeeping) while dialing; the
		// terminal IOConnect has already been delivered.
		if nc != nil {
			_ = nc.Close()
		}
		return
	}

	if err != nil {
		if !c.fireTimeout(opConnect) && !c.neverTimeout {
			return
		}
		code := ENoResponse
		if isNoHost(err) {
			code = ENoHostAddress
		}
		c.failOp(opConnect, code.Error(err))
		return
	}

	c.cancelTimeout(opConnect)
	tuneConn(nc)

	c.mu.Lock()
	c.netConn = nc
	c.mu.Unlock()

	if err := c.setState(Idle); err != nil {
		_ = nc.Close()
		return
	}

	r.startPumps(c)
	if r.metrics != nil {
		r.metrics.Connects.Inc()
	}
	c.deliver(IOConnect, &Buffer{})
}

func isNoHost(err error) bool {
	if _, ok := err.(*net.DNSError); ok {
		return true
	}
	return strings.Contains(err.Error(), "no such host")
}

// tuneConn sizes the socket buffers, halving on failure until the MTU
// floor, on TCP connections. Nagle is already disabled by default for Go
// TCP sockets, and writes never raise SIGPIPE, so neither needs arming
// here.
func tuneConn(nc net.Conn) {
	tc, ok := nc.(*net.TCPConn)
	if !ok {
		return
	}
	const mtuFloor = 1500
	for size := 64 * 1024; size >= mtuFloor; size /= 2 {
		if tc.SetReadBuffer(size) == nil {
			break
		}
	}
	for size := 64 * 1024; size >= mtuFloor; size /= 2 {
		if tc.SetWriteBuffer(size) == nil {
			break
		}
	}
}

// OpenServer opens a listening connection: a TCP listener (udp false)
// whose accepted sockets are wrapped into new connections and announced
// through cb's IOAccept event, or a UDP endpoint (udp true) that reads
// and writes datagrams through the usual block calls. Port zero lets the
// OS pick; loopbackOnly binds 127.0.0.1 instead of every interface.
func (r *Reactor) OpenServer(udp bool, port int, loopbackOnly bool, cb Callback) (*Connection, error) {
	host := "0.0.0.0"
	if loopbackOnly {
		host = "127.0.0.1"
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	c := newConnection(r, cb)
	c.isListener = !udp
	c.isPacket = udp

	if udp {
		pc, err := net.ListenPacket("udp", addr)
		if err != nil {
			return nil, ENoHostAddress.Error(err)
		}
		c.packetConn = pc
		c.state = Idle
	} else {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, ENoHostAddress.Error(err)
		}
		c.listener = l
		c.state = Accepting
	}

	if err := r.install(c); err != nil {
		if c.listener != nil {
			_ = c.listener.Close()
		}
		if c.packetConn != nil {
			_ = c.packetConn.Close()
		}
		return nil, err
	}

	if udp {
		r.startPumps(c)
	} else {
		ctx, cancel := context.WithCancel(r.loopContext())
		c.cancel = cancel
		go r.acceptPump(ctx, c)
	}
	return c, nil
}

// Addr reports the connection's bound local address (useful with an
// OS-assigned port).
func (c *Connection) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.listener != nil:
		return c.listener.Addr()
	case c.packetConn != nil:
		return c.packetConn.LocalAddr()
	case c.netConn != nil:
		return c.netConn.LocalAddr()
	default:
		return nil
	}
}

// acceptPump wraps each accepted socket in a new connection carrying the
// listener's callback and announces it with IOAccept. The new connection
// is already installed and pumping when the callback sees it.
func (r *Reactor) acceptPump(ctx context.Context, lc *Connection) {
	defer func() {
		if rec := recover(); rec != nil {
			runner.RecoveryCaller("buildingblocks/reactor/acceptPump", rec)
		}
	}()

	for {
		nc, err := lc.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if lc.State() == Closed {
				return
			}
			r.warn("accept on %s failed: %v", lc.Handle, err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		tuneConn(nc)
		ac := newConnection(r, lc.callback)
		ac.state = Idle
		ac.neverTimeout = lc.neverTimeout
		ac.netConn = nc

		if err := r.install(ac); err != nil {
			r.warn("dropping accepted socket: %v", err)
			_ = nc.Close()
			continue
		}

		r.startPumps(ac)
		if r.metrics != nil {
			r.metrics.Accepts.Inc()
		}
		ac.deliver(IOAccept, nil)
	}
}

// Close requests teardown of c. It is idempotent and asynchronous: c is
// marked Closed immediately (subsequent submissions fail synchronously),
// its parked buffers are discarded, and the loop closes the socket and
// removes c from the tables during housekeeping.
func (r *Reactor) Close(c *Connection) {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.prepareToDisconnect()
		_ = c.setState(Closed)
		r.requestClose(c)
	})
}

// requestClose queues c for the housekeeping pass. Safe to call from any
// goroutine, any number of times.
func (r *Reactor) requestClose(c *Connection) {
	r.mu.Lock()
	queued := c.closeQueued
	c.closeQueued = true
	if !queued {
		r.pendingClose = append(r.pendingClose, c)
	}
	r.mu.Unlock()
	if !queued {
		r.wakeUp()
	}
}

// run is the housekeeping loop: the event-loop half the pump goroutines
// do not cover. Each pass drains pending-close; at least every
// HousekeepingInterval it also sweeps outstanding timeouts.
func (r *Reactor) run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.HousekeepingInterval)
	defer ticker.Stop()

	lastSweep := r.clk.NowMillis()
	for {
		select {
		case <-ctx.Done():
			r.drainPendingClose()
			return nil
		case <-r.wake:
		case <-ticker.C:
		}

		r.drainPendingClose()

		now := r.clk.NowMillis()
		if elapsed := now - lastSweep; elapsed >= r.cfg.HousekeepingInterval.Milliseconds() {
			lastSweep = now
			r.sweepTimeouts(time.Duration(elapsed) * time.Millisecond)
			r.drainPendingClose()
		}
	}
}

// Sweep triggers one timeout sweep as if the housekeeping interval had
// elapsed, advancing every outstanding timeout by elapsed.
func (r *Reactor) Sweep(elapsed time.Duration) {
	r.sweepTimeouts(elapsed)
	r.drainPendingClose()
}

// sweepTimeouts walks every connection, decrements its outstanding
// timeout by elapsed, and reports ENoResponse to at most MaxTimeoutBatch
// of the expired ones. A timeout fires at most once per operation;
// stragglers past the batch limit fire on the next sweep.
func (r *Reactor) sweepTimeouts(elapsed time.Duration) {
	r.mu.Lock()
	conns := make([]*Connection, 0, r.active)
	for _, c := range r.conns {
		if c != nil {
			conns = append(conns, c)
		}
	}
	batch := r.cfg.MaxTimeoutBatch
	r.mu.Unlock()

	type expired struct {
		c  *Connection
		op opKind
	}
	fired := make([]expired, 0, 8)
	for _, c := range conns {
		if len(fired) >= batch {
			break
		}
		if op, ok := c.tickTimeout(elapsed); ok {
			fired = append(fired, expired{c, op})
		}
	}

	for _, e := range fired {
		if r.metrics != nil {
			r.metrics.TimeoutsFired.Inc()
		}
		e.c.failOp(e.op, ENoResponse.Error(nil))
	}
}

// drainPendingClose performs the teardown only the loop side does: pull
// each queued connection out of the tables and the armed sets, stop its
// pumps, close its socket, and discard whatever its queues still held.
func (r *Reactor) drainPendingClose() {
	for {
		r.mu.Lock()
		if len(r.pendingClose) == 0 {
			signal := r.allClosed
			empty := r.active == 0
			r.mu.Unlock()
			if empty && signal != nil {
				select {
				case signal <- struct{}{}:
				default:
				}
			}
			return
		}
		c := r.pendingClose[0]
		r.pendingClose = r.pendingClose[1:]

		if c.slot >= 0 {
			r.readSet.Clear(uint(c.slot))
			r.writeSet.Clear(uint(c.slot))
			r.excSet.Clear(uint(c.slot))
			r.conns[c.slot] = nil
			r.freeSlots = append(r.freeSlots, c.slot)
			c.slot = -1
		}
		if c.Handle != "" {
			r.handles.RemoveValue([]byte(c.Handle))
		}
		r.active--
		r.mu.Unlock()

		_ = c.setState(Closed)
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Lock()
		nc, l, pc := c.netConn, c.listener, c.packetConn
		c.netConn, c.listener, c.packetConn = nil, nil, nil
		c.mu.Unlock()
		if nc != nil {
			_ = nc.Close()
		}
		if l != nil {
			_ = l.Close()
		}
		if pc != nil {
			_ = pc.Close()
		}
		c.drainQueues()
	}
}
