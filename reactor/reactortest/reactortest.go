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

// Package reactortest provides network-level test doubles for reactor
// tests: loopback peers that send, reset, or simply never answer. The
// error-simulation hooks live here, out of the production reactor, so a
// test can provoke a peer reset or a dead connect target with real
// sockets instead of a synthetic error path inside the reactor.
package reactortest

import (
	"net"
	"sync"
)

// BlackholeAddr is a bind URL whose connect never completes: a TEST-NET-1
// address (RFC 5737) that no local network routes, so the SYN is dropped
// and the dialer waits out its timeout.
const BlackholeAddr = "tcp://192.0.2.1:9"

// Peer is a loopback TCP listener driven by a per-connection script. It
// stands in for whatever remote the reactor under test is talking to.
type Peer struct {
	l      net.Listener
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewPeer starts a loopback listener running script on every inbound
// connection. The script owns the net.Conn and must close it.
func NewPeer(script func(net.Conn)) (*Peer, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	p := &Peer{l: l}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				script(c)
			}()
		}
	}()
	return p, nil
}

// URL returns the peer's address as a reactor bind URL.
func (p *Peer) URL() string { return "tcp://" + p.l.Addr().String() }

// Close stops accepting and waits for every running script to finish.
func (p *Peer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	_ = p.l.Close()
	p.wg.Wait()
}

// SendPeer returns a Peer that writes payload to each inbound connection
// and then holds it open until the other side closes.
func SendPeer(payload []byte) (*Peer, error) {
	return NewPeer(func(c net.Conn) {
		defer c.Close()
		if _, err := c.Write(payload); err != nil {
			return
		}
		buf := make([]byte, 1)
		for {
			if _, err := c.Read(buf); err != nil {
				return
			}
		}
	})
}

// ResetPeer returns a Peer that reads at most drain bytes from each
// inbound connection and then resets it: SO_LINGER zero turns the close
// into an RST, the send-side failure the reactor reports as
// peer-disconnected.
func ResetPeer(drain int) (*Peer, error) {
	return NewPeer(func(c net.Conn) {
		if drain > 0 {
			buf := make([]byte, drain)
			_, _ = c.Read(buf)
		}
		if tc, ok := c.(*net.TCPConn); ok {
			_ = tc.SetLinger(0)
		}
		_ = c.Close()
	})
}

// SilentPeer returns a Peer that accepts and then never sends a byte,
// for read-timeout tests.
func SilentPeer() (*Peer, error) {
	return NewPeer(func(c net.Conn) {
		buf := make([]byte, 1)
		for {
			if _, err := c.Read(buf); err != nil {
				_ = c.Close()
				return
			}
		}
	})
}
