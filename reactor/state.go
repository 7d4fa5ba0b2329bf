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

import "fmt"

// connState is a connection's position in the per-connection state
// machine. Only the transitions named in legalNext, or staying in the
// current state, are allowed; Connection.setState rejects anything else.
type connState int

const (
	Connecting connState = iota
	Idle
	Reading
	Writing
	Accepting
	Closed
)

func (s connState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Writing:
		return "writing"
	case Accepting:
		return "accepting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

var legalNext = map[connState]map[connState]bool{
	Connecting: {Idle: true, Closed: true},
	Idle:       {Reading: true, Writing: true, Closed: true, Idle: true},
	Reading:    {Idle: true, Closed: true},
	Writing:    {Idle: true, Closed: true},
	Accepting:  {Accepting: true, Closed: true},
	Closed:     {Closed: true},
}

// setState moves the connection to next, rejecting any transition not
// named in legalNext; staying in the current state is always accepted.
// Closed is terminal: every state
// may transition into it, and Closed may only transition to itself
// (idempotent close).
func (c *Connection) setState(next connState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStateLocked(next)
}

func (c *Connection) setStateLocked(next connState) error {
	if c.state == next {
		return nil
	}
	if next == Closed {
		c.state = Closed
		return nil
	}
	if !legalNext[c.state][next] {
		return fmt.Errorf("reactor: illegal transition %s -> %s", c.state, next)
	}
	c.state = next
	return nil
}
