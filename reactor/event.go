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

// EventKind identifies which block-I/O event a Callback is reporting.
// The contract is deliberately block-level: no HTTP or URL semantics
// leak into it, so higher layers can build request/response parsing on
// top without the reactor knowing about them.
type EventKind int

const (
	// IOConnect reports that open_client's non-blocking connect finished
	// (successfully or not; check Buffer.Err).
	IOConnect EventKind = iota
	// IOAccept reports a new inbound connection accepted by a listener.
	IOAccept
	// Read reports a completed (or failed) read_block_async.
	Read
	// Write reports a completed (or failed) write_block_async.
	Write
	// PeerDisconnect reports a read that ended the connection: an orderly
	// peer close (EEOF) or any other read failure (EPeerDisconnected).
	PeerDisconnect
)

func (k EventKind) String() string {
	switch k {
	case IOConnect:
		return "connect"
	case IOAccept:
		return "accept"
	case Read:
		return "read"
	case Write:
		return "write"
	case PeerDisconnect:
		return "peer-disconnect"
	default:
		return "unknown"
	}
}

// Callback is delivered exactly once per event per operation: a
// connection waiting on at most one outstanding operation of each kind
// (connect, read, write) receives at most one terminal notification for
// it, matching the source's single-delivery guarantee.
type Callback func(conn *Connection, kind EventKind, buf *Buffer)
