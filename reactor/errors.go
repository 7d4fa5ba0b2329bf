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
	"fmt"

	liberr "github.com/dfdean/buildingblocks/errors"
)

const (
	// ENoResponse reports a timeout or a socket exception on the
	// operation that was waiting (connect, read, or write).
	ENoResponse liberr.CodeError = iota + liberr.MinPkgReactor
	// EEOF reports an orderly peer close discovered during a read.
	EEOF
	// EPeerDisconnected reports a send-side failure (reset peer, broken
	// pipe) discovered during a write, or a read failure other than an
	// orderly close.
	EPeerDisconnected
	// ETooManySockets reports that a new connection could not be
	// installed into the reactor's tables.
	ETooManySockets
	// ENoHostAddress reports a bind or dial target that could not be
	// resolved or parsed.
	ENoHostAddress
)

func init() {
	if liberr.ExistInMapMessage(ENoResponse) {
		panic(fmt.Errorf("error code collision buildingblocks/reactor"))
	}
	liberr.RegisterIdFctMessage(ENoResponse, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ENoResponse:
		return "operation timed out or the socket reported an exception"
	case EEOF:
		return "peer closed the connection"
	case EPeerDisconnected:
		return "send failed: peer disconnected"
	case ETooManySockets:
		return "reactor could not install the new connection"
	case ENoHostAddress:
		return "could not resolve bind or dial address"
	}

	return liberr.NullMessage
}
