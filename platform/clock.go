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

// Package platform collects the handful of OS-facing primitives the rest
// of this module needs: a millisecond clock, the page size, and a
// goroutine-lifecycle spawner, standing in for the source's
// osIndependentLayer abstractions now that the reactor's own select loop
// has been replaced by the Go runtime's netpoller.
package platform

import "time"

// Clock is a millisecond time source, injectable so reactor timeout tests
// do not depend on wall-clock time.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

// NowMillis returns the current time in milliseconds since the Unix epoch.
func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// FixedClock is a Clock whose value only advances when told to, for
// deterministic timeout tests.
type FixedClock struct {
	millis int64
}

// NewFixedClock returns a FixedClock starting at startMillis.
func NewFixedClock(startMillis int64) *FixedClock {
	return &FixedClock{millis: startMillis}
}

// NowMillis returns the clock's current value.
func (c *FixedClock) NowMillis() int64 { return c.millis }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.millis += d.Milliseconds()
}
