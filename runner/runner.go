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

// Package runner provides panic-recovery helpers shared by background workers
// across this module (the reactor event loop and connection pumps).
package runner

import (
	"fmt"
	"os"
)

// RecoveryCaller logs a recovered panic value to stderr, tagged with the
// caller-supplied name so the offending goroutine can be identified. A nil
// recovered value is a no-op, matching the common `defer recover()` idiom.
func RecoveryCaller(name string, recovered interface{}, context ...string) {
	if recovered == nil {
		return
	}

	if len(context) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "recovered panic in %s (%s): %v\n", name, context[0], recovered)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "recovered panic in %s: %v\n", name, recovered)
	}
}
