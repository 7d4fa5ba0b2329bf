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

package platform

import (
	"context"

	"github.com/dfdean/buildingblocks/runner"
	"github.com/dfdean/buildingblocks/runner/startStop"
)

// Spawn wraps run as a restartable background worker, the Go-idiomatic
// replacement for the source's raw thread-spawn primitive: a goroutine
// plus a StartStop lifecycle instead of a bare OS thread handle. Panics
// inside run are recovered and logged under name rather than crashing
// the process, matching runner.RecoveryCaller's use elsewhere in this
// module.
func Spawn(name string, run func(ctx context.Context) error, closeFn func(ctx context.Context) error) startStop.StartStop {
	guarded := func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				runner.RecoveryCaller(name, r)
			}
		}()
		return run(ctx)
	}
	return startStop.New(guarded, closeFn)
}
