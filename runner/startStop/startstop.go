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

// Package startStop wraps a long-running function with a common
// start/stop/restart lifecycle, tracked uptime, and a bounded error history.
// It backs the reactor's event loop and other background workers.
package startStop

import (
	"context"
	"errors"
	"sync"
	"time"
)

const maxErrorHistory = 32

// StartStop is a restartable background worker: Start launches run in its
// own goroutine, and Stop cancels it and waits for exit; Start may be called
// again after Stop.
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

// New wraps run (the worker body, returning when ctx is done or it fails)
// and closeFn (invoked by Stop once run has returned, to release resources).
func New(run func(ctx context.Context) error, closeFn func(ctx context.Context) error) StartStop {
	return &startStop{
		run:   run,
		close: closeFn,
	}
}

type startStop struct {
	mu      sync.Mutex
	run     func(ctx context.Context) error
	close   func(ctx context.Context) error
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
	running bool
	errs    []error
}

// recordErr appends err to the bounded error history. Callers must hold mu.
func (s *startStop) recordErr(err error) {
	s.errs = append(s.errs, err)
	if len(s.errs) > maxErrorHistory {
		s.errs = s.errs[len(s.errs)-maxErrorHistory:]
	}
}

func (s *startStop) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.run == nil {
		s.recordErr(errors.New("invalid start function"))
		s.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = time.Now()
	s.running = true
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		err := s.run(runCtx)
		s.mu.Lock()
		s.running = false
		if err != nil {
			s.recordErr(err)
		}
		s.mu.Unlock()
	}()

	return nil
}

func (s *startStop) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	closeFn := s.close
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if closeFn == nil {
		s.mu.Lock()
		s.recordErr(errors.New("invalid stop function"))
		s.mu.Unlock()
		return nil
	}

	if err := closeFn(ctx); err != nil {
		s.mu.Lock()
		s.recordErr(err)
		s.mu.Unlock()
	}

	return nil
}

func (s *startStop) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *startStop) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return time.Since(s.started)
}

func (s *startStop) ErrorsLast() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) < 1 {
		return nil
	}
	return s.errs[len(s.errs)-1]
}

func (s *startStop) ErrorsList() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}
