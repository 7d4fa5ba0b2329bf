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

// Package config holds the tunable constants of the heap allocator: the
// size-class floor and ceiling, the exact-size cache cutoff, the region
// growth increment, and the debug-mode switch.
package config

import "github.com/dfdean/buildingblocks/size"

// Config tunes a heap.Allocator. The zero value is not usable; call
// Default() for sane values.
type Config struct {
	// MinBlock is the smallest payload capacity a free block is allowed to
	// carry; splits that would leave a remainder below this are skipped.
	MinBlock size.Size `json:"min-block,omitempty" yaml:"min-block,omitempty" toml:"min-block,omitempty" mapstructure:"min-block,omitempty"`

	// MaxBlock is the largest size class the free lists track.
	MaxBlock size.Size `json:"max-block,omitempty" yaml:"max-block,omitempty" toml:"max-block,omitempty" mapstructure:"max-block,omitempty"`

	// CacheUpperSize is the largest exact user-requested size eligible for
	// the size-class cache fast path.
	CacheUpperSize size.Size `json:"cache-upper-size,omitempty" yaml:"cache-upper-size,omitempty" toml:"cache-upper-size,omitempty" mapstructure:"cache-upper-size,omitempty"`

	// GrowSize is the minimum size of a new base region, rounded up to the
	// next power of two together with the requested allocation.
	GrowSize size.Size `json:"grow-size,omitempty" yaml:"grow-size,omitempty" toml:"grow-size,omitempty" mapstructure:"grow-size,omitempty"`

	// CacheSensitivity is the number of times a cache slot's max depth may
	// grow before its miss threshold is allowed to decrement, making the
	// slot more eager to grow further.
	CacheSensitivity int `json:"cache-sensitivity,omitempty" yaml:"cache-sensitivity,omitempty" toml:"cache-sensitivity,omitempty" mapstructure:"cache-sensitivity,omitempty"`

	// Debug enables footer magic writing, payload poisoning, free-pattern
	// fill, and call-site tracking. Disable in hot production paths that
	// do not need leak/corruption diagnostics.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty" mapstructure:"debug,omitempty"`
}

// Default returns the tunables named in the allocator's specification:
// a 16-byte minimum block, a 64MiB size-class ceiling, a 256-byte cache
// cutoff, a 64KiB region growth increment, and debug mode enabled.
func Default() Config {
	return Config{
		MinBlock:         16,
		MaxBlock:         64 * 1024 * 1024,
		CacheUpperSize:   256,
		GrowSize:         64 * 1024,
		CacheSensitivity: 4,
		Debug:            true,
	}
}

// Sanitize fills in zero fields with their Default() counterpart, so a
// caller may set only the fields they care about.
func (c Config) Sanitize() Config {
	d := Default()
	if c.MinBlock <= 0 {
		c.MinBlock = d.MinBlock
	}
	if c.MaxBlock <= 0 {
		c.MaxBlock = d.MaxBlock
	}
	if c.CacheUpperSize <= 0 {
		c.CacheUpperSize = d.CacheUpperSize
	}
	if c.GrowSize <= 0 {
		c.GrowSize = d.GrowSize
	}
	if c.CacheSensitivity <= 0 {
		c.CacheSensitivity = d.CacheSensitivity
	}
	return c
}
