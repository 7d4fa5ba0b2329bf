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

// Package config holds the reactor's tunables: per-operation timeout
// defaults, the housekeeping sweep interval, and bind URL parsing for the
// two special loopback forms the reactor recognizes.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config tunes a reactor.Reactor. The zero value is not usable; call
// Default() for sane values.
type Config struct {
	// ConnectTimeout bounds how long open_client waits for a non-blocking
	// connect to complete before reporting ENoResponse.
	ConnectTimeout time.Duration `json:"connect-timeout,omitempty" yaml:"connect-timeout,omitempty" toml:"connect-timeout,omitempty" mapstructure:"connect-timeout,omitempty"`

	// ReadTimeout bounds how long a parked read may wait for data.
	ReadTimeout time.Duration `json:"read-timeout,omitempty" yaml:"read-timeout,omitempty" toml:"read-timeout,omitempty" mapstructure:"read-timeout,omitempty"`

	// WriteTimeout bounds how long a parked write may wait to drain.
	WriteTimeout time.Duration `json:"write-timeout,omitempty" yaml:"write-timeout,omitempty" toml:"write-timeout,omitempty" mapstructure:"write-timeout,omitempty"`

	// HousekeepingInterval is how often the reactor decrements outstanding
	// timeouts and drains the pending-close queue.
	HousekeepingInterval time.Duration `json:"housekeeping-interval,omitempty" yaml:"housekeeping-interval,omitempty" toml:"housekeeping-interval,omitempty" mapstructure:"housekeeping-interval,omitempty"`

	// MaxTimeoutBatch caps how many connections are reported ENoResponse
	// in a single housekeeping pass, so one slow sweep cannot stall the
	// reactor under a timeout storm.
	MaxTimeoutBatch int `json:"max-timeout-batch,omitempty" yaml:"max-timeout-batch,omitempty" toml:"max-timeout-batch,omitempty" mapstructure:"max-timeout-batch,omitempty"`

	// MaxConnections caps how many connections (listeners included) the
	// reactor will track at once; OpenClient/OpenServer beyond it fail
	// with ETooManySockets.
	MaxConnections int `json:"max-connections,omitempty" yaml:"max-connections,omitempty" toml:"max-connections,omitempty" mapstructure:"max-connections,omitempty"`
}

// Default returns a 150s connect timeout, a 200s read timeout, a 150s
// write timeout, a 5s housekeeping interval, a timeout batch of 64, and
// a connection cap of 1021 (a 1024-entry descriptor table minus stdio).
func Default() Config {
	return Config{
		ConnectTimeout:       150 * time.Second,
		ReadTimeout:          200 * time.Second,
		WriteTimeout:         150 * time.Second,
		HousekeepingInterval: 5 * time.Second,
		MaxTimeoutBatch:      64,
		MaxConnections:       1021,
	}
}

// Sanitize fills in zero fields with their Default() counterpart.
func (c Config) Sanitize() Config {
	d := Default()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HousekeepingInterval <= 0 {
		c.HousekeepingInterval = d.HousekeepingInterval
	}
	if c.MaxTimeoutBatch <= 0 {
		c.MaxTimeoutBatch = d.MaxTimeoutBatch
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = d.MaxConnections
	}
	return c
}

// BindAddress is a parsed open_server target.
type BindAddress struct {
	Network      string
	Address      string
	LoopbackOnly bool
}

// ParseBindURL recognizes two special forms alongside an ordinary
// host:port: "ip://0.0.0.0" (bind every interface) and "ip://127.0.0.1"
// (loopback only), both defaulting to TCP. Any other URL is parsed as
// network://address (e.g. "tcp://0.0.0.0:8080", "udp://:5353").
func ParseBindURL(raw string) (BindAddress, error) {
	switch raw {
	case "ip://0.0.0.0":
		return BindAddress{Network: "tcp", Address: "0.0.0.0:0", LoopbackOnly: false}, nil
	case "ip://127.0.0.1":
		return BindAddress{Network: "tcp", Address: "127.0.0.1:0", LoopbackOnly: true}, nil
	}

	idx := strings.Index(raw, "://")
	if idx < 0 {
		return BindAddress{}, fmt.Errorf("reactor: malformed bind url %q", raw)
	}
	network := raw[:idx]
	address := raw[idx+3:]
	if network == "" || address == "" {
		return BindAddress{}, fmt.Errorf("reactor: malformed bind url %q", raw)
	}

	return BindAddress{
		Network:      network,
		Address:      address,
		LoopbackOnly: strings.HasPrefix(address, "127.0.0.1") || strings.HasPrefix(address, "localhost"),
	}, nil
}
