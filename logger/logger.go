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

// Package logger is the logging sink the allocator and the reactor write
// their diagnostics through: a small leveled interface backed by logrus,
// with a bridge for callers that already carry a hashicorp/go-hclog
// logger. Components take a FuncLog so the sink can be swapped (or left
// nil to discard) without touching their construction.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level bounds which entries a Logger emits.
type Level uint8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	// NilLevel discards everything.
	NilLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	default:
		return "nil"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// Logger is the sink surface the rest of this module writes to. Message
// arguments follow fmt.Sprintf when args is non-empty.
type Logger interface {
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warning(message string, args ...interface{})
	Error(message string, args ...interface{})

	SetLevel(lvl Level)
	GetLevel() Level

	// WithField returns a Logger that stamps every entry with key=value,
	// for tagging a subsystem ("heap", "reactor") once at construction.
	WithField(key string, value interface{}) Logger
}

// FuncLog resolves the current Logger at call time, so a component built
// before logging is configured still picks up the final sink. A nil
// FuncLog, or one returning nil, silently discards.
type FuncLog func() Logger

// Options tunes New.
type Options struct {
	// Writer receives the formatted entries; os.Stderr when nil.
	Writer io.Writer

	// Level is the initial threshold.
	Level Level

	// JSON switches from logrus's text formatter to its JSON formatter.
	JSON bool

	// DisableTimestamp strips timestamps, keeping test output stable.
	DisableTimestamp bool
}

// New builds a logrus-backed Logger.
func New(opt Options) Logger {
	out := opt.Writer
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	// The threshold is enforced in emit; logrus itself stays wide open so
	// WithField children can hold different levels over the shared backend.
	l.SetLevel(logrus.DebugLevel)
	if opt.JSON {
		l.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: opt.DisableTimestamp})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: opt.DisableTimestamp})
	}

	return &logger{log: l, lvl: opt.Level}
}

type logger struct {
	mu     sync.Mutex
	log    *logrus.Logger
	lvl    Level
	fields logrus.Fields
}

func (o *logger) entry() *logrus.Entry {
	if len(o.fields) == 0 {
		return logrus.NewEntry(o.log)
	}
	return o.log.WithFields(o.fields)
}

func (o *logger) emit(lvl Level, message string, args ...interface{}) {
	o.mu.Lock()
	threshold := o.lvl
	o.mu.Unlock()
	if lvl < threshold || threshold == NilLevel {
		return
	}
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	o.entry().Log(lvl.logrus(), message)
}

func (o *logger) Debug(message string, args ...interface{}) {
	o.emit(DebugLevel, message, args...)
}

func (o *logger) Info(message string, args ...interface{}) {
	o.emit(InfoLevel, message, args...)
}

func (o *logger) Warning(message string, args ...interface{}) {
	o.emit(WarnLevel, message, args...)
}

func (o *logger) Error(message string, args ...interface{}) {
	o.emit(ErrorLevel, message, args...)
}

func (o *logger) SetLevel(lvl Level) {
	o.mu.Lock()
	o.lvl = lvl
	o.mu.Unlock()
}

func (o *logger) GetLevel() Level {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lvl
}

func (o *logger) WithField(key string, value interface{}) Logger {
	o.mu.Lock()
	defer o.mu.Unlock()

	f := make(logrus.Fields, len(o.fields)+1)
	for k, v := range o.fields {
		f[k] = v
	}
	f[key] = value
	return &logger{log: o.log, lvl: o.lvl, fields: f}
}
