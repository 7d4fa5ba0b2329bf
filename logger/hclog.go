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

package logger

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// FromHclog wraps an existing hashicorp/go-hclog logger as a Logger, so a
// host application already standardized on hclog can hand its logger to
// the allocator and the reactor unchanged.
func FromHclog(h hclog.Logger) Logger {
	if h == nil {
		return nil
	}
	return &hclogWrap{h: h}
}

type hclogWrap struct {
	h hclog.Logger
}

func format(message string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

func (w *hclogWrap) Debug(message string, args ...interface{}) {
	w.h.Debug(format(message, args...))
}

func (w *hclogWrap) Info(message string, args ...interface{}) {
	w.h.Info(format(message, args...))
}

func (w *hclogWrap) Warning(message string, args ...interface{}) {
	w.h.Warn(format(message, args...))
}

func (w *hclogWrap) Error(message string, args ...interface{}) {
	w.h.Error(format(message, args...))
}

func (w *hclogWrap) SetLevel(lvl Level) {
	switch lvl {
	case DebugLevel:
		w.h.SetLevel(hclog.Debug)
	case InfoLevel:
		w.h.SetLevel(hclog.Info)
	case WarnLevel:
		w.h.SetLevel(hclog.Warn)
	default:
		w.h.SetLevel(hclog.Error)
	}
}

func (w *hclogWrap) GetLevel() Level {
	switch {
	case w.h.IsDebug():
		return DebugLevel
	case w.h.IsInfo():
		return InfoLevel
	case w.h.IsWarn():
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (w *hclogWrap) WithField(key string, value interface{}) Logger {
	return &hclogWrap{h: w.h.With(key, value)}
}
