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

// Package size parses human-readable byte sizes ("32KB", "4MiB") used in
// configuration fields such as file buffer sizes.
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count that unmarshals from either an integer or a
// human-readable string such as "32KB" or "4MiB".
type Size int64

const (
	unitKB = 1000
	unitMB = unitKB * 1000
	unitGB = unitMB * 1000

	unitKiB = 1024
	unitMiB = unitKiB * 1024
	unitGiB = unitMiB * 1024
)

// Int64 returns the size in bytes.
func (s Size) Int64() int64 {
	return int64(s)
}

// String renders the size using the largest binary unit that divides it
// evenly, falling back to a plain byte count.
func (s Size) String() string {
	n := int64(s)

	switch {
	case n != 0 && n%unitGiB == 0:
		return fmt.Sprintf("%dGiB", n/unitGiB)
	case n != 0 && n%unitMiB == 0:
		return fmt.Sprintf("%dMiB", n/unitMiB)
	case n != 0 && n%unitKiB == 0:
		return fmt.Sprintf("%dKiB", n/unitKiB)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Parse reads a byte size from a plain integer or a suffixed string
// ("32KB", "4MiB", "1GB"). An empty string yields 0.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Size(n), nil
	}

	upper := strings.ToUpper(s)
	for _, u := range []struct {
		suffix string
		mult   int64
	}{
		{"GIB", unitGiB}, {"MIB", unitMiB}, {"KIB", unitKiB},
		{"GB", unitGB}, {"MB", unitMB}, {"KB", unitKB},
		{"G", unitGiB}, {"M", unitMiB}, {"K", unitKiB},
		{"B", 1},
	} {
		if strings.HasSuffix(upper, u.suffix) {
			numPart := strings.TrimSpace(s[:len(s)-len(u.suffix)])
			n, err := strconv.ParseInt(numPart, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("size: invalid value %q: %w", s, err)
			}
			return Size(n * u.mult), nil
		}
	}

	return 0, fmt.Errorf("size: invalid value %q", s)
}

func (s Size) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

func (s *Size) UnmarshalJSON(p []byte) error {
	str, err := strconv.Unquote(string(p))
	if err != nil {
		// allow bare numeric JSON values too
		n, nerr := strconv.ParseInt(string(p), 10, 64)
		if nerr != nil {
			return err
		}
		*s = Size(n)
		return nil
	}

	v, err := Parse(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
