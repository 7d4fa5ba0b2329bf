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

// Package tree is a red-black tree keyed by a 32-bit hash paired with
// variable-length key bytes. It follows CLRS with one specialisation: the
// ordering compares hashes first, then bytes up to the shorter key's
// length, then declares the shorter key a prefix and therefore less.
package tree

// Key identifies a tree entry. Two keys with the same Hash are not
// necessarily equal; Hash is a bucketing aid, not a full identity.
type Key struct {
	Hash  uint32
	Bytes []byte
}

// compare orders a against b: hash first, then byte-by-byte up to the
// shorter length (optionally case-folded), then by length (the prefix
// sorts less). It returns a negative number, zero, or a positive number.
func compare(a, b Key, caseInsensitive bool) int {
	if a.Hash != b.Hash {
		if a.Hash < b.Hash {
			return -1
		}
		return 1
	}

	n := len(a.Bytes)
	if len(b.Bytes) < n {
		n = len(b.Bytes)
	}
	for i := 0; i < n; i++ {
		ca, cb := a.Bytes[i], b.Bytes[i]
		if caseInsensitive {
			ca = foldByte(ca)
			cb = foldByte(cb)
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}

	if len(a.Bytes) != len(b.Bytes) {
		if len(a.Bytes) < len(b.Bytes) {
			return -1
		}
		return 1
	}
	return 0
}

func foldByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
