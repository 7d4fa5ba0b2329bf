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

// Package nametable is a hash-bucketed dictionary built on top of
// tree.Tree: a fixed array of buckets, each lazily holding its own
// red-black tree, indexed by the low bits of the key's hash. A table may
// chain to a parent for read fall-through; writes never propagate to the
// parent.
package nametable

import (
	"fmt"

	"github.com/dfdean/buildingblocks/tree"
)

// Table is a fixed-size array of tree.Tree buckets indexed by the low
// Log2Buckets bits of a key's hash, plus an optional Parent used only for
// read fall-through.
type Table struct {
	buckets []*tree.Tree
	mask    uint32
	Parent  *Table

	CaseInsensitive bool
}

// New returns an empty Table with 1<<log2Buckets buckets. log2Buckets is
// clamped to [0, 24] to keep the bucket array from growing unreasonably
// large by mistake.
func New(log2Buckets int) *Table {
	if log2Buckets < 0 {
		log2Buckets = 0
	}
	if log2Buckets > 24 {
		log2Buckets = 24
	}
	n := 1 << uint(log2Buckets)
	return &Table{
		buckets: make([]*tree.Tree, n),
		mask:    uint32(n - 1),
	}
}

// WithParent sets the read fall-through parent and returns the table, for
// chaining after New.
func (t *Table) WithParent(parent *Table) *Table {
	t.Parent = parent
	return t
}

func (t *Table) bucketIndex(hash uint32) uint32 { return hash & t.mask }

func (t *Table) bucket(hash uint32, create bool) *tree.Tree {
	idx := t.bucketIndex(hash)
	b := t.buckets[idx]
	if b == nil && create {
		b = tree.New()
		b.CaseInsensitive = t.CaseInsensitive
		t.buckets[idx] = b
	}
	return b
}

func keyOf(name []byte) tree.Key {
	return tree.Key{Hash: ComputeKeyHash(name), Bytes: name}
}

// SetValue hashes name, dispatches to the owning bucket (lazily
// allocating its tree on first use), and inserts or replaces value.
func (t *Table) SetValue(name []byte, value interface{}) error {
	k := keyOf(name)
	return t.bucket(k.Hash, true).SetValue(k, value)
}

// SetValueEx behaves as SetValue but threads node through to the bucket
// tree's SetValueEx, letting the caller supply its own embedded node.
func (t *Table) SetValueEx(name []byte, value interface{}, node tree.Embeddable) error {
	k := keyOf(name)
	return t.bucket(k.Hash, true).SetValueEx(k, value, node)
}

// GetValue looks up name in this table's own buckets, falling through to
// Parent (and its parent, and so on) if not found locally.
func (t *Table) GetValue(name []byte) (interface{}, bool) {
	k := keyOf(name)
	for cur := t; cur != nil; cur = cur.Parent {
		if b := cur.bucket(k.Hash, false); b != nil {
			if v, ok := b.GetValue(k); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// RemoveValue removes name from this table's own buckets. It never
// searches Parent: removal, like every write, is local only.
func (t *Table) RemoveValue(name []byte) bool {
	k := keyOf(name)
	b := t.bucket(k.Hash, false)
	if b == nil {
		return false
	}
	return b.RemoveValue(k)
}

// RemoveAllValues discards every bucket's tree, emptying the table.
// Parent is untouched.
func (t *Table) RemoveAllValues() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
}

// CheckState validates every non-empty bucket's tree.
func (t *Table) CheckState() error {
	for i, b := range t.buckets {
		if b == nil {
			continue
		}
		if err := b.CheckState(); err != nil {
			return ErrorCorruption.Error(fmt.Errorf("bucket %d: %w", i, err))
		}
	}
	return nil
}

// DictEntry is a named constant with an optional matching close tag, for
// callers building a markup-like registry (element names and their close
// markers) on top of a Table.
type DictEntry struct {
	Value     interface{}
	CloseName string
}

// LookupDictionaryEntry is GetValue specialised to DictEntry.
func (t *Table) LookupDictionaryEntry(name []byte) (*DictEntry, bool) {
	v, ok := t.GetValue(name)
	if !ok {
		return nil, false
	}
	e, ok := v.(*DictEntry)
	return e, ok
}

// AddDictionaryEntry is SetValue specialised to DictEntry: it registers
// name with an associated value and an optional close tag (for markup-
// like registries pairing an element name with its closing marker).
func (t *Table) AddDictionaryEntry(name []byte, value interface{}, closeName string) (*DictEntry, error) {
	e := &DictEntry{Value: value, CloseName: closeName}
	if err := t.SetValue(name, e); err != nil {
		return nil, err
	}
	return e, nil
}
