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

package tree

import "fmt"

// Tree is a red-black tree keyed by Key. It is not internally
// synchronised: callers either confine a Tree to one goroutine or guard
// it with their own lock, matching the allocator it sits on top of being
// the only piece of this module with its own lock.
type Tree struct {
	root            Embeddable
	size            int
	CaseInsensitive bool
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Len returns the number of entries currently in the tree.
func (t *Tree) Len() int { return t.size }

func (t *Tree) cmp(a, b Key) int { return compare(a, b, t.CaseInsensitive) }

// SetValue inserts or replaces the payload for key. The tree allocates
// and owns the node; RemoveValue frees it.
func (t *Tree) SetValue(key Key, value interface{}) error {
	return t.SetValueEx(key, value, nil)
}

// SetValueEx behaves as SetValue, but if node is non-nil it is used as
// the tree entry instead of an internally allocated one: the caller owns
// its lifetime, and RemoveValue only detaches it. If the key already
// exists and node is nil, its payload is replaced in place; if node is
// non-nil, node takes the existing entry's place (whether that entry was
// tree-owned or caller-supplied) and the old entry is detached, not freed,
// preserving colour, children, and parent links, consistent with
// "replace the existing node in-place ... and drop the previous node."
// If node is nil, the tree allocates its own entry, as SetValue does.
func (t *Tree) SetValueEx(key Key, value interface{}, node Embeddable) error {
	if node != nil {
		nl := node.node()
		if nl.left != nil || nl.right != nil || nl.parent != nil || t.root == node {
			return ErrorAlreadyEmbedded.Error(nil)
		}
	}

	existing, found := t.find(key)
	if found {
		if node == nil {
			ln := existing.node()
			ln.value = value
			return nil
		}
		t.replaceNode(existing, node, value)
		return nil
	}

	var n Embeddable
	if node != nil {
		n = node
	} else {
		n = &ownedNode{}
		n.node().owned = true
	}
	ln := n.node()
	ln.key = key
	ln.value = value
	ln.left, ln.right, ln.parent = nil, nil, nil
	ln.clr = red

	t.bstInsert(n)
	t.insertFixup(n)
	t.size++
	return nil
}

// replaceNode swaps an existing tree entry for a caller-supplied one,
// preserving colour, children, and parent links, then copies value onto
// the replacement. The old entry is detached, never freed here: freeing
// an owned node is RemoveValue's job, and this path only runs when a
// caller is actively handing in their own embedded replacement.
func (t *Tree) replaceNode(old, n Embeddable, value interface{}) {
	ol, nl := old.node(), n.node()
	nl.key = ol.key
	nl.value = value
	nl.left, nl.right, nl.parent = ol.left, ol.right, ol.parent
	nl.clr = ol.clr

	if ol.left != nil {
		ol.left.node().parent = n
	}
	if ol.right != nil {
		ol.right.node().parent = n
	}
	if ol.parent == nil {
		t.root = n
	} else if ol.parent.node().left == old {
		ol.parent.node().left = n
	} else {
		ol.parent.node().right = n
	}

	ol.left, ol.right, ol.parent = nil, nil, nil
}

func (t *Tree) bstInsert(n Embeddable) {
	var parent Embeddable
	cur := t.root
	nl := n.node()
	for cur != nil {
		parent = cur
		if t.cmp(nl.key, cur.node().key) < 0 {
			cur = cur.node().left
		} else {
			cur = cur.node().right
		}
	}
	nl.parent = parent
	if parent == nil {
		t.root = n
	} else if t.cmp(nl.key, parent.node().key) < 0 {
		parent.node().left = n
	} else {
		parent.node().right = n
	}
}

func (t *Tree) rotateLeft(x Embeddable) {
	xl := x.node()
	y := xl.right
	yl := y.node()

	xl.right = yl.left
	if yl.left != nil {
		yl.left.node().parent = x
	}
	yl.parent = xl.parent
	if xl.parent == nil {
		t.root = y
	} else if xl.parent.node().left == x {
		xl.parent.node().left = y
	} else {
		xl.parent.node().right = y
	}
	yl.left = x
	xl.parent = y
}

func (t *Tree) rotateRight(x Embeddable) {
	xl := x.node()
	y := xl.left
	yl := y.node()

	xl.left = yl.right
	if yl.right != nil {
		yl.right.node().parent = x
	}
	yl.parent = xl.parent
	if xl.parent == nil {
		t.root = y
	} else if xl.parent.node().right == x {
		xl.parent.node().right = y
	} else {
		xl.parent.node().left = y
	}
	yl.right = x
	xl.parent = y
}

func (t *Tree) insertFixup(z Embeddable) {
	for colorOf(parentOf(z)) == red {
		zp := parentOf(z)
		zpp := parentOf(zp)
		if zp == leftOf(zpp) {
			y := rightOf(zpp)
			if colorOf(y) == red {
				zp.node().clr = black
				y.node().clr = black
				zpp.node().clr = red
				z = zpp
				continue
			}
			if z == rightOf(zp) {
				z = zp
				t.rotateLeft(z)
				zp = parentOf(z)
				zpp = parentOf(zp)
			}
			zp.node().clr = black
			zpp.node().clr = red
			t.rotateRight(zpp)
		} else {
			y := leftOf(zpp)
			if colorOf(y) == red {
				zp.node().clr = black
				y.node().clr = black
				zpp.node().clr = red
				z = zpp
				continue
			}
			if z == leftOf(zp) {
				z = zp
				t.rotateRight(z)
				zp = parentOf(z)
				zpp = parentOf(zp)
			}
			zp.node().clr = black
			zpp.node().clr = red
			t.rotateLeft(zpp)
		}
	}
	t.root.node().clr = black
}

func (t *Tree) find(key Key) (Embeddable, bool) {
	cur := t.root
	for cur != nil {
		c := t.cmp(key, cur.node().key)
		if c == 0 {
			return cur, true
		}
		if c < 0 {
			cur = cur.node().left
		} else {
			cur = cur.node().right
		}
	}
	return nil, false
}

// GetValue returns the payload stored under key, if any.
func (t *Tree) GetValue(key Key) (interface{}, bool) {
	n, ok := t.find(key)
	if !ok {
		return nil, false
	}
	return n.node().value, true
}

// GetNode returns the tree entry itself, for callers that embedded their
// own struct via SetValueEx and want it back rather than just its value.
func (t *Tree) GetNode(key Key) (Embeddable, bool) {
	return t.find(key)
}

// RemoveValue deletes the entry for key, if present, and reports whether
// it was found. A tree-owned node is discarded for the garbage collector
// to reclaim; an externally embedded node is only detached, never
// mutated beyond having its tree links cleared, matching "externally
// embedded nodes are detached but not freed."
func (t *Tree) RemoveValue(key Key) bool {
	n, ok := t.find(key)
	if !ok {
		return false
	}
	t.delete(n)
	t.size--
	return true
}

func (t *Tree) minimum(n Embeddable) Embeddable {
	for n.node().left != nil {
		n = n.node().left
	}
	return n
}

func (t *Tree) maximum(n Embeddable) Embeddable {
	for n.node().right != nil {
		n = n.node().right
	}
	return n
}

func (t *Tree) transplant(u, v Embeddable) {
	ul := u.node()
	if ul.parent == nil {
		t.root = v
	} else if ul.parent.node().left == u {
		ul.parent.node().left = v
	} else {
		ul.parent.node().right = v
	}
	if v != nil {
		v.node().parent = ul.parent
	}
}

func (t *Tree) delete(z Embeddable) {
	y := z
	yOriginalColor := colorOf(y)
	var x, xParent Embeddable

	zl := z.node()
	if zl.left == nil {
		x = zl.right
		xParent = zl.parent
		t.transplant(z, zl.right)
	} else if zl.right == nil {
		x = zl.left
		xParent = zl.parent
		t.transplant(z, zl.left)
	} else {
		y = t.minimum(zl.right)
		yOriginalColor = colorOf(y)
		x = y.node().right
		if y.node().parent == z {
			xParent = y
		} else {
			xParent = y.node().parent
			t.transplant(y, y.node().right)
			y.node().right = zl.right
			y.node().right.node().parent = y
		}
		t.transplant(z, y)
		y.node().left = zl.left
		y.node().left.node().parent = y
		y.node().clr = zl.clr
	}

	z.node().left, z.node().right, z.node().parent = nil, nil, nil

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}
}

// deleteFixup restores red-black balance after delete. x may be nil (a
// nil leaf standing in for "double black"), so its parent is threaded
// through explicitly rather than read off x itself.
func (t *Tree) deleteFixup(x, parent Embeddable) {
	for x != t.root && colorOf(x) == black {
		if x == leftOf(parent) {
			w := rightOf(parent)
			if colorOf(w) == red {
				w.node().clr = black
				parent.node().clr = red
				t.rotateLeft(parent)
				w = rightOf(parent)
			}
			if colorOf(leftOf(w)) == black && colorOf(rightOf(w)) == black {
				if w != nil {
					w.node().clr = red
				}
				x = parent
				parent = parentOf(x)
				continue
			}
			if colorOf(rightOf(w)) == black {
				if leftOf(w) != nil {
					leftOf(w).node().clr = black
				}
				w.node().clr = red
				t.rotateRight(w)
				w = rightOf(parent)
			}
			w.node().clr = colorOf(parent)
			parent.node().clr = black
			if rightOf(w) != nil {
				rightOf(w).node().clr = black
			}
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := leftOf(parent)
			if colorOf(w) == red {
				w.node().clr = black
				parent.node().clr = red
				t.rotateRight(parent)
				w = leftOf(parent)
			}
			if colorOf(rightOf(w)) == black && colorOf(leftOf(w)) == black {
				if w != nil {
					w.node().clr = red
				}
				x = parent
				parent = parentOf(x)
				continue
			}
			if colorOf(leftOf(w)) == black {
				if rightOf(w) != nil {
					rightOf(w).node().clr = black
				}
				w.node().clr = red
				t.rotateLeft(w)
				w = leftOf(parent)
			}
			w.node().clr = colorOf(parent)
			parent.node().clr = black
			if leftOf(w) != nil {
				leftOf(w).node().clr = black
			}
			t.rotateRight(parent)
			x = t.root
		}
	}
	if x != nil {
		x.node().clr = black
	}
}

// First returns the entry with the smallest key, or nil if the tree is
// empty.
func (t *Tree) First() Embeddable {
	if t.root == nil {
		return nil
	}
	return t.minimum(t.root)
}

// Last returns the entry with the largest key, or nil if the tree is
// empty.
func (t *Tree) Last() Embeddable {
	if t.root == nil {
		return nil
	}
	return t.maximum(t.root)
}

// Next returns the in-order successor of n: right-subtree-leftmost, or
// the nearest ancestor for which n lies in its left subtree. Passing nil
// returns the minimum, mirroring the source's "null returns the first
// element" convention.
func (t *Tree) Next(n Embeddable) Embeddable {
	if n == nil {
		return t.First()
	}
	if n.node().right != nil {
		return t.minimum(n.node().right)
	}
	p := n.node().parent
	for p != nil && n == p.node().right {
		n = p
		p = p.node().parent
	}
	return p
}

// Prev mirrors Next: left-subtree-rightmost, or the nearest ancestor for
// which n lies in its right subtree. Passing nil returns the maximum.
func (t *Tree) Prev(n Embeddable) Embeddable {
	if n == nil {
		return t.Last()
	}
	if n.node().left != nil {
		return t.maximum(n.node().left)
	}
	p := n.node().parent
	for p != nil && n == p.node().left {
		n = p
		p = p.node().parent
	}
	return p
}

// CheckState walks the tree validating, in order: parent pointers agree
// with child pointers, the red-black colour rules hold (no red node has
// a red child, the root is black), every node is reachable from the
// root, keys strictly increase across an in-order traversal, and every
// root-to-leaf path carries the same black height.
func (t *Tree) CheckState() error {
	if t.root == nil {
		return nil
	}
	if colorOf(t.root) != black {
		return ErrorCorruption.Error(fmt.Errorf("root is not black"))
	}

	var prev Embeddable
	count := 0
	var walk func(n Embeddable) (int, error)
	walk = func(n Embeddable) (int, error) {
		if n == nil {
			return 1, nil
		}
		nl := n.node()

		if nl.left != nil && nl.left.node().parent != n {
			return 0, ErrorCorruption.Error(fmt.Errorf("left child's parent pointer mismatched"))
		}
		if nl.right != nil && nl.right.node().parent != n {
			return 0, ErrorCorruption.Error(fmt.Errorf("right child's parent pointer mismatched"))
		}
		if nl.clr == red && (colorOf(nl.left) == red || colorOf(nl.right) == red) {
			return 0, ErrorCorruption.Error(fmt.Errorf("red node has a red child"))
		}

		lh, err := walk(nl.left)
		if err != nil {
			return 0, err
		}

		if prev != nil && t.cmp(prev.node().key, nl.key) >= 0 {
			return 0, ErrorCorruption.Error(fmt.Errorf("in-order keys not strictly increasing"))
		}
		prev = n
		count++

		rh, err := walk(nl.right)
		if err != nil {
			return 0, err
		}
		if lh != rh {
			return 0, ErrorCorruption.Error(fmt.Errorf("unequal black height at node with key hash %d", nl.key.Hash))
		}

		add := 0
		if nl.clr == black {
			add = 1
		}
		return lh + add, nil
	}

	if _, err := walk(t.root); err != nil {
		return err
	}
	if count != t.size {
		return ErrorCorruption.Error(fmt.Errorf("reachable node count %d does not match tracked size %d", count, t.size))
	}
	return nil
}
