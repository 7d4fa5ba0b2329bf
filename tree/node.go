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

type color bool

const (
	red   color = true
	black color = false
)

// linkage is the red-black bookkeeping every tree entry carries: child and
// parent pointers, colour, the key it was filed under, and the caller's
// payload. It is never exported directly; callers reach it only through
// Embeddable, and only the tree package walks it.
type linkage struct {
	left, right, parent Embeddable
	clr                 color
	key                 Key
	value               interface{}
	owned               bool
}

// Embeddable is implemented by anything that can carry tree linkage.
// Embed a Node in your own struct to satisfy it: the tree then operates
// directly on your struct through the interface, so SetValueEx never
// needs a second allocation for the node.
type Embeddable interface {
	node() *linkage
}

// Node is the embeddable red-black linkage. A caller that wants the tree
// to thread its own struct into the tree (rather than have the tree
// allocate a wrapper) embeds Node and passes its own struct pointer to
// SetValueEx.
type Node struct {
	l linkage
}

func (n *Node) node() *linkage { return &n.l }

// Value returns the payload last stored against this node by SetValue or
// SetValueEx.
func (n *Node) Value() interface{} { return n.l.value }

// Key returns the key this node is currently filed under. Its result is
// undefined for a node not currently in a tree.
func (n *Node) Key() Key { return n.l.key }

// Owned reports whether this node was allocated internally by the tree
// (via SetValue) rather than supplied by the caller (via SetValueEx).
func (n *Node) Owned() bool { return n.l.owned }

// ownedNode is what SetValue allocates when the caller does not supply
// its own embedded node.
type ownedNode struct {
	Node
}

func colorOf(n Embeddable) color {
	if n == nil {
		return black
	}
	return n.node().clr
}

func leftOf(n Embeddable) Embeddable {
	if n == nil {
		return nil
	}
	return n.node().left
}

func rightOf(n Embeddable) Embeddable {
	if n == nil {
		return nil
	}
	return n.node().right
}

func parentOf(n Embeddable) Embeddable {
	if n == nil {
		return nil
	}
	return n.node().parent
}
