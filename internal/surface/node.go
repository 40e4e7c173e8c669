// Package surface models interactive controls as a tree of nodes with
// DOM-style selector matching, hit testing, and event dispatch.
package surface

import (
	"slices"
	"sort"
	"strings"
)

// Rect is a cell rectangle in screen coordinates.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return r.W > 0 && r.H > 0 && x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Node is an element of the control tree.
type Node struct {
	Tag  string
	ID   string
	Rect Rect

	classes  map[string]struct{}
	attrs    map[string]string
	disabled bool

	parent    *Node
	children  []*Node
	listeners map[string][]*Listener
}

// NewNode creates a detached node.
func NewNode(tag, id string, classes ...string) *Node {
	n := &Node{Tag: tag, ID: id}
	for _, c := range classes {
		n.AddClass(c)
	}
	return n
}

// Append attaches children to n and returns n. A child that already has a
// parent is moved.
func (n *Node) Append(children ...*Node) *Node {
	for _, child := range children {
		if child == nil || child == n {
			continue
		}
		if child.parent != nil {
			child.parent.Remove(child)
		}
		child.parent = n
		n.children = append(n.children, child)
	}
	return n
}

// Remove detaches child from n. It is a no-op if child is not a direct child.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			// Delete clears the vacated slot so the old array drops child.
			n.children = slices.Delete(n.children, i, i+1)
			child.parent = nil
			return
		}
	}
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// AddClass adds a class name.
func (n *Node) AddClass(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if n.classes == nil {
		n.classes = map[string]struct{}{}
	}
	n.classes[name] = struct{}{}
}

// RemoveClass removes a class name.
func (n *Node) RemoveClass(name string) {
	delete(n.classes, name)
}

// HasClass reports whether the node carries the class.
func (n *Node) HasClass(name string) bool {
	_, ok := n.classes[name]
	return ok
}

// Classes returns the sorted class list.
func (n *Node) Classes() []string {
	out := make([]string, 0, len(n.classes))
	for c := range n.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetAttr sets an attribute. An empty value removes it.
func (n *Node) SetAttr(name, value string) {
	if value == "" {
		delete(n.attrs, name)
		return
	}
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs[name] = value
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) string {
	return n.attrs[name]
}

// SetDisabled toggles the disabled flag.
func (n *Node) SetDisabled(disabled bool) {
	n.disabled = disabled
}

// Disabled reports whether the node is disabled, either by flag, by the
// "disabled" class, or by aria-disabled="true".
func (n *Node) Disabled() bool {
	return n.disabled || n.HasClass("disabled") || n.Attr("aria-disabled") == "true"
}

// HitTest returns the deepest node under (x, y), or nil when the point is
// outside n. Later children are on top of earlier ones.
func (n *Node) HitTest(x, y int) *Node {
	for i := len(n.children) - 1; i >= 0; i-- {
		if hit := n.children[i].HitTest(x, y); hit != nil {
			return hit
		}
	}
	if n.Rect.Contains(x, y) {
		return n
	}
	return nil
}

// Find returns the first node in the subtree (depth-first, n included)
// matching selector.
func (n *Node) Find(selector string) *Node {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	return n.find(sel)
}

func (n *Node) find(sel Selector) *Node {
	if sel.Match(n) {
		return n
	}
	for _, child := range n.children {
		if found := child.find(sel); found != nil {
			return found
		}
	}
	return nil
}

// String renders a short selector-like description, e.g. "button#play.speed".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(n.Tag)
	if n.ID != "" {
		b.WriteByte('#')
		b.WriteString(n.ID)
	}
	for _, c := range n.Classes() {
		b.WriteByte('.')
		b.WriteString(c)
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}
