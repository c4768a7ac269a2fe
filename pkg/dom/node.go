package dom

import "strings"

// NodeType is the output node discriminator.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Document creates output nodes and carries the mutation observer shared by
// all of them.
type Document struct {
	observer Observer
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// SetObserver installs the observer notified of every mutation. Passing nil
// disables notification.
func (d *Document) SetObserver(o Observer) {
	d.observer = o
}

// Observer returns the installed observer, or nil.
func (d *Document) Observer() Observer {
	return d.observer
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{doc: d, Type: ElementNode, Tag: strings.ToLower(tag)}
}

// CreateText creates a detached text node.
func (d *Document) CreateText(data string) *Node {
	return &Node{doc: d, Type: TextNode, data: data}
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(data string) *Node {
	return &Node{doc: d, Type: CommentNode, data: data}
}

// Node is a single output tree node.
type Node struct {
	Type NodeType
	Tag  string

	doc  *Document
	data string

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node
	childCount  int

	attrs     []Attribute
	props     map[string]any
	styles    []Style
	classes   []string
	listeners map[string][]*listener
	nextLID   int
}

// Document returns the document that created the node.
func (n *Node) Document() *Document { return n.doc }

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node { return n.lastChild }

// NextSibling returns the following sibling, or nil.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// PrevSibling returns the preceding sibling, or nil.
func (n *Node) PrevSibling() *Node { return n.prevSibling }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return n.childCount }

// Children returns a snapshot of the children in order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.childCount)
	for c := n.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// Data returns the character data of a text or comment node.
func (n *Node) Data() string { return n.data }

// SetData replaces the character data of a text or comment node.
func (n *Node) SetData(s string) {
	if n.data == s {
		return
	}
	n.data = s
	n.notify(Mutation{Type: MutationCharacterData, Target: n})
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.data
	}
	var b strings.Builder
	n.collectText(&b)
	return b.String()
}

func (n *Node) collectText(b *strings.Builder) {
	for c := n.firstChild; c != nil; c = c.nextSibling {
		switch c.Type {
		case TextNode:
			b.WriteString(c.data)
		case ElementNode:
			c.collectText(b)
		}
	}
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AppendChild appends c, detaching it from its current parent first.
func (n *Node) AppendChild(c *Node) {
	n.InsertBefore(c, nil)
}

// InsertBefore inserts c before ref. A nil ref, or a ref that is not a child
// of n, appends. Inserting a node in front of itself is a no-op.
func (n *Node) InsertBefore(c, ref *Node) {
	if c == nil || c == ref || n.Type != ElementNode || c.Contains(n) {
		return
	}
	if ref != nil && ref.parent != n {
		ref = nil
	}
	if c.parent == n && c.nextSibling == ref {
		return
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}

	c.parent = n
	if ref == nil {
		c.prevSibling = n.lastChild
		if n.lastChild != nil {
			n.lastChild.nextSibling = c
		} else {
			n.firstChild = c
		}
		n.lastChild = c
	} else {
		c.prevSibling = ref.prevSibling
		c.nextSibling = ref
		if ref.prevSibling != nil {
			ref.prevSibling.nextSibling = c
		} else {
			n.firstChild = c
		}
		ref.prevSibling = c
	}
	n.childCount++
	n.notify(Mutation{Type: MutationInsert, Target: n, Node: c})
}

// RemoveChild detaches c when it is a child of n.
func (n *Node) RemoveChild(c *Node) {
	if c == nil || c.parent != n {
		return
	}
	if c.prevSibling != nil {
		c.prevSibling.nextSibling = c.nextSibling
	} else {
		n.firstChild = c.nextSibling
	}
	if c.nextSibling != nil {
		c.nextSibling.prevSibling = c.prevSibling
	} else {
		n.lastChild = c.prevSibling
	}
	c.parent, c.prevSibling, c.nextSibling = nil, nil, nil
	n.childCount--
	n.notify(Mutation{Type: MutationRemove, Target: n, Node: c})
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// RemoveChildren detaches every child.
func (n *Node) RemoveChildren() {
	for n.firstChild != nil {
		n.RemoveChild(n.firstChild)
	}
}

// IndexOf returns the position of c among n's children, or -1.
func (n *Node) IndexOf(c *Node) int {
	i := 0
	for cur := n.firstChild; cur != nil; cur = cur.nextSibling {
		if cur == c {
			return i
		}
		i++
	}
	return -1
}

func (n *Node) notify(m Mutation) {
	if n.doc != nil && n.doc.observer != nil {
		n.doc.observer.Observe(m)
	}
}
