package dom

import (
	"bytes"
	"io"
	"strings"
)

// HTMLOptions configures serialization.
type HTMLOptions struct {
	// Pretty enables indented output. Inline elements stay on one line.
	Pretty bool

	// Indent is the string used per level in pretty mode (default two spaces).
	Indent string
}

// HTML serializes n and its subtree.
func HTML(n *Node) string {
	var buf bytes.Buffer
	_ = WriteHTML(&buf, n, HTMLOptions{})
	return buf.String()
}

// InnerHTML serializes the children of n.
func InnerHTML(n *Node) string {
	var buf bytes.Buffer
	w := &htmlWriter{w: &buf}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		w.node(c, 0)
	}
	return buf.String()
}

// WriteHTML streams the serialization of n to w.
func WriteHTML(w io.Writer, n *Node, opts HTMLOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	hw := &htmlWriter{w: w, opts: opts}
	hw.node(n, 0)
	return hw.err
}

// htmlWriter keeps the first write error and ignores later writes.
type htmlWriter struct {
	w    io.Writer
	opts HTMLOptions
	err  error
}

func (h *htmlWriter) write(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) indent(depth int) {
	if h.opts.Pretty && depth > 0 {
		h.write(strings.Repeat(h.opts.Indent, depth))
	}
}

func (h *htmlWriter) newline() {
	if h.opts.Pretty {
		h.write("\n")
	}
}

func (h *htmlWriter) node(n *Node, depth int) {
	if n == nil {
		return
	}
	switch n.Type {
	case TextNode:
		h.write(escapeText(n.data))
	case CommentNode:
		h.write("<!--" + commentEscaper.Replace(n.data) + "-->")
	case ElementNode:
		h.element(n, depth)
	}
}

func (h *htmlWriter) element(n *Node, depth int) {
	h.indent(depth)
	h.write("<" + n.Tag)
	h.attributes(n)
	h.write(">")

	if isVoidElement(n.Tag) {
		h.newline()
		return
	}

	block := n.firstChild != nil && !isInlineElement(n.Tag) && hasElementChild(n)
	if block {
		h.newline()
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if block && c.Type != ElementNode {
			h.indent(depth + 1)
		}
		h.node(c, depth+1)
		if block && c.Type != ElementNode {
			h.newline()
		}
	}
	if block {
		h.indent(depth)
	}
	h.write("</" + n.Tag + ">")
	h.newline()
}

func (h *htmlWriter) attributes(n *Node) {
	if len(n.classes) > 0 {
		h.write(` class="` + escapeAttr(strings.Join(n.classes, " ")) + `"`)
	}
	if len(n.styles) > 0 {
		var b strings.Builder
		for i, s := range n.styles {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(s.Name + ": " + s.Value + ";")
		}
		h.write(` style="` + escapeAttr(b.String()) + `"`)
	}
	for _, a := range n.attrs {
		if a.Key == "class" && len(n.classes) > 0 || a.Key == "style" && len(n.styles) > 0 {
			continue
		}
		if a.Value == "" && IsBooleanAttr(a.Key) {
			h.write(" " + a.Key)
			continue
		}
		h.write(" " + a.Key + `="` + escapeAttr(a.Value) + `"`)
	}
}

func hasElementChild(n *Node) bool {
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if c.Type == ElementNode {
			return true
		}
	}
	return false
}
