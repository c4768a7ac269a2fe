package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// unsafeElements are dropped, with their content, when sanitizing.
var unsafeElements = map[string]bool{
	"script": true,
	"iframe": true,
	"form":   true,
	"object": true,
	"embed":  true,
}

// urlAttrs are checked for javascript: URLs when sanitizing.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
}

// ParseFragment parses markup as body content and returns the top-level nodes,
// detached and owned by doc. With sanitize set, scripting elements, inline
// event handler attributes and javascript: URLs are removed.
//
// Building the nodes does not notify the document observer; the caller
// decides when they enter the tree.
func ParseFragment(doc *Document, markup string, sanitize bool) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}

	out := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		if n := convert(doc, p, sanitize); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func convert(doc *Document, p *html.Node, sanitize bool) *Node {
	switch p.Type {
	case html.TextNode:
		return doc.CreateText(p.Data)
	case html.CommentNode:
		if sanitize {
			return nil
		}
		return doc.CreateComment(p.Data)
	case html.ElementNode:
	default:
		return nil
	}

	tag := strings.ToLower(p.Data)
	if sanitize && unsafeElements[tag] {
		return nil
	}

	n := doc.CreateElement(tag)
	for _, a := range p.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		if sanitize && !safeAttr(key, a.Val) {
			continue
		}
		switch key {
		case "class":
			n.classes = strings.Fields(a.Val)
		case "style":
			n.styles = parseStyle(a.Val)
		default:
			n.attrs = append(n.attrs, Attribute{Key: key, Value: a.Val})
		}
	}

	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(doc, c, sanitize); child != nil {
			n.link(child)
		}
	}
	return n
}

// link appends c without notifying the observer. c must be detached.
func (n *Node) link(c *Node) {
	c.parent = n
	c.prevSibling = n.lastChild
	if n.lastChild != nil {
		n.lastChild.nextSibling = c
	} else {
		n.firstChild = c
	}
	n.lastChild = c
	n.childCount++
}

func safeAttr(key, value string) bool {
	if len(key) > 2 && strings.EqualFold(key[:2], "on") {
		return false
	}
	if urlAttrs[key] {
		v := strings.ToLower(strings.Join(strings.Fields(value), ""))
		if strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") {
			return false
		}
	}
	return true
}

// parseStyle splits an inline style declaration list.
func parseStyle(s string) []Style {
	var out []Style
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(strings.ToLower(name))
		value = strings.TrimSpace(value)
		if name != "" {
			out = append(out, Style{Name: name, Value: value})
		}
	}
	return out
}
