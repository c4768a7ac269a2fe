// Package dom provides the in-memory output tree that node trees render into.
//
// The output tree is a minimal DOM: elements with ordered attributes,
// properties, inline styles, a class list and event listeners, plus text and
// comment nodes. Every node belongs to a Document, and every mutation of a
// node is reported to the Document's Observer so callers can count or stream
// changes.
//
// # Structure
//
// Children are kept as a doubly linked list, so cursor-style walks over a
// parent's children (FirstChild/NextSibling) stay valid while nodes are
// removed or inserted in front of the cursor:
//
//	doc := dom.NewDocument()
//	ul := doc.CreateElement("ul")
//	li := doc.CreateElement("li")
//	ul.AppendChild(li)
//	li.AppendChild(doc.CreateText("one"))
//
// # Markup
//
// ParseFragment converts a markup string into detached nodes, optionally
// stripping scripting content. HTML and InnerHTML serialize a subtree.
package dom
