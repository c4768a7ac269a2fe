package dom

import "slices"

// Attribute is a single element attribute.
type Attribute struct {
	Key   string
	Value string
}

// Style is a single inline style declaration.
type Style struct {
	Name  string
	Value string
}

// Attributes returns a copy of the attributes in insertion order.
func (n *Node) Attributes() []Attribute {
	return slices.Clone(n.attrs)
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether the named attribute is present.
func (n *Node) HasAttribute(key string) bool {
	_, ok := n.Attribute(key)
	return ok
}

// SetAttribute sets or replaces an attribute.
func (n *Node) SetAttribute(key, value string) {
	for i, a := range n.attrs {
		if a.Key == key {
			if a.Value == value {
				return
			}
			n.attrs[i].Value = value
			n.notify(Mutation{Type: MutationAttribute, Target: n, Key: key})
			return
		}
	}
	n.attrs = append(n.attrs, Attribute{Key: key, Value: value})
	n.notify(Mutation{Type: MutationAttribute, Target: n, Key: key})
}

// RemoveAttribute removes an attribute if present.
func (n *Node) RemoveAttribute(key string) {
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs = slices.Delete(n.attrs, i, i+1)
			n.notify(Mutation{Type: MutationAttribute, Target: n, Key: key})
			return
		}
	}
}

// Property returns a property value assigned with SetProperty.
func (n *Node) Property(key string) (any, bool) {
	v, ok := n.props[key]
	return v, ok
}

// SetProperty assigns a property. Properties are not serialized.
func (n *Node) SetProperty(key string, value any) {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[key] = value
	n.notify(Mutation{Type: MutationProperty, Target: n, Key: key})
}

// Styles returns a copy of the inline styles in declaration order.
func (n *Node) Styles() []Style {
	return slices.Clone(n.styles)
}

// Style returns the value of an inline style property.
func (n *Node) Style(name string) (string, bool) {
	for _, s := range n.styles {
		if s.Name == name {
			return s.Value, true
		}
	}
	return "", false
}

// SetStyle sets an inline style property.
func (n *Node) SetStyle(name, value string) {
	for i, s := range n.styles {
		if s.Name == name {
			if s.Value == value {
				return
			}
			n.styles[i].Value = value
			n.notify(Mutation{Type: MutationStyle, Target: n, Key: name})
			return
		}
	}
	n.styles = append(n.styles, Style{Name: name, Value: value})
	n.notify(Mutation{Type: MutationStyle, Target: n, Key: name})
}

// RemoveStyle clears an inline style property.
func (n *Node) RemoveStyle(name string) {
	for i, s := range n.styles {
		if s.Name == name {
			n.styles = slices.Delete(n.styles, i, i+1)
			n.notify(Mutation{Type: MutationStyle, Target: n, Key: name})
			return
		}
	}
}

// ClassList returns a copy of the class list.
func (n *Node) ClassList() []string {
	return slices.Clone(n.classes)
}

// HasClass reports whether the class list contains name.
func (n *Node) HasClass(name string) bool {
	return slices.Contains(n.classes, name)
}

// SetClassList replaces the class list.
func (n *Node) SetClassList(classes []string) {
	if slices.Equal(n.classes, classes) {
		return
	}
	n.classes = slices.Clone(classes)
	n.notify(Mutation{Type: MutationClass, Target: n})
}
