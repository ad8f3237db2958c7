package encoding

import "strings"

// Attr is a single markup attribute. Name may carry a namespace prefix
// ("me:msa").
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attrs is an ordered attribute list; order is preserved on output.
type Attrs []Attr

// Get returns the value of the named attribute.
func (a Attrs) Get(name string) (string, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return "", false
}

// Has reports whether the named attribute is present.
func (a Attrs) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// With returns a copy of a with name set to value, replacing an existing
// attribute in place or appending a new one.
func (a Attrs) With(name, value string) Attrs {
	out := make(Attrs, 0, len(a)+1)
	replaced := false
	for _, at := range a {
		if at.Name == name {
			out = append(out, Attr{Name: name, Value: value})
			replaced = true
			continue
		}
		out = append(out, at)
	}
	if !replaced {
		out = append(out, Attr{Name: name, Value: value})
	}
	return out
}

// Without returns a copy of a with the named attribute removed.
func (a Attrs) Without(name string) Attrs {
	out := make(Attrs, 0, len(a))
	for _, at := range a {
		if at.Name != name {
			out = append(out, at)
		}
	}
	return out
}

// Clone returns an independent copy.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	copy(out, a)
	return out
}

// String renders the attributes as ` name="value"` pairs, each with a
// leading space, ready to follow an element name.
func (a Attrs) String() string {
	var sb strings.Builder
	a.AppendTo(&sb)
	return sb.String()
}

// AppendTo appends the rendered attributes to sb.
func (a Attrs) AppendTo(sb *strings.Builder) {
	for _, at := range a {
		sb.WriteByte(' ')
		sb.WriteString(at.Name)
		sb.WriteString(`="`)
		sb.WriteString(EscapeXMLAttr(at.Value))
		sb.WriteByte('"')
	}
}

// StartTag renders an opening tag.
func StartTag(name string, attrs Attrs) string {
	return "<" + name + attrs.String() + ">"
}

// EmptyTag renders a self-closing tag.
func EmptyTag(name string, attrs Attrs) string {
	return "<" + name + attrs.String() + "/>"
}

// EndTag renders a closing tag.
func EndTag(name string) string {
	return "</" + name + ">"
}
