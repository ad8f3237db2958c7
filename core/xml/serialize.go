package xml

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/antchfx/xmlquery"
)

// Entity markers wrap the name of a custom entity reference while the
// document is in tree form. Both are Unicode noncharacters, so they cannot
// collide with transcription text.
const (
	EntityOpen  = '\uFDD0'
	EntityClose = '\uFDD1'
)

var (
	entityRefPattern    = regexp.MustCompile(`&([A-Za-z_][A-Za-z0-9_.-]*);`)
	entityMarkerPattern = regexp.MustCompile("\uFDD0([^\uFDD1]*)\uFDD1")
)

var predefinedEntities = map[string]bool{
	"amp": true, "lt": true, "gt": true, "quot": true, "apos": true,
}

// entityMarkers maps every custom entity referenced in data to its marker.
func entityMarkers(data []byte) map[string]string {
	m := make(map[string]string)
	for _, match := range entityRefPattern.FindAllSubmatch(data, -1) {
		name := string(match[1])
		if !predefinedEntities[name] {
			m[name] = EntityMarker(name)
		}
	}
	return m
}

// EntityMarker returns the in-tree marker for an entity name.
func EntityMarker(name string) string {
	return string(EntityOpen) + name + string(EntityClose)
}

// ReplaceEntities replaces each entity marker in s with repl(name).
func ReplaceEntities(s string, repl func(name string) string) string {
	if !strings.ContainsRune(s, EntityOpen) {
		return s
	}
	return entityMarkerPattern.ReplaceAllStringFunc(s, func(m string) string {
		return repl(strings.TrimSuffix(strings.TrimPrefix(m, string(EntityOpen)), string(EntityClose)))
	})
}

// RestoreEntities turns entity markers back into "&name;" references.
func RestoreEntities(s string) string {
	return ReplaceEntities(s, encoding.EntityRef)
}

// QName returns an element's name with its prefix.
func QName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// Attributes returns an element's attributes in document order. Prefixed
// attributes (xml:id, me:msa, xmlns:me) keep their prefix; values keep
// entity references.
func Attributes(n *xmlquery.Node) encoding.Attrs {
	if len(n.Attr) == 0 {
		return nil
	}
	attrs := make(encoding.Attrs, 0, len(n.Attr))
	for _, a := range n.Attr {
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + name
		}
		attrs = append(attrs, encoding.Attr{Name: name, Value: a.Value})
	}
	return attrs
}

// writeAttrs writes attributes escaped, restoring entity references.
func writeAttrs(sb *strings.Builder, n *xmlquery.Node) {
	for _, a := range Attributes(n) {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		sb.WriteString(RestoreEntities(encoding.EscapeXMLAttr(a.Value)))
		sb.WriteByte('"')
	}
}

// StartTag serializes an element's opening tag.
func StartTag(n *xmlquery.Node) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(QName(n))
	writeAttrs(&sb, n)
	sb.WriteByte('>')
	return sb.String()
}

// EndTag serializes an element's closing tag.
func EndTag(n *xmlquery.Node) string {
	return "</" + QName(n) + ">"
}

// EmptyTag serializes a childless element as a self-closing tag.
func EmptyTag(n *xmlquery.Node) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(QName(n))
	writeAttrs(&sb, n)
	sb.WriteString("/>")
	return sb.String()
}

// Text serializes a text node, escaped, with entity references restored.
func Text(n *xmlquery.Node) string {
	return RestoreEntities(encoding.EscapeXMLText(n.Data))
}

// Comment serializes a comment node.
func Comment(n *xmlquery.Node) string {
	return "<!--" + n.Data + "-->"
}

// OuterXML serializes a node and its descendants.
func OuterXML(n *xmlquery.Node) string {
	var sb strings.Builder
	WriteNode(&sb, n)
	return sb.String()
}

// InnerXML serializes a node's children.
func InnerXML(n *xmlquery.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		WriteNode(&sb, c)
	}
	return sb.String()
}

// WriteNode serializes n into sb. Childless elements are written
// self-closing.
func WriteNode(sb *strings.Builder, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			WriteNode(sb, c)
		}
	case xmlquery.DeclarationNode:
		sb.WriteString("<?xml")
		for _, a := range n.Attr {
			sb.WriteString(" " + a.Name.Local + `="` + encoding.EscapeXMLAttr(a.Value) + `"`)
		}
		sb.WriteString("?>")
	case xmlquery.ElementNode:
		if n.FirstChild == nil {
			sb.WriteString(EmptyTag(n))
			return
		}
		sb.WriteString(StartTag(n))
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			WriteNode(sb, c)
		}
		sb.WriteString(EndTag(n))
	case xmlquery.TextNode:
		sb.WriteString(Text(n))
	case xmlquery.CharDataNode:
		sb.WriteString("<![CDATA[" + n.Data + "]]>")
	case xmlquery.CommentNode:
		sb.WriteString(Comment(n))
	case xmlquery.ProcessingInstruction:
		if n.ProcInst != nil {
			sb.WriteString("<?" + n.ProcInst.Target + " " + n.ProcInst.Inst + "?>")
		}
	}
}
