// Package encoding provides shared text escaping utilities for generated markup.
package encoding

import "strings"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
)

// EscapeXMLText escapes only the basic XML entities for text content.
func EscapeXMLText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeXMLAttr escapes text for use in double-quoted XML attributes.
func EscapeXMLAttr(s string) string {
	return attrEscaper.Replace(s)
}

// EntityRef returns the character reference form of a named entity ("&name;").
func EntityRef(name string) string {
	return "&" + name + ";"
}

// IsEntityName reports whether s is a valid entity name as accepted by the
// DSL: one or more ASCII letters, digits or underscores.
func IsEntityName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
