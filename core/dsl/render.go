package dsl

import (
	"strconv"
	"strings"
)

// RenderNode returns the DSL form of a single node. Breaks inside a Word are
// written with a continuation marker so that re-lexing keeps them in the word.
func RenderNode(n Node) string {
	var sb strings.Builder
	writeNode(&sb, n, false)
	return sb.String()
}

func writeNode(sb *strings.Builder, n Node, inWord bool) {
	switch n := n.(type) {
	case *Text:
		if n.Escaped {
			sb.WriteByte('\\')
		}
		sb.WriteString(n.Value)
	case *LineBreak:
		if inWord {
			sb.WriteString("~")
		}
		sb.WriteString("//")
		sb.WriteString(n.Label)
	case *PageBreak:
		if inWord {
			sb.WriteString("~")
		}
		sb.WriteString("///")
		sb.WriteString(n.Label)
	case *Abbreviation:
		sb.WriteString(".abbr[")
		sb.WriteString(n.Abbr)
		sb.WriteString("]{")
		sb.WriteString(n.Expansion)
		sb.WriteString("}")
	case *Gap:
		sb.WriteString(GapMarker(n.Quantity, n.Supplied))
	case *Supplied:
		sb.WriteString("<" + n.Text + ">")
	case *Deletion:
		sb.WriteString("-{" + n.Text + "}-")
	case *Addition:
		sb.WriteString("+{" + n.Text + "}+")
	case *Note:
		sb.WriteString("^{" + n.Text + "}")
	case *Unclear:
		sb.WriteString("?{" + n.Text + "}?")
	case *Entity:
		sb.WriteString(":" + n.Name + ":")
	case *WordContinuation:
		sb.WriteString("~")
	case *CompoundJoin:
		sb.WriteString("~")
	case *WordBoundary:
		sb.WriteString("|")
	case *Word:
		for _, c := range n.Children {
			writeNode(sb, c, true)
		}
	case *Punctuation:
		for _, c := range n.Children {
			writeNode(sb, c, true)
		}
	}
}

// escapedChars are the characters Escape writes with a backslash: the
// punctuation set and every character that can open a construct.
const escapedChars = punctuationChars + "|<{~/\\"

// Escape writes s so that it lexes back as literal text inside one word.
func Escape(s string) string {
	if !strings.ContainsAny(s, escapedChars) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(escapedChars, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// GapMarker formats a gap in DSL syntax.
func GapMarker(quantity int, supplied string) string {
	var sb strings.Builder
	sb.WriteString("[...")
	if quantity > 0 {
		sb.WriteString(strconv.Itoa(quantity))
	}
	if supplied != "" {
		sb.WriteString("<" + supplied + ">")
	}
	sb.WriteString("]")
	return sb.String()
}

// LineBreakMarker formats a line break. Labels that the lexer could not read
// back as a line number are dropped.
func LineBreakMarker(label string) string {
	if !isDigits(label) {
		label = ""
	}
	return "//" + label
}

// PageBreakMarker formats a page break.
func PageBreakMarker(label string) string {
	return "///" + strings.Join(strings.Fields(label), "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
