package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	vxml "github.com/FocuswithJustin/Vellum/core/xml"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	bodyExpr       = xpath.MustCompile("//*[local-name()='body']")
	multiLevelExpr = xpath.MustCompile("//*[local-name()='facs' or local-name()='dipl' or local-name()='norm']")
)

// Extract walks the content under the body element of a parsed document
// and returns its segments, together with whether any facsimile,
// diplomatic or normalized level elements were found.
//
// root may be the document node, any ancestor of the body, or the body
// element itself. If no body is found, root's children are walked. Extract
// never fails: unknown elements are passed through as structural markup.
func Extract(root *xmlquery.Node) (List, bool) {
	if root == nil {
		return nil, false
	}
	body := root
	if !isElement(root, "body") {
		if b := xmlquery.QuerySelector(root, bodyExpr); b != nil {
			body = b
		}
	}
	multiLevel := xmlquery.QuerySelector(body, multiLevelExpr) != nil

	e := &extractor{}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}
	return e.out, multiLevel
}

type extractor struct {
	out  List
	next int
}

func (e *extractor) id() int {
	id := e.next
	e.next++
	return id
}

func (e *extractor) walk(n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.ElementNode:
		e.element(n)
	case xmlquery.CommentNode:
		e.out = append(e.out, &Structural{SegID: e.id(), XML: vxml.Comment(n)})
	case xmlquery.TextNode:
		e.text(n.Data)
	case xmlquery.CharDataNode, xmlquery.ProcessingInstruction:
		e.out = append(e.out, &Structural{SegID: e.id(), XML: vxml.OuterXML(n)})
	}
}

func (e *extractor) element(n *xmlquery.Node) {
	switch n.Data {
	case "w":
		e.out = append(e.out, &Word{
			SegID:        e.id(),
			XML:          vxml.OuterXML(n),
			DSL:          elementDSL(n, true),
			Attrs:        vxml.Attributes(n),
			HasLineBreak: findDescendant(n, "lb") != nil || findDescendant(n, "pb") != nil,
		})
	case "pc":
		e.out = append(e.out, &Punctuation{SegID: e.id(), XML: vxml.OuterXML(n), DSL: elementDSL(n, false), Attrs: vxml.Attributes(n)})
	case "lb":
		e.out = append(e.out, &LineBreak{SegID: e.id(), XML: vxml.OuterXML(n), Attrs: vxml.Attributes(n)})
	case "pb":
		e.out = append(e.out, &PageBreak{SegID: e.id(), XML: vxml.OuterXML(n), Attrs: vxml.Attributes(n)})
	case "handShift":
		e.out = append(e.out, &HandShift{SegID: e.id(), XML: vxml.OuterXML(n), Attrs: vxml.Attributes(n)})
	default:
		if n.FirstChild == nil {
			e.out = append(e.out, &Structural{SegID: e.id(), XML: vxml.EmptyTag(n)})
			return
		}
		e.out = append(e.out, &Structural{SegID: e.id(), XML: vxml.StartTag(n)})
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			e.walk(c)
		}
		e.out = append(e.out, &Structural{SegID: e.id(), XML: vxml.EndTag(n)})
	}
}

// text splits a bare text node into whitespace runs, words and
// punctuation, the same way the word tokenizer splits plain text, so that
// flattening and re-tokenizing an unedited document lines up token for
// token.
func (e *extractor) text(data string) {
	if strings.TrimSpace(data) == "" {
		e.out = append(e.out, &Whitespace{SegID: e.id(), XML: escapeText(data)})
		return
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRuneInString(data[i:])
		switch {
		case unicode.IsSpace(r):
			j := scan(data, i, unicode.IsSpace)
			e.out = append(e.out, &Whitespace{SegID: e.id(), XML: escapeText(data[i:j])})
			i = j
		case dsl.IsPunctuation(r):
			e.out = append(e.out, &Punctuation{SegID: e.id(), XML: escapeText(data[i : i+size]), DSL: string(r)})
			i += size
		default:
			j := scan(data, i, func(r rune) bool { return !unicode.IsSpace(r) && !dsl.IsPunctuation(r) })
			e.out = append(e.out, &Word{SegID: e.id(), XML: escapeText(data[i:j]), DSL: textDSL(data[i:j], true)})
			i = j
		}
	}
}

// scan returns the end of the run starting at i whose runes satisfy keep.
func scan(s string, i int, keep func(rune) bool) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !keep(r) {
			break
		}
		i += size
	}
	return i
}

func escapeText(s string) string {
	return vxml.Text(&xmlquery.Node{Type: xmlquery.TextNode, Data: s})
}

func isElement(n *xmlquery.Node, local string) bool {
	return n.Type == xmlquery.ElementNode && n.Data == local
}
