package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	vxml "github.com/FocuswithJustin/Vellum/core/xml"
	"github.com/antchfx/xmlquery"
)

// elementDSL derives the DSL text of a word or punctuation element. If the
// element holds a facsimile level, only that level is used. With escape set,
// characters that would split or open a construct are backslash-escaped in
// the element's own text.
//
// A bare <abbr> in the facsimile level is paired with the <expan> at the
// same position in the diplomatic level, so the abbreviation survives.
func elementDSL(n *xmlquery.Node, escape bool) string {
	t := &transformer{escape: escape}
	src := n
	if facs := findDescendant(n, "facs"); facs != nil {
		src = facs
		if dipl := findDescendant(n, "dipl"); dipl != nil {
			t.expansions = findAll(dipl, "expan")
		}
	}
	var sb strings.Builder
	t.writeChildren(&sb, src)
	return joinFields(sb.String())
}

// transformer renders markup back into DSL.
type transformer struct {
	// expansions pairs with bare abbreviations, in order.
	expansions []*xmlquery.Node
	escape     bool
	// depth counts enclosing delimited constructs, whose bodies are not
	// re-lexed and so are never escaped.
	depth int
}

// textDSL converts bare text to DSL, turning entity references into
// ":name:" form.
func textDSL(s string, escape bool) string {
	if escape {
		s = escapeOutsideMarkers(s)
	}
	return vxml.ReplaceEntities(s, func(name string) string { return ":" + name + ":" })
}

// escapeOutsideMarkers escapes s, leaving entity markers untouched.
func escapeOutsideMarkers(s string) string {
	var sb strings.Builder
	for s != "" {
		i := strings.IndexRune(s, vxml.EntityOpen)
		if i < 0 {
			sb.WriteString(dsl.Escape(s))
			break
		}
		j := strings.IndexRune(s[i:], vxml.EntityClose)
		if j < 0 {
			sb.WriteString(dsl.Escape(s))
			break
		}
		end := i + j + utf8.RuneLen(vxml.EntityClose)
		sb.WriteString(dsl.Escape(s[:i]))
		sb.WriteString(s[i:end])
		s = s[end:]
	}
	return sb.String()
}

func findDescendant(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if c.Data == local {
			return c
		}
		if d := findDescendant(c, local); d != nil {
			return d
		}
	}
	return nil
}

func findAll(n *xmlquery.Node, local string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if c.Data == local {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, local)...)
	}
	return out
}

func findChild(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == local {
			return c
		}
	}
	return nil
}

func (t *transformer) writeChildren(sb *strings.Builder, n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "gap") {
			if next := nextElement(c); next != nil && isElement(next, "supplied") && onlySpaceBetween(c, next) {
				sb.WriteString(dsl.GapMarker(gapQuantity(c), t.innerDSL(next)))
				c = next
				continue
			}
		}
		t.writeNode(sb, c)
	}
}

func (t *transformer) writeNode(sb *strings.Builder, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode, xmlquery.CharDataNode:
		sb.WriteString(textDSL(n.Data, t.escape && t.depth == 0))
		return
	case xmlquery.ElementNode:
	default:
		return
	}

	switch n.Data {
	case "choice":
		abbr, expan := findChild(n, "abbr"), findChild(n, "expan")
		if abbr != nil && expan != nil {
			sb.WriteString(".abbr[" + t.innerDSL(abbr) + "]{" + t.innerDSL(expan) + "}")
			return
		}
		t.writeChildren(sb, n)
	case "abbr":
		if len(t.expansions) > 0 {
			expan := t.expansions[0]
			t.expansions = t.expansions[1:]
			sb.WriteString(".abbr[" + t.innerDSL(n) + "]{" + (&transformer{}).innerDSL(expan) + "}")
			return
		}
		t.writeChildren(sb, n)
	case "add":
		sb.WriteString("+{" + t.innerDSL(n) + "}+")
	case "del":
		sb.WriteString("-{" + t.innerDSL(n) + "}-")
	case "supplied":
		sb.WriteString("<" + t.innerDSL(n) + ">")
	case "unclear":
		sb.WriteString("?{" + t.innerDSL(n) + "}?")
	case "note":
		if n.SelectAttr("type") == "annotation" {
			// generated from annotation data, not transcribed
			return
		}
		sb.WriteString("^{" + t.innerDSL(n) + "}")
	case "gap":
		sb.WriteString(dsl.GapMarker(gapQuantity(n), ""))
	case "lb":
		sb.WriteString("~" + dsl.LineBreakMarker(n.SelectAttr("n")))
	case "pb":
		sb.WriteString("~" + dsl.PageBreakMarker(n.SelectAttr("n")))
	default:
		t.writeChildren(sb, n)
	}
}

func (t *transformer) innerDSL(n *xmlquery.Node) string {
	t.depth++
	defer func() { t.depth-- }()
	var sb strings.Builder
	t.writeChildren(&sb, n)
	return sb.String()
}

func gapQuantity(n *xmlquery.Node) int {
	q, err := strconv.Atoi(strings.TrimSpace(n.SelectAttr("quantity")))
	if err != nil || q < 0 {
		return 0
	}
	return q
}

func nextElement(n *xmlquery.Node) *xmlquery.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == xmlquery.ElementNode {
			return s
		}
	}
	return nil
}

func onlySpaceBetween(a, b *xmlquery.Node) bool {
	for s := a.NextSibling; s != nil && s != b; s = s.NextSibling {
		if s.Type != xmlquery.TextNode || strings.TrimSpace(s.Data) != "" {
			return false
		}
	}
	return true
}

var lineBreakSuffix = regexp.MustCompile(`~//\d*$`)

// joinFields removes layout whitespace from a word's DSL. Inner whitespace
// becomes a compound join, except next to a line break, where it is
// dropped.
func joinFields(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fields[0])
	for i := 1; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "~//") && !lineBreakSuffix.MatchString(fields[i-1]) {
			sb.WriteString("~")
		}
		sb.WriteString(fields[i])
	}
	return sb.String()
}
