package compiler

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// compileWord renders one word. In fragment mode attrs are used as given;
// otherwise they are looked up by index.
func (ctx *context) compileWord(w *dsl.Word, index int, attrs encoding.Attrs) string {
	info := wordInfo{attrs: attrs}
	var ranges []charRange
	if !ctx.fragment {
		info = ctx.lookupWord(index)
		ranges = ctx.charRanges(index)
	}
	if ctx.c.config.MultiLevel {
		return ctx.compileLevels("w", w.Children, info, ranges)
	}
	return ctx.compileSingle("w", w.Children, info)
}

func (ctx *context) compilePunctuation(p *dsl.Punctuation, attrs encoding.Attrs) string {
	info := wordInfo{attrs: attrs}
	if ctx.c.config.MultiLevel {
		return ctx.compileLevels("pc", p.Children, info, nil)
	}
	return ctx.compileSingle("pc", p.Children, info)
}

func (ctx *context) compileSingle(tag string, children []dsl.Node, info wordInfo) string {
	content := ctx.renderLevel(children, levelSingle, nil)
	if content == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(encoding.StartTag(tag, info.attrs))
	sb.WriteString(content)
	for _, n := range info.notes {
		sb.WriteString(n)
	}
	sb.WriteString(encoding.EndTag(tag))
	return sb.String()
}

func (ctx *context) compileLevels(tag string, children []dsl.Node, info wordInfo, ranges []charRange) string {
	labels := ctx.breakLabels(children)
	facs := ctx.renderLevel(children, levelFacs, labels)
	dipl := ctx.renderLevel(children, levelDipl, labels)
	norm := ctx.renderLevel(children, levelNorm, labels)
	if info.normalized != "" {
		norm = encoding.EscapeXMLText(info.normalized)
	}
	if facs == "" && dipl == "" && norm == "" {
		return ""
	}
	facs = injectRanges(facs, ranges)

	var sb strings.Builder
	sb.WriteString(encoding.StartTag(tag, info.attrs))
	sb.WriteString("<choice><me:facs>")
	sb.WriteString(facs)
	sb.WriteString("</me:facs><me:dipl>")
	sb.WriteString(dipl)
	sb.WriteString("</me:dipl><me:norm>")
	sb.WriteString(norm)
	sb.WriteString("</me:norm></choice>")
	for _, n := range info.notes {
		sb.WriteString(n)
	}
	sb.WriteString(encoding.EndTag(tag))
	return sb.String()
}

// inlineMarkup renders a bare inline node as single-level mixed content.
func (ctx *context) inlineMarkup(n dsl.Node) string {
	return ctx.renderLevel([]dsl.Node{n}, levelSingle, nil)
}
