package compiler

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// CompileFragment compiles the DSL of a single edited token, reusing attrs
// as the attribute set of the produced element. Lemma and annotation tables
// are not consulted. A break that carries its own label replaces the n
// attribute; an unlabelled break keeps the original one.
//
// The fragment is always word-wrapped. If it tokenizes into several tokens
// they are compiled in order and joined by a space.
func (c *Compiler) CompileFragment(text string, attrs encoding.Attrs) (string, error) {
	doc, err := dsl.Lex(text)
	if err != nil {
		return "", err
	}
	ctx := c.newContext()
	ctx.fragment = true

	var parts []string
	for _, n := range dsl.Tokenize(doc) {
		var s string
		switch n := n.(type) {
		case *dsl.Word:
			s = ctx.compileWord(n, 0, attrs)
		case *dsl.Punctuation:
			s = ctx.compilePunctuation(n, attrs)
		case *dsl.LineBreak:
			label := n.Label
			if label == "" {
				label, _ = attrs.Get("n")
			}
			s = breakTag("lb", label, attrs)
		case *dsl.PageBreak:
			label := n.Label
			if label == "" {
				label, _ = attrs.Get("n")
			}
			s = breakTag("pb", label, attrs)
		default:
			s = ctx.inlineMarkup(n)
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
