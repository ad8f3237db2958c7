package compiler

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// level selects how a node is rendered.
type level int

const (
	levelSingle level = iota
	levelFacs
	levelDipl
	levelNorm
)

// levelWriter accumulates one level's output. Character runs are buffered
// so that the normalized level can substitute across adjacent text pieces;
// markup is written through unchanged.
type levelWriter struct {
	lvl  level
	norm Normalizer
	sb   strings.Builder
	run  strings.Builder
}

func (w *levelWriter) text(s string) {
	w.run.WriteString(s)
}

func (w *levelWriter) markup(s string) {
	w.flush()
	w.sb.WriteString(s)
}

func (w *levelWriter) flush() {
	if w.run.Len() == 0 {
		return
	}
	s := w.run.String()
	w.run.Reset()
	if w.lvl == levelNorm && w.norm != nil {
		s = w.norm.Normalize(s)
	}
	w.sb.WriteString(encoding.EscapeXMLText(s))
}

func (w *levelWriter) String() string {
	w.flush()
	return w.sb.String()
}

// breakLabels assigns line numbers to the line breaks among nodes, once,
// so that rendering the same word at several levels counts each break once.
func (ctx *context) breakLabels(nodes []dsl.Node) map[*dsl.LineBreak]string {
	var labels map[*dsl.LineBreak]string
	for _, n := range nodes {
		if lb, ok := n.(*dsl.LineBreak); ok {
			if labels == nil {
				labels = make(map[*dsl.LineBreak]string)
			}
			labels[lb] = ctx.lineLabel(lb)
		}
	}
	return labels
}

// renderLevel renders nodes at one level.
func (ctx *context) renderLevel(nodes []dsl.Node, lvl level, labels map[*dsl.LineBreak]string) string {
	w := &levelWriter{lvl: lvl, norm: ctx.c.normalizer}
	for _, n := range nodes {
		ctx.renderNode(w, n, labels)
	}
	return w.String()
}

func (ctx *context) renderNode(w *levelWriter, n dsl.Node, labels map[*dsl.LineBreak]string) {
	lvl := w.lvl
	switch n := n.(type) {
	case *dsl.Text:
		w.text(n.Value)

	case *dsl.Entity:
		ctx.renderEntity(w, n.Name)

	case *dsl.Abbreviation:
		switch lvl {
		case levelSingle:
			w.markup("<choice><abbr>")
			ctx.renderInline(w, n.Abbr)
			w.markup("</abbr><expan>")
			ctx.renderInline(w, n.Expansion)
			w.markup("</expan></choice>")
		case levelFacs:
			w.markup("<abbr>")
			ctx.renderInline(w, n.Abbr)
			w.markup("</abbr>")
		default:
			w.markup("<expan>")
			ctx.renderInline(w, n.Expansion)
			w.markup("</expan>")
		}

	case *dsl.Gap:
		switch lvl {
		case levelSingle:
			w.markup(gapTag(n))
			if n.Supplied != "" {
				w.markup("<supplied>")
				ctx.renderInline(w, n.Supplied)
				w.markup("</supplied>")
			}
		case levelFacs:
			w.markup(gapTag(n))
		default:
			if n.Supplied != "" {
				ctx.renderInline(w, n.Supplied)
			}
		}

	case *dsl.Supplied:
		ctx.renderWrapped(w, "supplied", n.Text)
	case *dsl.Deletion:
		ctx.renderWrapped(w, "del", n.Text)
	case *dsl.Addition:
		ctx.renderWrapped(w, "add", n.Text)
	case *dsl.Unclear:
		ctx.renderWrapped(w, "unclear", n.Text)
	case *dsl.Note:
		if lvl == levelSingle || lvl == levelFacs {
			ctx.renderWrapped(w, "note", n.Text)
		}

	case *dsl.CompoundJoin:
		if lvl == levelFacs || lvl == levelDipl {
			w.text(" ")
		}

	case *dsl.LineBreak:
		if lvl == levelNorm {
			return
		}
		label, ok := labels[n]
		if !ok {
			label = ctx.lineLabel(n)
		}
		w.markup(breakTag("lb", label, nil))

	case *dsl.PageBreak:
		if lvl == levelNorm {
			return
		}
		w.markup(breakTag("pb", n.Label, nil))

	case *dsl.Word:
		for _, c := range n.Children {
			ctx.renderNode(w, c, labels)
		}
	case *dsl.Punctuation:
		for _, c := range n.Children {
			ctx.renderNode(w, c, labels)
		}
	}
}

func (ctx *context) renderWrapped(w *levelWriter, tag, text string) {
	w.markup("<" + tag + ">")
	ctx.renderInline(w, text)
	w.markup("</" + tag + ">")
}

// renderEntity resolves an entity reference for the writer's level.
//
// Combining marks are dropped and base-letter entities are replaced at
// every level except single. Diplomatic and normalized levels further
// resolve through the registry; anything unresolved stays a reference.
func (ctx *context) renderEntity(w *levelWriter, name string) {
	ref := encoding.EntityRef(name)
	if w.lvl == levelSingle {
		w.markup(ref)
		return
	}
	if n := ctx.c.normalizer; n != nil {
		if n.IsCombining(name) {
			return
		}
		if base, ok := n.BaseLetter(name); ok {
			w.text(base)
			return
		}
	}
	if w.lvl != levelFacs && ctx.c.entities != nil {
		if char, ok := ctx.c.entities.Char(name); ok {
			w.text(char)
			return
		}
	}
	w.markup(ref)
}

// renderInline renders the text payload of an inline element, resolving
// any ":name:" entity references it contains.
func (ctx *context) renderInline(w *levelWriter, s string) {
	for len(s) > 0 {
		i := strings.IndexByte(s, ':')
		if i < 0 {
			w.text(s)
			return
		}
		w.text(s[:i])
		rest := s[i+1:]
		j := strings.IndexByte(rest, ':')
		if j > 0 && encoding.IsEntityName(rest[:j]) {
			ctx.renderEntity(w, rest[:j])
			s = rest[j+1:]
			continue
		}
		w.text(":")
		s = rest
	}
}

func gapTag(g *dsl.Gap) string {
	if g.Quantity > 0 {
		return encoding.EmptyTag("gap", encoding.Attrs{
			{Name: "quantity", Value: strconv.Itoa(g.Quantity)},
			{Name: "unit", Value: "chars"},
		})
	}
	return "<gap/>"
}
