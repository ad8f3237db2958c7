package compiler

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/annotation"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// wordInfo is everything looked up for one word index.
type wordInfo struct {
	attrs encoding.Attrs
	// notes are rendered <note> children, appended after the content.
	notes []string
	// normalized replaces the generated normalized level when non-empty.
	normalized string
}

// lookupWord derives attributes and notes for word index i from the lemma
// table and annotation set. Neither table is modified.
func (ctx *context) lookupWord(i int) wordInfo {
	var info wordInfo
	if lm, ok := annotation.Confirmed(ctx.c.lemmas, i); ok {
		if lm.Lemma != "" {
			info.attrs = info.attrs.With("lemma", lm.Lemma)
		}
		if lm.Analysis != "" {
			info.attrs = info.attrs.With("me:msa", lm.Analysis)
		}
		info.normalized = lm.Normalized
	}
	if ctx.c.annotations == nil {
		return info
	}

	var ana, rend []string
	for _, a := range ctx.c.annotations.ForWord(i) {
		switch a.Type {
		case annotation.TypeSemantic:
			if a.Category == "" {
				continue
			}
			ref := "#" + a.Category
			if a.Subcategory != "" {
				ref += "." + a.Subcategory
			}
			ana = append(ana, ref)
		case annotation.TypePaleographic:
			if a.Category != "" {
				rend = append(rend, a.Category)
			}
		case annotation.TypeMenotaPaleographic:
			name := "me:" + a.Attribute
			if a.Attribute != "" && !info.attrs.Has(name) {
				info.attrs = info.attrs.With(name, a.Value)
			}
		case annotation.TypeNote:
			info.notes = append(info.notes,
				`<note type="annotation">`+encoding.EscapeXMLText(a.Value)+`</note>`)
		}
	}
	if len(ana) > 0 {
		info.attrs = info.attrs.With("ana", strings.Join(ana, " "))
	}
	if len(rend) > 0 {
		info.attrs = info.attrs.With("rend", strings.Join(rend, " "))
	}
	return info
}

// charRanges returns the character-range annotations of word i.
func (ctx *context) charRanges(i int) []charRange {
	if ctx.c.annotations == nil {
		return nil
	}
	var out []charRange
	for _, a := range ctx.c.annotations.CharRanges(i) {
		if a.Target.End <= a.Target.Start || a.Target.Start < 0 {
			continue
		}
		out = append(out, charRange{start: a.Target.Start, end: a.Target.End, kind: a.Category})
	}
	return out
}
