package patch

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/segment"
)

// Reconstruct rebuilds markup from the original segments and a patch.
//
// Segments are written in document order. Before each content segment any
// pending Inserts are compiled and written; then, if the next operation
// targets that segment, it is applied. Non-content segments are always
// written unchanged and consume no operations. Trailing Inserts are
// appended at the end.
//
// An operation that does not line up with the segment walk is skipped and
// the segment written unchanged; Reconstruct never fails.
func Reconstruct(segments segment.List, ops []Operation, c FragmentCompiler) string {
	var sb strings.Builder
	k := 0
	for _, s := range segments {
		if content, ok := segment.Content(s); !ok || content == "" {
			sb.WriteString(s.Markup())
			continue
		}

		for k < len(ops) {
			ins, ok := ops[k].(Insert)
			if !ok {
				break
			}
			sb.WriteString(compileFragment(c, ins.DSL, nil))
			sb.WriteByte(' ')
			k++
		}

		if k >= len(ops) || targetOf(ops[k]) != s.ID() {
			sb.WriteString(s.Markup())
			continue
		}
		switch op := ops[k].(type) {
		case Keep:
			sb.WriteString(s.Markup())
		case Modify:
			sb.WriteString(compileFragment(c, op.DSL, segment.Attributes(s)))
		case Delete:
		}
		k++
	}

	for ; k < len(ops); k++ {
		if ins, ok := ops[k].(Insert); ok {
			sb.WriteByte(' ')
			sb.WriteString(compileFragment(c, ins.DSL, nil))
		}
	}
	return sb.String()
}

func targetOf(op Operation) int {
	switch op := op.(type) {
	case Keep:
		return op.SegmentID
	case Modify:
		return op.SegmentID
	case Delete:
		return op.SegmentID
	}
	return -1
}

// compileFragment falls back to escaped text if the fragment no longer
// lexes, which cannot happen for tokens produced by Diff.
func compileFragment(c FragmentCompiler, text string, attrs encoding.Attrs) string {
	out, err := c.CompileFragment(text, attrs)
	if err != nil {
		return encoding.EscapeXMLText(text)
	}
	return out
}
