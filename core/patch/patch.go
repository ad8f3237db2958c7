// Package patch reconciles edited DSL text with the segments of an imported
// document: Diff aligns the two token sequences and Reconstruct rebuilds
// the markup, reusing every untouched segment unchanged.
package patch

import (
	"fmt"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// DefaultThreshold is the middle-range length above which, on both sides,
// Diff stops aligning and replaces the whole range.
const DefaultThreshold = 1000

// OpKind identifies the variant of an Operation.
type OpKind int

// Operation kinds.
const (
	OpKeep OpKind = iota
	OpModify
	OpInsert
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpKeep:
		return "keep"
	case OpModify:
		return "modify"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Operation is one step of a patch.
type Operation interface {
	Kind() OpKind
}

// Keep leaves a segment unchanged.
type Keep struct {
	SegmentID int
}

// Modify replaces a segment's content, keeping its attributes.
type Modify struct {
	SegmentID int
	DSL       string
}

// Insert adds new content before the next original content segment.
type Insert struct {
	DSL string
}

// Delete removes a segment.
type Delete struct {
	SegmentID int
}

func (Keep) Kind() OpKind   { return OpKeep }
func (Modify) Kind() OpKind { return OpModify }
func (Insert) Kind() OpKind { return OpInsert }
func (Delete) Kind() OpKind { return OpDelete }

func (o Keep) String() string   { return fmt.Sprintf("keep(%d)", o.SegmentID) }
func (o Modify) String() string { return fmt.Sprintf("modify(%d, %q)", o.SegmentID, o.DSL) }
func (o Insert) String() string { return fmt.Sprintf("insert(%q)", o.DSL) }
func (o Delete) String() string { return fmt.Sprintf("delete(%d)", o.SegmentID) }

// Summary counts operations by kind.
type Summary struct {
	Kept, Modified, Inserted, Deleted int
}

// Summarize counts the operations in ops.
func Summarize(ops []Operation) Summary {
	var s Summary
	for _, op := range ops {
		switch op.(type) {
		case Keep:
			s.Kept++
		case Modify:
			s.Modified++
		case Insert:
			s.Inserted++
		case Delete:
			s.Deleted++
		}
	}
	return s
}

// Changed reports whether the summary contains anything but Keeps.
func (s Summary) Changed() bool {
	return s.Modified+s.Inserted+s.Deleted > 0
}

// FragmentCompiler compiles a single token's DSL with a given attribute
// set. *compiler.Compiler satisfies it.
type FragmentCompiler interface {
	CompileFragment(text string, attrs encoding.Attrs) (string, error)
}

// Option configures Diff.
type Option func(*options)

type options struct {
	threshold int
}

// WithThreshold sets the middle-range length above which Diff falls back
// to a full replace. Values below 1 select DefaultThreshold.
func WithThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// EditedTokens lexes and tokenizes edited text and returns the DSL form of
// each word, punctuation and break token.
func EditedTokens(edited string) ([]string, error) {
	doc, err := dsl.Lex(edited)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range dsl.Tokenize(doc) {
		if !dsl.IsContent(n) {
			continue
		}
		if s := dsl.RenderNode(n); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
