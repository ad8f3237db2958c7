// Package dsl implements the plain-text transcription markup: the node model,
// the lexer that produces it, the word tokenizer that groups it, and a
// renderer that turns nodes back into markup text.
//
// # Surface syntax
//
//	//  //5          line break, optionally numbered
//	///12r           page break with a label
//	.abbr[dni]{domini}
//	[...]  [...3]  [...<ab>]  [...3<ab>]
//	<text>           supplied
//	-{text}-         deletion
//	+{text}+         addition
//	^{text}          note
//	?{text}?         unclear
//	:eth:            entity
//	~                compound join (upp~haf)
//	~//  ~///        word continues across the break
//	|                explicit word boundary
//	\c               the character c taken literally, inside a word
package dsl

// Kind identifies the variant of a Node.
type Kind int

// Node kinds.
const (
	KindText Kind = iota
	KindLineBreak
	KindPageBreak
	KindAbbreviation
	KindGap
	KindSupplied
	KindDeletion
	KindAddition
	KindNote
	KindUnclear
	KindEntity
	KindWordContinuation
	KindCompoundJoin
	KindWordBoundary
	KindWord
	KindPunctuation
)

var kindNames = [...]string{
	KindText:             "Text",
	KindLineBreak:        "LineBreak",
	KindPageBreak:        "PageBreak",
	KindAbbreviation:     "Abbreviation",
	KindGap:              "Gap",
	KindSupplied:         "Supplied",
	KindDeletion:         "Deletion",
	KindAddition:         "Addition",
	KindNote:             "Note",
	KindUnclear:          "Unclear",
	KindEntity:           "Entity",
	KindWordContinuation: "WordContinuation",
	KindCompoundJoin:     "CompoundJoin",
	KindWordBoundary:     "WordBoundary",
	KindWord:             "Word",
	KindPunctuation:      "Punctuation",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is one element of a parsed transcription. The set of implementations
// is closed; consumers switch on the concrete type.
type Node interface {
	Kind() Kind
}

// Document is the lexer's output: a flat, ordered node sequence.
type Document []Node

// Text is a run of literal characters. Escaped text holds a single
// character written with a backslash; it never splits a word.
type Text struct {
	Value   string
	Escaped bool
}

// LineBreak marks the end of a manuscript line. Label is empty when the
// break carries no explicit number.
type LineBreak struct {
	Label string
}

// PageBreak marks the start of a new page or folio side.
type PageBreak struct {
	Label string
}

// Abbreviation pairs the abbreviated form with its expansion.
type Abbreviation struct {
	Abbr      string
	Expansion string
}

// Gap marks lost or illegible text. Quantity is the number of missing
// characters, zero when unknown. Supplied is the editor's restoration, if any.
type Gap struct {
	Quantity int
	Supplied string
}

// Supplied is text added by the editor.
type Supplied struct {
	Text string
}

// Deletion is text struck out by the scribe.
type Deletion struct {
	Text string
}

// Addition is text added by the scribe, e.g. above the line.
type Addition struct {
	Text string
}

// Note is an editorial note.
type Note struct {
	Text string
}

// Unclear is text whose reading is uncertain.
type Unclear struct {
	Text string
}

// Entity is a named character reference such as "eth" or "thorn".
type Entity struct {
	Name string
}

// WordContinuation marks that the current word continues across the
// following line or page break.
type WordContinuation struct{}

// CompoundJoin marks a join point inside a compound word.
type CompoundJoin struct{}

// WordBoundary is an explicit word separator.
type WordBoundary struct{}

// Word groups word-internal nodes. Produced only by the tokenizer.
type Word struct {
	Children []Node
}

// Punctuation wraps a single punctuation character. Produced only by the tokenizer.
type Punctuation struct {
	Children []Node
}

func (*Text) Kind() Kind             { return KindText }
func (*LineBreak) Kind() Kind        { return KindLineBreak }
func (*PageBreak) Kind() Kind        { return KindPageBreak }
func (*Abbreviation) Kind() Kind     { return KindAbbreviation }
func (*Gap) Kind() Kind              { return KindGap }
func (*Supplied) Kind() Kind         { return KindSupplied }
func (*Deletion) Kind() Kind         { return KindDeletion }
func (*Addition) Kind() Kind         { return KindAddition }
func (*Note) Kind() Kind             { return KindNote }
func (*Unclear) Kind() Kind          { return KindUnclear }
func (*Entity) Kind() Kind           { return KindEntity }
func (*WordContinuation) Kind() Kind { return KindWordContinuation }
func (*CompoundJoin) Kind() Kind     { return KindCompoundJoin }
func (*WordBoundary) Kind() Kind     { return KindWordBoundary }
func (*Word) Kind() Kind             { return KindWord }
func (*Punctuation) Kind() Kind      { return KindPunctuation }

// IsContent reports whether n takes part in round-trip token comparison:
// words, punctuation and breaks.
func IsContent(n Node) bool {
	switch n.(type) {
	case *Word, *Punctuation, *LineBreak, *PageBreak:
		return true
	}
	return false
}
