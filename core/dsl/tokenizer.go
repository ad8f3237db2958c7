package dsl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// punctuationChars are the characters split out of text runs as standalone
// Punctuation nodes.
const punctuationChars = ".,;:!?()[]"

// IsPunctuation reports whether r is one of the configured punctuation characters.
func IsPunctuation(r rune) bool {
	return strings.ContainsRune(punctuationChars, r)
}

type tokenizerState int

const (
	betweenWords tokenizerState = iota
	inWord
)

// Tokenize groups a flat node sequence into Word and Punctuation nodes.
// WordContinuation and WordBoundary are consumed and never appear in the
// result.
func Tokenize(nodes []Node) []Node {
	t := &tokenizer{}
	for _, n := range nodes {
		t.feed(n)
	}
	t.flushBuffer()
	t.flushWord()
	return t.out
}

type tokenizer struct {
	state tokenizerState
	out   []Node
	word  []Node
	buf   strings.Builder

	// continuation is set by WordContinuation and consumed by the next break.
	continuation bool
	// lastAlpha records whether the last textual or entity content ended in
	// a letter; it drives the implicit continuation heuristic.
	lastAlpha bool
}

func (t *tokenizer) feed(n Node) {
	switch n := n.(type) {
	case *Text:
		if n.Escaped {
			t.flushBuffer()
			t.appendToWord(n)
			r, _ := utf8.DecodeRuneInString(n.Value)
			t.lastAlpha = unicode.IsLetter(r)
			break
		}
		t.feedText(n.Value)

	case *WordBoundary:
		t.flushBuffer()
		t.flushWord()

	case *WordContinuation:
		t.flushBuffer()
		t.continuation = true

	case *LineBreak, *PageBreak:
		t.flushBuffer()
		t.feedBreak(n)

	case *Entity:
		t.flushBuffer()
		t.appendToWord(n)
		t.lastAlpha = true

	case *CompoundJoin, *Abbreviation, *Gap, *Supplied, *Deletion, *Addition, *Note, *Unclear:
		t.flushBuffer()
		t.appendToWord(n)

	case *Word, *Punctuation:
		t.flushBuffer()
		t.flushWord()
		t.out = append(t.out, n)
	}
}

func (t *tokenizer) feedText(s string) {
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			t.flushBuffer()
			t.flushWord()
		case IsPunctuation(r):
			t.flushBuffer()
			t.flushWord()
			t.out = append(t.out, &Punctuation{Children: []Node{&Text{Value: string(r)}}})
		default:
			t.buf.WriteRune(r)
			t.state = inWord
			t.lastAlpha = unicode.IsLetter(r)
		}
	}
}

// feedBreak decides whether a break belongs inside the current word.
func (t *tokenizer) feedBreak(n Node) {
	absorb := t.continuation || (t.state == inWord && t.lastAlpha)
	t.continuation = false

	if absorb && len(t.word) > 0 {
		t.word = append(t.word, n)
		t.lastAlpha = false
		return
	}
	t.flushWord()
	t.out = append(t.out, n)
}

func (t *tokenizer) appendToWord(n Node) {
	t.word = append(t.word, n)
	t.state = inWord
}

func (t *tokenizer) flushBuffer() {
	if t.buf.Len() == 0 {
		return
	}
	t.word = append(t.word, &Text{Value: t.buf.String()})
	t.buf.Reset()
	t.state = inWord
}

func (t *tokenizer) flushWord() {
	if len(t.word) > 0 {
		t.out = append(t.out, &Word{Children: t.word})
		t.word = nil
	}
	t.state = betweenWords
	t.lastAlpha = false
}
