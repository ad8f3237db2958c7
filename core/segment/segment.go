// Package segment turns an imported tagged document into an ordered list
// of addressable segments, and flattens that list into editable DSL text.
//
// Every segment keeps the serialized markup it was made from, so that an
// unedited segment can be written back unchanged.
package segment

import (
	"encoding/json"
	"fmt"

	"github.com/FocuswithJustin/Vellum/core/dsl"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// Kind identifies the variant of a Segment.
type Kind string

// Segment kinds.
const (
	KindStructural  Kind = "structural"
	KindWord        Kind = "word"
	KindPunctuation Kind = "punctuation"
	KindLineBreak   Kind = "line_break"
	KindPageBreak   Kind = "page_break"
	KindHandShift   Kind = "hand_shift"
	KindWhitespace  Kind = "whitespace"
)

// Segment is one unit of an imported document.
type Segment interface {
	ID() int
	Kind() Kind
	// Markup is the serialized fragment the segment was extracted from.
	Markup() string
}

// Structural is markup that is not editable: an element's start or end
// tag, a childless element, or a comment.
type Structural struct {
	SegID int
	XML   string
}

// Word is a word-bearing element or a word taken from bare text.
// HasLineBreak is set when the element contains a line or page break.
type Word struct {
	SegID        int
	XML          string
	DSL          string
	Attrs        encoding.Attrs
	HasLineBreak bool
}

// Punctuation is a punctuation-bearing element or punctuation in bare text.
type Punctuation struct {
	SegID int
	XML   string
	DSL   string
	Attrs encoding.Attrs
}

// LineBreak is an <lb> element.
type LineBreak struct {
	SegID int
	XML   string
	Attrs encoding.Attrs
}

// PageBreak is a <pb> element.
type PageBreak struct {
	SegID int
	XML   string
	Attrs encoding.Attrs
}

// HandShift is a <handShift> element.
type HandShift struct {
	SegID int
	XML   string
	Attrs encoding.Attrs
}

// Whitespace is a whitespace-only text run.
type Whitespace struct {
	SegID int
	XML   string
}

func (s *Structural) ID() int  { return s.SegID }
func (s *Word) ID() int        { return s.SegID }
func (s *Punctuation) ID() int { return s.SegID }
func (s *LineBreak) ID() int   { return s.SegID }
func (s *PageBreak) ID() int   { return s.SegID }
func (s *HandShift) ID() int   { return s.SegID }
func (s *Whitespace) ID() int  { return s.SegID }

func (*Structural) Kind() Kind  { return KindStructural }
func (*Word) Kind() Kind        { return KindWord }
func (*Punctuation) Kind() Kind { return KindPunctuation }
func (*LineBreak) Kind() Kind   { return KindLineBreak }
func (*PageBreak) Kind() Kind   { return KindPageBreak }
func (*HandShift) Kind() Kind   { return KindHandShift }
func (*Whitespace) Kind() Kind  { return KindWhitespace }

func (s *Structural) Markup() string  { return s.XML }
func (s *Word) Markup() string        { return s.XML }
func (s *Punctuation) Markup() string { return s.XML }
func (s *LineBreak) Markup() string   { return s.XML }
func (s *PageBreak) Markup() string   { return s.XML }
func (s *HandShift) Markup() string   { return s.XML }
func (s *Whitespace) Markup() string  { return s.XML }

// Content returns the comparable DSL form of a content segment: words,
// punctuation and breaks. ok is false for every other kind.
func Content(s Segment) (content string, ok bool) {
	switch s := s.(type) {
	case *Word:
		return s.DSL, true
	case *Punctuation:
		return s.DSL, true
	case *LineBreak:
		n, _ := s.Attrs.Get("n")
		return dsl.LineBreakMarker(n), true
	case *PageBreak:
		n, _ := s.Attrs.Get("n")
		return dsl.PageBreakMarker(n), true
	}
	return "", false
}

// Attributes returns the attribute set of a segment, or nil.
func Attributes(s Segment) encoding.Attrs {
	switch s := s.(type) {
	case *Word:
		return s.Attrs
	case *Punctuation:
		return s.Attrs
	case *LineBreak:
		return s.Attrs
	case *PageBreak:
		return s.Attrs
	case *HandShift:
		return s.Attrs
	}
	return nil
}

// List is an ordered segment list. It marshals to JSON as an array of
// objects tagged with their kind.
type List []Segment

// Markup concatenates the markup of every segment.
func (l List) Markup() string {
	var n int
	for _, s := range l {
		n += len(s.Markup())
	}
	buf := make([]byte, 0, n)
	for _, s := range l {
		buf = append(buf, s.Markup()...)
	}
	return string(buf)
}

type record struct {
	ID    int            `json:"id"`
	Kind  Kind           `json:"kind"`
	XML   string         `json:"xml"`
	DSL   string         `json:"dsl,omitempty"`
	Attrs encoding.Attrs `json:"attrs,omitempty"`

	HasLineBreak bool `json:"has_line_break,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (l List) MarshalJSON() ([]byte, error) {
	recs := make([]record, len(l))
	for i, s := range l {
		recs[i] = record{ID: s.ID(), Kind: s.Kind(), XML: s.Markup(), Attrs: Attributes(s)}
		switch s := s.(type) {
		case *Word:
			recs[i].DSL = s.DSL
			recs[i].HasLineBreak = s.HasLineBreak
		case *Punctuation:
			recs[i].DSL = s.DSL
		}
	}
	return json.Marshal(recs)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return err
	}
	out := make(List, len(recs))
	for i, r := range recs {
		switch r.Kind {
		case KindStructural:
			out[i] = &Structural{SegID: r.ID, XML: r.XML}
		case KindWord:
			out[i] = &Word{SegID: r.ID, XML: r.XML, DSL: r.DSL, Attrs: r.Attrs, HasLineBreak: r.HasLineBreak}
		case KindPunctuation:
			out[i] = &Punctuation{SegID: r.ID, XML: r.XML, DSL: r.DSL, Attrs: r.Attrs}
		case KindLineBreak:
			out[i] = &LineBreak{SegID: r.ID, XML: r.XML, Attrs: r.Attrs}
		case KindPageBreak:
			out[i] = &PageBreak{SegID: r.ID, XML: r.XML, Attrs: r.Attrs}
		case KindHandShift:
			out[i] = &HandShift{SegID: r.ID, XML: r.XML, Attrs: r.Attrs}
		case KindWhitespace:
			out[i] = &Whitespace{SegID: r.ID, XML: r.XML}
		default:
			return fmt.Errorf("segment %d: unknown kind %q", r.ID, r.Kind)
		}
	}
	*l = out
	return nil
}
