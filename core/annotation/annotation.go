// Package annotation defines the annotation and lemma-mapping data the
// compiler consults by word index, with in-memory implementations.
// Persistent implementations live in core/store.
package annotation

// Type classifies an annotation.
type Type string

// Annotation types.
const (
	TypeSemantic           Type = "semantic"
	TypePaleographic       Type = "paleographic"
	TypeMenotaPaleographic Type = "menota_paleographic"
	TypeNote               Type = "note"
	// TypeCharacter is a paleographic observation on a character range
	// within one word (initial, capital, rubric, colored, ...).
	TypeCharacter Type = "character"
)

// TargetKind identifies what an annotation is attached to.
type TargetKind string

// Target kinds.
const (
	TargetWord      TargetKind = "word"
	TargetCharRange TargetKind = "char_range"
	TargetSpan      TargetKind = "span"
)

// Target addresses the annotated text.
//
// For TargetWord only WordIndex is used. For TargetCharRange, Start and End
// are character offsets within word WordIndex, End exclusive. For
// TargetSpan, Start and End are word indices, both inclusive.
type Target struct {
	Kind      TargetKind `json:"kind"`
	WordIndex int        `json:"word_index"`
	Start     int        `json:"start,omitempty"`
	End       int        `json:"end,omitempty"`
}

// Covers reports whether the target includes word index i.
func (t Target) Covers(i int) bool {
	switch t.Kind {
	case TargetWord, TargetCharRange:
		return t.WordIndex == i
	case TargetSpan:
		return i >= t.Start && i <= t.End
	}
	return false
}

// Annotation is one scholarly observation.
type Annotation struct {
	ID     string `json:"id"`
	Type   Type   `json:"type"`
	Target Target `json:"target"`

	// Category is the semantic category, the paleographic observation, or
	// the character type ("initial", "rubric", ...), depending on Type.
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`

	// Attribute and Value carry a Menota paleographic attribute pair. For
	// notes, Value is the note text.
	Attribute string `json:"attribute,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Set is a read-only view over annotations.
type Set interface {
	// ForWord returns word- and span-targeted annotations covering word i.
	ForWord(i int) []Annotation
	// CharRanges returns character-range annotations inside word i.
	CharRanges(i int) []Annotation
}

// MemorySet is an in-memory Set.
type MemorySet struct {
	byWord map[int][]Annotation
	chars  map[int][]Annotation
	spans  []Annotation
}

// NewMemorySet builds a Set from a list of annotations.
func NewMemorySet(annotations ...Annotation) *MemorySet {
	s := &MemorySet{
		byWord: make(map[int][]Annotation),
		chars:  make(map[int][]Annotation),
	}
	for _, a := range annotations {
		s.Add(a)
	}
	return s
}

// Add inserts an annotation.
func (s *MemorySet) Add(a Annotation) {
	switch a.Target.Kind {
	case TargetCharRange:
		s.chars[a.Target.WordIndex] = append(s.chars[a.Target.WordIndex], a)
	case TargetSpan:
		s.spans = append(s.spans, a)
	default:
		s.byWord[a.Target.WordIndex] = append(s.byWord[a.Target.WordIndex], a)
	}
}

// ForWord implements Set.
func (s *MemorySet) ForWord(i int) []Annotation {
	out := append([]Annotation(nil), s.byWord[i]...)
	for _, a := range s.spans {
		if a.Target.Covers(i) {
			out = append(out, a)
		}
	}
	return out
}

// CharRanges implements Set.
func (s *MemorySet) CharRanges(i int) []Annotation {
	return append([]Annotation(nil), s.chars[i]...)
}

// Len returns the total number of annotations.
func (s *MemorySet) Len() int {
	n := len(s.spans)
	for _, as := range s.byWord {
		n += len(as)
	}
	for _, as := range s.chars {
		n += len(as)
	}
	return n
}
