package compiler

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// charRange marks characters [start, end) of a word's facsimile text.
type charRange struct {
	start, end int
	kind       string
}

func (r charRange) openTag() string {
	switch r.kind {
	case "initial", "capital":
		return encoding.StartTag("c", encoding.Attrs{{Name: "type", Value: r.kind}})
	}
	return encoding.StartTag("hi", encoding.Attrs{{Name: "rend", Value: r.kind}})
}

func (r charRange) closeTag() string {
	switch r.kind {
	case "initial", "capital":
		return "</c>"
	}
	return "</hi>"
}

// injectRanges wraps character ranges of rendered facsimile markup in
// <c>/<hi> tags. Offsets count characters: existing tags are zero width and
// an entity or character reference counts as one character.
//
// Ranges opening at the same offset open longest first. Wrappers never
// span a start or end tag of the existing markup and never cross each
// other: when a range ends under wrappers opened after it, those are closed
// with it and reopened before the next character. Each wrapper therefore
// covers exactly its range and the output is well nested.
func injectRanges(markup string, ranges []charRange) string {
	sorted := make([]charRange, 0, len(ranges))
	for _, r := range ranges {
		if r.end > r.start {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return markup
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start < sorted[j].start
		}
		return sorted[i].end > sorted[j].end
	})

	var (
		sb strings.Builder
		// active holds the ranges covering the current offset in open
		// order; the first opened of them have their start tag written.
		active []charRange
		opened int
		next   int
		offset int
	)
	closeFrom := func(k int) {
		for ; opened > k; opened-- {
			sb.WriteString(active[opened-1].closeTag())
		}
	}

	for i := 0; i < len(markup); {
		if markup[i] == '<' {
			j := strings.IndexByte(markup[i:], '>')
			if j < 0 {
				closeFrom(0)
				sb.WriteString(markup[i:])
				break
			}
			tag := markup[i : i+j+1]
			if !strings.HasSuffix(tag, "/>") {
				closeFrom(0)
			}
			sb.WriteString(tag)
			i += j + 1
			continue
		}

		for next < len(sorted) && sorted[next].start <= offset {
			active = append(active, sorted[next])
			next++
		}
		for ; opened < len(active); opened++ {
			sb.WriteString(active[opened].openTag())
		}

		width := unitWidth(markup[i:])
		sb.WriteString(markup[i : i+width])
		i += width
		offset++

		first := -1
		for k, r := range active {
			if r.end <= offset {
				first = k
				break
			}
		}
		if first < 0 {
			continue
		}
		closeFrom(first)
		kept := active[:first]
		for _, r := range active[first:] {
			if r.end > offset {
				kept = append(kept, r)
			}
		}
		active = kept
	}
	closeFrom(0)
	return sb.String()
}

// unitWidth returns the byte length of the character unit at the start of s.
func unitWidth(s string) int {
	if s[0] == '&' {
		if j := strings.IndexByte(s, ';'); j > 0 && !strings.ContainsAny(s[1:j], " <&") {
			return j + 1
		}
	}
	_, w := utf8.DecodeRuneInString(s)
	return w
}
