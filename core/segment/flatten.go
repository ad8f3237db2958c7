package segment

import "strings"

// Flatten renders the editable DSL text of a segment list: words,
// punctuation and break markers separated by single spaces. Structural,
// whitespace and hand-shift segments are skipped.
func Flatten(segments List) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if c, ok := Content(s); ok && c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// ContentSegments returns the segments that take part in editing, in order.
func ContentSegments(segments List) List {
	var out List
	for _, s := range segments {
		if c, ok := Content(s); ok && c != "" {
			out = append(out, s)
		}
	}
	return out
}
