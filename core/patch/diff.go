package patch

import (
	"github.com/FocuswithJustin/Vellum/core/segment"
)

type token struct {
	content string
	id      int
}

// Diff aligns the content segments of an imported document with edited DSL
// text. It fails only if the edited text does not lex.
//
// Common prefix and suffix are kept as is; the middle is aligned with a
// longest common subsequence over token text. A Delete directly followed
// by an Insert becomes a Modify. When both middle ranges are longer than
// the threshold, the middle is replaced wholesale: every original token is
// deleted, then every edited token inserted.
func Diff(segments segment.List, edited string, opts ...Option) ([]Operation, error) {
	o := options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	newTokens, err := EditedTokens(edited)
	if err != nil {
		return nil, err
	}
	var old []token
	for _, s := range segment.ContentSegments(segments) {
		c, _ := segment.Content(s)
		old = append(old, token{content: c, id: s.ID()})
	}
	return align(old, newTokens, o.threshold), nil
}

func align(old []token, edited []string, threshold int) []Operation {
	prefix := 0
	for prefix < len(old) && prefix < len(edited) && old[prefix].content == edited[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(edited)-prefix &&
		old[len(old)-1-suffix].content == edited[len(edited)-1-suffix] {
		suffix++
	}

	ops := make([]Operation, 0, len(old)+len(edited)-prefix-suffix)
	for _, t := range old[:prefix] {
		ops = append(ops, Keep{SegmentID: t.id})
	}

	a := old[prefix : len(old)-suffix]
	b := edited[prefix : len(edited)-suffix]
	if len(a) > threshold && len(b) > threshold {
		for _, t := range a {
			ops = append(ops, Delete{SegmentID: t.id})
		}
		for _, s := range b {
			ops = append(ops, Insert{DSL: s})
		}
	} else {
		ops = append(ops, mergeModify(lcs(a, b))...)
	}

	for _, t := range old[len(old)-suffix:] {
		ops = append(ops, Keep{SegmentID: t.id})
	}
	return ops
}

// lcs aligns a and b. Where both a Delete and an Insert keep the alignment
// optimal, the Delete is taken first so that it can merge into a Modify.
func lcs(a []token, b []string) []Operation {
	n, m := len(a), len(b)
	width := m + 1
	// dp[i*width+j] is the LCS length of a[i:] and b[j:].
	dp := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case a[i].content == b[j]:
				dp[i*width+j] = dp[(i+1)*width+j+1] + 1
			case dp[(i+1)*width+j] >= dp[i*width+j+1]:
				dp[i*width+j] = dp[(i+1)*width+j]
			default:
				dp[i*width+j] = dp[i*width+j+1]
			}
		}
	}

	ops := make([]Operation, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i].content == b[j]:
			ops = append(ops, Keep{SegmentID: a[i].id})
			i++
			j++
		case dp[(i+1)*width+j] >= dp[i*width+j+1]:
			ops = append(ops, Delete{SegmentID: a[i].id})
			i++
		default:
			ops = append(ops, Insert{DSL: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, Delete{SegmentID: a[i].id})
	}
	for ; j < m; j++ {
		ops = append(ops, Insert{DSL: b[j]})
	}
	return ops
}

func mergeModify(ops []Operation) []Operation {
	out := ops[:0:0]
	for k := 0; k < len(ops); k++ {
		if del, ok := ops[k].(Delete); ok && k+1 < len(ops) {
			if ins, ok := ops[k+1].(Insert); ok {
				out = append(out, Modify{SegmentID: del.SegmentID, DSL: ins.DSL})
				k++
				continue
			}
		}
		out = append(out, ops[k])
	}
	return out
}
