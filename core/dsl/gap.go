package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	plexer "github.com/alecthomas/participle/v2/lexer"
)

// gapGrammar is the participle grammar for the body of a gap marker, i.e.
// whatever follows "[..." up to the closing bracket.
// Examples: "", "3", "<ab>", "3<ab>"
//
//nolint:govet // participle grammar tags are not standard struct tags
type gapGrammar struct {
	Quantity *int    `parser:"@Int?"`
	Supplied *string `parser:"@Supplied?"`
}

// gapLexer tokenizes gap bodies. Supplied text runs to the last '>' so it
// may itself contain angle brackets.
var gapLexer = plexer.MustSimple([]plexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Supplied", Pattern: `<(?s:.*)>`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var gapParser = participle.MustBuild[gapGrammar](
	participle.Lexer(gapLexer),
	participle.Elide("Whitespace"),
)

// parseGapBody parses the inside of a gap marker.
func parseGapBody(body string) (*Gap, error) {
	if strings.TrimSpace(body) == "" {
		return &Gap{}, nil
	}

	parsed, err := gapParser.ParseString("", body)
	if err != nil {
		return nil, err
	}

	gap := &Gap{}
	if parsed.Quantity != nil {
		gap.Quantity = *parsed.Quantity
	}
	if parsed.Supplied != nil {
		s := *parsed.Supplied
		gap.Supplied = s[1 : len(s)-1]
	}
	return gap, nil
}
