package dsl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
)

const dslFormat = "DSL"

// Lex scans DSL text into a flat Document. Either the whole input is
// accepted or an error describing the first malformed construct is returned.
func Lex(input string) (Document, error) {
	l := &lexer{input: input}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.nodes, nil
}

type lexer struct {
	input string
	pos   int
	text  strings.Builder
	nodes Document
}

func (l *lexer) emit(n Node) {
	l.flushText()
	l.nodes = append(l.nodes, n)
}

func (l *lexer) flushText() {
	if l.text.Len() == 0 {
		return
	}
	l.nodes = append(l.nodes, &Text{Value: l.text.String()})
	l.text.Reset()
}

func (l *lexer) hasPrefix(p string) bool {
	return strings.HasPrefix(l.input[l.pos:], p)
}

// run tries each construct in priority order at the current position.
// Longer markers are tested before their prefixes ("~///" before "~//"
// before "~", "///" before "//").
func (l *lexer) run() error {
	for l.pos < len(l.input) {
		matched, err := l.scanConstruct()
		if err != nil {
			return err
		}
		if matched {
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		l.text.WriteRune(r)
		l.pos += size
	}
	l.flushText()
	return nil
}

func (l *lexer) scanConstruct() (bool, error) {
	switch {
	case l.hasPrefix(`\`) && l.pos+1 < len(l.input):
		r, size := utf8.DecodeRuneInString(l.input[l.pos+1:])
		l.emit(&Text{Value: string(r), Escaped: true})
		l.pos += 1 + size
	case l.hasPrefix("~///"):
		l.emit(&WordContinuation{})
		l.pos++
		l.scanPageBreak()
	case l.hasPrefix("~//"):
		l.emit(&WordContinuation{})
		l.pos++
		l.scanLineBreak()
	case l.hasPrefix("~"):
		l.emit(&CompoundJoin{})
		l.pos++
	case l.hasPrefix("///"):
		l.scanPageBreak()
	case l.hasPrefix("//"):
		l.scanLineBreak()
	case l.hasPrefix(".abbr["):
		return true, l.scanAbbreviation()
	case l.hasPrefix("[..."):
		return true, l.scanGap()
	case l.hasPrefix("<<"):
		l.text.WriteString("<<")
		l.pos += 2
	case l.hasPrefix("<"):
		body, err := l.scanDelimited("supplied", 1, ">")
		if err != nil {
			return true, err
		}
		l.emit(&Supplied{Text: body})
	case l.hasPrefix("-{"):
		body, err := l.scanDelimited("deletion", 2, "}-")
		if err != nil {
			return true, err
		}
		l.emit(&Deletion{Text: body})
	case l.hasPrefix("+{"):
		body, err := l.scanDelimited("addition", 2, "}+")
		if err != nil {
			return true, err
		}
		l.emit(&Addition{Text: body})
	case l.hasPrefix("^{"):
		body, err := l.scanDelimited("note", 2, "}")
		if err != nil {
			return true, err
		}
		l.emit(&Note{Text: body})
	case l.hasPrefix("?{"):
		body, err := l.scanDelimited("unclear", 2, "}?")
		if err != nil {
			return true, err
		}
		l.emit(&Unclear{Text: body})
	case l.hasPrefix(":"):
		return l.scanEntity(), nil
	case l.hasPrefix("|"):
		l.emit(&WordBoundary{})
		l.pos++
	default:
		return false, nil
	}
	return true, nil
}

// scanLineBreak consumes "//" and an optional run of digits.
func (l *lexer) scanLineBreak() {
	l.pos += 2
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}
	l.emit(&LineBreak{Label: l.input[start:l.pos]})
}

// scanPageBreak consumes "///" and the following run of non-whitespace.
func (l *lexer) scanPageBreak() {
	l.pos += 3
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}
	l.emit(&PageBreak{Label: l.input[start:l.pos]})
}

func (l *lexer) scanAbbreviation() error {
	start := l.pos
	l.pos += len(".abbr[")
	end := findClose(l.input, l.pos, "]")
	if end < 0 {
		return errors.NewParseAt(dslFormat, "abbreviation", start, "missing closing ']'")
	}
	abbr := l.input[l.pos:end]
	l.pos = end + 1

	if !l.hasPrefix("{") {
		return errors.NewParseAt(dslFormat, "abbreviation", start, "expected '{' with expansion after ']'")
	}
	l.pos++
	end = findClose(l.input, l.pos, "}")
	if end < 0 {
		return errors.NewParseAt(dslFormat, "abbreviation", start, "missing closing '}'")
	}
	expan := l.input[l.pos:end]
	l.pos = end + 1

	l.emit(&Abbreviation{Abbr: abbr, Expansion: expan})
	return nil
}

func (l *lexer) scanGap() error {
	start := l.pos
	l.pos += len("[...")
	end := findClose(l.input, l.pos, "]")
	if end < 0 {
		return errors.NewParseAt(dslFormat, "gap", start, "missing closing ']'")
	}
	gap, err := parseGapBody(l.input[l.pos:end])
	if err != nil {
		pe := errors.NewParseAt(dslFormat, "gap", start, "expected [...], [...n], [...<text>] or [...n<text>]")
		pe.Err = err
		return pe
	}
	l.pos = end + 1
	l.emit(gap)
	return nil
}

// scanDelimited consumes an opener of openLen bytes, then everything up to
// the matching closer, and returns the enclosed text.
func (l *lexer) scanDelimited(construct string, openLen int, closer string) (string, error) {
	start := l.pos
	l.pos += openLen
	end := findClose(l.input, l.pos, closer)
	if end < 0 {
		return "", errors.NewParseAt(dslFormat, construct, start, "missing closing '"+closer+"'")
	}
	body := l.input[l.pos:end]
	l.pos = end + len(closer)
	return body, nil
}

// scanEntity consumes ":name:". Without a closing colon nothing is consumed
// except the leading colon, which becomes literal text.
func (l *lexer) scanEntity() bool {
	rest := l.input[l.pos+1:]
	n := 0
	for n < len(rest) && encoding.IsEntityName(rest[n:n+1]) {
		n++
	}
	if n > 0 && n < len(rest) && rest[n] == ':' {
		l.emit(&Entity{Name: rest[:n]})
		l.pos += n + 2
		return true
	}
	l.text.WriteByte(':')
	l.pos++
	return true
}

// findClose returns the index of closer in s at or after from, skipping over
// nested {...}, [...] and <...> groups. It returns -1 if there is no match.
func findClose(s string, from int, closer string) int {
	depth := 0
	for i := from; i < len(s); i++ {
		c := s[i]
		if depth == 0 && strings.HasPrefix(s[i:], closer) {
			return i
		}
		switch c {
		case '{', '[', '<':
			depth++
		case '}', ']', '>':
			if depth > 0 {
				depth--
			}
		}
	}
	return -1
}
