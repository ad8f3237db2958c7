package xml

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/errors"
)

// SplitBody cuts a raw document into the markup before the body content
// (up to and including the body start tag), the body content, and the
// markup after it (from the body end tag on). The outer parts are kept
// byte-for-byte so a round trip can reattach them unchanged.
func SplitBody(raw string) (pre, body, post string, err error) {
	start := findBodyStart(raw)
	if start < 0 {
		return "", "", "", errors.NewParse("XML", "no <body> element found")
	}
	gt := strings.IndexByte(raw[start:], '>')
	if gt < 0 {
		return "", "", "", errors.NewParseAt("XML", "body", start, "unterminated <body> start tag")
	}
	openEnd := start + gt + 1
	if raw[openEnd-2] == '/' {
		// <body/>: no content.
		return raw[:openEnd], "", raw[openEnd:], nil
	}

	end := findBodyEnd(raw)
	if end < openEnd {
		return "", "", "", errors.NewParseAt("XML", "body", start, "missing </body>")
	}
	return raw[:openEnd], raw[openEnd:end], raw[end:], nil
}

// findBodyStart returns the offset of the first "<body" start tag, which
// may carry a namespace prefix.
func findBodyStart(raw string) int {
	for i := 0; i < len(raw); {
		j := strings.IndexByte(raw[i:], '<')
		if j < 0 {
			return -1
		}
		pos := i + j
		name := raw[pos+1:]
		end := strings.IndexAny(name, " \t\r\n/>")
		if end > 0 {
			qname := name[:end]
			if k := strings.IndexByte(qname, ':'); k >= 0 {
				qname = qname[k+1:]
			}
			if qname == "body" {
				return pos
			}
		}
		i = pos + 1
	}
	return -1
}

// findBodyEnd returns the offset of the last body end tag.
func findBodyEnd(raw string) int {
	for i := len(raw); i > 0; {
		pos := strings.LastIndex(raw[:i], "</")
		if pos < 0 {
			return -1
		}
		name := raw[pos+2:]
		if end := strings.IndexAny(name, " \t\r\n>"); end > 0 {
			qname := name[:end]
			if k := strings.IndexByte(qname, ':'); k >= 0 {
				qname = qname[k+1:]
			}
			if qname == "body" {
				return pos
			}
		}
		i = pos
	}
	return -1
}
