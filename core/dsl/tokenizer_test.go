package dsl

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// dump renders nodes in a compact debugging notation.
func dump(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		switch n := n.(type) {
		case *Word:
			parts[i] = "Word(" + dump(n.Children) + ")"
		case *Punctuation:
			parts[i] = "Punct(" + dump(n.Children) + ")"
		default:
			parts[i] = fmt.Sprintf("%s%+v", n.Kind(), n)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// renderTokens writes grouped nodes separated by single spaces.
func renderTokens(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := RenderNode(n); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func lexAndTokenize(t *testing.T, input string) []Node {
	t.Helper()
	doc, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", input, err)
	}
	return Tokenize(doc)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Node
	}{
		{
			name:  "words and labelled break",
			input: "word //5 next",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "word"}}},
				&LineBreak{Label: "5"},
				&Word{Children: []Node{&Text{Value: "next"}}},
			},
		},
		{
			name:  "punctuation split out",
			input: "ok, go.",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "ok"}}},
				&Punctuation{Children: []Node{&Text{Value: ","}}},
				&Word{Children: []Node{&Text{Value: "go"}}},
				&Punctuation{Children: []Node{&Text{Value: "."}}},
			},
		},
		{
			name:  "compound join stays in word",
			input: "upp~haf",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "upp"}, &CompoundJoin{}, &Text{Value: "haf"}}},
			},
		},
		{
			name:  "explicit continuation",
			input: "hel~//3lo",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "hel"}, &LineBreak{Label: "3"}, &Text{Value: "lo"}}},
			},
		},
		{
			name:  "implicit continuation after letter",
			input: "hel//3lo",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "hel"}, &LineBreak{Label: "3"}, &Text{Value: "lo"}}},
			},
		},
		{
			name:  "break after digit ends word",
			input: "xx1//y",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "xx1"}}},
				&LineBreak{},
				&Word{Children: []Node{&Text{Value: "y"}}},
			},
		},
		{
			name:  "break after entity continues word",
			input: "a:eth://b",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "a"}, &Entity{Name: "eth"}, &LineBreak{}, &Text{Value: "b"}}},
			},
		},
		{
			name:  "break after inline element follows preceding text",
			input: "a<b>//c",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "a"}, &Supplied{Text: "b"}, &LineBreak{}, &Text{Value: "c"}}},
			},
		},
		{
			name:  "word boundary splits",
			input: "ab|cd",
			want: []Node{
				&Word{Children: []Node{&Text{Value: "ab"}}},
				&Word{Children: []Node{&Text{Value: "cd"}}},
			},
		},
		{
			name:  "inline elements are word internal",
			input: ".abbr[dni]{domini} [...2]",
			want: []Node{
				&Word{Children: []Node{&Abbreviation{Abbr: "dni", Expansion: "domini"}}},
				&Word{Children: []Node{&Gap{Quantity: 2}}},
			},
		},
		{
			name:  "leading page break is standalone",
			input: "///1r word",
			want: []Node{
				&PageBreak{Label: "1r"},
				&Word{Children: []Node{&Text{Value: "word"}}},
			},
		},
		{
			name:  "continuation with no open word",
			input: " ~//2 x",
			want: []Node{
				&LineBreak{Label: "2"},
				&Word{Children: []Node{&Text{Value: "x"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexAndTokenize(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) =\n  %s\nwant\n  %s", tt.input, dump(got), dump(tt.want))
			}
		})
	}
}

// TestTokenizeConsumesMarkers verifies that continuation and boundary
// markers never survive tokenization.
func TestTokenizeConsumesMarkers(t *testing.T) {
	nodes := lexAndTokenize(t, "a|b~//c ~ d|")
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			switch n := n.(type) {
			case *WordContinuation, *WordBoundary:
				t.Errorf("unexpected %s in output", n.Kind())
			case *Word:
				walk(n.Children)
			case *Punctuation:
				walk(n.Children)
			}
		}
	}
	walk(nodes)
}

func TestTokenizePassesThroughGroupedNodes(t *testing.T) {
	w := &Word{Children: []Node{&Text{Value: "x"}}}
	p := &Punctuation{Children: []Node{&Text{Value: "."}}}
	got := Tokenize([]Node{&Text{Value: "a"}, w, p})
	if len(got) != 3 || got[1] != w || got[2] != p {
		t.Errorf("grouped nodes not passed through: %s", dump(got))
	}
}

func TestRenderRoundTrip(t *testing.T) {
	inputs := []string{
		"hel~//3lo",
		".abbr[dni]{domini}",
		"[...2<ab>]",
		"a:eth:b",
		"upp~haf",
		"-{x}-+{y}+^{z}?{w}?<v>",
		"fol~///2v",
		`s\.`,
		`x\|y`,
		`a\<b`,
		`\/\/x`,
	}
	for _, in := range inputs {
		nodes := lexAndTokenize(t, in)
		if got := renderTokens(nodes); got != in {
			t.Errorf("renderTokens(Tokenize(Lex(%q))) = %q", in, got)
		}
	}
}

func TestTokenizeEscapedPunctuation(t *testing.T) {
	got := lexAndTokenize(t, `s\. x\|y .`)
	want := []Node{
		&Word{Children: []Node{&Text{Value: "s"}, &Text{Value: ".", Escaped: true}}},
		&Word{Children: []Node{&Text{Value: "x"}, &Text{Value: "|", Escaped: true}, &Text{Value: "y"}}},
		&Punctuation{Children: []Node{&Text{Value: "."}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize =\n  %s\nwant\n  %s", dump(got), dump(want))
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"s.", `s\.`},
		{"http://x", `http\:\/\/x`},
		{`a-{b}~c`, `a-\{b}\~c`},
		{`\`, `\\`},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
		nodes := lexAndTokenize(t, Escape(tt.in))
		if len(nodes) != 1 || nodes[0].Kind() != KindWord {
			t.Errorf("Escape(%q) did not lex back as one word: %s", tt.in, dump(nodes))
		}
	}
}

func TestRenderTokenSpacing(t *testing.T) {
	nodes := lexAndTokenize(t, "a , b //4 c")
	if got := renderTokens(nodes); got != "a , b //4 c" {
		t.Errorf("rendered tokens = %q", got)
	}
}

func TestMarkers(t *testing.T) {
	if got := LineBreakMarker("12"); got != "//12" {
		t.Errorf("LineBreakMarker = %q", got)
	}
	if got := LineBreakMarker("3a"); got != "//" {
		t.Errorf("LineBreakMarker(non-numeric) = %q", got)
	}
	if got := PageBreakMarker("12 r"); got != "///12r" {
		t.Errorf("PageBreakMarker = %q", got)
	}
	if got := GapMarker(0, ""); got != "[...]" {
		t.Errorf("GapMarker = %q", got)
	}
}
