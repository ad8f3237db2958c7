// Package compiler turns parsed transcription DSL into TEI/Menota markup.
//
// Output is produced either at a single level, where each word's content is
// rendered once, or at three parallel levels (facsimile, diplomatic and
// normalized) inside a Menota <choice>. Lemma and annotation data are looked
// up by word index and rendered as attributes; the compiler never modifies
// them.
package compiler

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/annotation"
	"github.com/FocuswithJustin/Vellum/core/dsl"
	"github.com/FocuswithJustin/Vellum/core/encoding"
)

// Config selects compilation behaviour.
type Config struct {
	// WordWrap groups text into <w>/<pc> elements. Without it the flat node
	// stream is rendered as mixed content.
	WordWrap bool `yaml:"word_wrap" json:"word_wrap"`
	// AutoLineNumbers numbers line breaks that carry no explicit label.
	AutoLineNumbers bool `yaml:"auto_line_numbers" json:"auto_line_numbers"`
	// MultiLevel renders facsimile, diplomatic and normalized levels.
	MultiLevel bool `yaml:"multi_level" json:"multi_level"`
	// WrapPages wraps content in <p> and starts a new paragraph after each
	// top-level page break.
	WrapPages bool `yaml:"wrap_pages" json:"wrap_pages"`
}

// DefaultConfig returns the usual single-level, word-wrapped configuration.
func DefaultConfig() Config {
	return Config{WordWrap: true, AutoLineNumbers: true}
}

// EntityResolver resolves entity names to characters.
type EntityResolver interface {
	Char(name string) (string, bool)
}

// Normalizer supplies the normalization rules for the diplomatic and
// normalized levels.
type Normalizer interface {
	IsCombining(name string) bool
	BaseLetter(name string) (string, bool)
	Normalize(s string) string
}

// Compiler holds configuration and lookup tables. It is immutable after
// construction and may be shared between goroutines; every call works on
// its own context.
type Compiler struct {
	config      Config
	entities    EntityResolver
	normalizer  Normalizer
	lemmas      annotation.LemmaTable
	annotations annotation.Set
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithEntities sets the entity registry.
func WithEntities(r EntityResolver) Option {
	return func(c *Compiler) { c.entities = r }
}

// WithNormalizer sets the normalization dictionary.
func WithNormalizer(n Normalizer) Option {
	return func(c *Compiler) { c.normalizer = n }
}

// WithLemmas sets the lemma-mapping table.
func WithLemmas(t annotation.LemmaTable) Option {
	return func(c *Compiler) { c.lemmas = t }
}

// WithAnnotations sets the annotation set.
func WithAnnotations(s annotation.Set) Option {
	return func(c *Compiler) { c.annotations = s }
}

// New creates a Compiler.
func New(config Config, opts ...Option) *Compiler {
	c := &Compiler{config: config}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the compiler's configuration.
func (c *Compiler) Config() Config {
	return c.config
}

// Compile lexes, optionally tokenizes, and compiles DSL text. A lex error
// aborts the whole compilation.
func (c *Compiler) Compile(text string) (string, error) {
	doc, err := dsl.Lex(text)
	if err != nil {
		return "", err
	}
	nodes := []dsl.Node(doc)
	if c.config.WordWrap {
		nodes = dsl.Tokenize(nodes)
	}
	return c.CompileNodes(nodes), nil
}

// CompileNodes compiles an already lexed (and possibly tokenized) node
// sequence. Top-level items are separated by newlines.
func (c *Compiler) CompileNodes(nodes []dsl.Node) string {
	ctx := c.newContext()
	ctx.openParagraph()
	for _, n := range nodes {
		ctx.compileTopLevel(n)
	}
	ctx.closeParagraph()
	return strings.Join(ctx.out, "\n")
}

// context is the per-call state of one compilation.
type context struct {
	c          *Compiler
	out        []string
	wordIndex  int
	lineNumber int
	paraOpen   bool
	// fragment disables lemma and annotation lookups; attributes come from
	// the caller instead.
	fragment bool
	// pending is the mixed-content line being built when word wrapping is off.
	pending strings.Builder
}

func (c *Compiler) newContext() *context {
	return &context{c: c}
}

func (ctx *context) emit(s string) {
	ctx.flushPending()
	if s != "" {
		ctx.out = append(ctx.out, s)
	}
}

func (ctx *context) flushPending() {
	if ctx.pending.Len() > 0 {
		ctx.out = append(ctx.out, ctx.pending.String())
		ctx.pending.Reset()
	}
}

func (ctx *context) openParagraph() {
	if ctx.c.config.WrapPages && !ctx.paraOpen {
		ctx.emit("<p>")
		ctx.paraOpen = true
	}
}

func (ctx *context) closeParagraph() {
	ctx.flushPending()
	if ctx.paraOpen {
		ctx.emit("</p>")
		ctx.paraOpen = false
	}
}

func (ctx *context) compileTopLevel(n dsl.Node) {
	switch n := n.(type) {
	case *dsl.Word:
		index := ctx.wordIndex
		ctx.wordIndex++
		ctx.emit(ctx.compileWord(n, index, nil))
	case *dsl.Punctuation:
		ctx.emit(ctx.compilePunctuation(n, nil))
	case *dsl.LineBreak:
		ctx.emit(ctx.lineBreakTag(n, nil))
	case *dsl.PageBreak:
		if ctx.paraOpen {
			ctx.closeParagraph()
			ctx.emit(ctx.pageBreakTag(n, nil))
			ctx.openParagraph()
			return
		}
		ctx.emit(ctx.pageBreakTag(n, nil))
	case *dsl.WordContinuation, *dsl.WordBoundary:
		// only meaningful to the tokenizer
	default:
		// Unwrapped mode: inline content accumulates on one line.
		ctx.pending.WriteString(ctx.inlineMarkup(n))
	}
}

// lineLabel returns the n attribute for a line break and advances the line
// counter.
func (ctx *context) lineLabel(lb *dsl.LineBreak) string {
	ctx.lineNumber++
	if lb.Label != "" {
		return lb.Label
	}
	if ctx.c.config.AutoLineNumbers {
		return strconv.Itoa(ctx.lineNumber)
	}
	return ""
}

func (ctx *context) lineBreakTag(lb *dsl.LineBreak, base encoding.Attrs) string {
	return breakTag("lb", ctx.lineLabel(lb), base)
}

func (ctx *context) pageBreakTag(pb *dsl.PageBreak, base encoding.Attrs) string {
	return breakTag("pb", pb.Label, base)
}

// breakTag renders a milestone element. base attributes are kept, with n
// replaced by label, or removed if label is empty.
func breakTag(name, label string, base encoding.Attrs) string {
	attrs := base.Clone()
	if label != "" {
		attrs = attrs.With("n", label)
	} else {
		attrs = attrs.Without("n")
	}
	return encoding.EmptyTag(name, attrs)
}
