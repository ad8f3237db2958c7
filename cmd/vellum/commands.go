package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FocuswithJustin/Vellum/core/annotation"
	"github.com/FocuswithJustin/Vellum/core/compiler"
	"github.com/FocuswithJustin/Vellum/core/entity"
	"github.com/FocuswithJustin/Vellum/core/patch"
	"github.com/FocuswithJustin/Vellum/core/session"
	"github.com/FocuswithJustin/Vellum/core/store"
	"github.com/FocuswithJustin/Vellum/core/validate"
	"github.com/FocuswithJustin/Vellum/internal/logging"
)

// compilerFor builds a compiler from the configuration. When doc is set and
// a store is configured, that document's lemmas and annotations are loaded.
func (a *app) compilerFor(cfg compiler.Config, doc string) (*compiler.Compiler, error) {
	registry := entity.DefaultRegistry()
	if p := a.cfg.Dictionary.Entities; p != "" {
		r, err := entity.LoadRegistry(p)
		if err != nil {
			return nil, err
		}
		registry = r
	}
	dictionary := entity.DefaultDictionary()
	if p := a.cfg.Dictionary.Normalization; p != "" {
		d, err := entity.LoadDictionary(p)
		if err != nil {
			return nil, err
		}
		dictionary = d
	}
	opts := []compiler.Option{compiler.WithEntities(registry), compiler.WithNormalizer(dictionary)}

	if doc != "" && a.cfg.Store.Path != "" {
		lemmas, annotations, err := a.loadDocument(doc)
		if err != nil {
			return nil, err
		}
		logging.Debug("loaded document", "doc", doc, "lemmas", len(lemmas), "annotations", annotations.Len())
		opts = append(opts, compiler.WithLemmas(lemmas), compiler.WithAnnotations(annotations))
	}
	return compiler.New(cfg, opts...), nil
}

func (a *app) loadDocument(doc string) (annotation.MapTable, *annotation.MemorySet, error) {
	st, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	ctx := context.Background()
	lemmas, err := st.LemmaTable(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	annotations, err := st.AnnotationSet(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	return lemmas, annotations, nil
}

// output opens path for writing, or returns the app's stdout for "".
func (a *app) output(path string) (io.Writer, func() error, error) {
	if path == "" {
		return a.out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func (a *app) write(path, data string) error {
	w, closeFn, err := a.output(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, data); err != nil {
		closeFn()
		return fmt.Errorf("failed to write output: %w", err)
	}
	return closeFn()
}

// CompileCmd compiles a DSL file.
type CompileCmd struct {
	Input      string `arg:"" help:"DSL text file" type:"existingfile"`
	Out        string `short:"o" help:"Output file (default: stdout)" type:"path"`
	MultiLevel bool   `name:"multi-level" help:"Render facsimile, diplomatic and normalized levels"`
	WrapPages  bool   `name:"wrap-pages" help:"Wrap content in paragraphs split at page breaks"`
	Doc        string `help:"Document key for lemma and annotation lookups in the store"`
}

func (c *CompileCmd) Run(a *app) error {
	text, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Input, err)
	}

	cfg := a.cfg.Compiler
	cfg.MultiLevel = cfg.MultiLevel || c.MultiLevel
	cfg.WrapPages = cfg.WrapPages || c.WrapPages
	comp, err := a.compilerFor(cfg, c.Doc)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := comp.Compile(string(text))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Input, err)
	}
	logging.CompileEvent(c.Input, cfg.MultiLevel, len(out), time.Since(start))
	return a.write(c.Out, out+"\n")
}

// ImportCmd imports an XML document into a session file.
type ImportCmd struct {
	Input string `arg:"" help:"TEI/Menota XML document" type:"existingfile"`
	Out   string `short:"o" required:"" help:"Session file to write" type:"path"`
}

func (c *ImportCmd) Run(a *app) error {
	raw, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Input, err)
	}
	s, err := session.Import(raw, c.Input)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", c.Input, err)
	}
	if err := s.Save(c.Out); err != nil {
		return err
	}

	ctx := logging.WithSessionID(context.Background(), s.ID.String())
	logging.ImportEvent(ctx, c.Input, len(s.Segments), s.MultiLevel)
	fmt.Fprintf(a.out, "Session: %s\n", s.ID)
	fmt.Fprintf(a.out, "  Segments: %d\n", len(s.Segments))
	fmt.Fprintf(a.out, "  Multi-level: %v\n", s.MultiLevel)
	fmt.Fprintf(a.out, "  Hash: %s\n", s.Hash)
	return nil
}

// FlattenCmd prints a session's editable text.
type FlattenCmd struct {
	Session string `arg:"" help:"Session file" type:"existingfile"`
	Out     string `short:"o" help:"Output file (default: stdout)" type:"path"`
}

func (c *FlattenCmd) Run(a *app) error {
	s, err := session.Load(c.Session)
	if err != nil {
		return err
	}
	return a.write(c.Out, s.Flatten()+"\n")
}

// PatchCmd reconciles edited DSL text with a session.
type PatchCmd struct {
	Session   string `arg:"" help:"Session file" type:"existingfile"`
	Edited    string `arg:"" help:"Edited DSL text file" type:"existingfile"`
	Out       string `short:"o" help:"Output file (default: stdout)" type:"path"`
	Threshold int    `help:"Range length above which changed regions are replaced wholesale (default from config)"`
	DryRun    bool   `name:"dry-run" help:"Print the operation summary instead of the document"`
}

func (c *PatchCmd) Run(a *app) error {
	s, err := session.Load(c.Session)
	if err != nil {
		return err
	}
	edited, err := os.ReadFile(c.Edited)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Edited, err)
	}

	cfg := a.cfg.Compiler
	cfg.MultiLevel = s.MultiLevel
	comp, err := a.compilerFor(cfg, "")
	if err != nil {
		return err
	}
	threshold := a.cfg.Patch.Threshold
	if c.Threshold > 0 {
		threshold = c.Threshold
	}

	res, err := s.Reconstruct(string(edited), comp, patch.WithThreshold(threshold))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Edited, err)
	}
	sum := res.Summary
	ctx := logging.WithSessionID(context.Background(), s.ID.String())
	logging.PatchEvent(ctx, sum.Kept, sum.Modified, sum.Inserted, sum.Deleted)

	if c.DryRun {
		fmt.Fprintf(a.out, "kept %d, modified %d, inserted %d, deleted %d\n", sum.Kept, sum.Modified, sum.Inserted, sum.Deleted)
		for _, op := range res.Operations {
			if op.Kind() != patch.OpKeep {
				fmt.Fprintf(a.out, "  %v\n", op)
			}
		}
		return nil
	}
	return a.write(c.Out, res.Document)
}

// ValidateCmd validates a document.
type ValidateCmd struct {
	Input  string `arg:"" help:"XML document" type:"existingfile"`
	Schema string `help:"RELAX NG or XSD schema" type:"existingfile"`
}

func (c *ValidateCmd) Run(a *app) error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Input, err)
	}

	v := validate.New(
		validate.WithCacheSize(a.cfg.Validation.SchemaCacheSize),
		validate.WithQueueSize(a.cfg.Validation.QueueSize),
	)
	defer v.Close()

	res, err := v.Validate(context.Background(), validate.Request{Document: data, SchemaPath: c.Schema})
	if err != nil {
		return err
	}
	if res.Valid {
		fmt.Fprintf(a.out, "%s: valid\n", c.Input)
		return nil
	}
	for _, e := range res.Errors {
		fmt.Fprintf(a.out, "%s:%s\n", c.Input, e)
	}
	return fmt.Errorf("validation failed: %d error(s)", len(res.Errors))
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	info := store.DriverInfo()
	fmt.Fprintf(a.out, "vellum %s\n", version)
	fmt.Fprintf(a.out, "  sqlite: %s (%s)\n", info.Package, info.DriverType)
	return nil
}
