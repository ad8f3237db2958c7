package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/FocuswithJustin/Vellum/core/annotation"
	"github.com/FocuswithJustin/Vellum/core/compiler"
	verrors "github.com/FocuswithJustin/Vellum/core/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vellum.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func word(id string, i int, typ annotation.Type) annotation.Annotation {
	return annotation.Annotation{ID: id, Type: typ, Target: annotation.Target{Kind: annotation.TargetWord, WordIndex: i}}
}

func TestDriverInfo(t *testing.T) {
	info := DriverInfo()
	if info.DriverName == "" || info.Package == "" {
		t.Errorf("DriverInfo = %+v", info)
	}
	if info.DriverType != "purego" && info.DriverType != "cgo" {
		t.Errorf("DriverType = %q", info.DriverType)
	}
}

func TestLemmas(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.PutLemma(ctx, "saga", 0, annotation.LemmaMapping{Lemma: "maðr", Analysis: "xNC"}); err != nil {
		t.Fatalf("PutLemma failed: %v", err)
	}
	want := annotation.LemmaMapping{Lemma: "maðr", Analysis: "xNC", Normalized: "maður", Confirmed: true}
	if err := s.PutLemma(ctx, "saga", 0, want); err != nil {
		t.Fatalf("PutLemma (update) failed: %v", err)
	}
	if err := s.PutLemma(ctx, "other", 0, annotation.LemmaMapping{Lemma: "x"}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Lemma(ctx, "saga", 0)
	if err != nil || !ok || got != want {
		t.Errorf("Lemma = %+v, %v, %v; want %+v", got, ok, err, want)
	}
	if _, ok, err := s.Lemma(ctx, "saga", 7); ok || err != nil {
		t.Errorf("missing lemma = %v, %v", ok, err)
	}

	table, err := s.LemmaTable(ctx, "saga")
	if err != nil {
		t.Fatalf("LemmaTable failed: %v", err)
	}
	if !reflect.DeepEqual(table, annotation.MapTable{0: want}) {
		t.Errorf("LemmaTable = %+v", table)
	}
}

func TestAnnotationQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	span := annotation.Annotation{ID: "s", Type: annotation.TypeNote, Target: annotation.Target{Kind: annotation.TargetSpan, Start: 1, End: 3}, Value: "formula"}
	char := annotation.Annotation{ID: "c", Type: annotation.TypeCharacter, Target: annotation.Target{Kind: annotation.TargetCharRange, WordIndex: 2, Start: 0, End: 1}, Category: "initial"}
	for _, a := range []annotation.Annotation{span, word("w2", 2, annotation.TypeSemantic), char, word("w5", 5, annotation.TypePaleographic)} {
		if _, err := s.AddAnnotation(ctx, "saga", a); err != nil {
			t.Fatalf("AddAnnotation(%s) failed: %v", a.ID, err)
		}
	}

	got, err := s.ForWord(ctx, "saga", 2)
	if err != nil {
		t.Fatalf("ForWord failed: %v", err)
	}
	if want := []annotation.Annotation{word("w2", 2, annotation.TypeSemantic), span}; !reflect.DeepEqual(got, want) {
		t.Errorf("ForWord(2) = %+v, want %+v", got, want)
	}
	if got, _ := s.ForWord(ctx, "saga", 4); len(got) != 0 {
		t.Errorf("ForWord(4) = %+v", got)
	}

	ranges, err := s.CharRanges(ctx, "saga", 2)
	if err != nil || !reflect.DeepEqual(ranges, []annotation.Annotation{char}) {
		t.Errorf("CharRanges(2) = %+v, %v", ranges, err)
	}

	set, err := s.AnnotationSet(ctx, "saga")
	if err != nil {
		t.Fatalf("AnnotationSet failed: %v", err)
	}
	if set.Len() != 4 {
		t.Errorf("AnnotationSet.Len = %d", set.Len())
	}
}

func TestAddAnnotationAssignsID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.AddAnnotation(ctx, "saga", word("", 0, annotation.TypeSemantic))
	if err != nil || len(id) != 36 {
		t.Fatalf("AddAnnotation = %q, %v", id, err)
	}
	if _, err := s.AddAnnotation(ctx, "saga", word(id, 1, annotation.TypeSemantic)); err == nil {
		t.Error("duplicate id within a document should fail")
	}
	if _, err := s.AddAnnotation(ctx, "other", word(id, 1, annotation.TypeSemantic)); err != nil {
		t.Errorf("same id in another document: %v", err)
	}
}

func TestDeleteAnnotation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.AddAnnotation(ctx, "saga", word("a", 0, annotation.TypeSemantic)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAnnotation(ctx, "saga", "a"); err != nil {
		t.Fatalf("DeleteAnnotation failed: %v", err)
	}
	if err := s.DeleteAnnotation(ctx, "saga", "a"); !errors.Is(err, verrors.ErrNotFound) {
		t.Errorf("second delete = %v, want not found", err)
	}
}

func TestViewDrivesCompiler(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.PutLemma(ctx, "saga", 0, annotation.LemmaMapping{Lemma: "maðr", Analysis: "xNC", Confirmed: true}); err != nil {
		t.Fatal(err)
	}
	a := word("p", 1, annotation.TypePaleographic)
	a.Category = "large"
	if _, err := s.AddAnnotation(ctx, "saga", a); err != nil {
		t.Fatal(err)
	}

	v := s.View(ctx, "saga")
	var _ annotation.Set = v
	var _ annotation.LemmaTable = v

	c := compiler.New(compiler.Config{WordWrap: true}, compiler.WithLemmas(v), compiler.WithAnnotations(v))
	got, err := c.Compile("maðr var")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	want := "<w lemma=\"maðr\" me:msa=\"xNC\">maðr</w>\n<w rend=\"large\">var</w>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if v.Err() != nil {
		t.Errorf("View.Err = %v", v.Err())
	}
}

func TestViewKeepsFirstError(t *testing.T) {
	s := openTestStore(t)
	v := s.View(context.Background(), "saga")
	s.Close()

	if _, ok := v.Lookup(0); ok {
		t.Error("Lookup on a closed store should miss")
	}
	if v.ForWord(0) != nil || v.Err() == nil {
		t.Errorf("View.Err = %v, want an error", v.Err())
	}
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.PutLemma(ctx, "d", 1, annotation.LemmaMapping{Lemma: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Lemma(ctx, "d", 1); !ok {
		t.Error("in-memory database lost its row between statements")
	}
}
