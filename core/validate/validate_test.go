package validate

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	verrors "github.com/FocuswithJustin/Vellum/core/errors"
	vxml "github.com/FocuswithJustin/Vellum/core/xml"
)

const rngSchema = `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><ref name="tei"/></start>
  <define name="tei"><element name="TEI"><ref name="text"/></element></define>
  <define name="text">
    <element name="text">
      <element name="body">
        <zeroOrMore><element><name>tei:p</name><text/></element></zeroOrMore>
      </element>
    </element>
  </define>
</grammar>`

const xsdSchema = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="note">
    <xs:complexType><xs:sequence>
      <xs:element name="to" type="xs:string"/>
      <xs:element ref="from"/>
    </xs:sequence></xs:complexType>
  </xs:element>
</xs:schema>`

const validDoc = `<TEI><text><body><p>Olafr &eth;</p></body></text></TEI>`

func TestParseSchema(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		grammar Grammar
		want    []string
	}{
		{"relax ng", rngSchema, RelaxNG, []string{"TEI", "body", "p", "text"}},
		{"xsd", xsdSchema, XSD, []string{"note", "to"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchema([]byte(tt.data), "test")
			if err != nil {
				t.Fatalf("ParseSchema failed: %v", err)
			}
			if s.Grammar != tt.grammar {
				t.Errorf("Grammar = %s, want %s", s.Grammar, tt.grammar)
			}
			if got := s.Elements(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Elements = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSchemaErrors(t *testing.T) {
	if _, err := ParseSchema([]byte(`<html/>`), "page.html"); !errors.Is(err, verrors.ErrUnsupported) {
		t.Errorf("unknown root: err = %v", err)
	}
	if _, err := ParseSchema([]byte(`<grammar>`), "broken.rng"); err == nil {
		t.Error("malformed schema should fail")
	}
}

func TestSchemaWildcard(t *testing.T) {
	s, err := ParseSchema([]byte(`<element xmlns="http://relaxng.org/ns/structure/1.0"><anyName/><text/></element>`), "any.rng")
	if err != nil {
		t.Fatalf("ParseSchema failed: %v", err)
	}
	if !s.Allows("anything") {
		t.Error("anyName should allow every element")
	}
}

func TestSchemaCheck(t *testing.T) {
	s, _ := ParseSchema([]byte(rngSchema), "tei.rng")
	doc, err := vxml.Parse([]byte("<TEI>\n<text><body><p/><div><p/></div></body></text></TEI>"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	errs := s.Check(doc)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "<div>") || !strings.Contains(errs[0].Message, "tei.rng") {
		t.Errorf("Check = %v", errs)
	}
}

func TestValidatorRequests(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/tei.rng"
	if err := os.WriteFile(path, []byte(rngSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	v := New()
	defer v.Close()
	ctx := context.Background()

	tests := []struct {
		name      string
		req       Request
		valid     bool
		errSubstr string
	}{
		{"well-formed only", Request{Document: []byte(`<any><thing/></any>`)}, true, ""},
		{"malformed", Request{Document: []byte(`<a><b></a>`)}, false, ""},
		{"schema by path", Request{Document: []byte(validDoc), SchemaPath: path}, true, ""},
		{"undeclared element", Request{Document: []byte(`<TEI><front/></TEI>`), SchemaPath: path}, false, "<front>"},
		{"inline schema", Request{Document: []byte(`<note><to>x</to></note>`), Schema: []byte(xsdSchema)}, true, ""},
		{"inline schema rejects", Request{Document: []byte(`<note><cc/></note>`), Schema: []byte(xsdSchema)}, false, "<cc>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(ctx, tt.req)
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if res.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v (%v)", res.Valid, tt.valid, res.Errors)
			}
			if !tt.valid && len(res.Errors) == 0 {
				t.Error("invalid result without diagnostics")
			}
			if tt.errSubstr != "" && (len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, tt.errSubstr)) {
				t.Errorf("Errors = %v, want mention of %s", res.Errors, tt.errSubstr)
			}
		})
	}

	if n := v.CachedSchemas(); n != 1 {
		t.Errorf("CachedSchemas = %d, want 1 (inline schemas are not cached)", n)
	}
}

func TestValidatorCachesByPath(t *testing.T) {
	var mu sync.Mutex
	reads := 0
	v := New(WithSchemaReader(func(path string) ([]byte, error) {
		mu.Lock()
		reads++
		mu.Unlock()
		return []byte(rngSchema), nil
	}))
	defer v.Close()

	for i := 0; i < 3; i++ {
		if _, err := v.Validate(context.Background(), Request{Document: []byte(validDoc), SchemaPath: "tei.rng"}); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
	}
	if reads != 1 {
		t.Errorf("schema read %d times, want 1", reads)
	}
}

func TestValidatorSchemaErrors(t *testing.T) {
	v := New(WithSchemaReader(func(path string) ([]byte, error) {
		if path == "bad.rng" {
			return []byte(`<html/>`), nil
		}
		return nil, os.ErrNotExist
	}))
	defer v.Close()

	_, err := v.Validate(context.Background(), Request{Document: []byte(validDoc), SchemaPath: "missing.rng"})
	if !errors.Is(err, verrors.ErrNotFound) {
		t.Errorf("missing schema: err = %v", err)
	}
	_, err = v.Validate(context.Background(), Request{Document: []byte(validDoc), SchemaPath: "bad.rng"})
	if !errors.Is(err, verrors.ErrUnsupported) {
		t.Errorf("bad schema: err = %v", err)
	}
	if v.CachedSchemas() != 0 {
		t.Error("failed schema loads must not be cached")
	}
}

func TestValidatorFaultBarrier(t *testing.T) {
	v := New(WithSchemaReader(func(path string) ([]byte, error) {
		if path == "panic.rng" {
			panic("native engine crashed")
		}
		return []byte(rngSchema), nil
	}))
	defer v.Close()
	ctx := context.Background()

	_, err := v.Validate(ctx, Request{Document: []byte(validDoc), SchemaPath: "panic.rng"})
	if !errors.Is(err, verrors.ErrInternal) || !strings.Contains(err.Error(), "native engine crashed") {
		t.Fatalf("fault: err = %v", err)
	}

	res, err := v.Validate(ctx, Request{Document: []byte(validDoc), SchemaPath: "tei.rng"})
	if err != nil || !res.Valid {
		t.Errorf("worker did not survive the fault: %+v, %v", res, err)
	}
	if v.CachedSchemas() != 1 {
		t.Errorf("CachedSchemas = %d, want 1", v.CachedSchemas())
	}
}

func TestValidatorConcurrentCallers(t *testing.T) {
	v := New(WithQueueSize(2))
	defer v.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.Validate(context.Background(), Request{Document: []byte(validDoc)})
			if err == nil && !res.Valid {
				err = errors.New("unexpected invalid result")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestValidatorClosed(t *testing.T) {
	v := New(WithQueueSize(0))
	v.Close()
	v.Close()

	if _, err := v.Validate(context.Background(), Request{Document: []byte(validDoc)}); !errors.Is(err, ErrClosed) {
		t.Errorf("Validate after Close = %v", err)
	}
}

func TestValidatorContextCancelled(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	v := New(WithQueueSize(0), WithSchemaReader(func(string) ([]byte, error) {
		close(started)
		<-block
		return []byte(rngSchema), nil
	}))
	defer func() {
		close(block)
		v.Close()
	}()

	go v.Validate(context.Background(), Request{Document: []byte(validDoc), SchemaPath: "slow.rng"})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := v.Validate(ctx, Request{Document: []byte(validDoc)}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Validate = %v, want deadline exceeded", err)
	}
}

func TestValidatorCloseAnswersQueued(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	v := New(WithQueueSize(4), WithSchemaReader(func(string) ([]byte, error) {
		close(started)
		<-block
		return []byte(rngSchema), nil
	}))

	first := make(chan error, 1)
	go func() {
		_, err := v.Validate(context.Background(), Request{Document: []byte(validDoc), SchemaPath: "slow.rng"})
		first <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := v.Validate(context.Background(), Request{Document: []byte(validDoc)})
		second <- err
	}()
	waitFor(t, func() bool { return len(v.requests) == 1 })

	closed := make(chan struct{})
	go func() {
		v.Close()
		close(closed)
	}()
	waitFor(t, func() bool {
		select {
		case <-v.quit:
			return true
		default:
			return false
		}
	})
	close(block)

	select {
	case err := <-second:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("queued request = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("queued request still blocked after Close")
	}
	if err := <-first; err != nil {
		t.Errorf("request in progress = %v, want it served", err)
	}
	<-closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}
