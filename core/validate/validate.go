// Package validate runs document validation on a dedicated worker
// goroutine. Requests arrive over a channel and each carries its own reply
// channel. Schemas read from a path are parsed once and kept in an LRU;
// inline schemas are parsed per request.
package validate

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/FocuswithJustin/Vellum/core/cache"
	"github.com/FocuswithJustin/Vellum/core/errors"
	vxml "github.com/FocuswithJustin/Vellum/core/xml"
	"github.com/FocuswithJustin/Vellum/internal/logging"
)

// ErrClosed is returned for requests made after Close.
var ErrClosed = fmt.Errorf("validator closed")

// Request asks for one document to be validated. Schema, when non-nil,
// is used instead of SchemaPath. With neither, only well-formedness is
// checked.
type Request struct {
	Document   []byte
	SchemaPath string
	Schema     []byte
}

// Result is the outcome of a validation request.
type Result struct {
	Valid  bool
	Errors []vxml.ValidationError
}

type reply struct {
	result Result
	err    error
}

type job struct {
	req   Request
	reply chan<- reply
}

// Option configures a Validator.
type Option func(*Validator)

// WithCacheSize bounds the number of cached schemas.
func WithCacheSize(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.cacheSize = n
		}
	}
}

// WithQueueSize sets how many requests may wait for the worker.
func WithQueueSize(n int) Option {
	return func(v *Validator) {
		if n >= 0 {
			v.queueSize = n
		}
	}
}

// WithSchemaReader replaces os.ReadFile for loading schemas by path.
func WithSchemaReader(read func(path string) ([]byte, error)) Option {
	return func(v *Validator) {
		v.readFile = read
	}
}

// Validator owns the worker goroutine and its schema cache.
type Validator struct {
	requests chan job
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once

	// Only touched by the worker.
	schemas  cache.Cache[string, *Schema]
	readFile func(string) ([]byte, error)

	cacheSize int
	queueSize int
}

// New starts a validation worker. Call Close to stop it.
func New(opts ...Option) *Validator {
	v := &Validator{
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		readFile:  os.ReadFile,
		cacheSize: cache.DefaultConfig().MaxSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.requests = make(chan job, v.queueSize)
	v.schemas = cache.New[string, *Schema](cache.Config{MaxSize: v.cacheSize})
	go v.run()
	return v
}

// Validate submits req and waits for its result. The returned error is
// non-nil if the request could not be served: the context ended, the
// validator was closed, the schema could not be loaded, or validation
// faulted internally. Document problems are reported in Result.
func (v *Validator) Validate(ctx context.Context, req Request) (Result, error) {
	ch := make(chan reply, 1)
	select {
	case v.requests <- job{req: req, reply: ch}:
	case <-v.quit:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.result, r.err
	case <-v.done:
		select {
		case r := <-ch:
			return r.result, r.err
		default:
			return Result{}, ErrClosed
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// CachedSchemas returns the number of schemas held in the cache.
func (v *Validator) CachedSchemas() int {
	return v.schemas.Len()
}

// Close stops the worker after the request in progress, if any. Requests
// still queued are answered with ErrClosed.
func (v *Validator) Close() {
	v.once.Do(func() { close(v.quit) })
	<-v.done
}

func (v *Validator) run() {
	defer close(v.done)
	for {
		select {
		case <-v.quit:
			v.drain()
			return
		default:
		}
		select {
		case <-v.quit:
			v.drain()
			return
		case j := <-v.requests:
			res, err := v.serve(j.req)
			j.reply <- reply{result: res, err: err}
		}
	}
}

// drain answers every queued request with ErrClosed.
func (v *Validator) drain() {
	for {
		select {
		case j := <-v.requests:
			j.reply <- reply{err: ErrClosed}
		default:
			return
		}
	}
}

// serve handles one request. A panic is contained to the request.
func (v *Validator) serve(req Request) (res Result, err error) {
	schemaName := req.SchemaPath
	if req.Schema != nil {
		schemaName = "inline"
	}
	defer func() {
		if r := recover(); r != nil {
			logging.ValidationFault(schemaName, r)
			res = Result{}
			err = fmt.Errorf("%w: validation fault: %v", errors.ErrInternal, r)
		}
	}()

	start := time.Now()
	res, err = v.check(req)
	if err == nil {
		logging.ValidationEvent(schemaName, res.Valid, len(res.Errors), time.Since(start))
	}
	return res, err
}

func (v *Validator) check(req Request) (Result, error) {
	wf := vxml.Validate(req.Document, nil)
	if !wf.Valid {
		return Result{Valid: false, Errors: wf.Errors}, nil
	}

	schema, err := v.schema(req)
	if err != nil || schema == nil {
		return Result{Valid: true}, err
	}

	doc, err := vxml.Parse(req.Document)
	if err != nil {
		return Result{Valid: false, Errors: []vxml.ValidationError{{Message: err.Error()}}}, nil
	}
	errs := schema.Check(doc)
	return Result{Valid: len(errs) == 0, Errors: errs}, nil
}

func (v *Validator) schema(req Request) (*Schema, error) {
	switch {
	case req.Schema != nil:
		return ParseSchema(req.Schema, "inline schema")
	case req.SchemaPath != "":
		return cache.GetOrLoad(v.schemas, req.SchemaPath, v.loadSchema)
	}
	return nil, nil
}

func (v *Validator) loadSchema(path string) (*Schema, error) {
	data, err := v.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("schema", path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	return ParseSchema(data, path)
}
