// Package session holds everything needed to re-create an imported document
// after its body has been edited as DSL text: the raw markup around the
// body, the extracted segments, and an integrity hash over both.
package session

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/patch"
	"github.com/FocuswithJustin/Vellum/core/segment"
	vxml "github.com/FocuswithJustin/Vellum/core/xml"
)

// Session is a serializable round-trip manifest.
type Session struct {
	ID         uuid.UUID    `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	Source     string       `json:"source,omitempty"`
	PreBody    string       `json:"pre_body"`
	PostBody   string       `json:"post_body"`
	MultiLevel bool         `json:"multi_level"`
	Segments   segment.List `json:"segments"`
	Hash       string       `json:"hash"`
}

// Injectable for tests.
var (
	newID = uuid.New
	now   = time.Now
)

// Import splits raw into pre-body, body and post-body, extracts the body's
// segments and returns a sealed session. source is informational only.
func Import(raw []byte, source string) (*Session, error) {
	pre, _, post, err := vxml.SplitBody(string(raw))
	if err != nil {
		return nil, err
	}
	doc, err := vxml.Parse(raw)
	if err != nil {
		return nil, err
	}
	body := doc.Body()
	if body == nil {
		return nil, errors.NewNotFound("body element", source)
	}
	segs, multi := segment.Extract(body.Raw())

	s := &Session{
		ID:         newID(),
		CreatedAt:  now().UTC().Truncate(time.Second),
		Source:     source,
		PreBody:    pre,
		PostBody:   post,
		MultiLevel: multi,
		Segments:   segs,
	}
	if err := s.Seal(); err != nil {
		return nil, err
	}
	return s, nil
}

// hashed is the part of a Session covered by Hash.
type hashed struct {
	ID         uuid.UUID    `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	PreBody    string       `json:"pre_body"`
	PostBody   string       `json:"post_body"`
	MultiLevel bool         `json:"multi_level"`
	Segments   segment.List `json:"segments"`
}

func (s *Session) computeHash() (string, error) {
	data, err := json.Marshal(hashed{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		PreBody:    s.PreBody,
		PostBody:   s.PostBody,
		MultiLevel: s.MultiLevel,
		Segments:   s.Segments,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

// Seal recomputes Hash from the current contents.
func (s *Session) Seal() error {
	h, err := s.computeHash()
	if err != nil {
		return err
	}
	s.Hash = h
	return nil
}

// Verify reports an error wrapping errors.ErrIntegrity if the contents no
// longer match Hash.
func (s *Session) Verify() error {
	h, err := s.computeHash()
	if err != nil {
		return err
	}
	if h != s.Hash {
		return fmt.Errorf("%w: session %s hash %s, expected %s", errors.ErrIntegrity, s.ID, h, s.Hash)
	}
	return nil
}

// Flatten returns the editable DSL text of the body.
func (s *Session) Flatten() string {
	return segment.Flatten(s.Segments)
}

// Body returns the body markup as extracted.
func (s *Session) Body() string {
	return s.Segments.Markup()
}

// Original returns the whole document as it would be written with no edits.
func (s *Session) Original() string {
	return s.PreBody + s.Body() + s.PostBody
}

// Result is the outcome of applying an edit to a session.
type Result struct {
	Document   string
	Operations []patch.Operation
	Summary    patch.Summary
}

// Reconstruct diffs edited against the session's segments and returns the
// complete rebuilt document. It fails only if edited does not lex.
func (s *Session) Reconstruct(edited string, c patch.FragmentCompiler, opts ...patch.Option) (*Result, error) {
	ops, err := patch.Diff(s.Segments, edited, opts...)
	if err != nil {
		return nil, err
	}
	body := patch.Reconstruct(s.Segments, ops, c)
	return &Result{
		Document:   s.PreBody + body + s.PostBody,
		Operations: ops,
		Summary:    patch.Summarize(ops),
	}, nil
}
