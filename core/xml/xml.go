// Package xml wraps xmlquery for the tagged documents Vellum imports:
// parsing with custom entity references preserved, body splitting,
// well-formedness validation and XPath queries.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities. Entity references are never
//     expanded; they are carried through as opaque markers.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML node (element, text, comment, ...).
type Node struct {
	node *xmlquery.Node
}

// ValidationResult contains the result of XML validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parse parses XML data and returns a Document. References to entities
// other than the five predefined ones are kept as markers in text and
// attribute values (see RestoreEntities) instead of failing the parse.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.ParseWithOptions(bytes.NewReader(data), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: entityMarkers(data),
		},
		WithLineNumbers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks that data is well-formed XML. Custom entity references
// are accepted without a declaration, as Parse accepts them.
//
// schema is accepted for interface compatibility and ignored here; element
// checks against a schema live in core/validate.
func Validate(data []byte, schema []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = entityMarkers(data)

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, col := decoder.InputPos()
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Line:    line,
				Column:  col,
				Message: err.Error(),
			})
			break
		}
	}

	return result
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d == nil || d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// Body returns the document's body element, matched by local name so that
// TEI and namespaced variants are both found.
func (d *Document) Body() *Node {
	n, err := d.XPathFirst("//*[local-name()='body']")
	if err != nil {
		return nil
	}
	return n
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// XPathFirst executes an XPath query and returns the first matching node,
// or nil if nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	node, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// Raw returns the underlying xmlquery node.
func (n *Node) Raw() *xmlquery.Node {
	if n == nil {
		return nil
	}
	return n.node
}

// Name returns the element's local name.
func (n *Node) Name() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.Data
}

// Line returns the source line the node starts on, or 0 if unknown.
func (n *Node) Line() int {
	if n == nil || n.node == nil {
		return 0
	}
	return n.node.LineNumber
}

// QName returns the element name with its prefix, as written.
func (n *Node) QName() string {
	if n == nil || n.node == nil {
		return ""
	}
	return QName(n.node)
}

// InnerText returns all text content of the node and its descendants, with
// entity markers restored to references.
func (n *Node) InnerText() string {
	if n == nil || n.node == nil {
		return ""
	}
	return RestoreEntities(n.node.InnerText())
}

// Children returns the child element nodes.
func (n *Node) Children() []*Node {
	if n == nil || n.node == nil {
		return nil
	}

	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// Attributes returns the node's attributes in document order, names
// carrying their prefix.
func (n *Node) Attributes() encoding.Attrs {
	if n == nil || n.node == nil {
		return nil
	}
	return Attributes(n.node)
}

// Attr returns the value of a specific attribute.
func (n *Node) Attr(name string) string {
	v, _ := n.Attributes().Get(name)
	return v
}
