package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/Vellum/core/errors"
	vxml "github.com/FocuswithJustin/Vellum/core/xml"
)

// Grammar is the schema language a Schema was read from.
type Grammar string

// Supported schema languages.
const (
	RelaxNG Grammar = "relaxng"
	XSD     Grammar = "xsd"
)

var (
	elementDecls = xpath.MustCompile("//*[local-name()='element']")
	wildcards    = xpath.MustCompile("//*[local-name()='anyName' or local-name()='nsName' or local-name()='any']")
)

// Schema is the set of element names a RELAX NG or XSD schema declares.
// Content models are not interpreted.
type Schema struct {
	Source  string
	Grammar Grammar

	elements map[string]struct{}
	anyName  bool
}

// ParseSchema harvests element declarations from a RELAX NG (XML syntax)
// or XSD document.
func ParseSchema(data []byte, source string) (*Schema, error) {
	doc, err := vxml.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", source)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.NewParse("schema", "no root element in "+source)
	}

	s := &Schema{Source: source, elements: make(map[string]struct{})}
	switch root.Name() {
	case "grammar", "element":
		s.Grammar = RelaxNG
	case "schema":
		s.Grammar = XSD
	default:
		return nil, errors.NewUnsupported("schema language", fmt.Sprintf("root element <%s> in %s", root.QName(), source))
	}

	top := root.Raw()
	for _, decl := range xmlquery.QuerySelectorAll(top, elementDecls) {
		if name := declaredName(decl); name != "" {
			s.elements[name] = struct{}{}
		}
	}
	s.anyName = xmlquery.QuerySelector(top, wildcards) != nil
	return s, nil
}

// declaredName returns the local name an element declaration introduces:
// the name attribute, or the text of a RELAX NG <name> child. XSD
// references (ref=...) declare nothing.
func declaredName(decl *xmlquery.Node) string {
	name := decl.SelectAttr("name")
	if name == "" {
		for c := decl.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && c.Data == "name" {
				name = c.InnerText()
				break
			}
		}
	}
	name = strings.TrimSpace(name)
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Allows reports whether an element with the given local name may appear.
func (s *Schema) Allows(local string) bool {
	if s.anyName {
		return true
	}
	_, ok := s.elements[local]
	return ok
}

// Elements returns the declared element names, sorted.
func (s *Schema) Elements() []string {
	names := make([]string, 0, len(s.elements))
	for n := range s.elements {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Check reports every element of doc the schema does not declare.
func (s *Schema) Check(doc *vxml.Document) []vxml.ValidationError {
	var errs []vxml.ValidationError
	var walk func(n *vxml.Node)
	walk = func(n *vxml.Node) {
		if !s.Allows(n.Name()) {
			errs = append(errs, vxml.ValidationError{
				Line:    n.Line(),
				Message: fmt.Sprintf("element <%s> is not declared in %s", n.QName(), s.Source),
			})
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	if root := doc.Root(); root != nil {
		walk(root)
	}
	return errs
}
