package discovery

import (
	"fmt"

	"github.com/beevik/etree"

	"ngorch/internal/classfile"
	"ngorch/internal/domain"
)

// Parser turns compiled classes into test cases and reads the class and
// package references of legacy suite documents.
type Parser struct {
	marker string
}

// NewParser creates a Parser that recognises tests by the marker annotation.
func NewParser(marker string) *Parser {
	return &Parser{marker: marker}
}

// ParseClass parses the class file at path. It returns nil when the class
// has no test steps.
func (p *Parser) ParseClass(path string) (*domain.TestCase, error) {
	class, err := classfile.ParseFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return p.TestCase(class), nil
}

// TestCase builds the test case for a parsed class, or nil when no method is
// a test. A marked class makes every method a step; otherwise only the
// marked methods are steps. Constructors and static initializers never are.
func (p *Parser) TestCase(class *classfile.Class) *domain.TestCase {
	classMarked := class.HasAnnotation(p.marker)

	var steps []domain.TestStep
	for i := range class.Methods {
		m := &class.Methods[i]
		if m.IsInitializer() {
			continue
		}
		if classMarked || m.HasAnnotation(p.marker) {
			steps = append(steps, domain.TestStep{Name: m.Name, Description: m.Name})
		}
	}
	if len(steps) == 0 {
		return nil
	}

	return &domain.TestCase{
		Name:        class.Name,
		ClassName:   class.SimpleName(),
		PackageName: class.PackageName(),
		TestSteps:   steps,
		Content:     class.Name,
	}
}

// SuiteReferences lists the classes and packages a suite document names.
type SuiteReferences struct {
	Classes  []string
	Packages []string
}

// ParseSuiteDocument reads the class and package names of a suite document.
func (p *Parser) ParseSuiteDocument(path string) (*SuiteReferences, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if doc.Root() == nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("no root element")}
	}

	refs := &SuiteReferences{}
	for _, el := range doc.FindElements("//class") {
		if name := el.SelectAttrValue("name", ""); name != "" {
			refs.Classes = append(refs.Classes, name)
		}
	}
	for _, el := range doc.FindElements("//package") {
		if name := el.SelectAttrValue("name", ""); name != "" {
			refs.Packages = append(refs.Packages, name)
		}
	}
	return refs, nil
}
