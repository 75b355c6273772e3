package suite

import (
	"github.com/beevik/etree"

	"ngorch/internal/domain"
)

// Element and attribute names of a TestNG suite document.
const (
	ElementSuite   = "suite"
	ElementTest    = "test"
	ElementClasses = "classes"
	ElementClass   = "class"
	ElementMethods = "methods"
	ElementInclude = "include"
	ElementExclude = "exclude"
	ElementPackage = "package"
	ElementGroups  = "groups"
	ElementGroup   = "group"

	AttrName = "name"
)

// TestElement builds a detached test element running one content
// identifier: test/classes/class[@name], restricted to the method with
// methods/include[@name] when the identifier names one. The test element
// itself is left unnamed.
func TestElement(content string) *etree.Element {
	class, method := domain.SplitContent(content)

	test := etree.NewElement(ElementTest)
	classEl := test.CreateElement(ElementClasses).CreateElement(ElementClass)
	classEl.CreateAttr(AttrName, class)
	if method != "" {
		restrict(classEl, []string{method})
	}
	return test
}

// restrict adds a methods element including exactly the given methods.
func restrict(class *etree.Element, methods []string) {
	methodsEl := class.CreateElement(ElementMethods)
	for _, m := range methods {
		methodsEl.CreateElement(ElementInclude).CreateAttr(AttrName, m)
	}
}
