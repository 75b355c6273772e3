// Package suite writes TestNG suite documents for a selection of test
// classes and methods, either from scratch or by rewriting an existing
// suite so that it runs exactly the selection.
package suite

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"ngorch/internal/domain"
	"ngorch/internal/logging"
	"ngorch/internal/pattern"
)

// ErrSynthesis marks a suite document that could not be read or written.
var ErrSynthesis = errors.New("suite synthesis failed")

const (
	suiteNameLayout = "20060102"
	fileStampLayout = "20060102150405"

	generatedPrefix = "generated_xml_"
	indent          = 4
)

// RestrictionPolicy decides what else goes when a merge drops a class that
// is no longer selected.
type RestrictionPolicy int

const (
	// StripAllRestrictionsOnRemoval removes every include and exclude
	// element in the document as soon as one class is dropped.
	StripAllRestrictionsOnRemoval RestrictionPolicy = iota
	// KeepRestrictions removes only the dropped class, and a class selected
	// as a whole keeps the restrictions the document gave it.
	KeepRestrictions
)

func (p RestrictionPolicy) String() string {
	switch p {
	case StripAllRestrictionsOnRemoval:
		return "strip-all-restrictions-on-removal"
	case KeepRestrictions:
		return "keep-restrictions"
	default:
		return "unknown"
	}
}

// Synthesizer builds suite documents.
type Synthesizer struct {
	logger *slog.Logger
	policy RestrictionPolicy
	now    func() time.Time
}

// NewSynthesizer creates a Synthesizer with the default removal policy
func NewSynthesizer(logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		logger: logging.OrDefault(logger),
		policy: StripAllRestrictionsOnRemoval,
		now:    time.Now,
	}
}

// SetPolicy changes the removal policy used by Merge.
func (s *Synthesizer) SetPolicy(policy RestrictionPolicy) {
	s.policy = policy
}

// SetClock replaces the clock used for suite names, test names and file
// names.
func (s *Synthesizer) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Generate writes a fresh suite running the selection into targetDir and
// returns the file path. The suite has one test per identifier, named by
// the identifier.
func (s *Synthesizer) Generate(selection domain.SelectionSet, targetDir string) (string, error) {
	now := s.now()

	doc := newDocument()
	suiteEl := doc.CreateElement(ElementSuite)
	suiteEl.CreateAttr(AttrName, now.Format(suiteNameLayout))
	for _, content := range selection.Sorted() {
		test := TestElement(content)
		test.CreateAttr(AttrName, content)
		suiteEl.AddChild(test)
	}

	path, err := s.write(doc, targetDir, generatedPrefix+now.Format(fileStampLayout))
	if err != nil {
		return "", err
	}
	s.logger.Debug("generated suite", "path", path, "tests", len(selection))
	return path, nil
}

// Merge rewrites the suite at existingPath so that it runs exactly the
// selection and writes the result into targetDir. The existing file is not
// modified. A missing or empty existing file falls back to Generate.
func (s *Synthesizer) Merge(selection domain.SelectionSet, existingPath, targetDir string) (string, error) {
	if existingPath == "" {
		return s.Generate(selection, targetDir)
	}
	info, err := os.Stat(existingPath)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		return s.Generate(selection, targetDir)
	}
	if err != nil {
		return "", synthesisError("stat", existingPath, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(existingPath); err != nil {
		return "", synthesisError("read", existingPath, err)
	}
	root := doc.Root()
	if root == nil {
		return "", synthesisError("read", existingPath, errors.New("no root element"))
	}
	suiteEl := root
	if root.Tag != ElementSuite {
		if suiteEl = root.FindElement("//" + ElementSuite); suiteEl == nil {
			return "", synthesisError("read", existingPath, errors.New("no suite element"))
		}
	}

	now := s.now()
	index := selection.ByClass()
	marked, kept := s.mark(doc, index)
	for _, el := range marked {
		if parent := el.Parent(); parent != nil {
			parent.RemoveChild(el)
		}
	}
	for _, k := range kept {
		s.reselect(k.class, k.methods)
	}

	suffix := strconv.FormatInt(now.UnixMilli(), 10)
	for _, class := range sortedKeys(index) {
		test := TestElement(class)
		test.CreateAttr(AttrName, class+suffix)
		if methods := index[class]; !methods[domain.Wildcard] {
			restrict(test.FindElement(ElementClasses+"/"+ElementClass), sortedKeys(methods))
		}
		suiteEl.AddChild(test)
	}

	base := strings.TrimSuffix(filepath.Base(existingPath), filepath.Ext(existingPath))
	path, err := s.write(doc, targetDir, base+now.Format(fileStampLayout))
	if err != nil {
		return "", err
	}
	s.logger.Debug("merged suite",
		"source", existingPath,
		"path", path,
		"removed", len(marked),
		"appended", len(index),
		"policy", s.policy.String())
	return path, nil
}

// keptClass is an existing class element that stays selected.
type keptClass struct {
	class   *etree.Element
	methods map[string]bool
}

// mark collects the elements to detach and consumes the index entries the
// document already covers. Classes are settled before packages.
func (s *Synthesizer) mark(doc *etree.Document, index map[string]map[string]bool) ([]*etree.Element, []keptClass) {
	var (
		marked []*etree.Element
		kept   []keptClass
	)
	seen := make(map[*etree.Element]bool)
	add := func(els ...*etree.Element) {
		for _, el := range els {
			if !seen[el] {
				seen[el] = true
				marked = append(marked, el)
			}
		}
	}

	stripped := false
	for _, class := range doc.FindElements("//" + ElementClass) {
		name := class.SelectAttrValue(AttrName, "")
		if methods, ok := index[name]; ok {
			kept = append(kept, keptClass{class: class, methods: methods})
			delete(index, name)
			continue
		}
		add(class)
		if s.policy == StripAllRestrictionsOnRemoval && !stripped {
			add(doc.FindElements("//" + ElementInclude)...)
			add(doc.FindElements("//" + ElementExclude)...)
			stripped = true
		}
	}

	for _, pkg := range doc.FindElements("//" + ElementPackage) {
		name := pkg.SelectAttrValue(AttrName, "")
		covered := false
		for _, class := range sortedKeys(index) {
			if pattern.MatchPackage(class, name) {
				delete(index, class)
				covered = true
			}
		}
		if !covered {
			add(pkg)
		}
	}

	add(doc.FindElements("//" + ElementGroups)...)
	add(doc.FindElements("//" + ElementGroup)...)
	return marked, kept
}

// reselect makes a kept class run exactly its selected methods. Under
// KeepRestrictions a bare class keeps whatever the document restricted it to.
func (s *Synthesizer) reselect(class *etree.Element, methods map[string]bool) {
	wildcard := methods[domain.Wildcard]
	if wildcard && s.policy == KeepRestrictions {
		return
	}
	for _, el := range class.SelectElements(ElementMethods) {
		class.RemoveChild(el)
	}
	if !wildcard {
		restrict(class, sortedKeys(methods))
	}
}

// write indents and saves doc as <stem>.xml under dir, adding a numeric
// suffix when the name is taken.
func (s *Synthesizer) write(doc *etree.Document, dir, stem string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", synthesisError("create dir", dir, err)
	}
	path := uniquePath(dir, stem)

	doc.Indent(indent)
	if err := doc.WriteToFile(path); err != nil {
		return "", synthesisError("write", path, err)
	}
	return path, nil
}

func uniquePath(dir, stem string) string {
	path := filepath.Join(dir, stem+".xml")
	for i := 1; fileExists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.xml", stem, i))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func synthesisError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrSynthesis, op, path, err)
}
