package discovery

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"ngorch/internal/domain"
	"ngorch/internal/logging"
	"ngorch/internal/pattern"
)

// Progress receives scan progress. Implementations must tolerate Update
// being called once per enumerated file.
type Progress interface {
	Start(total int)
	Update(done, found int)
	Finish()
}

// Scanner finds test classes in a compiled test tree
type Scanner struct {
	parser   *Parser
	logger   *slog.Logger
	progress Progress

	// scratch holds archive entries extracted during a scan; Close removes it.
	scratch string
}

// NewScanner creates a new Scanner recognising tests by the marker
// annotation. The caller must Close it.
func NewScanner(marker string, logger *slog.Logger) *Scanner {
	return &Scanner{
		parser: NewParser(marker),
		logger: logging.OrDefault(logger),
	}
}

// SetProgress sets the progress reporter for the following scans
func (s *Scanner) SetProgress(progress Progress) {
	s.progress = progress
}

// Close removes the scratch directory. It is safe to call more than once.
func (s *Scanner) Close() error {
	if s.scratch == "" {
		return nil
	}
	dir := s.scratch
	s.scratch = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove scratch dir %s: %w", dir, err)
	}
	return nil
}

// Scan finds the test classes under root. Files are selected by
// includePattern and excludePattern (comma separated globs relative to
// root); when scanLibraries is set the jars under libraryDir are searched
// as well. Classes that do not match includePattern are still reported when
// a matching suite document references them by class or package.
func (s *Scanner) Scan(root, includePattern, excludePattern, libraryDir string, scanLibraries bool) ([]domain.TestCase, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, scanIOError("stat", root, err)
	}
	if !info.IsDir() {
		return nil, scanIOError("stat", root, errors.New("not a directory"))
	}

	filter := NewFilter(includePattern, excludePattern)
	files, err := s.walk(root, filter)
	if err != nil {
		return nil, err
	}
	if scanLibraries && libraryDir != "" {
		for _, dir := range pattern.Split(libraryDir) {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(root, dir)
			}
			if err := s.extractLibraries(dir, filter, files); err != nil {
				return nil, err
			}
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	testCases := make(map[string]*domain.TestCase)
	// classes outside the include pattern, kept for suite references
	unmatched := make(map[string]*domain.TestCase)
	var suiteClasses, suitePackages []string

	if s.progress != nil {
		s.progress.Start(len(names))
	}
	for i, name := range names {
		file := files[name]
		ext := strings.ToLower(path.Ext(name))

		switch {
		case filter.MatchesUser(name) && ext == ".class":
			if tc := s.parseClass(file); tc != nil {
				testCases[tc.Name] = tc
			}
		case filter.MatchesUser(name) && ext == ".xml":
			refs, err := s.parser.ParseSuiteDocument(file)
			if err != nil {
				s.logger.Warn("skipping suite document", "path", file, "error", err)
				break
			}
			suiteClasses = append(suiteClasses, refs.Classes...)
			suitePackages = append(suitePackages, refs.Packages...)
		case ext == ".class":
			if tc := s.parseClass(file); tc != nil {
				unmatched[tc.Name] = tc
			}
		}

		if s.progress != nil {
			s.progress.Update(i+1, len(testCases))
		}
	}
	if s.progress != nil {
		s.progress.Finish()
	}

	reconcile(testCases, unmatched, suiteClasses, suitePackages)

	result := make([]domain.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		result = append(result, *tc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	s.logger.Debug("scan finished", "root", root, "files", len(names), "tests", len(result))
	return result, nil
}

// reconcile pulls the classes referenced by suite documents out of the
// unmatched table. Explicit class references are resolved first and consume
// their entry; package references then take every remaining match without
// consuming it.
func reconcile(testCases, unmatched map[string]*domain.TestCase, classes, packages []string) {
	for _, name := range classes {
		if tc, ok := unmatched[name]; ok {
			testCases[tc.Name] = tc
			delete(unmatched, name)
		}
	}
	for _, pkg := range packages {
		for name, tc := range unmatched {
			if pattern.MatchPackage(name, pkg) {
				testCases[tc.Name] = tc
			}
		}
	}
}

func (s *Scanner) parseClass(file string) *domain.TestCase {
	tc, err := s.parser.ParseClass(file)
	if err != nil {
		s.logger.Warn("skipping class", "path", file, "error", err)
		return nil
	}
	return tc
}

// walk collects the candidate files under root keyed by their slash
// separated relative name.
func (s *Scanner) walk(root string, filter *Filter) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (starting with .)
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if filter.Candidate(rel) {
			files[rel] = p
		}
		return nil
	})
	if err != nil {
		return nil, scanIOError("walk", root, err)
	}
	return files, nil
}

// extractLibraries copies the candidate entries of every jar under dir into
// the scratch directory and records them in files.
func (s *Scanner) extractLibraries(dir string, filter *Filter, files map[string]string) error {
	if _, err := os.Stat(dir); err != nil {
		s.logger.Warn("library directory not found", "path", dir)
		return nil
	}

	var jars []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".jar") {
			jars = append(jars, p)
		}
		return nil
	})
	if err != nil {
		return scanIOError("walk", dir, err)
	}

	for _, jar := range jars {
		if err := s.extractJar(jar, filter, files); err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				s.logger.Warn("skipping archive", "path", jar, "error", err)
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Scanner) extractJar(jar string, filter *Filter, files map[string]string) error {
	zr, err := zip.OpenReader(jar)
	if err != nil {
		return &ParseError{Path: jar, Err: err}
	}
	defer zr.Close()

	if s.scratch == "" {
		if s.scratch, err = os.MkdirTemp("", "ngorch-scan-*"); err != nil {
			return scanIOError("create scratch dir", os.TempDir(), err)
		}
	}
	target, err := os.MkdirTemp(s.scratch, strings.TrimSuffix(filepath.Base(jar), filepath.Ext(jar))+"-*")
	if err != nil {
		return scanIOError("create scratch dir", s.scratch, err)
	}

	for _, entry := range zr.File {
		name := entry.Name
		if entry.FileInfo().IsDir() || !filter.Candidate(name) {
			continue
		}
		if !fs.ValidPath(name) {
			s.logger.Warn("skipping archive entry", "archive", jar, "entry", name)
			continue
		}
		dest := filepath.Join(target, filepath.FromSlash(name))
		if err := extractEntry(entry, dest); err != nil {
			return &ParseError{Path: jar + "!" + name, Err: err}
		}
		files[name] = dest
	}
	return nil
}

func extractEntry(entry *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
