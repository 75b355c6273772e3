package command

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"ngorch/internal/logging"
	"ngorch/internal/pattern"
)

// ExpandClasspath turns a comma separated list of library paths into
// classpath entries. Relative paths are resolved against testDirectory.
// A file contributes its absolute path; a directory contributes "<dir>/*"
// for itself and for every directory below it, parents first. Missing
// paths are skipped. Entries are not de-duplicated.
func ExpandClasspath(libraryDirectory, testDirectory string, logger *slog.Logger) []string {
	logger = logging.OrDefault(logger)

	var entries []string
	for _, lib := range pattern.Split(libraryDirectory) {
		path := lib
		if !filepath.IsAbs(path) {
			path = filepath.Join(testDirectory, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("library path not found", "path", path)
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if !info.IsDir() {
			entries = append(entries, path)
			continue
		}
		entries = append(entries, expandDir(path, logger)...)
	}
	return entries
}

// expandDir walks root depth first with an explicit stack.
func expandDir(root string, logger *slog.Logger) []string {
	var entries []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		entries = append(entries, filepath.Join(dir, "*"))

		children, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("could not list library directory", "path", dir, "error", err)
			continue
		}
		var subdirs []string
		for _, c := range children {
			if c.IsDir() {
				subdirs = append(subdirs, filepath.Join(dir, c.Name()))
			}
		}
		// push in reverse so the first child is expanded next
		sort.Sort(sort.Reverse(sort.StringSlice(subdirs)))
		stack = append(stack, subdirs...)
	}
	return entries
}
