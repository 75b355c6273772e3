package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ngorch/internal/logging"
)

// OriginalSuffix is appended to a template path to name its backup.
const OriginalSuffix = ".original"

// TemplateStore keeps the live suite template and its backup in step while
// a generated suite temporarily replaces it.
type TemplateStore interface {
	// Snapshot copies the template to its backup, overwriting any old one.
	Snapshot(template string) error
	// Replace copies generated over the template and removes generated.
	Replace(template, generated string) error
	// Restore copies the backup over the template and removes the backup.
	// A missing backup is not an error.
	Restore(template string) error
	// Discard removes the template and its backup.
	Discard(template string) error
}

// FileTemplateStore is a TemplateStore on the local filesystem.
type FileTemplateStore struct {
	logger *slog.Logger
}

// NewFileTemplateStore returns a TemplateStore working on plain files.
func NewFileTemplateStore(logger *slog.Logger) *FileTemplateStore {
	return &FileTemplateStore{logger: logging.OrDefault(logger)}
}

// OriginalPath returns the backup path of a template.
func OriginalPath(template string) string {
	return template + OriginalSuffix
}

// Snapshot copies the template to <template>.original.
func (s *FileTemplateStore) Snapshot(template string) error {
	if err := copyFile(template, OriginalPath(template)); err != nil {
		return fmt.Errorf("snapshot template: %w", err)
	}
	return nil
}

// Replace copies generated over template. generated is removed even when
// the copy fails.
func (s *FileTemplateStore) Replace(template, generated string) error {
	defer func() {
		if err := os.Remove(generated); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove generated suite", "path", generated, "error", err)
		}
	}()
	if err := copyFile(generated, template); err != nil {
		return fmt.Errorf("replace template: %w", err)
	}
	return nil
}

// Restore puts the backup back in place of the template.
func (s *FileTemplateStore) Restore(template string) error {
	original := OriginalPath(template)
	if _, err := os.Stat(original); os.IsNotExist(err) {
		return nil
	}
	if err := copyFile(original, template); err != nil {
		return fmt.Errorf("restore template: %w", err)
	}
	if err := os.Remove(original); err != nil {
		return fmt.Errorf("remove original: %w", err)
	}
	return nil
}

// Discard removes the template together with its backup.
func (s *FileTemplateStore) Discard(template string) error {
	for _, path := range []string{OriginalPath(template), template} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("discard template: %w", err)
		}
	}
	return nil
}

// Touch creates an empty template when none exists yet.
func Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
