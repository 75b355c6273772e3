package command

import (
	"os"
	"path/filepath"

	"ngorch/internal/domain"
)

// Environment variables that carry an invented template from build to
// cleanup.
const (
	EnvDeleteTemplate = "DELETE_TEMPLATE"
	EnvTemplateFile   = "TEMPLATE_FILE"
)

// TemplateRef locates the suite template of one request.
type TemplateRef struct {
	Path string
	// Transient templates were invented for the run and are removed by
	// cleanup.
	Transient bool
}

// Env returns the environment variables announcing a transient template,
// or nil for a user supplied one.
func (r TemplateRef) Env() map[string]string {
	if !r.Transient {
		return nil
	}
	return map[string]string{
		EnvDeleteTemplate: "true",
		EnvTemplateFile:   r.Path,
	}
}

// ResolveTemplate locates the template for req. It modifies neither req
// nor the filesystem. The mode's own template wins; otherwise a template
// announced in env is reused, and an exec request gets a fresh
// "<id>.xml" under the test directory. Ant and Maven requests without a
// template have none and report false.
func (b *Builder) ResolveTemplate(req *domain.BuildCommandRequest, env map[string]string) (TemplateRef, bool) {
	if req == nil || req.ExecutionMode == nil {
		return TemplateRef{}, false
	}
	testDir := req.TestScript.TestDirectory

	if t := req.ExecutionMode.TemplatePath(); t != "" {
		return TemplateRef{Path: locate(t, testDir)}, true
	}
	if t := env[EnvTemplateFile]; t != "" {
		return TemplateRef{
			Path:      locate(t, testDir),
			Transient: env[EnvDeleteTemplate] == "true",
		}, true
	}
	if _, ok := req.ExecutionMode.(domain.ExecMode); ok {
		return TemplateRef{
			Path:      filepath.Join(testDir, b.newID()+".xml"),
			Transient: true,
		}, true
	}
	return TemplateRef{}, false
}

// locate returns template as given when it exists, else its path under
// testDir.
func locate(template, testDir string) string {
	if _, err := os.Stat(template); err == nil || filepath.IsAbs(template) {
		return template
	}
	return filepath.Join(testDir, template)
}
