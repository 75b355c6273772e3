// Package command builds the operating system command that runs a
// selection of TestNG tests through the runner directly, Ant or Maven, and
// keeps the suite template in place around the run.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"ngorch/internal/config"
	"ngorch/internal/domain"
	"ngorch/internal/logging"
	"ngorch/internal/storage"
	"ngorch/internal/suite"
)

// Task names reported in CommandResponse.Task.
const (
	TaskExec  = "exec"
	TaskAnt   = "ant"
	TaskMaven = "maven"
)

// Task attribute keys.
const (
	AttrBuildFile = "build_file"
	AttrTarget    = "target"
)

const (
	sysClasspathFlag        = "-Dbuild.sysclasspath"
	sysClasspathFirst       = sysClasspathFlag + "=first"
	additionalClasspathFlag = "-Dmaven.test.additionalClasspath"
	failNeverFlag           = "-fn"
)

// Builder turns build requests into commands
type Builder struct {
	cfg    *config.Config
	synth  *suite.Synthesizer
	store  storage.TemplateStore
	logger *slog.Logger

	newID func() string
}

// NewBuilder creates a Builder. synth and store may be nil, in which case
// defaults logging to logger are used.
func NewBuilder(cfg *config.Config, synth *suite.Synthesizer, store storage.TemplateStore, logger *slog.Logger) *Builder {
	logger = logging.OrDefault(logger)
	if cfg == nil {
		cfg = config.New()
	}
	if synth == nil {
		synth = suite.NewSynthesizer(logger)
	}
	if store == nil {
		store = storage.NewFileTemplateStore(logger)
	}
	return &Builder{
		cfg:    cfg,
		synth:  synth,
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Build returns the command for req. Construction failures are reported in
// the response's Errors; template preparation failures are only logged.
func (b *Builder) Build(req *domain.BuildCommandRequest) domain.CommandResponse {
	if req == nil || req.ExecutionMode == nil {
		var resp domain.CommandResponse
		resp.AddError(&BuildError{Task: "unknown", Err: errors.New("missing execution mode")})
		return resp
	}

	ref, hasTemplate := b.ResolveTemplate(req, nil)

	var resp domain.CommandResponse
	switch mode := req.ExecutionMode.(type) {
	case domain.ExecMode:
		resp = b.buildExec(mode, req, ref)
	case domain.AntMode:
		resp = b.buildAnt(mode, req)
	case domain.MavenMode:
		resp = b.buildMaven(mode, req)
	default:
		resp.AddError(&BuildError{Task: req.ExecutionMode.ModeID(), Err: fmt.Errorf("unsupported execution mode %T", mode)})
	}
	if resp.HasError() {
		b.logger.Warn("command build failed", "task", resp.Task, "errors", resp.Errors)
		return resp
	}

	if hasTemplate {
		b.setupTemplate(req, ref)
		resp.TaskEnvironmentVariables = ref.Env()
	}
	b.logger.Info("command built", "task", resp.Task, "command", resp.Command)
	return resp
}

func (b *Builder) buildExec(mode domain.ExecMode, req *domain.BuildCommandRequest, ref TemplateRef) domain.CommandResponse {
	resp := domain.CommandResponse{
		Task:             TaskExec,
		Command:          mode.Command,
		WorkingDirectory: req.TestScript.TestDirectory,
	}
	fail := func(err error) domain.CommandResponse {
		resp.AddError(&BuildError{Task: TaskExec, Err: err})
		return resp
	}

	sep := b.cfg.PathListSeparator()
	classpath := ExpandClasspath(req.TestScript.LibraryDirectory, req.TestScript.TestDirectory, b.logger)
	classpath = append(classpath, ".")
	if collector := b.cfg.GetCollectorPath(); collector != "" {
		classpath = append(classpath, collector)
	}

	tokens, err := Tokenize(mode.Option)
	if err != nil {
		return fail(err)
	}
	leading, trailing, subsumed := splitAtEntryPoint(tokens, b.cfg.EntryPoint, []string{mode.Template, ref.Path})

	leading, userCP, err := extractClasspath(leading, sep)
	if err != nil {
		return fail(err)
	}
	trailing, trailingCP, err := extractClasspath(trailing, sep)
	if err != nil {
		return fail(err)
	}
	classpath = append(classpath, userCP...)
	classpath = append(classpath, trailingCP...)

	args := []string{"-classpath", strings.Join(classpath, sep)}
	args = append(args, leading...)
	if !subsumed {
		args = append(args, b.cfg.EntryPoint)
	}
	args = append(args, ref.Path)
	args = append(args, trailing...)

	option, err := Join(args, b.cfg.IsWindows())
	if err != nil {
		return fail(err)
	}
	resp.Option = option
	return resp
}

func (b *Builder) buildAnt(mode domain.AntMode, req *domain.BuildCommandRequest) domain.CommandResponse {
	resp := domain.CommandResponse{
		Task:             TaskAnt,
		WorkingDirectory: req.TestScript.TestDirectory,
	}

	option := strings.TrimSpace(mode.Option)
	if collector := b.cfg.GetCollectorPath(); collector != "" {
		option += ` -lib "` + collector + `"`
	} else {
		b.logger.Warn("log collector not installed", "path", b.collectorLocation())
	}
	if !strings.Contains(option, sysClasspathFlag) {
		option += " " + sysClasspathFirst
	}
	resp.Option = strings.TrimSpace(option)
	resp.AddTaskAttribute(AttrBuildFile, mode.BuildFile).
		AddTaskAttribute(AttrTarget, mode.Target)
	resp.Command = b.resolveTool(mode.Home, "ant")
	return resp
}

func (b *Builder) buildMaven(mode domain.MavenMode, req *domain.BuildCommandRequest) domain.CommandResponse {
	resp := domain.CommandResponse{
		Task:             TaskMaven,
		WorkingDirectory: req.TestScript.TestDirectory,
	}
	resp.AddTaskAttribute(AttrBuildFile, mode.PomFile).
		AddTaskAttribute(AttrTarget, mode.Goal)
	resp.Command = b.resolveTool(mode.Home, "mvn")

	collector := b.cfg.GetCollectorPath()
	if collector == "" {
		b.logger.Warn("log collector not installed", "path", b.collectorLocation())
	}
	freshFlag := ""
	if collector != "" {
		freshFlag = additionalClasspathFlag + `="` + collector + `"`
	}

	option := strings.TrimSpace(mode.Option)
	if option == "" {
		resp.Option = strings.TrimSpace(failNeverFlag + " " + freshFlag)
		return resp
	}

	tokens, err := Tokenize(option)
	if err != nil {
		resp.AddError(&BuildError{Task: TaskMaven, Err: err})
		return resp
	}
	if !hasToken(tokens, failNeverFlag) {
		option += " " + failNeverFlag
		tokens = append(tokens, failNeverFlag)
	}

	if !strings.Contains(option, additionalClasspathFlag) {
		if freshFlag != "" {
			option += " " + freshFlag
		}
		resp.Option = option
		return resp
	}
	if collector == "" {
		resp.Option = option
		return resp
	}

	sep := b.cfg.PathListSeparator()
	for i, tok := range tokens {
		if !strings.HasPrefix(tok, additionalClasspathFlag) {
			continue
		}
		if name, value, ok := strings.Cut(tok, "="); ok && value != "" {
			tokens[i] = name + "=" + collector + sep + value
		} else {
			tokens[i] = additionalClasspathFlag + "=" + collector
		}
	}
	joined, err := Join(tokens, b.cfg.IsWindows())
	if err != nil {
		resp.AddError(&BuildError{Task: TaskMaven, Err: err})
		return resp
	}
	resp.Option = joined
	return resp
}

// resolveTool returns the first launcher of tool found under <home>/bin,
// or the bare tool name.
func (b *Builder) resolveTool(home, tool string) string {
	if home == "" {
		return tool
	}
	bin := filepath.Join(home, "bin")

	candidates := []string{tool}
	if b.cfg.IsWindows() {
		candidates = []string{tool + ".bat", tool + ".cmd", tool}
	}
	for _, name := range candidates {
		path := filepath.Join(bin, name)
		if isExecutable(path) {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	b.logger.Debug("no launcher found, using bare name", "home", home, "tool", tool)
	return tool
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

func (b *Builder) collectorLocation() string {
	return filepath.Join(b.cfg.UserDirectory, b.cfg.CollectorLibPath, b.cfg.CollectorJarName)
}

// setupTemplate replaces the template with a suite running the request's
// materials, keeping a backup for Cleanup. Failures are logged.
func (b *Builder) setupTemplate(req *domain.BuildCommandRequest, ref TemplateRef) {
	log := b.logger.With("template", ref.Path)

	if err := storage.Touch(ref.Path); err != nil {
		log.Warn("could not set up environment", "error", err)
		return
	}
	generated, err := b.synth.Merge(req.Selection(), ref.Path, filepath.Dir(ref.Path))
	if err != nil {
		log.Warn("could not set up environment", "error", err)
		return
	}
	if err := b.store.Snapshot(ref.Path); err != nil {
		log.Warn("could not set up environment", "error", err)
		if err := os.Remove(generated); err != nil {
			log.Warn("could not remove generated suite", "path", generated, "error", err)
		}
		return
	}
	if err := b.store.Replace(ref.Path, generated); err != nil {
		log.Warn("could not set up environment", "error", err)
		return
	}
	log.Debug("template prepared", "materials", len(req.Materials), "transient", ref.Transient)
}

// Cleanup undoes the template preparation of Build: the backup goes back
// over the template, and a transient template is removed. env holds the
// environment variables Build returned. Failures are logged.
func (b *Builder) Cleanup(req *domain.BuildCommandRequest, env map[string]string) {
	if req == nil || req.ExecutionMode == nil {
		return
	}
	if req.ExecutionMode.TemplatePath() == "" && env[EnvTemplateFile] == "" {
		b.logger.Debug("nothing to clean up", "task", req.ExecutionMode.ModeID())
		return
	}
	ref, ok := b.ResolveTemplate(req, env)
	if !ok {
		return
	}

	log := b.logger.With("template", ref.Path)
	if err := b.store.Restore(ref.Path); err != nil {
		log.Warn("could not clean up environment", "error", err)
	}
	if ref.Transient {
		if err := b.store.Discard(ref.Path); err != nil {
			log.Warn("could not remove transient template", "error", err)
		}
	}
	log.Debug("environment cleaned up", "transient", ref.Transient)
}
