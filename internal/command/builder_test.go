package command

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngorch/internal/config"
	"ngorch/internal/domain"
	"ngorch/internal/logging"
	"ngorch/internal/storage"
	"ngorch/internal/suite"
)

type fixture struct {
	cfg       *config.Config
	builder   *Builder
	testDir   string
	collector string
}

func newFixture(t *testing.T, withCollector bool) *fixture {
	t.Helper()
	userDir := t.TempDir()
	testDir := t.TempDir()

	cfg := config.New()
	cfg.UserDirectory = userDir
	cfg.TargetOS = "linux"

	collector := filepath.Join(userDir, cfg.CollectorLibPath, cfg.CollectorJarName)
	if withCollector {
		require.NoError(t, os.MkdirAll(filepath.Dir(collector), 0755))
		require.NoError(t, os.WriteFile(collector, []byte("jar"), 0644))
	}

	synth := suite.NewSynthesizer(logging.Discard())
	synth.SetClock(func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) })

	b := NewBuilder(cfg, synth, storage.NewFileTemplateStore(logging.Discard()), logging.Discard())
	b.newID = func() string { return "run-1" }

	return &fixture{cfg: cfg, builder: b, testDir: testDir, collector: collector}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func optionTokens(t *testing.T, option string) []string {
	t.Helper()
	tokens, err := Tokenize(option)
	require.NoError(t, err)
	return tokens
}

func TestBuilder_ExecEndToEnd(t *testing.T) {
	f := newFixture(t, true)
	req := &domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java", Option: "-cp lib1.jar org.testng.TestNG -d reports"},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
		Materials:     []string{"com.acme.A", "com.acme.B#m1"},
	}

	resp := f.builder.Build(req)
	require.Empty(t, resp.Errors)
	assert.Equal(t, TaskExec, resp.Task)
	assert.Equal(t, "java", resp.Command)
	assert.Equal(t, f.testDir, resp.WorkingDirectory)

	template := filepath.Join(f.testDir, "run-1.xml")
	want := []string{
		"-classpath", strings.Join([]string{".", f.collector, "lib1.jar"}, ":"),
		"org.testng.TestNG",
		template,
		"-d", "reports",
	}
	if diff := cmp.Diff(want, optionTokens(t, resp.Option)); diff != "" {
		t.Errorf("option mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, strings.Count(resp.Option, "-classpath"))
	assert.NotContains(t, resp.Option, "-cp ")

	assert.Equal(t, map[string]string{EnvDeleteTemplate: "true", EnvTemplateFile: template}, resp.TaskEnvironmentVariables)
	assert.Equal(t, []string{"run-1.xml", "run-1.xml.original"}, listDir(t, f.testDir))

	content := readFile(t, template)
	assert.Contains(t, content, `<class name="com.acme.A"/>`)
	assert.Contains(t, content, `<include name="m1"/>`)
	assert.Empty(t, req.ExecutionMode.TemplatePath(), "request must not be modified")

	f.builder.Cleanup(req, resp.TaskEnvironmentVariables)
	assert.Empty(t, listDir(t, f.testDir))
}

func TestBuilder_ExecUserTemplate(t *testing.T) {
	f := newFixture(t, true)
	template := filepath.Join(f.testDir, "testng.xml")
	const original = `<suite name="nightly">
  <test name="all">
    <classes>
      <class name="com.acme.A"/>
      <class name="com.acme.B"/>
    </classes>
  </test>
</suite>`
	require.NoError(t, os.WriteFile(template, []byte(original), 0644))

	req := &domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java", Option: "-Xmx1g org.testng.TestNG testng.xml", Template: "testng.xml"},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
		Materials:     []string{"com.acme.A"},
	}

	resp := f.builder.Build(req)
	require.Empty(t, resp.Errors)
	want := []string{
		"-classpath", ".:" + f.collector,
		"-Xmx1g",
		"org.testng.TestNG",
		template,
	}
	if diff := cmp.Diff(want, optionTokens(t, resp.Option)); diff != "" {
		t.Errorf("option mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, resp.TaskEnvironmentVariables)

	assert.Equal(t, original, readFile(t, storage.OriginalPath(template)))
	rewritten := readFile(t, template)
	assert.Contains(t, rewritten, "com.acme.A")
	assert.NotContains(t, rewritten, "com.acme.B")

	f.builder.Cleanup(req, resp.TaskEnvironmentVariables)
	assert.Equal(t, original, readFile(t, template))
	assert.NoFileExists(t, storage.OriginalPath(template))
}

func TestBuilder_ExecTemplateSubsumesEntryPoint(t *testing.T) {
	f := newFixture(t, false)
	req := &domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java", Option: "-ea suite.xml -d out", Template: "suite.xml"},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
		Materials:     []string{"com.acme.A"},
	}

	resp := f.builder.Build(req)
	require.Empty(t, resp.Errors)
	want := []string{"-classpath", ".", "-ea", filepath.Join(f.testDir, "suite.xml"), "-d", "out"}
	if diff := cmp.Diff(want, optionTokens(t, resp.Option)); diff != "" {
		t.Errorf("option mismatch (-want +got):\n%s", diff)
	}
	assert.FileExists(t, filepath.Join(f.testDir, "suite.xml"))
}

func TestBuilder_ExecLibrariesAndWindows(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.TargetOS = "windows"
	mkdirs(t, f.testDir, "libs/sub")

	req := &domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java.exe", Option: `-cp C:\x\a.jar;C:\x\b.jar org.testng.TestNG`},
		TestScript:    domain.TestScript{TestDirectory: f.testDir, LibraryDirectory: "libs"},
	}

	resp := f.builder.Build(req)
	require.Empty(t, resp.Errors)
	classpath := strings.Join([]string{
		filepath.Join(f.testDir, "libs", "*"),
		filepath.Join(f.testDir, "libs", "sub", "*"),
		".",
		f.collector,
		`C:\x\a.jar`,
		`C:\x\b.jar`,
	}, ";")
	want := []string{"-classpath", classpath, "org.testng.TestNG", filepath.Join(f.testDir, "run-1.xml")}
	if diff := cmp.Diff(want, optionTokens(t, resp.Option)); diff != "" {
		t.Errorf("option mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_ExecQuotesWildcardClasspath(t *testing.T) {
	f := newFixture(t, false)
	mkdirs(t, f.testDir, "libs")

	resp := f.builder.Build(&domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java", Option: "org.testng.TestNG"},
		TestScript:    domain.TestScript{TestDirectory: f.testDir, LibraryDirectory: "libs"},
	})
	require.Empty(t, resp.Errors)

	classpath := filepath.Join(f.testDir, "libs", "*") + ":."
	assert.True(t, strings.HasPrefix(resp.Option, `-classpath "`+classpath+`" `), resp.Option)
}

func TestBuilder_ExecErrors(t *testing.T) {
	f := newFixture(t, true)

	t.Run("unbalanced quotes", func(t *testing.T) {
		resp := f.builder.Build(&domain.BuildCommandRequest{
			ExecutionMode: domain.ExecMode{Command: "java", Option: `org.testng.TestNG -d "out`},
			TestScript:    domain.TestScript{TestDirectory: f.testDir},
		})
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "unbalanced quotes")
		assert.Equal(t, TaskExec, resp.Task)
		assert.Equal(t, "java", resp.Command)
		assert.Empty(t, listDir(t, f.testDir), "no template on failure")
	})

	t.Run("classpath flag without value", func(t *testing.T) {
		resp := f.builder.Build(&domain.BuildCommandRequest{
			ExecutionMode: domain.ExecMode{Command: "java", Option: "org.testng.TestNG -cp"},
			TestScript:    domain.TestScript{TestDirectory: f.testDir},
		})
		assert.True(t, resp.HasError())
	})

	t.Run("missing mode", func(t *testing.T) {
		resp := f.builder.Build(&domain.BuildCommandRequest{})
		assert.True(t, resp.HasError())
		resp = f.builder.Build(nil)
		assert.True(t, resp.HasError())
	})
}

type gradleMode struct{ domain.ExecMode }

func (gradleMode) ModeID() string { return "gradle" }

func TestBuilder_UnsupportedMode(t *testing.T) {
	f := newFixture(t, true)
	resp := f.builder.Build(&domain.BuildCommandRequest{
		ExecutionMode: gradleMode{},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
	})
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "build gradle command")
	assert.Empty(t, listDir(t, f.testDir))
}

func writeLauncher(t *testing.T, home, name string) string {
	t.Helper()
	path := filepath.Join(home, "bin", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestBuilder_AntEndToEnd(t *testing.T) {
	f := newFixture(t, true)
	home := t.TempDir()
	ant := writeLauncher(t, home, "ant")

	req := &domain.BuildCommandRequest{
		ExecutionMode: domain.AntMode{BuildFile: "build.xml", Target: "test", Home: home},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
		Materials:     []string{"com.acme.A"},
	}
	resp := f.builder.Build(req)
	require.Empty(t, resp.Errors)

	assert.Equal(t, TaskAnt, resp.Task)
	assert.Equal(t, ant, resp.Command)
	assert.Equal(t, 1, strings.Count(resp.Option, "-Dbuild.sysclasspath=first"))
	assert.Equal(t, 1, strings.Count(resp.Option, `-lib "`+f.collector+`"`))
	assert.Equal(t, `-lib "`+f.collector+`" -Dbuild.sysclasspath=first`, resp.Option)
	assert.Equal(t, map[string]string{AttrBuildFile: "build.xml", AttrTarget: "test"}, resp.TaskAttributes)
	assert.Nil(t, resp.TaskEnvironmentVariables)
	assert.Empty(t, listDir(t, f.testDir), "ant without template writes nothing")
}

func TestBuilder_AntOptions(t *testing.T) {
	f := newFixture(t, true)

	t.Run("user sysclasspath kept", func(t *testing.T) {
		resp := f.builder.Build(&domain.BuildCommandRequest{
			ExecutionMode: domain.AntMode{Option: "-Dbuild.sysclasspath=last -v"},
			TestScript:    domain.TestScript{TestDirectory: f.testDir},
		})
		require.Empty(t, resp.Errors)
		assert.Equal(t, `-Dbuild.sysclasspath=last -v -lib "`+f.collector+`"`, resp.Option)
		assert.Equal(t, "ant", resp.Command)
	})

	t.Run("template is prepared", func(t *testing.T) {
		resp := f.builder.Build(&domain.BuildCommandRequest{
			ExecutionMode: domain.AntMode{Template: "testng.xml"},
			TestScript:    domain.TestScript{TestDirectory: f.testDir},
			Materials:     []string{"com.acme.A#m"},
		})
		require.Empty(t, resp.Errors)
		assert.Contains(t, readFile(t, filepath.Join(f.testDir, "testng.xml")), `<include name="m"/>`)
	})
}

func TestBuilder_ResolveTool(t *testing.T) {
	f := newFixture(t, true)

	t.Run("windows prefers bat then cmd", func(t *testing.T) {
		f.cfg.TargetOS = "windows"
		defer func() { f.cfg.TargetOS = "linux" }()

		home := t.TempDir()
		writeLauncher(t, home, "ant")
		cmd := writeLauncher(t, home, "ant.cmd")
		assert.Equal(t, cmd, f.builder.resolveTool(home, "ant"))

		bat := writeLauncher(t, home, "ant.bat")
		assert.Equal(t, bat, f.builder.resolveTool(home, "ant"))
	})

	t.Run("launchers ignored off windows", func(t *testing.T) {
		home := t.TempDir()
		writeLauncher(t, home, "mvn.cmd")
		assert.Equal(t, "mvn", f.builder.resolveTool(home, "mvn"))
	})

	t.Run("no home", func(t *testing.T) {
		assert.Equal(t, "mvn", f.builder.resolveTool("", "mvn"))
	})

	t.Run("not executable", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("no exec bit on windows")
		}
		home := t.TempDir()
		path := writeLauncher(t, home, "ant")
		require.NoError(t, os.Chmod(path, 0644))
		assert.Equal(t, "ant", f.builder.resolveTool(home, "ant"))
	})
}

func TestBuilder_Maven(t *testing.T) {
	f := newFixture(t, true)
	build := func(option string) domain.CommandResponse {
		t.Helper()
		resp := f.builder.Build(&domain.BuildCommandRequest{
			ExecutionMode: domain.MavenMode{PomFile: "pom.xml", Goal: "test", Option: option},
			TestScript:    domain.TestScript{TestDirectory: f.testDir},
		})
		require.Empty(t, resp.Errors)
		return resp
	}

	t.Run("default option", func(t *testing.T) {
		resp := build("")
		assert.Equal(t, TaskMaven, resp.Task)
		assert.Equal(t, "mvn", resp.Command)
		assert.Equal(t, `-fn -Dmaven.test.additionalClasspath="`+f.collector+`"`, resp.Option)
		assert.Equal(t, map[string]string{AttrBuildFile: "pom.xml", AttrTarget: "test"}, resp.TaskAttributes)
	})

	t.Run("fail never added", func(t *testing.T) {
		resp := build("-X")
		assert.Equal(t, `-X -fn -Dmaven.test.additionalClasspath="`+f.collector+`"`, resp.Option)
	})

	t.Run("collector spliced in front", func(t *testing.T) {
		resp := build("-fn -Dmaven.test.additionalClasspath=/extra/a.jar")
		assert.Equal(t, "-fn -Dmaven.test.additionalClasspath="+f.collector+":/extra/a.jar", resp.Option)
	})

	t.Run("fail never not duplicated", func(t *testing.T) {
		resp := build("-fn -q")
		assert.Equal(t, 1, strings.Count(resp.Option, "-fn"))
	})

	t.Run("home", func(t *testing.T) {
		home := t.TempDir()
		mvn := writeLauncher(t, home, "mvn")
		resp := f.builder.Build(&domain.BuildCommandRequest{
			ExecutionMode: domain.MavenMode{Home: home},
			TestScript:    domain.TestScript{TestDirectory: f.testDir},
		})
		assert.Equal(t, mvn, resp.Command)
	})
}

func TestBuilder_MissingCollector(t *testing.T) {
	f := newFixture(t, false)

	resp := f.builder.Build(&domain.BuildCommandRequest{
		ExecutionMode: domain.MavenMode{},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
	})
	assert.Equal(t, "-fn", resp.Option)

	resp = f.builder.Build(&domain.BuildCommandRequest{
		ExecutionMode: domain.AntMode{},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
	})
	assert.Equal(t, "-Dbuild.sysclasspath=first", resp.Option)

	resp = f.builder.Build(&domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java"},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
	})
	want := []string{"-classpath", ".", "org.testng.TestNG", filepath.Join(f.testDir, "run-1.xml")}
	if diff := cmp.Diff(want, optionTokens(t, resp.Option)); diff != "" {
		t.Errorf("option mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_ResolveTemplate(t *testing.T) {
	f := newFixture(t, true)
	existing := filepath.Join(f.testDir, "existing.xml")
	require.NoError(t, os.WriteFile(existing, nil, 0644))
	script := domain.TestScript{TestDirectory: f.testDir}

	tests := []struct {
		name string
		mode domain.ExecutionMode
		env  map[string]string
		want TemplateRef
		ok   bool
	}{
		{
			name: "existing path as given",
			mode: domain.AntMode{Template: existing},
			want: TemplateRef{Path: existing},
			ok:   true,
		},
		{
			name: "relative to test directory",
			mode: domain.MavenMode{Template: "suites/new.xml"},
			want: TemplateRef{Path: filepath.Join(f.testDir, "suites", "new.xml")},
			ok:   true,
		},
		{
			name: "announced transient template",
			mode: domain.ExecMode{Command: "java"},
			env:  map[string]string{EnvTemplateFile: existing, EnvDeleteTemplate: "true"},
			want: TemplateRef{Path: existing, Transient: true},
			ok:   true,
		},
		{
			name: "invented for exec",
			mode: domain.ExecMode{Command: "java"},
			want: TemplateRef{Path: filepath.Join(f.testDir, "run-1.xml"), Transient: true},
			ok:   true,
		},
		{
			name: "none for ant",
			mode: domain.AntMode{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &domain.BuildCommandRequest{ExecutionMode: tt.mode, TestScript: script}
			got, ok := f.builder.ResolveTemplate(req, tt.env)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.mode, req.ExecutionMode)
		})
	}
	assert.Equal(t, []string{"existing.xml"}, listDir(t, f.testDir))
}

func TestBuilder_CleanupWithoutTemplate(t *testing.T) {
	f := newFixture(t, true)
	req := &domain.BuildCommandRequest{
		ExecutionMode: domain.ExecMode{Command: "java"},
		TestScript:    domain.TestScript{TestDirectory: f.testDir},
	}
	f.builder.Cleanup(req, nil)
	f.builder.Cleanup(nil, nil)
	assert.Empty(t, listDir(t, f.testDir))
}
