package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the orchestrator
type Config struct {
	// UserDirectory anchors the collector lib path. Defaults to the working
	// directory.
	UserDirectory    string `yaml:"user_directory"`
	CollectorLibPath string `yaml:"collector_lib_path"`
	CollectorJarName string `yaml:"collector_jar_name"`

	MarkerAnnotation string `yaml:"marker_annotation"`
	EntryPoint       string `yaml:"entry_point"`

	// TargetOS decides path separators, quoting and which tool launchers
	// are probed. Defaults to runtime.GOOS.
	TargetOS string `yaml:"target_os"`
	LogLevel string `yaml:"log_level"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigFile       string
	UserDirectory    string
	LogLevel         string
	Interactive      bool
	JSON             bool
	ShowSteps        bool
	TestDirectory    string
	LibraryDir       string
	IncludePattern   string
	ExcludePattern   string
	ScanLibraries    bool
	RequestFile      string
	Output           string
	Existing         string
	OutputDir        string
	// KeepRestrictions selects suite.KeepRestrictions for merges.
	KeepRestrictions bool
	Selection        []string
}

// New creates a new Config with defaults
func New() *Config {
	userDir, err := os.Getwd()
	if err != nil {
		userDir = "."
	}
	return &Config{
		UserDirectory:    userDir,
		CollectorLibPath: DefaultCollectorLibPath,
		CollectorJarName: DefaultCollectorJarName,
		MarkerAnnotation: DefaultMarkerAnnotation,
		EntryPoint:       DefaultEntryPoint,
		TargetOS:         runtime.GOOS,
		LogLevel:         DefaultLogLevel,
	}
}

// Load builds the config from defaults, an optional YAML file, the .env file
// in the user directory, the process environment and finally the flags, in
// that order of increasing precedence.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags

	if flags.ConfigFile != "" {
		if err := cfg.LoadFile(flags.ConfigFile); err != nil {
			return nil, err
		}
	}
	if flags.UserDirectory != "" {
		cfg.UserDirectory = flags.UserDirectory
	}

	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(filepath.Join(cfg.UserDirectory, DefaultEnvFile))
	cfg.applyEnv()

	if flags.UserDirectory != "" {
		cfg.UserDirectory = flags.UserDirectory
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into the config. Keys missing from
// the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		EnvUserDirectory:    &c.UserDirectory,
		EnvCollectorLibPath: &c.CollectorLibPath,
		EnvCollectorJarName: &c.CollectorJarName,
		EnvMarkerAnnotation: &c.MarkerAnnotation,
		EnvEntryPoint:       &c.EntryPoint,
		EnvTargetOS:         &c.TargetOS,
		EnvLogLevel:         &c.LogLevel,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

// IsWindows reports whether commands are built for Windows.
func (c *Config) IsWindows() bool {
	return c.TargetOS == "windows"
}

// PathListSeparator returns the classpath separator of the target OS.
func (c *Config) PathListSeparator() string {
	if c.IsWindows() {
		return ";"
	}
	return ":"
}

// GetCollectorPath returns the absolute path of the log collector jar, or an
// empty string when the jar is not installed.
func (c *Config) GetCollectorPath() string {
	p := filepath.Join(c.UserDirectory, c.CollectorLibPath, c.CollectorJarName)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
