package commands

import (
	"log/slog"
	"os"

	"ngorch/internal/cli"
	"ngorch/internal/command"
	"ngorch/internal/config"
	"ngorch/internal/logging"
	"ngorch/internal/storage"
	"ngorch/internal/suite"
	"ngorch/internal/ui"

	"github.com/spf13/cobra"
)

// Commands holds all CLI commands
type Commands struct {
	Scan    *ScanCommand
	Build   *BuildCommand
	Cleanup *CleanupCommand
	Synth   *SynthCommand

	level *slog.LevelVar
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	// Initialize dependencies
	level := new(slog.LevelVar)
	logger := logging.NewLeveled(os.Stderr, level)
	synth := suite.NewSynthesizer(logger)
	store := storage.NewFileTemplateStore(logger)
	builder := command.NewBuilder(cfg, synth, store, logger)
	formatter := ui.NewFormatter(os.Stdout)

	return &Commands{
		Scan:    NewScanCommand(cfg, logger, formatter),
		Build:   NewBuildCommand(cfg, builder, formatter),
		Cleanup: NewCleanupCommand(cfg, builder),
		Synth:   NewSynthCommand(cfg, synth, formatter),
		level:   level,
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.UserDirectory, "user-dir", "", "Directory holding the log collector lib path (default: working directory)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	// Update config with flags after parsing
	loadConfig := func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flags.ToConfigFlags(args))
		if err != nil {
			return err
		}
		*cfg = *loaded
		c.level.Set(logging.ParseLevel(cfg.LogLevel))
		return nil
	}

	// Scan command
	scanCmd := &cobra.Command{
		Use:     "scan",
		Short:   "Discover TestNG tests in compiled classes",
		Long:    "Scan a compiled test tree (and optionally its jars) for classes carrying the TestNG marker annotation",
		Args:    cobra.NoArgs,
		RunE:    c.Scan.Execute,
		PreRunE: loadConfig,
	}
	scanCmd.Flags().StringVarP(&flags.TestDirectory, "test-dir", "t", ".", "Root of the compiled test classes")
	scanCmd.Flags().StringVar(&flags.IncludePattern, "include", "", "Comma separated include globs (e.g. '**/*Test.class,suites/*.xml')")
	scanCmd.Flags().StringVar(&flags.ExcludePattern, "exclude", "", "Comma separated exclude globs")
	scanCmd.Flags().StringVarP(&flags.LibraryDir, "lib-dir", "l", "", "Comma separated library directories, relative to the test directory")
	scanCmd.Flags().BoolVar(&flags.ScanLibraries, "scan-libs", false, "Also scan the jars under the library directories")
	scanCmd.Flags().BoolVarP(&flags.ShowSteps, "steps", "s", false, "List test steps under each class")
	scanCmd.Flags().BoolVarP(&flags.Interactive, "interactive", "i", false, "Pick a selection in an interactive browser")
	scanCmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the test cases as JSON")
	scanCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write the JSON result (or the interactive selection) to this file")
	rootCmd.AddCommand(scanCmd)

	// Build command
	buildCmd := &cobra.Command{
		Use:     "build",
		Short:   "Build the command that runs a selection",
		Long:    "Read a build command request, prepare its suite template and print the resulting command",
		Args:    cobra.NoArgs,
		RunE:    c.Build.Execute,
		PreRunE: loadConfig,
	}
	buildCmd.Flags().StringVarP(&flags.RequestFile, "request", "r", "", "JSON build command request")
	buildCmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the response as JSON")
	buildCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write the JSON response to this file")
	_ = buildCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(buildCmd)

	// Cleanup command
	cleanupCmd := &cobra.Command{
		Use:     "cleanup",
		Short:   "Restore the suite template after a run",
		Long:    "Read a cleanup request (command request plus the environment returned by build) and restore or remove its template",
		Args:    cobra.NoArgs,
		RunE:    c.Cleanup.Execute,
		PreRunE: loadConfig,
	}
	cleanupCmd.Flags().StringVarP(&flags.RequestFile, "request", "r", "", "JSON cleanup request")
	_ = cleanupCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(cleanupCmd)

	// Synth command
	synthCmd := &cobra.Command{
		Use:     "synth [content...]",
		Short:   "Write a TestNG suite for a selection",
		Long:    "Generate a suite for the given class or class#method identifiers, or merge them into an existing suite",
		Args:    cobra.MinimumNArgs(1),
		RunE:    c.Synth.Execute,
		PreRunE: loadConfig,
	}
	synthCmd.Flags().StringVarP(&flags.Existing, "existing", "e", "", "Existing suite to merge the selection into")
	synthCmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "d", ".", "Directory for the written suite")
	synthCmd.Flags().BoolVar(&flags.KeepRestrictions, "keep-restrictions", false, "Only drop unselected classes, keep other include/exclude elements")
	rootCmd.AddCommand(synthCmd)
}
