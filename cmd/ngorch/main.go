package main

import (
	"fmt"
	"os"

	"ngorch/internal/cli"
	"ngorch/internal/cli/commands"
	"ngorch/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ngorch",
		Short:         "TestNG test orchestrator",
		Long:          `Discover TestNG tests in compiled classes, synthesize suite documents for a selection and build the exec, Ant or Maven command that runs them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags, cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
