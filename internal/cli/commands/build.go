package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ngorch/internal/command"
	"ngorch/internal/config"
	"ngorch/internal/storage"
	"ngorch/internal/ui"
)

// BuildCommand handles the build command
type BuildCommand struct {
	config    *config.Config
	builder   *command.Builder
	formatter *ui.Formatter
}

// NewBuildCommand creates a new BuildCommand
func NewBuildCommand(cfg *config.Config, builder *command.Builder, formatter *ui.Formatter) *BuildCommand {
	return &BuildCommand{
		config:    cfg,
		builder:   builder,
		formatter: formatter,
	}
}

// Execute runs the command
func (bc *BuildCommand) Execute(cmd *cobra.Command, args []string) error {
	flags := bc.config.Flags

	req, err := storage.LoadRequest(flags.RequestFile)
	if err != nil {
		return err
	}

	resp := bc.builder.Build(req)

	if flags.Output != "" {
		if err := storage.SaveJSON(flags.Output, resp); err != nil {
			return err
		}
	}
	if flags.JSON {
		if err := storage.WriteJSON(os.Stdout, resp); err != nil {
			return err
		}
	} else {
		bc.formatter.PrintResponse(resp)
	}

	if resp.HasError() {
		return fmt.Errorf("build failed with %d error(s)", len(resp.Errors))
	}
	return nil
}
