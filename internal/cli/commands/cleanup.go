package commands

import (
	"github.com/spf13/cobra"

	"ngorch/internal/command"
	"ngorch/internal/config"
	"ngorch/internal/storage"
)

// CleanupCommand restores the suite template a build replaced
type CleanupCommand struct {
	config  *config.Config
	builder *command.Builder
}

// NewCleanupCommand creates a new CleanupCommand
func NewCleanupCommand(cfg *config.Config, builder *command.Builder) *CleanupCommand {
	return &CleanupCommand{
		config:  cfg,
		builder: builder,
	}
}

// Execute runs the command
func (cc *CleanupCommand) Execute(cmd *cobra.Command, args []string) error {
	req, err := storage.LoadCleanup(cc.config.Flags.RequestFile)
	if err != nil {
		return err
	}
	cc.builder.Cleanup(req.CommandRequest, req.Environments)
	return nil
}
