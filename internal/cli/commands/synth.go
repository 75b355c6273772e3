package commands

import (
	"github.com/spf13/cobra"

	"ngorch/internal/config"
	"ngorch/internal/domain"
	"ngorch/internal/suite"
	"ngorch/internal/ui"
)

// SynthCommand writes a suite document for a selection given on the
// command line
type SynthCommand struct {
	config    *config.Config
	synth     *suite.Synthesizer
	formatter *ui.Formatter
}

// NewSynthCommand creates a new SynthCommand
func NewSynthCommand(cfg *config.Config, synth *suite.Synthesizer, formatter *ui.Formatter) *SynthCommand {
	return &SynthCommand{
		config:    cfg,
		synth:     synth,
		formatter: formatter,
	}
}

// Execute runs the command
func (sc *SynthCommand) Execute(cmd *cobra.Command, args []string) error {
	flags := sc.config.Flags

	policy := suite.StripAllRestrictionsOnRemoval
	if flags.KeepRestrictions {
		policy = suite.KeepRestrictions
	}
	sc.synth.SetPolicy(policy)

	selection := domain.NewSelectionSet(flags.Selection...)

	var (
		path string
		err  error
	)
	if flags.Existing != "" {
		path, err = sc.synth.Merge(selection, flags.Existing, flags.OutputDir)
	} else {
		path, err = sc.synth.Generate(selection, flags.OutputDir)
	}
	if err != nil {
		return err
	}

	sc.formatter.PrintPath("Suite", path)
	return nil
}
