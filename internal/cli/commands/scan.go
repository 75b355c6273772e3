package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ngorch/internal/config"
	"ngorch/internal/discovery"
	"ngorch/internal/domain"
	"ngorch/internal/storage"
	"ngorch/internal/ui"
)

// ScanCommand handles the scan command
type ScanCommand struct {
	config    *config.Config
	logger    *slog.Logger
	formatter *ui.Formatter
}

// NewScanCommand creates a new ScanCommand
func NewScanCommand(cfg *config.Config, logger *slog.Logger, formatter *ui.Formatter) *ScanCommand {
	return &ScanCommand{
		config:    cfg,
		logger:    logger,
		formatter: formatter,
	}
}

// Execute runs the command
func (sc *ScanCommand) Execute(cmd *cobra.Command, args []string) error {
	flags := sc.config.Flags

	scanner := discovery.NewScanner(sc.config.MarkerAnnotation, sc.logger)
	defer scanner.Close()
	if !flags.JSON && !flags.Interactive {
		scanner.SetProgress(ui.NewProgressBar(os.Stderr))
	}

	cases, err := scanner.Scan(flags.TestDirectory, flags.IncludePattern, flags.ExcludePattern, flags.LibraryDir, flags.ScanLibraries)
	if err != nil {
		return err
	}

	switch {
	case flags.JSON:
		if flags.Output != "" {
			if err := storage.SaveJSON(flags.Output, cases); err != nil {
				return err
			}
			sc.formatter.PrintPath("Test cases", flags.Output)
			return nil
		}
		return storage.WriteJSON(os.Stdout, cases)

	case flags.Interactive:
		var save func(domain.SelectionSet) error
		if flags.Output != "" {
			save = func(selection domain.SelectionSet) error {
				return storage.SaveJSON(flags.Output, selection.Sorted())
			}
		}
		selection, err := ui.NewTestBrowser(save).Browse(cases)
		if err != nil {
			return err
		}
		sc.formatter.PrintSelection(selection)
		return nil
	}

	sc.formatter.PrintTestCases(cases, flags.ShowSteps)
	if len(cases) > 0 {
		sc.formatter.PrintSummary(cases)
	}
	return nil
}
