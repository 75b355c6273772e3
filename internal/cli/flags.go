package cli

import "ngorch/internal/config"

// Flags holds command-line flags
type Flags struct {
	ConfigFile    string
	UserDirectory string
	LogLevel      string

	// scan
	TestDirectory  string
	LibraryDir     string
	IncludePattern string
	ExcludePattern string
	ScanLibraries  bool
	ShowSteps      bool
	Interactive    bool

	// build, cleanup
	RequestFile string

	// synth
	Existing         string
	OutputDir        string
	KeepRestrictions bool

	JSON   bool
	Output string
}

// ToConfigFlags converts CLI flags to config flags. Positional arguments
// become the selection.
func (f *Flags) ToConfigFlags(args []string) config.Flags {
	return config.Flags{
		ConfigFile:       f.ConfigFile,
		UserDirectory:    f.UserDirectory,
		LogLevel:         f.LogLevel,
		Interactive:      f.Interactive,
		JSON:             f.JSON,
		ShowSteps:        f.ShowSteps,
		TestDirectory:    f.TestDirectory,
		LibraryDir:       f.LibraryDir,
		IncludePattern:   f.IncludePattern,
		ExcludePattern:   f.ExcludePattern,
		ScanLibraries:    f.ScanLibraries,
		RequestFile:      f.RequestFile,
		Output:           f.Output,
		Existing:         f.Existing,
		OutputDir:        f.OutputDir,
		KeepRestrictions: f.KeepRestrictions,
		Selection:        args,
	}
}
