package domain

// TestCase is a class that carries at least one test method.
type TestCase struct {
	Name        string     `json:"name"`         // fully qualified class name
	ClassName   string     `json:"class_name"`   // class name without its package
	PackageName string     `json:"package_name"` // empty for the default package
	TestSteps   []TestStep `json:"test_steps"`   // in class file order
	Content     string     `json:"content"`      // selection identifier
}

// TestStep is a single test method within a TestCase.
type TestStep struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TestScript describes where the compiled tests live and how to pick them.
type TestScript struct {
	TestDirectory    string `json:"test_directory"`
	LibraryDirectory string `json:"library_directory,omitempty"`
	IncludePattern   string `json:"include_pattern,omitempty"`
	ExcludePattern   string `json:"exclude_pattern,omitempty"`
	ScanLibrary      bool   `json:"scan_library,omitempty"`
}
