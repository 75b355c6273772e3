package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ngorch/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a Formatter writing to out, or stdout when out is nil
func NewFormatter(out io.Writer) *Formatter {
	if out == nil {
		out = os.Stdout
	}
	return &Formatter{out: out}
}

// PrintTestCases prints the test classes grouped by package, optionally
// with their test steps.
func (f *Formatter) PrintTestCases(cases []domain.TestCase, showSteps bool) {
	if len(cases) == 0 {
		fmt.Fprintln(f.out, color.YellowString("No test classes found"))
		return
	}

	steps := 0
	for _, tc := range cases {
		steps += len(tc.TestSteps)
	}
	fmt.Fprintln(f.out, color.GreenString("Found %d test class(es) with %d test step(s):", len(cases), steps))
	fmt.Fprintln(f.out)

	packages, byPackage := groupByPackage(cases)
	for i, pkg := range packages {
		name := pkg
		if name == "" {
			name = "(default package)"
		}
		fmt.Fprintln(f.out, color.CyanString(name))

		classes := byPackage[pkg]
		for j, tc := range classes {
			lastClass := j == len(classes)-1
			branch, indent := "├── ", "│   "
			if lastClass {
				branch, indent = "└── ", "    "
			}
			fmt.Fprintf(f.out, "%s%s %s\n", branch, tc.ClassName, color.HiBlackString("(%d)", len(tc.TestSteps)))

			if !showSteps {
				continue
			}
			for k, step := range tc.TestSteps {
				prefix := indent + "├── "
				if k == len(tc.TestSteps)-1 {
					prefix = indent + "└── "
				}
				fmt.Fprintf(f.out, "%s%s\n", prefix, color.YellowString(step.Name))
			}
		}

		if i < len(packages)-1 {
			fmt.Fprintln(f.out)
		}
	}
}

// PrintSummary prints a per-package table of classes and steps.
func (f *Formatter) PrintSummary(cases []domain.TestCase) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle("Test Discovery")
	t.AppendHeader(table.Row{"Package", "Classes", "Steps"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Classes", Align: text.AlignRight},
		{Name: "Steps", Align: text.AlignRight},
	})

	packages, byPackage := groupByPackage(cases)
	totalSteps := 0
	for _, pkg := range packages {
		steps := 0
		for _, tc := range byPackage[pkg] {
			steps += len(tc.TestSteps)
		}
		totalSteps += steps
		name := pkg
		if name == "" {
			name = "(default)"
		}
		t.AppendRow(table.Row{name, len(byPackage[pkg]), steps})
	}
	t.AppendFooter(table.Row{"Total", len(cases), totalSteps})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// PrintResponse prints a built command and its attributes. Errors are
// listed in red below the table.
func (f *Formatter) PrintResponse(resp domain.CommandResponse) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle("Command")
	t.AppendRow(table.Row{"Task", resp.Task})
	t.AppendRow(table.Row{"Command", resp.Command})
	t.AppendRow(table.Row{"Option", resp.Option})
	t.AppendRow(table.Row{"Working directory", resp.WorkingDirectory})
	for _, k := range sortedKeys(resp.TaskAttributes) {
		t.AppendRow(table.Row{"attr " + k, resp.TaskAttributes[k]})
	}
	for _, k := range sortedKeys(resp.TaskEnvironmentVariables) {
		t.AppendRow(table.Row{"env " + k, resp.TaskEnvironmentVariables[k]})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 100},
	})
	if resp.HasError() {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Render()

	if resp.HasError() {
		fmt.Fprintln(f.out)
		for _, e := range resp.Errors {
			fmt.Fprintln(f.out, color.RedString("✗ %s", e))
		}
	}
}

// PrintPath prints a single generated file path.
func (f *Formatter) PrintPath(label, path string) {
	fmt.Fprintf(f.out, "%s %s\n", color.GreenString("✓ %s:", label), path)
}

// PrintSelection prints selection identifiers one per line.
func (f *Formatter) PrintSelection(selection domain.SelectionSet) {
	fmt.Fprintln(f.out, strings.Join(selection.Sorted(), "\n"))
}

func groupByPackage(cases []domain.TestCase) ([]string, map[string][]domain.TestCase) {
	byPackage := make(map[string][]domain.TestCase)
	for _, tc := range cases {
		byPackage[tc.PackageName] = append(byPackage[tc.PackageName], tc)
	}
	packages := sortedKeys(byPackage)
	for _, pkg := range packages {
		classes := byPackage[pkg]
		sort.Slice(classes, func(i, j int) bool { return classes[i].ClassName < classes[j].ClassName })
	}
	return packages, byPackage
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
