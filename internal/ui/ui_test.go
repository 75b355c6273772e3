package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"ngorch/internal/domain"
)

func init() {
	color.NoColor = true
}

var sampleCases = []domain.TestCase{
	{
		Name: "com.acme.UserTest", ClassName: "UserTest", PackageName: "com.acme", Content: "com.acme.UserTest",
		TestSteps: []domain.TestStep{{Name: "creates"}, {Name: "deletes"}},
	},
	{
		Name: "com.acme.billing.InvoiceTest", ClassName: "InvoiceTest", PackageName: "com.acme.billing", Content: "com.acme.billing.InvoiceTest",
		TestSteps: []domain.TestStep{{Name: "bills"}},
	},
	{
		Name: "RootTest", ClassName: "RootTest", Content: "RootTest",
		TestSteps: []domain.TestStep{{Name: "runs"}},
	},
}

func TestFormatter_PrintTestCases(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).PrintTestCases(sampleCases, true)
	out := buf.String()

	assert.Contains(t, out, "Found 3 test class(es) with 4 test step(s)")
	assert.Contains(t, out, "(default package)")
	assert.Contains(t, out, "└── UserTest (2)")
	assert.Contains(t, out, "    ├── creates")
	assert.Contains(t, out, "    └── deletes")
	assert.Less(t, strings.Index(out, "(default package)"), strings.Index(out, "com.acme\n"))

	buf.Reset()
	NewFormatter(&buf).PrintTestCases(nil, false)
	assert.Contains(t, buf.String(), "No test classes found")
}

func TestFormatter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).PrintSummary(sampleCases)
	out := buf.String()

	assert.Contains(t, out, "com.acme.billing")
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, "TOTAL")
}

func TestFormatter_PrintResponse(t *testing.T) {
	var buf bytes.Buffer
	resp := domain.CommandResponse{Task: "ant", Command: "/opt/ant/bin/ant"}
	resp.AddTaskAttribute("target", "test")
	resp.AddError(errors.New("build ant command: boom"))

	NewFormatter(&buf).PrintResponse(resp)
	out := buf.String()
	assert.Contains(t, out, "/opt/ant/bin/ant")
	assert.Contains(t, out, "attr target")
	assert.Contains(t, out, "✗ build ant command: boom")
}

func TestFormatter_PrintSelection(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(&buf).PrintSelection(domain.NewSelectionSet("b", "a#m"))
	assert.Equal(t, "a#m\nb\n", buf.String())
}

func TestItemText(t *testing.T) {
	tc := sampleCases[0]

	assert.Equal(t, "  com.acme.UserTest", classItemText(tc, domain.NewSelectionSet()))
	assert.Contains(t, classItemText(tc, domain.NewSelectionSet("com.acme.UserTest")), "✓")
	assert.Contains(t, classItemText(tc, domain.NewSelectionSet("com.acme.UserTest#deletes")), "~")

	assert.Contains(t, stepItemText(tc, tc.TestSteps[0], domain.NewSelectionSet("com.acme.UserTest")), "✓")
	assert.Equal(t, "  deletes", stepItemText(tc, tc.TestSteps[1], domain.NewSelectionSet("com.acme.UserTest#creates")))
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf)

	p.Update(1, 1)
	p.Finish()
	assert.Empty(t, buf.String(), "nothing drawn before Start")

	p.Start(2)
	p.Update(1, 0)
	p.Update(2, 1)
	p.Finish()
	assert.Contains(t, buf.String(), "Scanning classes")
}
