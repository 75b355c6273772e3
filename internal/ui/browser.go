package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ngorch/internal/domain"
)

// TestBrowser shows scanned test classes in an interactive TUI and lets the
// user build a selection from them.
type TestBrowser struct {
	// save is called with the current selection after every change.
	save func(domain.SelectionSet) error
}

var _ Viewer = (*TestBrowser)(nil)

// NewTestBrowser creates a TestBrowser. save may be nil.
func NewTestBrowser(save func(domain.SelectionSet) error) *TestBrowser {
	return &TestBrowser{save: save}
}

// Browse runs the TUI until the user quits and returns the selection
func (b *TestBrowser) Browse(cases []domain.TestCase) (domain.SelectionSet, error) {
	selection := domain.NewSelectionSet()
	if len(cases) == 0 {
		return selection, nil
	}

	var saveErr error
	persist := func() {
		if b.save != nil {
			if err := b.save(selection); err != nil {
				saveErr = err
			}
		}
	}

	app := tview.NewApplication()

	classes := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	steps := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	for _, list := range []*tview.List{classes, steps} {
		list.SetMainTextColor(tview.Styles.PrimaryTextColor).
			SetSelectedTextColor(tcell.ColorWhite).
			SetSelectedBackgroundColor(tcell.ColorDarkCyan)
	}

	for i := range cases {
		classes.AddItem(classItemText(cases[i], selection), "", 0, nil)
	}

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	updateHeader := func() {
		headerView.SetText(fmt.Sprintf(
			" Test Classes (%d total, %d selected) | ↑↓ navigate, [yellow]Space[white] select, → steps, ← back, [yellow]Q[white] done ",
			len(cases), len(selection)))
	}

	updateSteps := func() {
		index := classes.GetCurrentItem()
		if index < 0 || index >= len(cases) {
			return
		}
		tc := cases[index]
		statsView.SetText(formatClassStats(tc))

		current := steps.GetCurrentItem()
		steps.Clear()
		for _, step := range tc.TestSteps {
			steps.AddItem(stepItemText(tc, step, selection), "", 0, nil)
		}
		if current < steps.GetItemCount() {
			steps.SetCurrentItem(current)
		}
	}

	toggleClass := func() {
		index := classes.GetCurrentItem()
		if index < 0 || index >= len(cases) {
			return
		}
		tc := cases[index]
		if selection.Contains(tc.Content) {
			delete(selection, tc.Content)
		} else {
			selection.Add(tc.Content)
			for _, step := range tc.TestSteps {
				delete(selection, stepContent(tc, step))
			}
		}
		classes.SetItemText(index, classItemText(tc, selection), "")
		updateSteps()
		updateHeader()
		persist()
	}

	toggleStep := func() {
		index := classes.GetCurrentItem()
		stepIndex := steps.GetCurrentItem()
		if index < 0 || index >= len(cases) || stepIndex < 0 || stepIndex >= len(cases[index].TestSteps) {
			return
		}
		tc := cases[index]
		id := stepContent(tc, tc.TestSteps[stepIndex])
		if selection.Contains(id) {
			delete(selection, id)
		} else {
			selection.Add(id)
			delete(selection, tc.Content)
		}
		classes.SetItemText(index, classItemText(tc, selection), "")
		updateSteps()
		updateHeader()
		persist()
	}

	classes.SetChangedFunc(func(int, string, string, rune) {
		steps.SetCurrentItem(0)
		updateSteps()
	})

	classes.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(steps)
			return nil
		case tcell.KeyCtrlC, tcell.KeyEsc:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				toggleClass()
				return nil
			case 'q', 'Q':
				app.Stop()
				return nil
			}
		}
		return event
	})

	steps.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(classes)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				toggleStep()
				return nil
			case 'q', 'Q':
				app.Stop()
				return nil
			}
		}
		return event
	})

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(steps, 0, 1, false)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(classes, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(body, 0, 1, true)

	updateHeader()
	updateSteps()

	if err := app.SetRoot(mainLayout, true).SetFocus(classes).Run(); err != nil {
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}
	if saveErr != nil {
		return selection, fmt.Errorf("save selection: %w", saveErr)
	}
	return selection, nil
}

func stepContent(tc domain.TestCase, step domain.TestStep) string {
	return tc.Content + domain.MethodSeparator + step.Name
}

// classItemText marks a class as fully [✓] or partly [~] selected.
func classItemText(tc domain.TestCase, selection domain.SelectionSet) string {
	name := tview.Escape(tc.Name)
	if selection.Contains(tc.Content) {
		return "[green]✓[white] " + name
	}
	for _, step := range tc.TestSteps {
		if selection.Contains(stepContent(tc, step)) {
			return "[yellow]~[white] " + name
		}
	}
	return "  " + name
}

func stepItemText(tc domain.TestCase, step domain.TestStep, selection domain.SelectionSet) string {
	name := tview.Escape(step.Name)
	if selection.Contains(tc.Content) || selection.Contains(stepContent(tc, step)) {
		return "[green]✓[white] " + name
	}
	return "  " + name
}

// formatClassStats formats the header above the steps of a class
func formatClassStats(tc domain.TestCase) string {
	var b strings.Builder
	pkg := tc.PackageName
	if pkg == "" {
		pkg = "(default package)"
	}
	fmt.Fprintf(&b, "[cyan]package:[white] [yellow]%s[white]\n", tview.Escape(pkg))
	fmt.Fprintf(&b, "[cyan]class:[white] [yellow]%s[white] (%d steps)\n", tview.Escape(tc.ClassName), len(tc.TestSteps))
	return b.String()
}
