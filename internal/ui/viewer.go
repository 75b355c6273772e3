package ui

import "ngorch/internal/domain"

// Viewer lets a user pick tests from a scan interactively
type Viewer interface {
	Browse(cases []domain.TestCase) (domain.SelectionSet, error)
}
