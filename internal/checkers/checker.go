// Package checkers implements the read-only, deterministic rule-based
// scanners run against a cloned workspace before any model call (§4.5).
package checkers

import "github.com/ternarybob/reviewsvc/internal/model"

// Checker is a pure, deterministic scan of a workspace directory tree.
// Implementations must not mutate the workspace.
type Checker interface {
	Name() string
	Run(root string) ([]model.Diagnostic, error)
}

// Registry returns the checkers in the fixed registration order named in
// §4.5: Linter, CommentChecker, TyposChecker, FormatChecker.
func Registry() []Checker {
	return []Checker{
		&Linter{},
		&CommentChecker{},
		&TyposChecker{},
		&FormatChecker{},
	}
}
