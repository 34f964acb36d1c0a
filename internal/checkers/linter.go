package checkers

import "github.com/ternarybob/reviewsvc/internal/model"

// maxLineLength is the column past which Linter flags a line as too long.
const maxLineLength = 120

// Linter flags overly long lines, a cheap proxy for the kind of thing a
// real linter catches without depending on any language toolchain.
type Linter struct{}

func (l *Linter) Name() string { return "linter" }

func (l *Linter) Run(root string) ([]model.Diagnostic, error) {
	var diags []model.Diagnostic
	err := walkTextFiles(root, func(relPath string, lines []string) {
		for i, line := range lines {
			if len(line) > maxLineLength {
				diags = append(diags, model.Diagnostic{
					Checker:  "linter",
					Severity: model.SeverityWarning,
					FilePath: relPath,
					Line:     i + 1,
					Message:  "line exceeds 120 characters",
					Rule:     "line_too_long",
				})
			}
		}
	})
	return diags, err
}
