package checkers

import (
	"strings"

	"github.com/ternarybob/reviewsvc/internal/model"
)

// FormatChecker flags trailing whitespace and mixed tab/space indentation,
// the kind of cosmetic issue a formatter would otherwise silently fix.
type FormatChecker struct{}

func (c *FormatChecker) Name() string { return "format_checker" }

func (c *FormatChecker) Run(root string) ([]model.Diagnostic, error) {
	var diags []model.Diagnostic
	err := walkTextFiles(root, func(relPath string, lines []string) {
		for i, line := range lines {
			trimmed := strings.TrimRight(line, " \t\r")
			if trimmed != line {
				diags = append(diags, model.Diagnostic{
					Checker:  "format_checker",
					Severity: model.SeverityInfo,
					FilePath: relPath,
					Line:     i + 1,
					Message:  "trailing whitespace",
					Rule:     "trailing_whitespace",
				})
				continue
			}
			if strings.HasPrefix(line, " \t") || strings.HasPrefix(line, "\t ") {
				diags = append(diags, model.Diagnostic{
					Checker:  "format_checker",
					Severity: model.SeverityInfo,
					FilePath: relPath,
					Line:     i + 1,
					Message:  "mixed tabs and spaces in indentation",
					Rule:     "mixed_indentation",
				})
			}
		}
	})
	return diags, err
}
