package checkers

import (
	"strings"

	"github.com/ternarybob/reviewsvc/internal/model"
)

var commentMarkers = []string{"TODO", "FIXME", "XXX", "HACK"}

// CommentChecker flags leftover TODO/FIXME-style markers so they surface
// as review diagnostics rather than going unnoticed.
type CommentChecker struct{}

func (c *CommentChecker) Name() string { return "comment_checker" }

func (c *CommentChecker) Run(root string) ([]model.Diagnostic, error) {
	var diags []model.Diagnostic
	err := walkTextFiles(root, func(relPath string, lines []string) {
		for i, line := range lines {
			upper := strings.ToUpper(line)
			for _, marker := range commentMarkers {
				if strings.Contains(upper, marker) {
					diags = append(diags, model.Diagnostic{
						Checker:  "comment_checker",
						Severity: model.SeverityInfo,
						FilePath: relPath,
						Line:     i + 1,
						Message:  "unresolved " + marker + " marker",
						Rule:     "todo_comment",
					})
					break
				}
			}
		}
	})
	return diags, err
}
