package checkers

import (
	"strings"

	"github.com/ternarybob/reviewsvc/internal/model"
)

// commonTypos maps a handful of frequent misspellings to their correction,
// matched against whole lowercased words (lines are split on every rune
// outside a-z and 0-9) since this runs over both code and prose.
var commonTypos = map[string]string{
	"recieve":    "receive",
	"seperate":   "separate",
	"occured":    "occurred",
	"definately": "definitely",
	"teh":        "the",
	"adress":     "address",
	"wich":       "which",
}

// TyposChecker flags common English misspellings on every line of every
// scanned text file, code and prose alike.
type TyposChecker struct{}

func (c *TyposChecker) Name() string { return "typos_checker" }

func (c *TyposChecker) Run(root string) ([]model.Diagnostic, error) {
	var diags []model.Diagnostic
	err := walkTextFiles(root, func(relPath string, lines []string) {
		for i, line := range lines {
			lower := strings.ToLower(line)
			for _, word := range strings.FieldsFunc(lower, isWordBoundary) {
				if correction, ok := commonTypos[word]; ok {
					diags = append(diags, model.Diagnostic{
						Checker:  "typos_checker",
						Severity: model.SeverityWarning,
						FilePath: relPath,
						Line:     i + 1,
						Message:  "possible typo: \"" + word + "\" (did you mean \"" + correction + "\"?)",
						Rule:     "typo",
					})
				}
			}
		}
	})
	return diags, err
}

func isWordBoundary(r rune) bool {
	return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
}
